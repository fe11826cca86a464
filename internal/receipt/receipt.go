// ABOUTME: Pure receipt arithmetic and formatting for the copra trading flow
// ABOUTME: Total computation, peso amount formatting, and receipt number layout

package receipt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NumberPrefix is the fixed prefix every receipt number carries.
const NumberPrefix = "RCT-"

// Total computes the payable amount for a copra purchase:
// (gross - deduction) * unitPrice + transportFee.
//
// The ledger stores whatever total the caller provides; every caller is
// expected to go through this function so the stored value stays consistent
// with the weights on the same record.
func Total(grossWeight, deductionWeight, unitPrice, transportFee float64) float64 {
	return (grossWeight-deductionWeight)*unitPrice + transportFee
}

// FormatAmount renders a monetary or weight value with two decimal places,
// e.g. 8175 -> "8175.00".
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ParseAmount parses a user- or settings-supplied decimal string. Leading and
// trailing whitespace is tolerated; an empty string parses as zero, matching
// how the settings store seeds unset values with "0". Inputs strconv accepts
// but that are not finite numbers ("NaN", "Inf") are rejected: amounts feed
// arithmetic and the ledger, and neither has a use for them.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parsing amount %q: not a finite number", s)
	}
	return v, nil
}

// FormatNumber renders a receipt sequence number as a fixed-width, prefixed
// string: 1 -> "RCT-0001". Sequences past 9999 widen naturally.
func FormatNumber(seq int) string {
	return fmt.Sprintf("%s%04d", NumberPrefix, seq)
}
