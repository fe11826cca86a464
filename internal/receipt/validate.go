// ABOUTME: Business-rule validation for receipt input fields
// ABOUTME: Enforced by callers before a receipt reaches the store

package receipt

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError describes a receipt field that fails a business rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the operator-supplied receipt fields. The storage layer does
// not repeat these checks; the caller runs them before computing a total.
// Returns the first violation found.
//
// Each numeric field must be a finite number. The range rules below are
// written as exclusions, which NaN slips past (every comparison against NaN
// is false) and +Inf partly does, so finiteness is checked explicitly first.
func Validate(customerName string, grossWeight, deductionWeight, unitPrice, transportFee float64) error {
	if strings.TrimSpace(customerName) == "" {
		return &ValidationError{Field: "customer name", Reason: "must not be empty"}
	}
	if !isFinite(grossWeight) {
		return &ValidationError{Field: "gross weight", Reason: "must be a finite number"}
	}
	if grossWeight <= 0 {
		return &ValidationError{Field: "gross weight", Reason: "must be greater than zero"}
	}
	if !isFinite(deductionWeight) {
		return &ValidationError{Field: "deduction weight", Reason: "must be a finite number"}
	}
	if deductionWeight < 0 {
		return &ValidationError{Field: "deduction weight", Reason: "must not be negative"}
	}
	if deductionWeight > grossWeight {
		return &ValidationError{Field: "deduction weight", Reason: "must not exceed gross weight"}
	}
	if !isFinite(unitPrice) {
		return &ValidationError{Field: "unit price", Reason: "must be a finite number"}
	}
	if unitPrice <= 0 {
		return &ValidationError{Field: "unit price", Reason: "must be greater than zero"}
	}
	if !isFinite(transportFee) {
		return &ValidationError{Field: "transport fee", Reason: "must be a finite number"}
	}
	if transportFee < 0 {
		return &ValidationError{Field: "transport fee", Reason: "must not be negative"}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
