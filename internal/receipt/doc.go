// Package receipt holds the pure copra purchase logic shared by the user
// interfaces: the total formula, amount parsing and formatting, receipt
// numbering, field validation, and the fixed-width text rendering sent to
// thermal printers.
//
// Amounts are parsed with ParseAmount, which accepts plain decimals and
// rejects everything else, including values like "NaN" that parse but are
// not finite. Callers validate fields with Validate before computing:
//
//	total := receipt.Total(gross, deduction, unitPrice, fee)
//
// Render produces a 32-column receipt laid out for 58mm thermal paper.
package receipt
