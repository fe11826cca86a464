// ABOUTME: Renders a stored receipt into the text block sent to the printer
// ABOUTME: Fixed 32-column layout for 58mm thermal paper

package receipt

import (
	"fmt"
	"strings"

	"github.com/niyog/copra-station/internal/store"
)

// Station identifies the trading post on the printed header.
type Station struct {
	Name    string
	Address string
}

const lineWidth = 32

// Render produces the printable text block for a saved receipt. The printer
// gateway receives this string verbatim; transport framing (init, feed) is
// the gateway's concern.
func Render(r store.Receipt, st Station) string {
	var b strings.Builder

	writeCentered(&b, st.Name)
	if st.Address != "" {
		writeCentered(&b, st.Address)
	}
	writeDivider(&b)

	fmt.Fprintf(&b, "%-10s%s\n", "No:", r.Number)
	fmt.Fprintf(&b, "%-10s%s\n", "Date:", r.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "%-10s%s\n", "Customer:", r.CustomerName)
	if r.CustomerAddress != "" {
		fmt.Fprintf(&b, "%-10s%s\n", "Address:", r.CustomerAddress)
	}
	writeDivider(&b)

	writeWeight(&b, "Gross", r.GrossWeight)
	writeWeight(&b, "Deduction", r.DeductionWeight)
	writeWeight(&b, "Net", r.GrossWeight-r.DeductionWeight)
	writeDivider(&b)

	writeAmount(&b, "Price / kg", r.UnitPrice)
	writeAmount(&b, "Transport fee", r.TransportFee)
	writeAmount(&b, "TOTAL", r.Total)
	writeDivider(&b)

	writeCentered(&b, "Thank you!")
	return b.String()
}

func writeDivider(b *strings.Builder) {
	b.WriteString(strings.Repeat("-", lineWidth))
	b.WriteByte('\n')
}

func writeCentered(b *strings.Builder, s string) {
	if pad := (lineWidth - len(s)) / 2; pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(s)
	b.WriteByte('\n')
}

func writeWeight(b *strings.Builder, label string, v float64) {
	fmt.Fprintf(b, "%-13s%16s kg\n", label, FormatAmount(v))
}

func writeAmount(b *strings.Builder, label string, v float64) {
	fmt.Fprintf(b, "%-13s%19s\n", label, FormatAmount(v))
}
