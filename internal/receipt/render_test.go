// ABOUTME: Tests for the printable receipt layout
// ABOUTME: Checks line width, alignment, and field placement

package receipt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niyog/copra-station/internal/store"
)

func spaces(n int) string { return strings.Repeat(" ", n) }

func testReceipt() store.Receipt {
	return store.Receipt{
		ID:              "rcpt-1",
		Number:          "RCT-0042",
		CustomerName:    "Juan Dela Cruz",
		CustomerAddress: "Sitio Looc",
		UnitPrice:       8.5,
		GrossWeight:     1000,
		DeductionWeight: 50,
		TransportFee:    100,
		Total:           8175,
		CreatedAt:       time.Date(2026, 8, 22, 14, 5, 0, 0, time.UTC),
	}
}

func TestRender(t *testing.T) {
	st := Station{Name: "NIYOG COPRA STATION", Address: "Poblacion, Kawayan, Biliran"}
	out := Render(testReceipt(), st)

	require.True(t, strings.HasSuffix(out, "\n"), "render output must end with a newline")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Contains(t, lines[0], "NIYOG COPRA STATION")
	assert.Contains(t, lines[1], "Poblacion, Kawayan, Biliran")

	assert.Contains(t, out, "No:"+spaces(7)+"RCT-0042\n")
	assert.Contains(t, out, "Date:"+spaces(5)+"2026-08-22 14:05\n")
	assert.Contains(t, out, "Customer: Juan Dela Cruz\n")
	assert.Contains(t, out, "Address:  Sitio Looc\n")

	// Weight rows are 13-char labels plus a 16-wide right-aligned value.
	assert.Contains(t, out, "Gross"+spaces(17)+"1000.00 kg\n")
	assert.Contains(t, out, "Deduction"+spaces(15)+"50.00 kg\n")
	assert.Contains(t, out, "Net"+spaces(20)+"950.00 kg\n")

	// Money rows are 13-char labels plus a 19-wide right-aligned value.
	assert.Contains(t, out, "Price / kg"+spaces(18)+"8.50\n")
	assert.Contains(t, out, "Transport fee"+spaces(13)+"100.00\n")
	assert.Contains(t, out, "TOTAL"+spaces(20)+"8175.00\n")

	assert.Contains(t, out, "Thank you!")
}

func TestRenderLineWidth(t *testing.T) {
	st := Station{Name: "NIYOG COPRA STATION", Address: "Poblacion, Kawayan, Biliran"}
	out := Render(testReceipt(), st)

	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.LessOrEqual(t, len(line), 35, "line too wide for 58mm paper: %q", line)
	}
}

func TestRenderOmitsEmptyAddressLines(t *testing.T) {
	r := testReceipt()
	r.CustomerAddress = ""
	out := Render(r, Station{Name: "COPRA STATION"})

	assert.NotContains(t, out, "Address:")
	assert.Equal(t, 1, strings.Count(out, "COPRA STATION"), "station name printed once")
}

func TestRenderDividers(t *testing.T) {
	out := Render(testReceipt(), Station{Name: "COPRA STATION"})
	divider := strings.Repeat("-", 32)
	assert.Equal(t, 4, strings.Count(out, divider+"\n"))
}
