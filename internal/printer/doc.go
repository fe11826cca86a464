// Package printer drives the thermal receipt printer.
//
// A Gateway abstracts the hardware. Serial writes ESC/POS framed text to a
// paired printer's serial port (Bluetooth printers mount as rfcomm ports),
// and Mock records prints in memory for development. The implementation is
// selected once at startup from configuration:
//
//	gw, err := printer.New(printer.ModeSerial, devices, printer.DefaultBaudRate)
//
// Connect to a listed device before printing; PrintText returns
// ErrNotConnected otherwise.
package printer
