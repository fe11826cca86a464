// ABOUTME: Printer gateway capability: list paired devices, connect, print text
// ABOUTME: Implementation is chosen once at startup, serial hardware or mock

package printer

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConnected is returned when printing without an open connection.
var ErrNotConnected = errors.New("printer not connected")

// Device identifies one paired printer.
type Device struct {
	Name    string
	Address string // serial port path, e.g. /dev/rfcomm0
}

// Gateway is the printing capability the rest of the application talks to.
// Callers pass a fully formatted text block; transport framing is the
// gateway's concern.
type Gateway interface {
	ListPairedDevices(ctx context.Context) ([]Device, error)
	Connect(ctx context.Context, address string) error
	Disconnect() error
	PrintText(ctx context.Context, text string) error
}

// Mode selects the gateway implementation at startup.
type Mode string

const (
	ModeSerial Mode = "serial"
	ModeMock   Mode = "mock"
)

// New returns the gateway for the given mode. An empty mode selects the
// mock, so development setups print to the log instead of hardware.
func New(mode Mode, devices []Device, baudRate int) (Gateway, error) {
	switch mode {
	case ModeSerial:
		return NewSerial(devices, baudRate), nil
	case ModeMock, "":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown printer mode %q", mode)
	}
}
