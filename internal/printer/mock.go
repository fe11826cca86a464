// ABOUTME: Mock printer gateway for development and tests
// ABOUTME: Records printed text instead of talking to hardware

package printer

import (
	"context"
	"log/slog"
	"sync"
)

// Mock is an in-memory Gateway. It mirrors the serial gateway's connection
// rules so code exercised against it behaves the same on hardware.
type Mock struct {
	mu        sync.Mutex
	connected string
	printed   []string

	devices []Device
	logger  *slog.Logger
}

// Ensure Mock implements Gateway.
var _ Gateway = (*Mock)(nil)

// NewMock creates a mock gateway with one fake paired device.
func NewMock() *Mock {
	return &Mock{
		devices: []Device{{Name: "Mock Thermal Printer", Address: "mock:0"}},
		logger:  slog.Default().With("component", "printer", "mode", "mock"),
	}
}

// ListPairedDevices returns the fake device list.
func (m *Mock) ListPairedDevices(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	devices := make([]Device, len(m.devices))
	copy(devices, m.devices)
	return devices, nil
}

// Connect records the address as connected.
func (m *Mock) Connect(ctx context.Context, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = address
	m.logger.Info("mock printer connected", "address", address)
	return nil
}

// Disconnect clears the connected address. Idempotent.
func (m *Mock) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = ""
	return nil
}

// PrintText records the text block. Fails with ErrNotConnected when no
// Connect preceded it, like the serial gateway.
func (m *Mock) PrintText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected == "" {
		return ErrNotConnected
	}

	m.printed = append(m.printed, text)
	m.logger.Info("mock printer output", "text", text)
	return nil
}

// Printed returns a copy of every text block printed so far.
func (m *Mock) Printed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	printed := make([]string, len(m.printed))
	copy(printed, m.printed)
	return printed
}

// Connected returns the currently connected address, empty when disconnected.
func (m *Mock) Connected() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}
