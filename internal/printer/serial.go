// ABOUTME: Serial implementation of the printer gateway for ESC/POS thermal printers
// ABOUTME: Talks to Bluetooth printers through bound RFCOMM serial ports

package printer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the factory setting of common 58mm thermal printers.
const DefaultBaudRate = 9600

// ESC/POS control sequences.
var (
	escInit = []byte{0x1b, 0x40}       // ESC @: reset formatting
	escFeed = []byte{0x1b, 0x64, 0x04} // ESC d 4: feed four lines before tear-off
)

// frame wraps a text block in the ESC/POS init and feed sequences sent to
// the printer.
func frame(text string) []byte {
	buf := make([]byte, 0, len(escInit)+len(text)+len(escFeed))
	buf = append(buf, escInit...)
	buf = append(buf, text...)
	buf = append(buf, escFeed...)
	return buf
}

// Serial is a Gateway over a serial port. Paired devices come from
// configuration; when none are configured, the system's serial ports are
// offered instead.
type Serial struct {
	mu        sync.Mutex
	port      io.WriteCloser
	connected string // address of the open port, empty when disconnected

	devices  []Device
	baudRate int
	openPort func(address string, baudRate int) (io.WriteCloser, error)
	logger   *slog.Logger
}

// Ensure Serial implements Gateway.
var _ Gateway = (*Serial)(nil)

// NewSerial creates a serial gateway over the given paired devices.
// A baudRate of 0 uses DefaultBaudRate.
func NewSerial(devices []Device, baudRate int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	return &Serial{
		devices:  devices,
		baudRate: baudRate,
		openPort: openSerialPort,
		logger:   slog.Default().With("component", "printer"),
	}
}

func openSerialPort(address string, baudRate int) (io.WriteCloser, error) {
	port, err := serial.Open(address, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", address, err)
	}
	return port, nil
}

// ListPairedDevices returns the configured devices, or the system's serial
// ports when none are configured.
func (s *Serial) ListPairedDevices(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(s.devices) > 0 {
		devices := make([]Device, len(s.devices))
		copy(devices, s.devices)
		return devices, nil
	}

	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}

	devices := make([]Device, 0, len(ports))
	for _, port := range ports {
		devices = append(devices, Device{Name: port, Address: port})
	}
	return devices, nil
}

// Connect opens the serial port at the given address. An existing
// connection is closed first, so switching printers needs no explicit
// Disconnect.
func (s *Serial) Connect(ctx context.Context, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		if err := s.port.Close(); err != nil {
			s.logger.Warn("closing previous connection", "address", s.connected, "error", err)
		}
		s.port = nil
		s.connected = ""
	}

	port, err := s.openPort(address, s.baudRate)
	if err != nil {
		return err
	}

	s.port = port
	s.connected = address
	s.logger.Info("printer connected", "address", address, "baud_rate", s.baudRate)
	return nil
}

// Disconnect closes the open port. Idempotent.
func (s *Serial) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}

	err := s.port.Close()
	s.port = nil
	s.connected = ""
	if err != nil {
		return fmt.Errorf("closing serial port: %w", err)
	}

	s.logger.Info("printer disconnected")
	return nil
}

// PrintText sends a formatted text block to the connected printer.
func (s *Serial) PrintText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return ErrNotConnected
	}

	if _, err := s.port.Write(frame(text)); err != nil {
		return fmt.Errorf("writing to printer: %w", err)
	}

	s.logger.Debug("printed text block", "bytes", len(text))
	return nil
}
