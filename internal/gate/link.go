package gate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"parking-gate-backend/config"
)

// Direction is a gate travel direction; its string form doubles as the ASCII
// command sent to the actuator.
type Direction string

const (
	DirectionOpen  Direction = "open"
	DirectionClose Direction = "close"
)

// State is the process-local view of the gate, mutated only by inbound
// hardware events.
type State struct {
	Direction Direction `json:"direction"`
	Running   bool      `json:"running"`
}

// ErrDeviceUnavailable is reported when no actuator was discovered; commands
// degrade to no-ops instead of crashing the process.
var ErrDeviceUnavailable = errors.New("gate device not detected")

// Sender pushes one framed command to the actuator.
type Sender interface {
	Send(cmd Direction) error
}

// Link owns the serial channel to the gate actuator. A nil Link (no device
// discovered) is valid: Send reports ErrDeviceUnavailable and Run returns
// immediately.
type Link struct {
	port io.ReadWriteCloser
}

// NewLink wraps an already-open transport. Tests use this with an in-memory
// pipe in place of the serial port.
func NewLink(rw io.ReadWriteCloser) *Link {
	return &Link{port: rw}
}

// Discover scans the serial ports for a device whose USB product id (and
// vendor id, when configured) matches the actuator, and opens it. Returns
// (nil, nil) when no port matches; the gate then runs in the disabled state.
func Discover(cfg config.GateConfig) (*Link, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	for _, p := range ports {
		if !p.IsUSB || !strings.EqualFold(p.PID, cfg.ProductID) {
			continue
		}
		if cfg.VendorID != "" && !strings.EqualFold(p.VID, cfg.VendorID) {
			continue
		}
		port, err := serial.Open(p.Name, &serial.Mode{BaudRate: cfg.BaudRate})
		if err != nil {
			return nil, fmt.Errorf("failed to open gate port %s: %w", p.Name, err)
		}
		log.Printf("gate actuator found on %s (vid=%s pid=%s)", p.Name, p.VID, p.PID)
		return &Link{port: port}, nil
	}
	return nil, nil
}

// Send writes one command frame, terminated with the SUB byte.
func (l *Link) Send(cmd Direction) error {
	if l == nil || l.port == nil {
		return ErrDeviceUnavailable
	}
	if _, err := l.port.Write(append([]byte(cmd), delimiter)); err != nil {
		return fmt.Errorf("gate command write failed: %w", err)
	}
	return nil
}

// Run reads the inbound byte stream, splitting it into frames and handing each
// recognized frame to handle. Returns when the transport closes or the context
// is cancelled.
func (l *Link) Run(ctx context.Context, handle func(Frame)) {
	if l == nil || l.port == nil {
		return
	}
	scanner := bufio.NewScanner(l.port)
	scanner.Split(scanFrames)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if f, ok := parseFrame(scanner.Text()); ok {
			handle(f)
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("gate link read error: %v", err)
	}
}

// Close releases the serial port.
func (l *Link) Close() error {
	if l == nil || l.port == nil {
		return nil
	}
	return l.port.Close()
}
