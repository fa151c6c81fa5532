// Package link is the host side of a fence monitor: it delivers fence.Record
// values from the MCU over a serial port, from a simulated fence, or from a
// monitor running on locally attached hardware.
package link

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"github.com/itohio/fenceline/pkg/fence"
	"github.com/itohio/fenceline/pkg/telemetry"
)

const (
	// DefaultBaudRate matches the firmware.
	DefaultBaudRate = 57600
	// DefaultBufferSize is the default size of the records channel.
	DefaultBufferSize = 100
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
)

// Device is a source of monitor records (real, local or simulated).
type Device interface {
	Connect() error
	Close() error
	// Records is valid after Connect and is closed when the source stops.
	Records() <-chan fence.Record
	IsConnected() bool
}

var (
	_ Device = (*Serial)(nil)
	_ Device = (*Local)(nil)
	_ Device = (*Mock)(nil)
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns the serial ports present on the host.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Serial reads telemetry from the monitor firmware.
type Serial struct {
	port     string
	baudRate int
	bufSize  int
	logger   logrus.FieldLogger

	mu        sync.RWMutex
	conn      serial.Port
	records   chan fence.Record
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
}

// NewSerial creates a Serial for port. Zero baud rate and buffer size select
// the defaults; a nil logger uses the standard logger.
func NewSerial(port string, baudRate, bufSize int, logger logrus.FieldLogger) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		logger:   logger.WithField("port", port),
		records:  make(chan fence.Record),
	}
}

// Connect opens the port and starts decoding records.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}

	conn, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.conn = conn
	d.cancel = cancel
	d.records = make(chan fence.Record, d.bufSize)
	d.done = make(chan struct{})
	d.connected = true

	go func(records chan fence.Record, done chan struct{}) {
		defer close(done)
		defer close(records)
		scan(ctx, conn, records, d.logger)
	}(d.records, d.done)

	d.logger.WithField("baud", d.baudRate).Info("connected")
	return nil
}

// Close closes the port and waits for the reader to stop.
func (d *Serial) Close() error {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return nil
	}
	d.cancel()
	err := d.conn.Close()
	d.conn = nil
	d.connected = false
	done := d.done
	d.mu.Unlock()

	<-done
	if err != nil {
		return fmt.Errorf("close %s: %w", d.port, err)
	}
	return nil
}

// Records returns the channel of decoded records.
func (d *Serial) Records() <-chan fence.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.records
}

// IsConnected returns whether the port is open.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// scan decodes data lines from r until EOF, a read error or ctx is done.
// Human-readable lines are skipped; malformed data lines are logged and
// skipped. Records are dropped when out is full.
func scan(ctx context.Context, r io.Reader, out chan<- fence.Record, logger logrus.FieldLogger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec, err := telemetry.ParseData(line)
		if errors.Is(err, telemetry.ErrNotData) {
			continue
		}
		if err != nil {
			logger.WithError(err).WithField("line", line).Warn("failed to parse record")
			continue
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return
		default:
			logger.WithField("loop", rec.Loop).Warn("records channel full, dropping record")
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("error reading from serial port")
	}
}
