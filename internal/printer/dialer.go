package printer

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/tarm/serial"
)

// Default connection parameters for thermal printers.
const (
	DefaultPort        = 9100
	DefaultBaud        = 9600
	DefaultDialTimeout = 5 * time.Second
)

// Dialer opens a connection to a printer.
type Dialer interface {
	Dial(ctx context.Context) (io.ReadWriteCloser, error)
	Target() string
}

// NetworkDialer connects to a printer's raw TCP port.
type NetworkDialer struct {
	Host    string
	Port    int
	Timeout time.Duration
}

func (d NetworkDialer) Target() string {
	port := d.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(port))
}

func (d NetworkDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = DefaultDialTimeout
	}
	nd := net.Dialer{Timeout: timeout}
	conn, err := nd.DialContext(ctx, "tcp", d.Target())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to network printer: %w", err)
	}
	return conn, nil
}

// SerialDialer opens a serial port.
type SerialDialer struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

func (d SerialDialer) Target() string {
	return d.Device
}

// Dial opens the port. Opening a serial device does not block on the
// remote end, so ctx is only checked up front.
func (d SerialDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	baud := d.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        d.Device,
		Baud:        baud,
		ReadTimeout: d.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}
