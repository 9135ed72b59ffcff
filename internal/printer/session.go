package printer

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/thereceipt/receipt-templater/internal/errors"
	"github.com/thereceipt/receipt-templater/internal/segment"
	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

// Session defaults.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultCloseDelay = 100 * time.Millisecond
)

// SinkFactory builds the device used to write a document on conn.
type SinkFactory func(conn io.ReadWriter, charset string) (Device, error)

// EscposFactory builds an EscposSink, falling back to the default charset
// for unknown names.
func EscposFactory(conn io.ReadWriter, charset string) (Device, error) {
	cs, ok := CharsetFor(charset)
	if !ok {
		cs, _ = CharsetFor(receiptformat.DefaultEncoding)
	}
	return NewEscposSink(conn, cs)
}

// SessionOptions configures a Session.
type SessionOptions struct {
	// Timeout bounds the whole open, write and close sequence.
	Timeout time.Duration
	// CloseDelay is waited before closing a connection after a failure.
	// Zero closes at once.
	CloseDelay time.Duration
	// Sink builds the device. Defaults to EscposFactory.
	Sink SinkFactory
}

// Session prints documents on one printer, one connection per document.
type Session struct {
	dialer     Dialer
	timeout    time.Duration
	closeDelay time.Duration
	sink       SinkFactory
	logger     zerolog.Logger
}

// NewSession creates a Session.
func NewSession(d Dialer, opts SessionOptions, logger zerolog.Logger) *Session {
	s := &Session{
		dialer:     d,
		timeout:    opts.Timeout,
		closeDelay: opts.CloseDelay,
		sink:       opts.Sink,
		logger:     logger,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.closeDelay < 0 {
		s.closeDelay = 0
	}
	if s.sink == nil {
		s.sink = EscposFactory
	}
	return s
}

// Target describes the printer address.
func (s *Session) Target() string {
	return s.dialer.Target()
}

// Print opens the printer, writes doc and closes the connection. The whole
// sequence is raced against the session timeout. After any failure the
// connection is still closed, and close errors are logged, not returned.
func (s *Session) Print(ctx context.Context, doc *segment.Document) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.run(ctx, doc)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.Newf(errors.Timeout, "print to %s did not finish within %s", s.Target(), s.timeout).
				WithUser("printer.timeout", "Print", s.timeout.Milliseconds())
		}
		return errors.Wrap(ctx.Err(), errors.Transport, "print canceled")
	}
}

func (s *Session) run(ctx context.Context, doc *segment.Document) error {
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		return Classify(err, "open printer "+s.Target())
	}
	s.logger.Debug().Str("target", s.Target()).Msg("Printer connection opened")

	c := &onceCloser{c: conn}
	// Closing unblocks a write stuck past the deadline.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	if err := s.write(conn, doc); err != nil {
		s.cleanup(c)
		return Classify(err, "write to printer "+s.Target())
	}

	if err := c.Close(); err != nil {
		s.logger.Warn().Err(err).Str("target", s.Target()).Msg("Failed to close printer connection")
	}
	s.logger.Debug().Str("target", s.Target()).Msg("Printer connection closed")
	return nil
}

func (s *Session) write(conn io.ReadWriter, doc *segment.Document) error {
	dev, err := s.sink(conn, doc.Global.CharEncoding())
	if err != nil {
		return err
	}
	return WriteDocument(dev, doc)
}

func (s *Session) cleanup(c io.Closer) {
	if s.closeDelay > 0 {
		time.Sleep(s.closeDelay)
	}
	if err := c.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Ignoring close error during cleanup")
	}
}

type onceCloser struct {
	c    io.Closer
	once sync.Once
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() { o.err = o.c.Close() })
	return o.err
}

// Classify wraps an I/O error with a category: transport for failures
// worth retrying (refused, unreachable, timed out, not found), device
// otherwise. Errors that already carry a category keep it.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.CategoryOf(err) != "" {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.Timeout, message)
	}
	if isTransient(err) {
		return errors.Wrap(err, errors.Transport, message)
	}
	return errors.Wrap(err, errors.Device, message)
}

func isTransient(err error) bool {
	for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ENETUNREACH, syscall.EHOSTUNREACH, syscall.ETIMEDOUT} {
		if stderrors.Is(err, errno) {
			return true
		}
	}
	if stderrors.Is(err, os.ErrNotExist) {
		return true
	}
	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
