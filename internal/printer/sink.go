package printer

import (
	"fmt"
	"io"

	"github.com/hennedo/escpos"
	"golang.org/x/text/encoding"

	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

// Device is a formatting sink that also prints text and controls paper.
type Device interface {
	Align(receiptformat.Align) error
	Font(receiptformat.Font) error
	Size(step int) error
	Bold(bool) error
	Underline(bool) error
	Italic(bool) error

	WriteLine(text string) error
	Beep(count, durationMs int) error
	Cut() error
	Flush() error
}

// EscposSink drives an ESC/POS printer over conn. Text goes through the
// escpos encoder, which prefixes every write with the current style
// (justify, size, bold, underline). Commands it does not cover are written
// raw after flushing it, so byte order is preserved.
type EscposSink struct {
	conn io.ReadWriter
	p    *escpos.Escpos
	enc  *encoding.Encoder
}

// NewEscposSink initializes the printer and selects the code page for cs.
func NewEscposSink(conn io.ReadWriter, cs Charset) (*EscposSink, error) {
	s := &EscposSink{
		conn: conn,
		p:    escpos.New(conn),
		enc:  cs.Encoder(),
	}
	s.p.Size(1, 1)
	if err := s.raw(Initialize()); err != nil {
		return nil, err
	}
	if err := s.raw(SelectCodePage(cs.CodePage)); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *EscposSink) raw(cmd []byte) error {
	if err := s.p.Print(); err != nil {
		return err
	}
	_, err := s.conn.Write(cmd)
	return err
}

func (s *EscposSink) Align(a receiptformat.Align) error {
	switch a {
	case receiptformat.AlignCenter:
		s.p.Justify(1)
	case receiptformat.AlignRight:
		s.p.Justify(2)
	default:
		s.p.Justify(0)
	}
	return nil
}

func (s *EscposSink) Font(f receiptformat.Font) error {
	if f == receiptformat.FontSecondary {
		return s.raw(SelectFont(1))
	}
	return s.raw(SelectFont(0))
}

// Size maps size steps to character magnification: 0 normal, 1 double
// width, 2 double width and height.
func (s *EscposSink) Size(step int) error {
	switch step {
	case 1:
		s.p.Size(2, 1)
	case 2:
		s.p.Size(2, 2)
	default:
		s.p.Size(1, 1)
	}
	return nil
}

func (s *EscposSink) Bold(on bool) error {
	s.p.Bold(on)
	return nil
}

func (s *EscposSink) Underline(on bool) error {
	if on {
		s.p.Underline(1)
	} else {
		s.p.Underline(0)
	}
	return nil
}

// Italic is accepted and ignored; ESC/POS thermal printers have no italic.
func (s *EscposSink) Italic(bool) error {
	return nil
}

// WriteLine encodes text for the printer's code page and ends the line.
func (s *EscposSink) WriteLine(text string) error {
	encoded, err := s.enc.String(text)
	if err != nil {
		return fmt.Errorf("failed to encode text: %w", err)
	}
	_, err = s.p.Write(encoded + "\n")
	return err
}

func (s *EscposSink) Beep(count, durationMs int) error {
	return s.raw(Beep(count, durationMs))
}

func (s *EscposSink) Cut() error {
	if err := s.raw(Feed(3)); err != nil {
		return err
	}
	return s.raw(Cut())
}

func (s *EscposSink) Flush() error {
	return s.p.Print()
}
