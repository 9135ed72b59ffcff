package printer

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereceipt/receipt-templater/internal/errors"
	"github.com/thereceipt/receipt-templater/internal/segment"
	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

func TestCommands(t *testing.T) {
	assert.Equal(t, []byte{ESC, '@'}, Initialize())
	assert.Equal(t, []byte{ESC, 'M', 1}, SelectFont(1))
	assert.Equal(t, []byte{ESC, 't', 17}, SelectCodePage(17))
	assert.Equal(t, []byte{GS, 'V', 66, 0}, Cut())

	tests := []struct {
		count, duration int
		want            []byte
	}{
		{2, 100, []byte{ESC, 'B', 2, 2}},
		{0, 0, []byte{ESC, 'B', 1, 1}},
		{20, 1000, []byte{ESC, 'B', 9, 9}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("beep %d %d", tt.count, tt.duration), func(t *testing.T) {
			assert.Equal(t, tt.want, Beep(tt.count, tt.duration))
		})
	}
}

func TestCharsetFor(t *testing.T) {
	cs, ok := CharsetFor("CP866")
	require.True(t, ok)
	assert.Equal(t, byte(17), cs.CodePage)

	encoded, err := cs.Encoder().String("Чек")
	require.NoError(t, err)
	assert.Equal(t, "\x97\xa5\xaa", encoded)

	_, ok = CharsetFor("utf-16")
	assert.False(t, ok)
}

func TestEscposSink(t *testing.T) {
	var buf bytes.Buffer
	cs, _ := CharsetFor("cp866")

	sink, err := NewEscposSink(&buf, cs)
	require.NoError(t, err)

	require.NoError(t, sink.Align(receiptformat.AlignCenter))
	require.NoError(t, sink.Font(receiptformat.FontSecondary))
	require.NoError(t, sink.Bold(true))
	require.NoError(t, sink.Italic(true))
	require.NoError(t, sink.WriteLine("Чек"))
	require.NoError(t, sink.Cut())
	require.NoError(t, sink.Flush())

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte{ESC, '@', ESC, 't', 17}))
	assert.True(t, bytes.Contains(out, []byte{ESC, 'M', 1}))
	assert.True(t, bytes.Contains(out, []byte("\x97\xa5\xaa\n")))
	assert.True(t, bytes.HasSuffix(out, Cut()))
	assert.Less(t, bytes.Index(out, []byte("\x97\xa5\xaa")), bytes.Index(out, Cut()))
}

func TestEscposSinkStylesPrecedeText(t *testing.T) {
	var buf bytes.Buffer
	cs, _ := CharsetFor("cp866")

	sink, err := NewEscposSink(&buf, cs)
	require.NoError(t, err)

	doc := &segment.Document{
		Outputs: []segment.Output{{
			Text: "TOTAL",
			Directives: receiptformat.Directives{
				Align:     receiptformat.AlignCenter,
				Font:      receiptformat.FontPrimary,
				Size:      2,
				Bold:      true,
				Underline: true,
			},
		}},
	}
	require.NoError(t, WriteDocument(sink, doc))

	out := buf.Bytes()
	text := bytes.Index(out, []byte("TOTAL\n"))
	require.Greater(t, text, 0)

	for name, cmd := range map[string][]byte{
		"justify center": {ESC, 'a', 1},
		"bold on":        {ESC, 'E', 1},
		"underline on":   {ESC, '-', 1},
		"double size":    {GS, '!', 0x11},
	} {
		idx := bytes.Index(out, cmd)
		assert.True(t, idx >= 0 && idx < text, "%s should precede the text", name)
	}
}

func TestEscposSinkDefaultStyle(t *testing.T) {
	var buf bytes.Buffer
	cs, _ := CharsetFor("cp437")

	sink, err := NewEscposSink(&buf, cs)
	require.NoError(t, err)
	require.NoError(t, sink.WriteLine("plain"))
	require.NoError(t, sink.Flush())

	out := buf.Bytes()
	text := bytes.Index(out, []byte("plain\n"))
	require.Greater(t, text, 0)
	assert.Equal(t, text-3, bytes.Index(out, []byte{GS, '!', 0x00}))
}

type fakeDevice struct {
	calls []string
	fail  string
}

func (f *fakeDevice) rec(call string) error {
	f.calls = append(f.calls, call)
	if f.fail != "" && strings.HasPrefix(call, f.fail) {
		return stderrors.New("device error")
	}
	return nil
}

func (f *fakeDevice) Align(a receiptformat.Align) error { return f.rec("align " + string(a)) }
func (f *fakeDevice) Font(fn receiptformat.Font) error  { return f.rec("font " + string(fn)) }
func (f *fakeDevice) Size(n int) error                  { return f.rec(fmt.Sprintf("size %d", n)) }
func (f *fakeDevice) Bold(b bool) error                 { return f.rec(fmt.Sprintf("bold %t", b)) }
func (f *fakeDevice) Underline(b bool) error            { return f.rec(fmt.Sprintf("underline %t", b)) }
func (f *fakeDevice) Italic(b bool) error               { return f.rec(fmt.Sprintf("italic %t", b)) }
func (f *fakeDevice) WriteLine(s string) error          { return f.rec("line " + s) }
func (f *fakeDevice) Beep(c, d int) error               { return f.rec(fmt.Sprintf("beep %d %d", c, d)) }
func (f *fakeDevice) Cut() error                        { return f.rec("cut") }
func (f *fakeDevice) Flush() error                      { return f.rec("flush") }

func (f *fakeDevice) lines() []string {
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, "line ") || c == "cut" || strings.HasPrefix(c, "beep") {
			out = append(out, c)
		}
	}
	return out
}

func testDocument(global *receiptformat.GlobalSettings) *segment.Document {
	return &segment.Document{
		Outputs: []segment.Output{
			{Index: 0, Text: "Receipt #A1", Directives: receiptformat.Directives{Align: receiptformat.AlignCenter, Font: receiptformat.FontPrimary, Bold: true}},
			{Index: 2, Text: "1. Tea\n   2 x 1 500 = 3 000 UZS\n", Directives: receiptformat.DefaultDirectives()},
		},
		Global: global,
	}
}

func TestWriteDocument(t *testing.T) {
	dev := &fakeDevice{}
	require.NoError(t, WriteDocument(dev, testDocument(nil)))

	assert.Equal(t, []string{"align center", "font a", "size 0", "bold true", "underline false", "italic false"}, dev.calls[:6])
	assert.Equal(t, []string{
		"line Receipt #A1",
		"line 1. Tea",
		"line    2 x 1 500 = 3 000 UZS",
		"cut",
	}, dev.lines())
	assert.Equal(t, "flush", dev.calls[len(dev.calls)-1])
}

func TestWriteDocument_GlobalSettings(t *testing.T) {
	cut := false
	dev := &fakeDevice{}
	global := &receiptformat.GlobalSettings{
		Beep:     receiptformat.Beep{Enabled: true, Count: 2, Duration: 100},
		PaperCut: &cut,
	}
	require.NoError(t, WriteDocument(dev, testDocument(global)))

	lines := dev.lines()
	assert.Equal(t, "beep 2 100", lines[len(lines)-1])
	assert.NotContains(t, lines, "cut")
}

func TestWriteDocument_StopsOnError(t *testing.T) {
	dev := &fakeDevice{fail: "line 1. Tea"}
	err := WriteDocument(dev, testDocument(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment 2")
	assert.NotContains(t, dev.calls, "cut")
}

type fakeConn struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	closed   int
	writeErr error
	block    chan struct{}
}

func (c *fakeConn) Read(p []byte) (int, error) { return 0, io.EOF }

func (c *fakeConn) Write(p []byte) (int, error) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	return c.buf.Write(p)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	if c.block != nil {
		select {
		case <-c.block:
		default:
			close(c.block)
		}
	}
	return nil
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeDialer struct {
	conn  *fakeConn
	err   error
	delay time.Duration
}

func (d *fakeDialer) Target() string { return "fake:9100" }

func (d *fakeDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func rawSink(conn io.ReadWriter, charset string) (Device, error) {
	return &writerDevice{w: conn}, nil
}

// writerDevice writes lines verbatim.
type writerDevice struct {
	fakeDevice
	w io.Writer
}

func (d *writerDevice) WriteLine(s string) error {
	_, err := io.WriteString(d.w, s+"\n")
	return err
}

func TestSession_Print(t *testing.T) {
	conn := &fakeConn{}
	s := NewSession(&fakeDialer{conn: conn}, SessionOptions{Timeout: time.Second, Sink: rawSink}, zerolog.Nop())

	require.NoError(t, s.Print(context.Background(), testDocument(nil)))
	assert.Contains(t, conn.buf.String(), "Receipt #A1\n")
	assert.Equal(t, 1, conn.closeCount())
}

func TestSession_PrintEscpos(t *testing.T) {
	conn := &fakeConn{}
	s := NewSession(&fakeDialer{conn: conn}, SessionOptions{Timeout: time.Second}, zerolog.Nop())

	require.NoError(t, s.Print(context.Background(), testDocument(&receiptformat.GlobalSettings{Encoding: "cp866"})))
	out := conn.buf.Bytes()
	assert.True(t, bytes.Contains(out, []byte("Receipt #A1\n")))
	assert.True(t, bytes.HasSuffix(out, Cut()))
}

func TestSession_WriteFailureClosesConnection(t *testing.T) {
	conn := &fakeConn{writeErr: stderrors.New("paper jam")}
	s := NewSession(&fakeDialer{conn: conn}, SessionOptions{Timeout: time.Second, Sink: rawSink}, zerolog.Nop())

	err := s.Print(context.Background(), testDocument(nil))
	require.Error(t, err)
	assert.Equal(t, errors.Device, errors.CategoryOf(err))
	assert.Equal(t, 1, conn.closeCount())
}

func TestSession_DialFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errors.Category
	}{
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, errors.Transport},
		{"unreachable", fmt.Errorf("dial: %w", syscall.ENETUNREACH), errors.Transport},
		{"host not found", &net.DNSError{Err: "no such host", Name: "printer", IsNotFound: true}, errors.Transport},
		{"serial device missing", fmt.Errorf("open: %w", os.ErrNotExist), errors.Transport},
		{"permission", fmt.Errorf("open: %w", os.ErrPermission), errors.Device},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(&fakeDialer{err: tt.err}, SessionOptions{Timeout: time.Second}, zerolog.Nop())
			err := s.Print(context.Background(), testDocument(nil))
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.CategoryOf(err))
		})
	}
}

func TestSession_Timeout(t *testing.T) {
	conn := &fakeConn{block: make(chan struct{})}
	s := NewSession(&fakeDialer{conn: conn}, SessionOptions{Timeout: 50 * time.Millisecond, Sink: rawSink}, zerolog.Nop())

	start := time.Now()
	err := s.Print(context.Background(), testDocument(nil))
	require.Error(t, err)
	assert.Equal(t, errors.Timeout, errors.CategoryOf(err))
	assert.Less(t, time.Since(start), time.Second)

	assert.Eventually(t, func() bool { return conn.closeCount() >= 1 }, time.Second, 10*time.Millisecond)
}

func TestSession_SlowDialTimesOut(t *testing.T) {
	conn := &fakeConn{}
	s := NewSession(&fakeDialer{conn: conn, delay: 200 * time.Millisecond}, SessionOptions{Timeout: 20 * time.Millisecond, Sink: rawSink}, zerolog.Nop())

	err := s.Print(context.Background(), testDocument(nil))
	assert.Equal(t, errors.Timeout, errors.CategoryOf(err))

	// The late connection is still closed once the dial returns.
	assert.Eventually(t, func() bool { return conn.closeCount() >= 1 }, time.Second, 10*time.Millisecond)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil, "x"))

	already := errors.New(errors.Data, "bad")
	assert.Same(t, already, Classify(already, "x"))

	assert.Equal(t, errors.Timeout, errors.CategoryOf(Classify(context.DeadlineExceeded, "x")))
}
