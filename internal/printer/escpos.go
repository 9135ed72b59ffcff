package printer

// ESC/POS control bytes
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	LF  byte = 0x0A
)

// Initialize resets the printer to its power-on state (ESC @).
func Initialize() []byte {
	return []byte{ESC, '@'}
}

// SelectFont selects font A (0) or B (1) (ESC M n).
func SelectFont(n byte) []byte {
	return []byte{ESC, 'M', n}
}

// SelectCodePage selects the character code table (ESC t n).
func SelectCodePage(n byte) []byte {
	return []byte{ESC, 't', n}
}

// Beep sounds the buzzer count times for duration units of 50ms each
// (ESC B n t). Both values are clamped to 1..9.
func Beep(count, durationMs int) []byte {
	return []byte{ESC, 'B', clamp(count, 1, 9), clamp(durationMs/50, 1, 9)}
}

// Feed prints and feeds n lines (ESC d n).
func Feed(n byte) []byte {
	return []byte{ESC, 'd', n}
}

// Cut feeds to the cutter and performs a full cut (GS V 66 0).
func Cut() []byte {
	return []byte{GS, 'V', 66, 0}
}

func clamp(v, lo, hi int) byte {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return byte(v)
}
