package prepare

import (
	"strconv"
	"strings"
)

func isWord(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// FormatGrouped separates digit groups of three with a space, counting
// from the end of every digit run. The whole string is treated alike, so a
// fractional part is grouped too: "1234.5678" becomes "1 234.5 678".
func FormatGrouped(s string) string {
	if len(s) < 4 {
		return s
	}

	// run[i] is the length of the digit run starting at i.
	run := make([]int, len(s)+1)
	for i := len(s) - 1; i >= 0; i-- {
		if isDigit(s[i]) {
			run[i] = run[i+1] + 1
		}
	}

	var b strings.Builder
	b.Grow(len(s) + len(s)/3)
	b.WriteByte(s[0])
	for i := 1; i < len(s); i++ {
		if isWord(s[i-1]) == isWord(s[i]) && run[i] > 0 && run[i]%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// FormatNumber renders n in its shortest decimal form.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// FormatAmount groups the shortest decimal form of n.
func FormatAmount(n float64) string {
	return FormatGrouped(FormatNumber(n))
}
