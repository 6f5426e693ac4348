package wire

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Escape prefixes the grammar characters +, :, ', and @ inside user-controlled
// strings with a single backslash.
func Escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '+', ':', '\'', '@', '\\':
			b.WriteByte(escapeChar)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatDate renders a date as YYYYMMDD, zero-padded to four year digits.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%04d%02d%02d", t.Year(), int(t.Month()), t.Day())
}

// FormatTime renders a clock time as HHMMSS. Minutes, not months.
func FormatTime(t time.Time) string {
	return fmt.Sprintf("%02d%02d%02d", t.Hour(), t.Minute(), t.Second())
}

// FormatBool renders J for true and N for false.
func FormatBool(v bool) string {
	if v {
		return "J"
	}
	return "N"
}

// FormatAmount renders a decimal with the comma fractional separator used on
// the wire.
func FormatAmount(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}

// FormatNum renders an integer field.
func FormatNum(n int) string {
	return strconv.Itoa(n)
}

// FormatBinary renders a binary-length-prefixed field: @<byteLength>@<raw>.
// The payload is never escaped; the length covers it byte-exactly.
func FormatBinary(s string) string {
	return "@" + strconv.Itoa(len(s)) + "@" + s
}
