package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrBadDate = errors.New("wire: date field must be exactly 8 digits")

// ParseBool reads a J/N boolean field.
func ParseBool(s string) bool {
	return s == "J"
}

// ParseAmount reads a comma-separated decimal from the wire into an exact
// decimal value.
func ParseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("wire: amount %q: %w", s, err)
	}
	return d, nil
}

// ParseNum reads an integer field, tolerating leading zeros.
func ParseNum(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("wire: numeric field %q: %w", s, err)
	}
	return n, nil
}

// ParseDate reads a YYYYMMDD field.
func ParseDate(s string) (time.Time, error) {
	if len(s) != 8 {
		return time.Time{}, ErrBadDate
	}
	t, err := time.ParseInLocation("20060102", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("wire: date %q: %w", s, err)
	}
	return t, nil
}

// ParseTime applies a HHMMSS field to the given date.
func ParseTime(date time.Time, s string) (time.Time, error) {
	if len(s) != 6 {
		return date, fmt.Errorf("wire: time field %q must be exactly 6 digits", s)
	}
	h, err := strconv.Atoi(s[0:2])
	if err != nil {
		return date, err
	}
	m, err := strconv.Atoi(s[2:4])
	if err != nil {
		return date, err
	}
	sec, err := strconv.Atoi(s[4:6])
	if err != nil {
		return date, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, sec, 0, time.UTC), nil
}

// ParseBinary extracts the payload of a @length@ field. Non-binary values pass
// through unchanged so decoders can treat the two forms uniformly.
func ParseBinary(s string) (string, error) {
	if s == "" || s[0] != binaryMarker {
		return s, nil
	}
	second := strings.IndexByte(s[1:], binaryMarker)
	if second < 0 {
		return "", ErrBadBinaryLength
	}
	length, err := strconv.Atoi(s[1 : 1+second])
	if err != nil {
		return "", ErrBadBinaryLength
	}
	payload := s[second+2:]
	if len(payload) < length {
		return "", ErrShortBinary
	}
	return payload[:length], nil
}

// ParseChallengeMedia decodes the length-prefixed challenge media blob carried
// by TAN challenges: big-endian uint16 media-type length, media type, uint16
// data length, data.
func ParseChallengeMedia(raw []byte) (mediaType string, data []byte) {
	if len(raw) < 2 {
		return "", nil
	}
	tl := int(binary.BigEndian.Uint16(raw[0:2]))
	if len(raw) < 2+tl+2 {
		return "", nil
	}
	mediaType = string(raw[2 : 2+tl])
	dl := int(binary.BigEndian.Uint16(raw[2+tl : 4+tl]))
	if len(raw) < 4+tl+dl {
		return mediaType, nil
	}
	return mediaType, raw[4+tl : 4+tl+dl]
}
