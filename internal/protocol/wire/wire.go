package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	segmentTerminator = '\''
	groupSeparator    = '+'
	elementSeparator  = ':'
	escapeChar        = '\\'
	binaryMarker      = '@'
)

var (
	ErrTrailingEscape   = errors.New("wire: message ends inside an escape sequence")
	ErrBadBinaryLength  = errors.New("wire: malformed binary length prefix")
	ErrShortBinary      = errors.New("wire: binary field shorter than its declared length")
	ErrMissingHeader    = errors.New("wire: segment has no header group")
	ErrDanglingSegment  = errors.New("wire: trailing bytes after last segment terminator")
	ErrEmptySegmentName = errors.New("wire: segment header has no name")
)

// Header is the leading data-element group of every segment.
type Header struct {
	// Name is the 4-6 letter segment code, e.g. "HNHBK".
	Name string
	// No is the position of the segment within its message.
	No int
	// Version selects the field layout for this segment name.
	Version int
	// Ref optionally references a segment number of the opposite message.
	Ref int
}

// RawSegment is one tokenized segment: its header plus the remaining
// data-element groups with escapes resolved. Binary fields keep their
// @length@ prefix so typed decoders can extract them via ParseBinary.
type RawSegment struct {
	Header Header
	Groups [][]string
}

// SplitMessage cuts raw message bytes into per-segment slices. The scan honors
// backslash escapes and skips @length@ binary regions, so terminators inside
// user data never cut a segment.
func SplitMessage(raw []byte) ([][]byte, error) {
	var out [][]byte
	start := 0
	i := 0
	for i < len(raw) {
		switch raw[i] {
		case escapeChar:
			if i+1 >= len(raw) {
				return nil, ErrTrailingEscape
			}
			i += 2
		case binaryMarker:
			n, err := skipBinary(raw, i)
			if err != nil {
				return nil, err
			}
			i = n
		case segmentTerminator:
			if i > start {
				out = append(out, raw[start:i])
			}
			i++
			start = i
		default:
			i++
		}
	}
	if start != len(raw) {
		return nil, ErrDanglingSegment
	}
	return out, nil
}

// skipBinary advances past a @length@data region starting at raw[i] == '@'.
func skipBinary(raw []byte, i int) (int, error) {
	j := i + 1
	for j < len(raw) && raw[j] >= '0' && raw[j] <= '9' {
		j++
	}
	if j == i+1 || j >= len(raw) || raw[j] != binaryMarker {
		return 0, ErrBadBinaryLength
	}
	length, err := strconv.Atoi(string(raw[i+1 : j]))
	if err != nil {
		return 0, ErrBadBinaryLength
	}
	end := j + 1 + length
	if end > len(raw) {
		return 0, ErrShortBinary
	}
	return end, nil
}

// SplitSegment tokenizes one segment into its header and data-element groups.
func SplitSegment(seg []byte) (RawSegment, error) {
	groups, err := splitLevel(seg, groupSeparator)
	if err != nil {
		return RawSegment{}, err
	}
	if len(groups) == 0 {
		return RawSegment{}, ErrMissingHeader
	}
	elements := make([][]string, 0, len(groups))
	for _, g := range groups {
		parts, err := splitLevel(g, elementSeparator)
		if err != nil {
			return RawSegment{}, err
		}
		fields := make([]string, len(parts))
		for i, p := range parts {
			fields[i] = decodeElement(p)
		}
		elements = append(elements, fields)
	}
	header, err := parseHeader(elements[0])
	if err != nil {
		return RawSegment{}, err
	}
	return RawSegment{Header: header, Groups: elements[1:]}, nil
}

// splitLevel splits on sep while honoring escapes and binary regions.
func splitLevel(data []byte, sep byte) ([][]byte, error) {
	var out [][]byte
	start := 0
	i := 0
	for i < len(data) {
		switch data[i] {
		case escapeChar:
			if i+1 >= len(data) {
				return nil, ErrTrailingEscape
			}
			i += 2
		case binaryMarker:
			n, err := skipBinary(data, i)
			if err != nil {
				return nil, err
			}
			i = n
		case sep:
			out = append(out, data[start:i])
			i++
			start = i
		default:
			i++
		}
	}
	out = append(out, data[start:])
	return out, nil
}

// decodeElement resolves escapes. Binary fields pass through verbatim.
func decodeElement(data []byte) string {
	if len(data) > 0 && data[0] == binaryMarker {
		return string(data)
	}
	if !strings.ContainsRune(string(data), rune(escapeChar)) {
		return string(data)
	}
	var b strings.Builder
	for i := 0; i < len(data); i++ {
		if data[i] == escapeChar && i+1 < len(data) {
			i++
		}
		b.WriteByte(data[i])
	}
	return b.String()
}

func parseHeader(fields []string) (Header, error) {
	if len(fields) < 3 {
		return Header{}, fmt.Errorf("wire: segment header needs name, number, and version, got %d fields", len(fields))
	}
	if fields[0] == "" {
		return Header{}, ErrEmptySegmentName
	}
	no, err := strconv.Atoi(fields[1])
	if err != nil {
		return Header{}, fmt.Errorf("wire: segment number %q: %w", fields[1], err)
	}
	version, err := strconv.Atoi(fields[2])
	if err != nil {
		return Header{}, fmt.Errorf("wire: segment version %q: %w", fields[2], err)
	}
	h := Header{Name: fields[0], No: no, Version: version}
	if len(fields) > 3 && fields[3] != "" {
		ref, err := strconv.Atoi(fields[3])
		if err != nil {
			return Header{}, fmt.Errorf("wire: segment reference %q: %w", fields[3], err)
		}
		h.Ref = ref
	}
	return h, nil
}

// EncodeSegment renders a segment back to wire form, including the trailing
// terminator. Elements are written as-is: escaping and binary prefixing are
// the producer's job via the Format helpers.
func EncodeSegment(seg RawSegment) []byte {
	var b strings.Builder
	b.WriteString(seg.Header.Name)
	b.WriteByte(elementSeparator)
	b.WriteString(strconv.Itoa(seg.Header.No))
	b.WriteByte(elementSeparator)
	b.WriteString(strconv.Itoa(seg.Header.Version))
	if seg.Header.Ref != 0 {
		b.WriteByte(elementSeparator)
		b.WriteString(strconv.Itoa(seg.Header.Ref))
	}
	for _, group := range seg.Groups {
		b.WriteByte(groupSeparator)
		for i, el := range group {
			if i > 0 {
				b.WriteByte(elementSeparator)
			}
			b.WriteString(el)
		}
	}
	b.WriteByte(segmentTerminator)
	return []byte(b.String())
}

// Group returns the nth data-element group or nil when the segment is shorter.
// Trailing empty groups mean "field not present" rather than an error.
func (s RawSegment) Group(n int) []string {
	if n < 0 || n >= len(s.Groups) {
		return nil
	}
	return s.Groups[n]
}

// Element returns element i of group n or "" when absent.
func (s RawSegment) Element(n, i int) string {
	g := s.Group(n)
	if i < 0 || i >= len(g) {
		return ""
	}
	return g[i]
}
