package message

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/openfints/fints/internal/protocol/segments"
	"github.com/openfints/fints/internal/protocol/wire"
)

const (
	hbciVersion = "300"
	// lengthDigits is the fixed width of the message-length field in the
	// identification header.
	lengthDigits = 12
	// firstPayloadNo is the number of the first payload segment; 1 and 2 are
	// reserved for the header and signature framing.
	firstPayloadNo = 3
)

var ErrNoSegments = errors.New("message: request needs at least one payload segment")

// BuildParams carries everything the envelope stamps into a request.
type BuildParams struct {
	BankCode string
	UserID   string
	PIN      string
	SystemID string
	DialogID string
	MsgNo    int
	// SecurityFunction is the negotiated TAN method's security function,
	// "999" when single-step.
	SecurityFunction string
	Tan              string
	Segments         []segments.Request
	// Now stamps the signature header; the zero value means the wall clock.
	Now time.Time
}

// Request is a fully rendered request message. It keeps the assigned segment
// numbers so touchdown markers in the response can be traced back to the
// request segment types they answer.
type Request struct {
	Bytes []byte

	typeByNo map[int]string
}

// SegmentType returns the type of the payload segment with the given number.
func (r *Request) SegmentType(no int) string {
	return r.typeByNo[no]
}

// Build wraps the payload segments into a signed, numbered message. Segment
// numbering starts at 3; the signature trailer carries the PIN and, when
// present, the TAN. The dialog id and message number are stamped from the
// caller's current session state.
func Build(p BuildParams) (*Request, error) {
	if len(p.Segments) == 0 {
		return nil, ErrNoSegments
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	secFunction := p.SecurityFunction
	if secFunction == "" {
		secFunction = "999"
	}
	secRef := fmt.Sprintf("%d%04d", p.MsgNo, now.Second()*61)

	var body bytes.Buffer
	typeByNo := make(map[int]string, len(p.Segments))

	body.Write(wire.EncodeSegment(wire.RawSegment{
		Header: wire.Header{Name: "HNSHK", No: 2, Version: 4},
		Groups: [][]string{
			{"PIN", "2"},
			{secFunction},
			{wire.Escape(secRef)},
			{"1"},
			{"1"},
			{"1", "", wire.Escape(p.SystemID)},
			{"1"},
			{"1", wire.FormatDate(now), wire.FormatTime(now)},
			{"1", "999", "1"},
			{"6", "10", "16"},
			{countryCode(), wire.Escape(p.BankCode), wire.Escape(p.UserID), "S", "0", "0"},
		},
	}))

	no := firstPayloadNo
	for _, seg := range p.Segments {
		body.Write(wire.EncodeSegment(wire.RawSegment{
			Header: wire.Header{Name: seg.Type(), No: no, Version: seg.Version()},
			Groups: seg.Groups(),
		}))
		typeByNo[no] = seg.Type()
		no++
	}

	signature := []string{wire.Escape(p.PIN)}
	if p.Tan != "" {
		signature = append(signature, wire.Escape(p.Tan))
	}
	body.Write(wire.EncodeSegment(wire.RawSegment{
		Header: wire.Header{Name: "HNSHA", No: no, Version: 2},
		Groups: [][]string{
			{wire.Escape(secRef)},
			{""},
			signature,
		},
	}))
	no++

	body.Write(wire.EncodeSegment(wire.RawSegment{
		Header: wire.Header{Name: "HNHBS", No: no, Version: 1},
		Groups: [][]string{{wire.FormatNum(p.MsgNo)}},
	}))

	header := func(length int) []byte {
		return wire.EncodeSegment(wire.RawSegment{
			Header: wire.Header{Name: "HNHBK", No: 1, Version: 3},
			Groups: [][]string{
				{fmt.Sprintf("%0*d", lengthDigits, length)},
				{hbciVersion},
				{wire.Escape(p.DialogID)},
				{wire.FormatNum(p.MsgNo)},
			},
		})
	}
	// The length field covers the whole message including the header itself.
	// The header's width is length-independent thanks to the fixed field.
	total := len(header(0)) + body.Len()

	var msg bytes.Buffer
	msg.Write(header(total))
	msg.Write(body.Bytes())
	return &Request{Bytes: msg.Bytes(), typeByNo: typeByNo}, nil
}

func countryCode() string { return "280" }
