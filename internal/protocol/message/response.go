package message

import (
	"fmt"

	"github.com/openfints/fints/internal/protocol/codes"
	"github.com/openfints/fints/internal/protocol/segments"
	"github.com/openfints/fints/internal/protocol/wire"
	"github.com/openfints/fints/internal/tan"
)

// Response is one decoded server message.
type Response struct {
	segs []segments.Segment
}

// Parse decodes raw response bytes into typed segments.
func Parse(raw []byte) (*Response, error) {
	chunks, err := wire.SplitMessage(raw)
	if err != nil {
		return nil, err
	}
	resp := &Response{segs: make([]segments.Segment, 0, len(chunks))}
	for _, chunk := range chunks {
		rawSeg, err := wire.SplitSegment(chunk)
		if err != nil {
			return nil, err
		}
		seg, err := segments.Decode(rawSeg)
		if err != nil {
			return nil, err
		}
		resp.segs = append(resp.segs, seg)
	}
	return resp, nil
}

// Segments returns all decoded segments in message order.
func (r *Response) Segments() []segments.Segment {
	return r.segs
}

// FindSegment returns the first segment of the given type, nil if absent.
func (r *Response) FindSegment(name string) segments.Segment {
	for _, seg := range r.segs {
		if seg.Type() == name {
			return seg
		}
	}
	return nil
}

// FindSegments returns every segment of the given type in message order.
func (r *Response) FindSegments(name string) []segments.Segment {
	var out []segments.Segment
	for _, seg := range r.segs {
		if seg.Type() == name {
			out = append(out, seg)
		}
	}
	return out
}

// SegmentMaxVersion returns the highest version of the named segment present
// in the response, 0 when absent. Used during synchronization to learn the
// server's supported versions.
func (r *Response) SegmentMaxVersion(name string) int {
	max := 0
	for _, seg := range r.segs {
		if seg.Type() == name && seg.SegmentVersion() > max {
			max = seg.SegmentVersion()
		}
	}
	return max
}

// ReturnValues collects every return value from the message- and
// segment-level feedback segments, keyed by code. The first occurrence of a
// code wins.
func (r *Response) ReturnValues() map[string]codes.ReturnValue {
	out := make(map[string]codes.ReturnValue)
	for _, value := range r.allReturnValues() {
		if _, ok := out[value.Code]; !ok {
			out[value.Code] = value
		}
	}
	return out
}

func (r *Response) allReturnValues() []codes.ReturnValue {
	var out []codes.ReturnValue
	for _, seg := range r.segs {
		if fb, ok := seg.(*segments.Feedback); ok {
			out = append(out, fb.Values...)
		}
	}
	return out
}

// HasReturnCode reports whether any feedback segment carries the code.
func (r *Response) HasReturnCode(code string) bool {
	for _, value := range r.allReturnValues() {
		if value.Code == code {
			return true
		}
	}
	return false
}

// Success reports whether the response carries no error-category return value.
func (r *Response) Success() bool {
	for _, value := range r.allReturnValues() {
		if value.Error() {
			return false
		}
	}
	return true
}

// Errors formats every error-category return value as "[code] message".
func (r *Response) Errors() []string {
	var out []string
	for _, value := range r.allReturnValues() {
		if value.Error() {
			out = append(out, codes.FormatCode(value.Code, value.Message))
		}
	}
	return out
}

// DialogID returns the dialog identity assigned by the server.
func (r *Response) DialogID() string {
	if seg, ok := r.FindSegment("HNHBK").(*segments.Unknown); ok && seg != nil {
		if len(seg.Data) > 2 && len(seg.Data[2]) > 0 {
			return seg.Data[2][0]
		}
	}
	return ""
}

// SystemID returns the customer system id from the synchronization response.
func (r *Response) SystemID() (string, error) {
	seg, ok := r.FindSegment("HISYN").(*segments.HISYN)
	if !ok || seg == nil {
		return "", fmt.Errorf("message: response carries no synchronization segment")
	}
	return seg.SystemID, nil
}

// Touchdowns pairs pagination markers with the request segment types they
// answer. A feedback value with the more-data code references the request
// segment by number; its first parameter is the touchdown to echo back.
func (r *Response) Touchdowns(req *Request) map[string]string {
	out := make(map[string]string)
	for _, value := range r.allReturnValues() {
		if value.Code != codes.CodeMoreData || len(value.Params) == 0 {
			continue
		}
		name := req.SegmentType(value.Ref)
		if name == "" {
			continue
		}
		out[name] = value.Params[0]
	}
	return out
}

// TanMethods returns the TAN methods the user may use, in the order the
// permitted-procedures feedback lists them, joined with the parameter blocks
// describing each method.
func (r *Response) TanMethods() []tan.Method {
	allowed := r.allowedSecurityFunctions()
	if len(allowed) == 0 {
		return nil
	}
	byFunction := make(map[string]tan.Method)
	for _, seg := range r.FindSegments("HITANS") {
		hitans, ok := seg.(*segments.HITANS)
		if !ok {
			continue
		}
		for _, m := range hitans.Methods {
			if _, dup := byFunction[m.SecurityFunction]; !dup {
				byFunction[m.SecurityFunction] = m
			}
		}
	}
	var out []tan.Method
	for _, fn := range allowed {
		if m, ok := byFunction[fn]; ok {
			out = append(out, m)
		}
	}
	return out
}

func (r *Response) allowedSecurityFunctions() []string {
	for _, value := range r.allReturnValues() {
		if value.Code == codes.CodeTanMethodsAllowed {
			return value.Params
		}
	}
	return nil
}

// PainFormats returns the SEPA schema descriptors the bank supports.
func (r *Response) PainFormats() []string {
	var out []string
	for _, seg := range r.FindSegments("HISPAS") {
		if hispas, ok := seg.(*segments.HISPAS); ok {
			out = append(out, hispas.PainFormats...)
		}
	}
	return out
}
