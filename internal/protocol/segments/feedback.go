package segments

import (
	"github.com/openfints/fints/internal/protocol/codes"
	"github.com/openfints/fints/internal/protocol/wire"
)

// Feedback is a HIRMG (message-level) or HIRMS (segment-level) return-code
// segment. Each data-element group carries one return value.
type Feedback struct {
	Common
	Values []codes.ReturnValue
}

func decodeFeedback(raw wire.RawSegment) (Segment, error) {
	fb := &Feedback{Common: commonFrom(raw)}
	for _, group := range raw.Groups {
		if len(group) == 0 || group[0] == "" {
			continue
		}
		rv := codes.ReturnValue{Code: group[0], Ref: raw.Header.Ref}
		if len(group) > 2 {
			rv.Message = group[2]
		}
		if len(group) > 3 {
			rv.Params = append(rv.Params, group[3:]...)
		}
		fb.Values = append(fb.Values, rv)
	}
	return fb, nil
}
