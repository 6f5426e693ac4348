package segments

import (
	"strings"

	"github.com/openfints/fints/internal/protocol/wire"
)

// HISPAS advertises the bank's SEPA capabilities, including the list of
// supported pain schema descriptors at the tail of the parameter group.
type HISPAS struct {
	Common
	PainFormats []string
}

func decodeHISPAS(raw wire.RawSegment) (Segment, error) {
	seg := &HISPAS{Common: commonFrom(raw)}
	if len(raw.Groups) == 0 {
		return seg, nil
	}
	params := raw.Groups[len(raw.Groups)-1]
	for _, p := range params {
		if strings.Contains(p, "pain.") {
			seg.PainFormats = append(seg.PainFormats, p)
		}
	}
	return seg, nil
}
