package segments

import (
	"time"

	"github.com/openfints/fints/internal/protocol/wire"
	"github.com/openfints/fints/internal/tan"
)

// HKTAN drives the two-step TAN procedure. Process "4" announces the order in
// the first step; process "2" references a suspended transaction in the
// second (and in decoupled status checks).
type HKTAN struct {
	Ver              int
	Process          string
	SegmentReference string
	Aref             string
	Medium           string
}

func (HKTAN) Type() string   { return "HKTAN" }
func (s HKTAN) Version() int { return s.Ver }

func (s HKTAN) Groups() [][]string {
	return [][]string{
		{s.Process},
		{wire.Escape(s.SegmentReference)},
		{wire.Escape(s.Aref)},
		{wire.Escape(s.Medium)},
	}
}

// HITAN is the server's TAN challenge.
type HITAN struct {
	Common
	Process              int
	TransactionHash      string
	TransactionReference string
	ChallengeText        string
	ChallengeMediaType   string
	ChallengeMedia       []byte
	ChallengeValidUntil  time.Time
	TanMedium            string
}

func decodeHITAN(raw wire.RawSegment) (Segment, error) {
	if raw.Header.Version != 6 && raw.Header.Version != 7 {
		return nil, unsupportedVersion("HITAN", raw.Header.Version)
	}
	seg := &HITAN{Common: commonFrom(raw)}
	process, err := wire.ParseNum(raw.Element(0, 0))
	if err != nil {
		return nil, err
	}
	seg.Process = process
	seg.TransactionHash = raw.Element(1, 0)
	seg.TransactionReference = raw.Element(2, 0)
	seg.ChallengeText = raw.Element(3, 0)
	if media := raw.Element(4, 0); media != "" {
		payload, err := wire.ParseBinary(media)
		if err != nil {
			return nil, err
		}
		seg.ChallengeMediaType, seg.ChallengeMedia = wire.ParseChallengeMedia([]byte(payload))
	}
	if raw.Header.Version == 7 {
		if dateStr := raw.Element(5, 0); dateStr != "" {
			validUntil, err := wire.ParseDate(dateStr)
			if err != nil {
				return nil, err
			}
			if timeStr := raw.Element(5, 1); timeStr != "" {
				validUntil, err = wire.ParseTime(validUntil, timeStr)
				if err != nil {
					return nil, err
				}
			}
			seg.ChallengeValidUntil = validUntil
		}
		seg.TanMedium = raw.Element(6, 0)
	}
	return seg, nil
}

// HITANS carries the parameter blocks describing every TAN method variant the
// server supports. The final data-element group holds three leading flags
// followed by fixed-width descriptor blocks, one per method.
type HITANS struct {
	Common
	OneStepAllowed bool
	Methods        []tan.Method
}

func decodeHITANS(raw wire.RawSegment) (Segment, error) {
	width, ok := tan.MethodFieldCount(raw.Header.Version)
	if !ok {
		return nil, unsupportedVersion("HITANS", raw.Header.Version)
	}
	seg := &HITANS{Common: commonFrom(raw)}
	if len(raw.Groups) == 0 {
		return seg, nil
	}
	params := raw.Groups[len(raw.Groups)-1]
	if len(params) < 3 {
		return seg, nil
	}
	seg.OneStepAllowed = wire.ParseBool(params[0])
	rest := params[3:]
	for len(rest) >= width {
		method, err := tan.ParseMethod(raw.Header.Version, rest[:width])
		if err != nil {
			return nil, err
		}
		seg.Methods = append(seg.Methods, method)
		rest = rest[width:]
	}
	return seg, nil
}
