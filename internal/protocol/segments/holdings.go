package segments

import (
	"github.com/openfints/fints/internal/banking"
	"github.com/openfints/fints/internal/protocol/wire"
)

// HKWPD requests the holdings of a securities depot.
type HKWPD struct {
	Ver       int
	Account   banking.Account
	Touchdown string
}

func (HKWPD) Type() string   { return "HKWPD" }
func (s HKWPD) Version() int { return s.Ver }

func (s HKWPD) Groups() [][]string {
	groups := [][]string{accountGroup(s.Account, s.Ver)}
	if s.Touchdown != "" {
		// Currency, quality, and maximum-entry slots stay empty; the
		// touchdown is the fifth group.
		groups = append(groups, []string{""}, []string{""}, []string{""}, []string{wire.Escape(s.Touchdown)})
	}
	return groups
}

// HIWPD returns the depot statement as an MT535 text blob.
type HIWPD struct {
	Common
	Holdings string
}

func decodeHIWPD(raw wire.RawSegment) (Segment, error) {
	seg := &HIWPD{Common: commonFrom(raw)}
	holdings, err := wire.ParseBinary(raw.Element(0, 0))
	if err != nil {
		return nil, err
	}
	seg.Holdings = holdings
	return seg, nil
}
