package segments

import (
	"time"

	"github.com/openfints/fints/internal/banking"
	"github.com/openfints/fints/internal/protocol/wire"
)

// HKKAZ requests booked transactions for a date range.
type HKKAZ struct {
	Ver       int
	Account   banking.Account
	StartDate time.Time
	EndDate   time.Time
	Touchdown string
}

func (HKKAZ) Type() string   { return "HKKAZ" }
func (s HKKAZ) Version() int { return s.Ver }

func (s HKKAZ) Groups() [][]string {
	start, end := "", ""
	if !s.StartDate.IsZero() {
		start = wire.FormatDate(s.StartDate)
	}
	if !s.EndDate.IsZero() {
		end = wire.FormatDate(s.EndDate)
	}
	return [][]string{
		accountGroup(s.Account, s.Ver),
		{"N"},
		{start},
		{end},
		{""},
		{wire.Escape(s.Touchdown)},
	}
}

// HIKAZ returns statement data as MT940 text blobs.
type HIKAZ struct {
	Common
	BookedTransactions   string
	UnbookedTransactions string
}

func decodeHIKAZ(raw wire.RawSegment) (Segment, error) {
	seg := &HIKAZ{Common: commonFrom(raw)}
	booked, err := wire.ParseBinary(raw.Element(0, 0))
	if err != nil {
		return nil, err
	}
	seg.BookedTransactions = booked
	unbooked, err := wire.ParseBinary(raw.Element(1, 0))
	if err != nil {
		return nil, err
	}
	seg.UnbookedTransactions = unbooked
	return seg, nil
}
