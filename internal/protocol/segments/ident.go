package segments

import "github.com/openfints/fints/internal/protocol/wire"

const countryCode = "280"

// HKIDN identifies the customer at dialog start.
type HKIDN struct {
	BankCode string
	UserID   string
	SystemID string
}

func (HKIDN) Type() string { return "HKIDN" }
func (HKIDN) Version() int { return 2 }

func (s HKIDN) Groups() [][]string {
	return [][]string{
		{countryCode, wire.Escape(s.BankCode)},
		{wire.Escape(s.UserID)},
		{wire.Escape(s.SystemID)},
		{"1"},
	}
}

// HKVVB announces processing preparation: product identity and language.
type HKVVB struct {
	ProductID string
	Lang      int
}

func (HKVVB) Type() string { return "HKVVB" }
func (HKVVB) Version() int { return 3 }

func (s HKVVB) Groups() [][]string {
	return [][]string{
		{"0"},
		{"0"},
		{wire.FormatNum(s.Lang)},
		{wire.Escape(s.ProductID)},
		{"1"},
	}
}

// HKSYN requests a new customer system id during synchronization.
type HKSYN struct{}

func (HKSYN) Type() string       { return "HKSYN" }
func (HKSYN) Version() int       { return 3 }
func (HKSYN) Groups() [][]string { return [][]string{{"0"}} }

// HKEND closes a dialog.
type HKEND struct {
	DialogID string
}

func (HKEND) Type() string { return "HKEND" }
func (HKEND) Version() int { return 1 }

func (s HKEND) Groups() [][]string {
	return [][]string{{wire.Escape(s.DialogID)}}
}

// HISYN carries the server-assigned customer system id.
type HISYN struct {
	Common
	SystemID string
}

func decodeHISYN(raw wire.RawSegment) (Segment, error) {
	return &HISYN{Common: commonFrom(raw), SystemID: raw.Element(0, 0)}, nil
}
