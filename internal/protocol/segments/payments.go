package segments

import (
	"github.com/openfints/fints/internal/banking"
	"github.com/openfints/fints/internal/protocol/wire"
)

// HKCCS submits a SEPA credit transfer (pain.001 payload).
type HKCCS struct {
	Account        banking.Account
	PainDescriptor string
	PainMessage    string
}

func (HKCCS) Type() string { return "HKCCS" }
func (HKCCS) Version() int { return 1 }

func (s HKCCS) Groups() [][]string {
	return [][]string{
		sepaAccountGroup(s.Account),
		{wire.Escape(s.PainDescriptor)},
		{wire.FormatBinary(s.PainMessage)},
	}
}

// HKDSE submits a SEPA direct debit (pain.008 payload).
type HKDSE struct {
	Account        banking.Account
	PainDescriptor string
	PainMessage    string
}

func (HKDSE) Type() string { return "HKDSE" }
func (HKDSE) Version() int { return 1 }

func (s HKDSE) Groups() [][]string {
	return [][]string{
		{wire.Escape(s.Account.IBAN), wire.Escape(s.Account.BIC)},
		{wire.Escape(s.PainDescriptor)},
		{wire.FormatBinary(s.PainMessage)},
	}
}

// PaymentAck is the decoded acknowledgement of a payment submission.
type PaymentAck struct {
	Common
	OrderID     string
	ConsentCode string
	OrderStatus string
}

// HICCS acknowledges a credit transfer submission.
type HICCS struct{ PaymentAck }

// HIDSE acknowledges a direct debit submission.
type HIDSE struct{ PaymentAck }

func decodeHICCS(raw wire.RawSegment) (Segment, error) {
	return &HICCS{PaymentAck: decodePaymentAck(raw)}, nil
}

func decodeHIDSE(raw wire.RawSegment) (Segment, error) {
	return &HIDSE{PaymentAck: decodePaymentAck(raw)}, nil
}

func decodePaymentAck(raw wire.RawSegment) PaymentAck {
	return PaymentAck{
		Common:      commonFrom(raw),
		OrderID:     raw.Element(0, 0),
		ConsentCode: raw.Element(1, 0),
		OrderStatus: raw.Element(2, 0),
	}
}
