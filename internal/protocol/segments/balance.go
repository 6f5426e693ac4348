package segments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfints/fints/internal/banking"
	"github.com/openfints/fints/internal/protocol/wire"
)

// HKSAL requests the balance of one account.
type HKSAL struct {
	Ver       int
	Account   banking.Account
	Touchdown string
}

func (HKSAL) Type() string   { return "HKSAL" }
func (s HKSAL) Version() int { return s.Ver }

func (s HKSAL) Groups() [][]string {
	groups := [][]string{
		accountGroup(s.Account, s.Ver),
		{"N"},
	}
	if s.Touchdown != "" {
		groups = append(groups, []string{""}, []string{wire.Escape(s.Touchdown)})
	}
	return groups
}

// HISAL reports one account's balances.
type HISAL struct {
	Common
	Account          banking.Account
	ProductName      string
	Currency         string
	BookedBalance    decimal.Decimal
	PendingBalance   decimal.Decimal
	CreditLimit      decimal.Decimal
	AvailableBalance decimal.Decimal
	BookedAt         time.Time
}

func decodeHISAL(raw wire.RawSegment) (Segment, error) {
	seg := &HISAL{Common: commonFrom(raw)}
	account := raw.Group(0)
	if len(account) > 0 {
		seg.Account.AccountNumber = account[0]
	}
	if len(account) > 1 {
		seg.Account.SubAccount = account[1]
	}
	if len(account) > 3 {
		seg.Account.BankCode = account[3]
	}
	seg.ProductName = raw.Element(1, 0)
	seg.Currency = raw.Element(2, 0)

	booked, bookedAt, err := parseBalanceGroup(raw.Group(3))
	if err != nil {
		return nil, err
	}
	seg.BookedBalance = booked
	seg.BookedAt = bookedAt

	pending, _, err := parseBalanceGroup(raw.Group(4))
	if err != nil {
		return nil, err
	}
	seg.PendingBalance = pending

	if v := raw.Element(5, 0); v != "" {
		limit, err := wire.ParseAmount(v)
		if err != nil {
			return nil, err
		}
		seg.CreditLimit = limit
	}
	if v := raw.Element(6, 0); v != "" {
		available, err := wire.ParseAmount(v)
		if err != nil {
			return nil, err
		}
		seg.AvailableBalance = available
	}
	return seg, nil
}

// parseBalanceGroup reads a credit/debit:amount:currency:date:time group.
// Debit balances come back negative.
func parseBalanceGroup(group []string) (decimal.Decimal, time.Time, error) {
	if len(group) < 2 || group[1] == "" {
		return decimal.Zero, time.Time{}, nil
	}
	amount, err := wire.ParseAmount(group[1])
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	if group[0] == "D" {
		amount = amount.Neg()
	}
	var at time.Time
	if len(group) > 3 && group[3] != "" {
		at, err = wire.ParseDate(group[3])
		if err != nil {
			return decimal.Zero, time.Time{}, err
		}
		if len(group) > 4 && group[4] != "" {
			at, err = wire.ParseTime(at, group[4])
			if err != nil {
				return decimal.Zero, time.Time{}, err
			}
		}
	}
	return amount, at, nil
}
