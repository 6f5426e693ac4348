package segments

import (
	"github.com/openfints/fints/internal/banking"
	"github.com/openfints/fints/internal/protocol/wire"
)

// HKSPA requests the list of SEPA accounts for the authenticated user.
type HKSPA struct{}

func (HKSPA) Type() string       { return "HKSPA" }
func (HKSPA) Version() int       { return 1 }
func (HKSPA) Groups() [][]string { return nil }

// HISPA lists the user's SEPA accounts, one data-element group per account.
type HISPA struct {
	Common
	Accounts []banking.Account
}

func decodeHISPA(raw wire.RawSegment) (Segment, error) {
	seg := &HISPA{Common: commonFrom(raw)}
	for _, group := range raw.Groups {
		if len(group) == 0 || group[0] == "" {
			continue
		}
		account := banking.Account{}
		if len(group) > 1 {
			account.IBAN = group[1]
		}
		if len(group) > 2 {
			account.BIC = group[2]
		}
		if len(group) > 3 {
			account.AccountNumber = group[3]
		}
		if len(group) > 4 {
			account.SubAccount = group[4]
		}
		if len(group) > 6 {
			account.BankCode = group[6]
		}
		seg.Accounts = append(seg.Accounts, account)
	}
	return seg, nil
}

// accountGroup renders the account reference used by operation requests.
// Version 7 and above address accounts internationally by IBAN and BIC.
func accountGroup(account banking.Account, version int) []string {
	if version >= 7 {
		return []string{wire.Escape(account.IBAN), wire.Escape(account.BIC)}
	}
	return []string{
		wire.Escape(account.AccountNumber),
		wire.Escape(account.SubAccount),
		countryCode,
		wire.Escape(account.BankCode),
	}
}

func sepaAccountGroup(account banking.Account) []string {
	return []string{
		wire.Escape(account.IBAN),
		wire.Escape(account.BIC),
		wire.Escape(account.AccountNumber),
		wire.Escape(account.SubAccount),
		countryCode,
		wire.Escape(account.BankCode),
	}
}
