package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openfints/fints/internal/banking"
	"github.com/openfints/fints/internal/dialog"
	"github.com/openfints/fints/internal/mt535"
	"github.com/openfints/fints/internal/protocol/segments"
)

// ErrHoldingsUnsupported reports a bank that never advertised depot support.
var ErrHoldingsUnsupported = errors.New("client: holdings are not supported by this bank")

// Accounts lists the SEPA accounts accessible with this access.
func (c *Client) Accounts(ctx context.Context) ([]banking.Account, error) {
	d, err := c.openDialog(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := c.AccountsWithDialog(ctx, d)
	if err != nil {
		return nil, err
	}
	return accounts, d.End(ctx)
}

// AccountsWithDialog lists accounts inside a caller-managed dialog.
func (c *Client) AccountsWithDialog(ctx context.Context, d *dialog.Dialog) ([]banking.Account, error) {
	resp, err := d.Send(ctx, segments.HKSPA{})
	if err != nil {
		return nil, err
	}
	hispa, ok := resp.FindSegment("HISPA").(*segments.HISPA)
	if !ok || hispa == nil {
		return nil, fmt.Errorf("client: response carries no account list")
	}
	return hispa.Accounts, nil
}

// Balance fetches the balance of one account.
func (c *Client) Balance(ctx context.Context, account banking.Account) (banking.Balance, error) {
	d, err := c.openDialog(ctx)
	if err != nil {
		return banking.Balance{}, err
	}
	balance, err := c.BalanceWithDialog(ctx, d, account)
	if err != nil {
		return banking.Balance{}, err
	}
	return balance, d.End(ctx)
}

// BalanceWithDialog fetches a balance inside a caller-managed dialog.
func (c *Client) BalanceWithDialog(ctx context.Context, d *dialog.Dialog, account banking.Account) (banking.Balance, error) {
	sess := d.Session()
	responses, err := c.paginate(ctx, d, "HKSAL", func(touchdown string) []segments.Request {
		return []segments.Request{segments.HKSAL{
			Ver:       sess.Version("HISALS"),
			Account:   account,
			Touchdown: touchdown,
		}}
	})
	if err != nil {
		return banking.Balance{}, err
	}
	for _, resp := range responses {
		for _, seg := range resp.FindSegments("HISAL") {
			hisal, ok := seg.(*segments.HISAL)
			if !ok {
				continue
			}
			if !balanceMatches(hisal.Account, account) {
				continue
			}
			return banking.Balance{
				Account:          account,
				BookedBalance:    hisal.BookedBalance,
				PendingBalance:   hisal.PendingBalance,
				AvailableBalance: hisal.AvailableBalance,
				CreditLimit:      hisal.CreditLimit,
				Currency:         hisal.Currency,
				ProductName:      hisal.ProductName,
				BookedAt:         hisal.BookedAt,
			}, nil
		}
	}
	return banking.Balance{}, fmt.Errorf("client: no balance reported for account %s", account.AccountNumber)
}

// balanceMatches pairs a balance segment with the requested account. Servers
// answer with the legacy account reference even for IBAN-addressed requests.
func balanceMatches(got, want banking.Account) bool {
	if want.AccountNumber != "" && got.AccountNumber == want.AccountNumber {
		return want.BankCode == "" || got.BankCode == want.BankCode
	}
	return want.AccountNumber == ""
}

// Holdings fetches the depot positions of one securities account.
func (c *Client) Holdings(ctx context.Context, account banking.Account) ([]banking.Holding, error) {
	d := c.NewDialog()
	if err := d.Sync(ctx); err != nil {
		return nil, err
	}
	sess := d.Session()
	if sess.Version("HIWPDS") == 0 {
		return nil, ErrHoldingsUnsupported
	}
	if err := d.Init(ctx); err != nil {
		return nil, err
	}
	holdings, err := c.HoldingsWithDialog(ctx, d, account)
	if err != nil {
		return nil, err
	}
	return holdings, d.End(ctx)
}

// HoldingsWithDialog fetches holdings inside a caller-managed dialog.
func (c *Client) HoldingsWithDialog(ctx context.Context, d *dialog.Dialog, account banking.Account) ([]banking.Holding, error) {
	sess := d.Session()
	version := sess.Version("HIWPDS")
	if version == 0 {
		return nil, ErrHoldingsUnsupported
	}
	responses, err := c.paginate(ctx, d, "HKWPD", func(touchdown string) []segments.Request {
		return []segments.Request{segments.HKWPD{
			Ver:       version,
			Account:   account,
			Touchdown: touchdown,
		}}
	})
	if err != nil {
		return nil, err
	}
	var holdings []banking.Holding
	for _, resp := range responses {
		for _, seg := range resp.FindSegments("HIWPD") {
			hiwpd, ok := seg.(*segments.HIWPD)
			if !ok || hiwpd.Holdings == "" {
				continue
			}
			raw := strings.TrimPrefix(hiwpd.Holdings, "\r\n")
			raw = strings.TrimPrefix(raw, "\n")
			holdings = append(holdings, mt535.Parse([]byte(raw))...)
		}
	}
	return holdings, nil
}
