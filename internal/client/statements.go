package client

import (
	"context"
	"strings"
	"time"

	"github.com/openfints/fints/internal/banking"
	"github.com/openfints/fints/internal/dialog"
	"github.com/openfints/fints/internal/mt940"
	"github.com/openfints/fints/internal/protocol/message"
	"github.com/openfints/fints/internal/protocol/segments"
)

// Statements fetches the booked transactions of an account in the given date
// range. Zero dates leave the range open. Banks that demand a second factor
// even for reads surface a *tan.RequiredError; resume with
// CompleteStatements.
func (c *Client) Statements(ctx context.Context, account banking.Account, start, end time.Time) ([]banking.Statement, error) {
	d, err := c.openDialog(ctx)
	if err != nil {
		return nil, err
	}
	statements, err := c.StatementsWithDialog(ctx, d, account, start, end)
	if err != nil {
		return nil, err
	}
	return statements, d.End(ctx)
}

// StatementsWithDialog fetches statements inside a caller-managed dialog.
func (c *Client) StatementsWithDialog(ctx context.Context, d *dialog.Dialog, account banking.Account, start, end time.Time) ([]banking.Statement, error) {
	sess := d.Session()
	responses, err := c.paginate(ctx, d, "HKKAZ", func(touchdown string) []segments.Request {
		segs := []segments.Request{segments.HKKAZ{
			Ver:       sess.Version("HIKAZS"),
			Account:   account,
			StartDate: start,
			EndDate:   end,
			Touchdown: touchdown,
		}}
		if announce, ok := tanSegment(sess, "HKKAZ"); ok {
			segs = append(segs, announce)
		}
		return segs
	})
	if err != nil {
		return nil, err
	}
	return decodeStatements(responses)
}

// CompleteStatements resumes a TAN-suspended statement fetch with the TAN
// the user entered.
func (c *Client) CompleteStatements(ctx context.Context, snapshot []byte, transactionReference, tanValue string) ([]banking.Statement, error) {
	d, err := c.resumeDialog(snapshot)
	if err != nil {
		return nil, err
	}
	resp, err := d.SendWithTan(ctx, tanValue, resumeSegment(d.Session(), "HKKAZ", transactionReference))
	if err != nil {
		return nil, err
	}
	statements, err := decodeStatements([]*message.Response{resp})
	if err != nil {
		return nil, err
	}
	return statements, d.End(ctx)
}

// decodeStatements joins the booked MT940 blobs of all pages and decodes them.
func decodeStatements(responses []*message.Response) ([]banking.Statement, error) {
	var booked strings.Builder
	for _, resp := range responses {
		for _, seg := range resp.FindSegments("HIKAZ") {
			if hikaz, ok := seg.(*segments.HIKAZ); ok {
				booked.WriteString(hikaz.BookedTransactions)
			}
		}
	}
	return mt940.Parse([]byte(booked.String()))
}
