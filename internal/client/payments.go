package client

import (
	"context"
	"fmt"

	"github.com/openfints/fints/internal/banking"
	"github.com/openfints/fints/internal/protocol/message"
	"github.com/openfints/fints/internal/protocol/segments"
	"github.com/openfints/fints/internal/sepa"
)

// Transfer submits a single SEPA credit transfer. A required second factor
// surfaces as *tan.RequiredError; resume with CompleteTransfer or, for
// decoupled methods, WaitDecoupled.
func (c *Client) Transfer(ctx context.Context, account banking.Account, req banking.CreditTransferRequest) (banking.PaymentReceipt, error) {
	d, err := c.openDialog(ctx)
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	sess := d.Session()
	descriptor, err := sepa.SelectPain001Descriptor(sess.PainFormats)
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	pain, err := sepa.BuildPain001(req, account, descriptor)
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	segs := []segments.Request{segments.HKCCS{
		Account:        account,
		PainDescriptor: descriptor,
		PainMessage:    pain.XML,
	}}
	if announce, ok := tanSegment(sess, "HKCCS"); ok {
		segs = append(segs, announce)
	}
	resp, err := d.Send(ctx, segs...)
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	receipt, err := paymentReceipt(resp, "HICCS", pain, descriptor)
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	return receipt, d.End(ctx)
}

// CompleteTransfer resumes a TAN-suspended credit transfer.
func (c *Client) CompleteTransfer(ctx context.Context, snapshot []byte, transactionReference, tanValue string) (banking.PaymentReceipt, error) {
	return c.completePayment(ctx, snapshot, transactionReference, tanValue, "HKCCS", "HICCS")
}

// DirectDebit submits a single SEPA direct debit collection.
func (c *Client) DirectDebit(ctx context.Context, account banking.Account, req banking.DirectDebitRequest) (banking.PaymentReceipt, error) {
	d, err := c.openDialog(ctx)
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	sess := d.Session()
	descriptor, err := sepa.SelectPain008Descriptor(sess.PainFormats)
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	pain, err := sepa.BuildPain008(req, account, descriptor)
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	segs := []segments.Request{segments.HKDSE{
		Account:        account,
		PainDescriptor: descriptor,
		PainMessage:    pain.XML,
	}}
	if announce, ok := tanSegment(sess, "HKDSE"); ok {
		segs = append(segs, announce)
	}
	resp, err := d.Send(ctx, segs...)
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	receipt, err := paymentReceipt(resp, "HIDSE", pain, descriptor)
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	return receipt, d.End(ctx)
}

// CompleteDirectDebit resumes a TAN-suspended direct debit.
func (c *Client) CompleteDirectDebit(ctx context.Context, snapshot []byte, transactionReference, tanValue string) (banking.PaymentReceipt, error) {
	return c.completePayment(ctx, snapshot, transactionReference, tanValue, "HKDSE", "HIDSE")
}

func (c *Client) completePayment(ctx context.Context, snapshot []byte, transactionReference, tanValue, reference, ackName string) (banking.PaymentReceipt, error) {
	d, err := c.resumeDialog(snapshot)
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	resp, err := d.SendWithTan(ctx, tanValue, resumeSegment(d.Session(), reference, transactionReference))
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	receipt, err := paymentReceipt(resp, ackName, sepa.Message{}, "")
	if err != nil {
		return banking.PaymentReceipt{}, err
	}
	return receipt, d.End(ctx)
}

// paymentReceipt merges the bank's acknowledgement with the identifiers of the
// submitted document. The acknowledgement is optional; some banks answer a
// TAN-completed order with return codes only.
func paymentReceipt(resp *message.Response, ackName string, pain sepa.Message, descriptor string) (banking.PaymentReceipt, error) {
	receipt := banking.PaymentReceipt{
		MessageID:            pain.MessageID,
		PaymentInformationID: pain.PaymentInformationID,
		EndToEndID:           pain.EndToEndID,
		PainDescriptor:       descriptor,
	}
	seg := resp.FindSegment(ackName)
	if seg == nil {
		if resp.Success() {
			return receipt, nil
		}
		return receipt, fmt.Errorf("client: bank did not acknowledge the payment order")
	}
	switch ack := seg.(type) {
	case *segments.HICCS:
		receipt.OrderID = ack.OrderID
		receipt.ConsentCode = ack.ConsentCode
		receipt.OrderStatus = ack.OrderStatus
	case *segments.HIDSE:
		receipt.OrderID = ack.OrderID
		receipt.ConsentCode = ack.ConsentCode
		receipt.OrderStatus = ack.OrderStatus
	}
	return receipt, nil
}
