package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/openfints/fints/internal/banking"
	"github.com/openfints/fints/internal/dialog"
	"github.com/openfints/fints/internal/protocol/segments"
	"github.com/openfints/fints/internal/sepa"
)

var ErrOrderIDRequired = errors.New("client: standing-order id is required")

// StandingOrders lists the standing orders of one account.
func (c *Client) StandingOrders(ctx context.Context, account banking.Account) ([]banking.StandingOrder, error) {
	d, err := c.openDialog(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := c.StandingOrdersWithDialog(ctx, d, account)
	if err != nil {
		return nil, err
	}
	return orders, d.End(ctx)
}

// StandingOrdersWithDialog lists standing orders inside a caller-managed
// dialog.
func (c *Client) StandingOrdersWithDialog(ctx context.Context, d *dialog.Dialog, account banking.Account) ([]banking.StandingOrder, error) {
	sess := d.Session()
	responses, err := c.paginate(ctx, d, "HKCDB", func(touchdown string) []segments.Request {
		return []segments.Request{segments.HKCDB{
			Ver:         sess.Version("HICDBS"),
			Account:     account,
			PainFormats: sess.PainFormats,
			Touchdown:   touchdown,
		}}
	})
	if err != nil {
		return nil, err
	}
	var orders []banking.StandingOrder
	for _, resp := range responses {
		for _, seg := range resp.FindSegments("HICDB") {
			hicdb, ok := seg.(*segments.HICDB)
			if !ok {
				continue
			}
			order, err := standingOrderFromAck(hicdb.StandingOrderAck)
			if err != nil {
				return nil, err
			}
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// standingOrderFromAck merges the schedule fields of the response segment
// with the payment details of its embedded pain document.
func standingOrderFromAck(ack segments.StandingOrderAck) (banking.StandingOrder, error) {
	order := banking.StandingOrder{
		OrderID:       ack.OrderID,
		NextOrderDate: ack.NextOrderDate,
		LastOrderDate: ack.LastOrderDate,
		TimeUnit:      ack.TimeUnit,
		Interval:      ack.Interval,
		OrderDay:      ack.OrderDay,
	}
	if ack.PainMessage == "" {
		return order, nil
	}
	details, err := sepa.ParseStandingOrderPain001([]byte(ack.PainMessage))
	if err != nil {
		return banking.StandingOrder{}, err
	}
	order.CreationDate = details.CreationDate
	order.Amount = details.Amount
	order.Currency = details.Currency
	order.Purpose = details.Purpose
	order.Debtor = details.Debtor
	order.Creditor = details.Creditor
	if order.Debtor.IBAN == "" {
		order.Debtor.IBAN = ack.IBAN
	}
	if order.Debtor.BIC == "" {
		order.Debtor.BIC = ack.BIC
	}
	return order, nil
}

// standingOrderPain renders the pain.001 document for a maintenance command.
// The debtor side defaults to the issuing account.
func standingOrderPain(account banking.Account, payment banking.CreditTransferRequest, schedule banking.StandingOrderSchedule, painFormats []string) (sepa.Message, string, error) {
	descriptor, err := sepa.SelectPain001Descriptor(painFormats)
	if err != nil {
		return sepa.Message{}, "", err
	}
	if payment.DebtorName == "" {
		payment.DebtorName = account.OwnerName
	}
	if payment.ExecutionDate.IsZero() {
		payment.ExecutionDate = schedule.StartDate
	}
	pain, err := sepa.BuildPain001(payment, account, descriptor)
	if err != nil {
		return sepa.Message{}, "", err
	}
	return pain, descriptor, nil
}

// CreateStandingOrder sets up a recurring credit transfer.
func (c *Client) CreateStandingOrder(ctx context.Context, account banking.Account, payment banking.CreditTransferRequest, schedule banking.StandingOrderSchedule) (banking.StandingOrderResult, error) {
	return c.standingOrderCommand(ctx, account, payment, schedule, "", commandCreate)
}

// UpdateStandingOrder replaces an existing standing order.
func (c *Client) UpdateStandingOrder(ctx context.Context, account banking.Account, orderID string, payment banking.CreditTransferRequest, schedule banking.StandingOrderSchedule) (banking.StandingOrderResult, error) {
	if orderID == "" {
		return banking.StandingOrderResult{}, ErrOrderIDRequired
	}
	return c.standingOrderCommand(ctx, account, payment, schedule, orderID, commandUpdate)
}

// CancelStandingOrder removes an existing standing order.
func (c *Client) CancelStandingOrder(ctx context.Context, account banking.Account, order banking.StandingOrder) (banking.StandingOrderResult, error) {
	if order.OrderID == "" {
		return banking.StandingOrderResult{}, ErrOrderIDRequired
	}
	payment := banking.CreditTransferRequest{
		DebtorName:            order.Debtor.Name,
		Creditor:              order.Creditor,
		Amount:                order.Amount,
		Currency:              order.Currency,
		RemittanceInformation: order.Purpose,
	}
	schedule := banking.StandingOrderSchedule{
		StartDate:    order.NextOrderDate,
		TimeUnit:     order.TimeUnit,
		Interval:     order.Interval,
		ExecutionDay: order.OrderDay,
		EndDate:      order.LastOrderDate,
	}
	return c.standingOrderCommand(ctx, account, payment, schedule, order.OrderID, commandCancel)
}

type standingOrderCommandKind int

const (
	commandCreate standingOrderCommandKind = iota
	commandUpdate
	commandCancel
)

func (k standingOrderCommandKind) names() (request, ack string) {
	switch k {
	case commandUpdate:
		return "HKCDE", "HICDE"
	case commandCancel:
		return "HKCDL", "HICDL"
	default:
		return "HKCDA", "HICDA"
	}
}

func (c *Client) standingOrderCommand(ctx context.Context, account banking.Account, payment banking.CreditTransferRequest, schedule banking.StandingOrderSchedule, orderID string, kind standingOrderCommandKind) (banking.StandingOrderResult, error) {
	d, err := c.openDialog(ctx)
	if err != nil {
		return banking.StandingOrderResult{}, err
	}
	sess := d.Session()
	pain, descriptor, err := standingOrderPain(account, payment, schedule, sess.PainFormats)
	if err != nil {
		return banking.StandingOrderResult{}, err
	}
	command := segments.StandingOrderCommand{
		Account:        account,
		PainDescriptor: descriptor,
		PainMessage:    pain.XML,
		Schedule:       schedule,
		OrderID:        orderID,
	}
	requestName, ackName := kind.names()
	var order segments.Request
	switch kind {
	case commandUpdate:
		order = segments.HKCDE{StandingOrderCommand: command}
	case commandCancel:
		order = segments.HKCDL{StandingOrderCommand: command}
	default:
		order = segments.HKCDA{StandingOrderCommand: command}
	}
	segs := []segments.Request{order}
	if announce, ok := tanSegment(sess, requestName); ok {
		segs = append(segs, announce)
	}
	resp, err := d.Send(ctx, segs...)
	if err != nil {
		return banking.StandingOrderResult{}, err
	}
	result, err := standingOrderResult(resp.FindSegment(ackName))
	if err != nil {
		return banking.StandingOrderResult{}, err
	}
	return result, d.End(ctx)
}

// CompleteCreateStandingOrder resumes a TAN-suspended creation.
func (c *Client) CompleteCreateStandingOrder(ctx context.Context, snapshot []byte, transactionReference, tanValue string) (banking.StandingOrderResult, error) {
	return c.completeStandingOrder(ctx, snapshot, transactionReference, tanValue, commandCreate)
}

// CompleteUpdateStandingOrder resumes a TAN-suspended update.
func (c *Client) CompleteUpdateStandingOrder(ctx context.Context, snapshot []byte, transactionReference, tanValue string) (banking.StandingOrderResult, error) {
	return c.completeStandingOrder(ctx, snapshot, transactionReference, tanValue, commandUpdate)
}

// CompleteCancelStandingOrder resumes a TAN-suspended cancellation.
func (c *Client) CompleteCancelStandingOrder(ctx context.Context, snapshot []byte, transactionReference, tanValue string) (banking.StandingOrderResult, error) {
	return c.completeStandingOrder(ctx, snapshot, transactionReference, tanValue, commandCancel)
}

func (c *Client) completeStandingOrder(ctx context.Context, snapshot []byte, transactionReference, tanValue string, kind standingOrderCommandKind) (banking.StandingOrderResult, error) {
	d, err := c.resumeDialog(snapshot)
	if err != nil {
		return banking.StandingOrderResult{}, err
	}
	requestName, ackName := kind.names()
	resp, err := d.SendWithTan(ctx, tanValue, resumeSegment(d.Session(), requestName, transactionReference))
	if err != nil {
		return banking.StandingOrderResult{}, err
	}
	result, err := standingOrderResult(resp.FindSegment(ackName))
	if err != nil {
		return banking.StandingOrderResult{}, err
	}
	return result, d.End(ctx)
}

func standingOrderResult(seg segments.Segment) (banking.StandingOrderResult, error) {
	if seg == nil {
		// Some banks acknowledge maintenance commands with return codes only.
		return banking.StandingOrderResult{}, nil
	}
	var ack segments.StandingOrderAck
	switch s := seg.(type) {
	case *segments.HICDA:
		ack = s.StandingOrderAck
	case *segments.HICDE:
		ack = s.StandingOrderAck
	case *segments.HICDL:
		ack = s.StandingOrderAck
	case *segments.HICDB:
		ack = s.StandingOrderAck
	default:
		return banking.StandingOrderResult{}, fmt.Errorf("client: unexpected standing-order acknowledgement %T", seg)
	}
	order, err := standingOrderFromAck(ack)
	if err != nil {
		return banking.StandingOrderResult{}, err
	}
	return banking.StandingOrderResult{OrderID: order.OrderID, StandingOrder: order}, nil
}
