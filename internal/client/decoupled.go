package client

import (
	"context"

	"github.com/openfints/fints/internal/dialog"
	"github.com/openfints/fints/internal/tan"
)

// DecoupledConfirmation drives the confirmation of one suspended decoupled
// order: it polls the bank until the user approves on their second device.
type DecoupledConfirmation struct {
	poller    *tan.Poller
	dialog    *dialog.Dialog
	challenge tan.Challenge
}

// Decoupled resumes a suspended decoupled order from its snapshot. Call Wait
// to poll for the approval; Cancel stops an in-flight Wait from another
// goroutine.
func (c *Client) Decoupled(snapshot []byte, challenge tan.Challenge) (*DecoupledConfirmation, error) {
	d, err := c.resumeDialog(snapshot)
	if err != nil {
		return nil, err
	}
	method := pollMethod(d.Session())
	return &DecoupledConfirmation{
		poller:    tan.NewPoller(d, method, c.cfg.Poll).WithLogger(c.log),
		dialog:    d,
		challenge: challenge,
	}, nil
}

// pollMethod picks the method whose advertised limits govern the poll: the
// selected one if it is decoupled, otherwise the first decoupled method.
func pollMethod(sess dialog.Session) tan.Method {
	if m, ok := sess.Method(); ok && m.Decoupled() {
		return m
	}
	for _, m := range sess.TanMethods {
		if m.Decoupled() {
			return m
		}
	}
	if len(sess.TanMethods) > 0 {
		return sess.TanMethods[0]
	}
	return tan.Method{}
}

// Wait polls until the order is confirmed, then closes the dialog. The
// returned messages are the bank's final status texts.
func (dc *DecoupledConfirmation) Wait(ctx context.Context) ([]string, error) {
	messages, err := dc.poller.Wait(ctx, dc.challenge.TransactionReference)
	if err != nil {
		return nil, err
	}
	return messages, dc.dialog.End(ctx)
}

// Cancel stops an in-flight Wait.
func (dc *DecoupledConfirmation) Cancel() { dc.poller.Cancel() }

// Observe reports every lifecycle transition through fn, synchronously from
// the polling goroutine. Set before calling Wait.
func (dc *DecoupledConfirmation) Observe(fn tan.Observer) { dc.poller.WithObserver(fn) }

// State reports where the confirmation currently stands.
func (dc *DecoupledConfirmation) State() string { return dc.poller.State() }
