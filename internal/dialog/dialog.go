// Package dialog runs the conversation lifecycle with the bank: synchronize,
// initialize, operate, end. It owns the mutable session state and turns
// unhappy server answers into typed errors, including the suspension raised
// when an order needs a second factor.
package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openfints/fints/internal/protocol/codes"
	"github.com/openfints/fints/internal/protocol/message"
	"github.com/openfints/fints/internal/protocol/segments"
	"github.com/openfints/fints/internal/tan"
	"github.com/openfints/fints/internal/transport"
)

var ErrNotSynchronized = errors.New("dialog: session is not synchronized")

// Dialog is one conversation with the bank. Not safe for concurrent use; a
// session belongs to exactly one dialog at a time.
type Dialog struct {
	transport   transport.Transport
	id          Identity
	sess        Session
	log         zerolog.Logger
	lastRequest *message.Request
}

// New builds a dialog with a pristine session.
func New(t transport.Transport, id Identity) *Dialog {
	return &Dialog{transport: t, id: id, sess: NewSession(), log: zerolog.Nop()}
}

// Resume builds a dialog from a suspended session snapshot.
func Resume(t transport.Transport, id Identity, snapshot []byte) (*Dialog, error) {
	sess, err := UnmarshalSession(snapshot)
	if err != nil {
		return nil, err
	}
	return &Dialog{transport: t, id: id, sess: sess, log: zerolog.Nop()}, nil
}

// WithLogger returns the dialog logging through l.
func (d *Dialog) WithLogger(l zerolog.Logger) *Dialog {
	d.log = l
	return d
}

// Session returns a copy of the current session state.
func (d *Dialog) Session() Session { return d.sess.Clone() }

// Snapshot serializes the current session for later resumption.
func (d *Dialog) Snapshot() ([]byte, error) { return d.sess.Marshal() }

// SelectTanMethod switches the session to the method with the given security
// function.
func (d *Dialog) SelectTanMethod(securityFunction string) error {
	for _, m := range d.sess.TanMethods {
		if m.SecurityFunction == securityFunction {
			d.sess.SecurityFunction = securityFunction
			return nil
		}
	}
	return fmt.Errorf("dialog: no permitted TAN method with security function %q", securityFunction)
}

// learnedSegments are the parameter segment types whose maximum advertised
// version is captured during synchronization.
var learnedSegments = []string{
	"HISALS", "HIKAZS", "HICDBS", "HICCSS", "HIDSES", "HIWPDS", "HITANS",
}

// Sync asks the server for a customer system id and learns its capabilities:
// supported segment versions, permitted TAN methods, and SEPA formats. The
// synchronization dialog is closed again before returning.
func (d *Dialog) Sync(ctx context.Context) error {
	d.sess = NewSession()
	resp, err := d.exchange(ctx, "", []segments.Request{
		segments.HKIDN{BankCode: d.id.BankCode, UserID: d.id.UserID, SystemID: "0"},
		segments.HKVVB{ProductID: d.id.ProductID},
		segments.HKSYN{},
	})
	if err != nil {
		return err
	}
	if err := d.firstError(resp); err != nil {
		return err
	}
	systemID, err := resp.SystemID()
	if err != nil {
		return err
	}
	d.sess.SystemID = systemID
	d.sess.DialogID = resp.DialogID()
	for _, name := range learnedSegments {
		if v := resp.SegmentMaxVersion(name); v > 0 {
			d.sess.SegmentVersions[name] = v
		}
	}
	d.sess.TanMethods = resp.TanMethods()
	d.sess.PainFormats = resp.PainFormats()
	if len(d.sess.TanMethods) > 0 {
		d.sess.SecurityFunction = d.sess.TanMethods[0].SecurityFunction
	}
	d.log.Debug().Str("system_id", systemID).
		Int("tan_methods", len(d.sess.TanMethods)).
		Strs("pain_formats", d.sess.PainFormats).
		Msg("dialog synchronized")
	return d.End(ctx)
}

// Init opens an authenticated dialog. With a modern TAN parameter version the
// initialization itself announces two-step authentication and may be
// suspended with a challenge.
func (d *Dialog) Init(ctx context.Context) error {
	if d.sess.SystemID == "" || d.sess.SystemID == "0" {
		return ErrNotSynchronized
	}
	d.sess.DialogID = "0"
	d.sess.MsgNo = 1
	segs := []segments.Request{
		segments.HKIDN{BankCode: d.id.BankCode, UserID: d.id.UserID, SystemID: d.sess.SystemID},
		segments.HKVVB{ProductID: d.id.ProductID},
	}
	if v := d.hktanVersion(); v >= 6 {
		segs = append(segs, segments.HKTAN{Ver: v, Process: "4", SegmentReference: "HKIDN"})
	}
	_, err := d.Send(ctx, segs...)
	return err
}

// Send submits order segments inside the open dialog. A suspended order comes
// back as a *tan.RequiredError carrying the challenge and a session snapshot;
// every other unhappy answer is a *codes.Error.
func (d *Dialog) Send(ctx context.Context, segs ...segments.Request) (*message.Response, error) {
	return d.send(ctx, "", segs)
}

// SendWithTan submits order segments with a TAN in the signature, resuming a
// challenge answered by the user.
func (d *Dialog) SendWithTan(ctx context.Context, tanValue string, segs ...segments.Request) (*message.Response, error) {
	return d.send(ctx, tanValue, segs)
}

func (d *Dialog) send(ctx context.Context, tanValue string, segs []segments.Request) (*message.Response, error) {
	resp, err := d.exchange(ctx, tanValue, segs)
	if err != nil {
		return nil, err
	}
	if id := resp.DialogID(); id != "" {
		d.sess.DialogID = id
	}
	if err := d.firstError(resp); err != nil {
		return nil, err
	}
	if resp.HasReturnCode(codes.CodeOrderAccepted) {
		if err := d.tanRequired(resp, segs); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// tanRequired turns a suspended response into a *tan.RequiredError. A
// confirmation-required code without a challenge segment is left alone; it
// then just reports order acceptance.
func (d *Dialog) tanRequired(resp *message.Response, segs []segments.Request) error {
	hitan, ok := resp.FindSegment("HITAN").(*segments.HITAN)
	if !ok || hitan == nil {
		return nil
	}
	values := resp.ReturnValues()
	_, scaPending := values[codes.CodeSCAPending]
	_, scaRequired := values[codes.CodeSCARequired]

	triggering := ""
	if len(segs) > 0 {
		triggering = segs[0].Type()
	}
	snapshot, err := d.Snapshot()
	if err != nil {
		return err
	}
	d.log.Debug().Str("reference", hitan.TransactionReference).
		Bool("decoupled", scaPending || scaRequired).
		Str("order", triggering).Msg("order suspended awaiting second factor")
	return &tan.RequiredError{
		Challenge: tan.Challenge{
			TransactionReference: hitan.TransactionReference,
			Text:                 hitan.ChallengeText,
			MediaType:            hitan.ChallengeMediaType,
			Media:                hitan.ChallengeMedia,
			ValidUntil:           hitan.ChallengeValidUntil,
			TanMedium:            hitan.TanMedium,
			TriggeringSegment:    triggering,
			Decoupled:            scaPending || scaRequired,
		},
		Snapshot: snapshot,
	}
}

// End closes the dialog and resets the session counters for the next one.
func (d *Dialog) End(ctx context.Context) error {
	resp, err := d.exchange(ctx, "", []segments.Request{
		segments.HKEND{DialogID: d.sess.DialogID},
	})
	if err != nil {
		return err
	}
	if err := d.firstError(resp); err != nil {
		return err
	}
	d.sess.DialogID = "0"
	d.sess.MsgNo = 1
	return nil
}

// CheckStatus asks whether a suspended decoupled order has been confirmed on
// the second device. Implements the status contract of the TAN poller.
func (d *Dialog) CheckStatus(ctx context.Context, transactionReference string) (tan.StatusResponse, error) {
	resp, err := d.exchange(ctx, "", []segments.Request{
		segments.HKTAN{Ver: d.hktanVersion(), Process: "2", Aref: transactionReference},
	})
	if err != nil {
		return tan.StatusResponse{}, err
	}
	if resp.HasReturnCode(codes.CodeSCAPending) {
		return tan.StatusResponse{Pending: true, Messages: statusMessages(resp)}, nil
	}
	if err := d.firstError(resp); err != nil {
		return tan.StatusResponse{}, err
	}
	// Anything else, with the confirmation code or without any recognizable
	// code, means the order went through.
	return tan.StatusResponse{Messages: statusMessages(resp)}, nil
}

// exchange renders, sends, and parses one message, advancing the message
// counter whether or not the answer is happy.
func (d *Dialog) exchange(ctx context.Context, tanValue string, segs []segments.Request) (*message.Response, error) {
	req, err := message.Build(message.BuildParams{
		BankCode:         d.id.BankCode,
		UserID:           d.id.UserID,
		PIN:              d.id.PIN,
		SystemID:         d.sess.SystemID,
		DialogID:         d.sess.DialogID,
		MsgNo:            d.sess.MsgNo,
		SecurityFunction: d.sess.SecurityFunction,
		Tan:              tanValue,
		Segments:         segs,
	})
	if err != nil {
		return nil, err
	}
	raw, err := d.transport.Send(ctx, req.Bytes)
	if err != nil {
		return nil, err
	}
	d.sess.MsgNo++
	resp, err := message.Parse(raw)
	if err != nil {
		return nil, err
	}
	d.lastRequest = req
	return resp, nil
}

// Touchdowns maps pagination markers in resp to the request segment types of
// the message that produced it. Valid for the most recent exchange only.
func (d *Dialog) Touchdowns(resp *message.Response) map[string]string {
	if d.lastRequest == nil {
		return nil
	}
	return resp.Touchdowns(d.lastRequest)
}

// firstError maps the first error-category return value to a typed error.
func (d *Dialog) firstError(resp *message.Response) error {
	for _, seg := range resp.Segments() {
		fb, ok := seg.(*segments.Feedback)
		if !ok {
			continue
		}
		for _, value := range fb.Values {
			if value.Error() {
				return codes.NewError(value)
			}
		}
	}
	return nil
}

func (d *Dialog) hktanVersion() int {
	v := d.sess.Version("HITANS")
	if v > 7 {
		return 7
	}
	return v
}

func statusMessages(resp *message.Response) []string {
	var out []string
	for _, value := range resp.ReturnValues() {
		out = append(out, codes.FormatCode(value.Code, value.Message))
	}
	return out
}
