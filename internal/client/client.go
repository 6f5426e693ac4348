// Package client offers the high-level account operations: each call runs a
// full dialog against the bank, or rides on a caller-managed one. Orders that
// need a second factor surface as *tan.RequiredError; the Complete and
// decoupled-wait entry points resume them.
package client

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/openfints/fints/internal/dialog"
	"github.com/openfints/fints/internal/protocol/message"
	"github.com/openfints/fints/internal/protocol/segments"
	"github.com/openfints/fints/internal/tan"
	"github.com/openfints/fints/internal/transport"
)

// ErrTooManyPages reports a pagination loop that hit the configured page cap
// before the server stopped returning touchdown markers.
var ErrTooManyPages = errors.New("client: pagination exceeded the configured page cap")

const defaultMaxPages = 100

// Config describes one bank access.
type Config struct {
	URL       string
	BankCode  string
	UserID    string
	PIN       string
	ProductID string
	// MaxPages caps the pagination loop per operation. Zero means the
	// default of 100.
	MaxPages int
	// Transport overrides the HTTP transport built from URL; used by tests.
	Transport transport.Transport
	// Poll overrides the decoupled confirmation bounds.
	Poll tan.PollConfig
}

// Client executes operations against one bank access. Safe for concurrent
// use; every operation runs its own dialog.
type Client struct {
	cfg       Config
	transport transport.Transport
	log       zerolog.Logger
}

// New builds a client from config.
func New(cfg Config) *Client {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	t := cfg.Transport
	if t == nil {
		t = transport.NewHTTP(transport.DefaultConfig(cfg.URL))
	}
	return &Client{cfg: cfg, transport: t, log: zerolog.Nop()}
}

// WithLogger returns the client logging through l.
func (c *Client) WithLogger(l zerolog.Logger) *Client {
	c.log = l
	return c
}

func (c *Client) identity() dialog.Identity {
	return dialog.Identity{
		BankCode:  c.cfg.BankCode,
		UserID:    c.cfg.UserID,
		PIN:       c.cfg.PIN,
		ProductID: c.cfg.ProductID,
	}
}

// NewDialog builds a fresh dialog for caller-managed lifecycles. The caller
// owns Sync/Init/End.
func (c *Client) NewDialog() *dialog.Dialog {
	return dialog.New(c.transport, c.identity()).WithLogger(c.log)
}

// openDialog runs sync and init for an owning operation.
func (c *Client) openDialog(ctx context.Context) (*dialog.Dialog, error) {
	d := c.NewDialog()
	if err := d.Sync(ctx); err != nil {
		return nil, err
	}
	if err := d.Init(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// resumeDialog reopens a suspended dialog from a snapshot.
func (c *Client) resumeDialog(snapshot []byte) (*dialog.Dialog, error) {
	d, err := dialog.Resume(c.transport, c.identity(), snapshot)
	if err != nil {
		return nil, err
	}
	return d.WithLogger(c.log), nil
}

// paginate repeats the request until the server stops returning a touchdown
// marker for the named segment, aggregating the responses in order.
func (c *Client) paginate(ctx context.Context, d *dialog.Dialog, name string,
	build func(touchdown string) []segments.Request) ([]*message.Response, error) {
	touchdown := ""
	var responses []*message.Response
	for page := 0; ; page++ {
		if page >= c.cfg.MaxPages {
			return nil, ErrTooManyPages
		}
		resp, err := d.Send(ctx, build(touchdown)...)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
		touchdown = d.Touchdowns(resp)[name]
		if touchdown == "" {
			return responses, nil
		}
	}
}

// tanSegment appends the two-step announcement for an order when the
// negotiated TAN parameter version asks for it.
func tanSegment(sess dialog.Session, reference string) (segments.HKTAN, bool) {
	v := sess.Version("HITANS")
	if v < 6 {
		return segments.HKTAN{}, false
	}
	if v > 7 {
		v = 7
	}
	medium := ""
	if len(sess.TanMethods) > 0 {
		medium = sess.TanMethods[0].Name
	}
	return segments.HKTAN{Ver: v, Process: "4", SegmentReference: reference, Medium: medium}, true
}

// resumeSegment references a suspended order for TAN completion.
func resumeSegment(sess dialog.Session, reference, transactionReference string) segments.HKTAN {
	v := sess.Version("HITANS")
	if v > 7 {
		v = 7
	}
	medium := ""
	if len(sess.TanMethods) > 0 {
		medium = sess.TanMethods[0].Name
	}
	return segments.HKTAN{
		Ver:              v,
		Process:          "2",
		SegmentReference: reference,
		Aref:             transactionReference,
		Medium:           medium,
	}
}
