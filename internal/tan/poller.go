package tan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
)

// Decoupled confirmation states.
const (
	StateInitiated           = "initiated"
	StateChallengeSent       = "challenge_sent"
	StatePendingConfirmation = "pending_confirmation"
	StateConfirmed           = "confirmed"
	StateFailed              = "failed"
	StateCancelled           = "cancelled"
	StateTimedOut            = "timed_out"
)

const (
	eventStart   = "start"
	eventPoll    = "poll"
	eventConfirm = "confirm"
	eventFail    = "fail"
	eventCancel  = "cancel"
	eventTimeout = "timeout"
)

// ErrCancelled reports a poll stopped by Cancel.
var ErrCancelled = errors.New("tan: decoupled confirmation cancelled")

// StatusResponse is one decoupled status answer, already classified by the
// dialog layer.
type StatusResponse struct {
	// Pending means the order is still awaiting confirmation on the second
	// device.
	Pending bool
	// Messages carries the server's human-readable status texts.
	Messages []string
}

// StatusChecker asks the bank for the state of a suspended decoupled order.
// The dialog engine implements this by sending a status-request segment
// referencing the transaction.
type StatusChecker interface {
	CheckStatus(ctx context.Context, transactionReference string) (StatusResponse, error)
}

// PollError reports an unconfirmed decoupled order, with where the poll
// stood when it gave up.
type PollError struct {
	State                string
	TransactionReference string
	RequestsMade         int
	LastMessages         []string
	Cause                error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("tan: decoupled confirmation ended in state %q after %d status requests: %v",
		e.State, e.RequestsMade, e.Cause)
}

func (e *PollError) Unwrap() error { return e.Cause }

// Observer is notified of every lifecycle transition, synchronously from the
// polling goroutine.
type Observer func(from, to string)

// Poller drives the decoupled confirmation lifecycle for one challenge. Each
// poller is single-use; build a fresh one per suspended order.
type Poller struct {
	checker  StatusChecker
	cfg      PollConfig
	machine  *fsm.FSM
	log      zerolog.Logger
	observer Observer

	cancelOnce sync.Once
	cancelled  chan struct{}
}

// NewPoller builds a poller for the challenge's transaction, with bounds
// resolved from the method's advertised limits and the caller's overrides.
func NewPoller(checker StatusChecker, method Method, caller PollConfig) *Poller {
	p := &Poller{
		checker:   checker,
		cfg:       ResolvePollConfig(method, caller),
		log:       zerolog.Nop(),
		cancelled: make(chan struct{}),
	}
	live := []string{StateInitiated, StateChallengeSent, StatePendingConfirmation}
	p.machine = fsm.NewFSM(
		StateInitiated,
		fsm.Events{
			{Name: eventStart, Src: []string{StateInitiated}, Dst: StateChallengeSent},
			{Name: eventPoll, Src: []string{StateChallengeSent, StatePendingConfirmation}, Dst: StatePendingConfirmation},
			{Name: eventConfirm, Src: []string{StateChallengeSent, StatePendingConfirmation}, Dst: StateConfirmed},
			{Name: eventFail, Src: live, Dst: StateFailed},
			{Name: eventCancel, Src: live, Dst: StateCancelled},
			{Name: eventTimeout, Src: live, Dst: StateTimedOut},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				p.log.Debug().Str("from", e.Src).Str("to", e.Dst).
					Msg("decoupled confirmation state change")
				if p.observer != nil {
					p.observer(e.Src, e.Dst)
				}
			},
		},
	)
	return p
}

// WithObserver returns the poller reporting every transition through fn. Set
// before Wait; the callback runs on the polling goroutine.
func (p *Poller) WithObserver(fn Observer) *Poller {
	p.observer = fn
	return p
}

// WithLogger returns the poller logging through l.
func (p *Poller) WithLogger(l zerolog.Logger) *Poller {
	p.log = l
	return p
}

// State returns the poller's current lifecycle state.
func (p *Poller) State() string { return p.machine.Current() }

// Cancel stops an in-flight Wait cooperatively. Safe to call from another
// goroutine and more than once.
func (p *Poller) Cancel() {
	p.cancelOnce.Do(func() { close(p.cancelled) })
}

// Wait polls the bank until the order is confirmed, the request budget is
// spent, the total timeout elapses, or the poll is cancelled. On success the
// final status messages are returned; every other outcome is a PollError.
func (p *Poller) Wait(ctx context.Context, transactionReference string) ([]string, error) {
	ctx, stop := context.WithTimeout(ctx, p.cfg.TotalTimeout)
	defer stop()

	requests := 0
	var lastMessages []string
	fail := func(state string, cause error) ([]string, error) {
		return nil, &PollError{
			State:                state,
			TransactionReference: transactionReference,
			RequestsMade:         requests,
			LastMessages:         lastMessages,
			Cause:                cause,
		}
	}

	p.event(ctx, eventStart)
	if err := p.sleep(ctx, p.cfg.WaitBeforeFirst); err != nil {
		p.transition(ctx, err)
		return fail(p.State(), err)
	}
	for requests < p.cfg.MaxRequests {
		// The order counts as awaiting confirmation from the moment a status
		// request goes out, not once the first answer arrives.
		p.event(ctx, eventPoll)
		status, err := p.checker.CheckStatus(ctx, transactionReference)
		requests++
		if err != nil {
			p.transition(ctx, err)
			return fail(p.State(), err)
		}
		lastMessages = status.Messages
		if !status.Pending {
			p.event(ctx, eventConfirm)
			return status.Messages, nil
		}
		if err := p.sleep(ctx, p.cfg.WaitBetween); err != nil {
			p.transition(ctx, err)
			return fail(p.State(), err)
		}
	}
	p.event(ctx, eventFail)
	return fail(p.State(), fmt.Errorf("tan: status request budget of %d exhausted", p.cfg.MaxRequests))
}

// sleep waits for d unless the context expires or the poll is cancelled.
func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-p.cancelled:
			return ErrCancelled
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-p.cancelled:
		return ErrCancelled
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// transition maps a poll-stopping error onto the matching terminal state.
func (p *Poller) transition(ctx context.Context, cause error) {
	switch {
	case errors.Is(cause, ErrCancelled), errors.Is(cause, context.Canceled):
		p.event(ctx, eventCancel)
	case errors.Is(cause, context.DeadlineExceeded):
		p.event(ctx, eventTimeout)
	default:
		p.event(ctx, eventFail)
	}
}

func (p *Poller) event(ctx context.Context, name string) {
	// Terminal states reject further events; the resulting error only says
	// the poll already ended, so it is logged and dropped.
	if err := p.machine.Event(ctx, name); err != nil {
		p.log.Debug().Err(err).Str("event", name).Msg("state event rejected")
	}
}
