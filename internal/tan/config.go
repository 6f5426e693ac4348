package tan

import "time"

// PollConfig bounds a decoupled confirmation poll.
type PollConfig struct {
	WaitBeforeFirst time.Duration
	WaitBetween     time.Duration
	MaxRequests     int
	TotalTimeout    time.Duration
}

// DefaultPollConfig returns the polling bounds used when neither the server
// nor the caller supplies any.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		WaitBeforeFirst: 2 * time.Second,
		WaitBetween:     2 * time.Second,
		MaxRequests:     60,
		TotalTimeout:    5 * time.Minute,
	}
}

// ResolvePollConfig merges the three sources of polling bounds. Precedence
// per field: server-advertised method limits, then the caller's overrides,
// then the defaults. A zero caller field means "no override"; server limits
// are taken from the method only when advertised.
func ResolvePollConfig(method Method, caller PollConfig) PollConfig {
	out := DefaultPollConfig()
	if caller.WaitBeforeFirst > 0 {
		out.WaitBeforeFirst = caller.WaitBeforeFirst
	}
	if caller.WaitBetween > 0 {
		out.WaitBetween = caller.WaitBetween
	}
	if caller.MaxRequests > 0 {
		out.MaxRequests = caller.MaxRequests
	}
	if caller.TotalTimeout > 0 {
		out.TotalTimeout = caller.TotalTimeout
	}
	if method.DecoupledWaitBeforeFirstMS >= 0 {
		out.WaitBeforeFirst = time.Duration(method.DecoupledWaitBeforeFirstMS) * time.Millisecond
	}
	if method.DecoupledWaitBetweenMS >= 0 {
		out.WaitBetween = time.Duration(method.DecoupledWaitBetweenMS) * time.Millisecond
	}
	if method.DecoupledMaxStatusRequests > 0 {
		out.MaxRequests = method.DecoupledMaxStatusRequests
	}
	return out
}
