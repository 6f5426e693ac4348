package config

import (
	"github.com/openfints/fints/internal/client"
	"github.com/openfints/fints/internal/tan"
	"github.com/openfints/fints/internal/transport"
)

// ClientConfig converts the file configuration into the client's runtime
// configuration, including the transport built from the reliability settings.
func ClientConfig(cfg Config) client.Config {
	return client.Config{
		URL:       cfg.URL,
		BankCode:  cfg.BankCode,
		UserID:    cfg.UserID,
		PIN:       cfg.PIN,
		ProductID: cfg.ProductID,
		MaxPages:  cfg.MaxPages,
		Transport: transport.NewHTTP(TransportConfig(cfg)),
		Poll:      PollConfig(cfg),
	}
}

// TransportConfig maps the reliability settings onto the HTTP transport.
func TransportConfig(cfg Config) transport.Config {
	out := transport.DefaultConfig(cfg.URL)
	if cfg.Timeout > 0 {
		out.Timeout = cfg.Timeout
	}
	if cfg.MaxRetries > 0 {
		out.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		out.RetryDelay = cfg.RetryDelay
	}
	return out
}

// PollConfig maps the decoupled overrides onto the poller's caller layer.
// Zero fields mean "no override" there.
func PollConfig(cfg Config) tan.PollConfig {
	return tan.PollConfig{
		WaitBeforeFirst: cfg.DecoupledWaitBeforeFirst,
		WaitBetween:     cfg.DecoupledWaitBetween,
		MaxRequests:     cfg.DecoupledMaxRequests,
		TotalTimeout:    cfg.DecoupledTotalTimeout,
	}
}
