package testlog

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/openfints/fints/internal/logging"
)

// Start configures the shared test logging profile and tags the logger with
// the test name.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	return logging.ConfigureTests().With().Str("test", t.Name()).Logger()
}
