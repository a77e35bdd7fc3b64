package testlog

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/logging"
)

// Start configures test logging once and returns a logger scoped to t.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logging.ConfigureTests()
	return zerolog.New(zerolog.NewTestWriter(t)).With().Str("test", t.Name()).Logger()
}
