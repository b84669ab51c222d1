// Package logging builds the operator-facing logger.
//
// Info and above are the messages an operator always sees; debug carries the
// step-by-step trace shown with --verbose.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"

	"tilefx/internal/config"
)

// New returns a logger writing to w. A nil w means stderr.
func New(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    cfg.NoColor,
	})
	return slog.New(handler)
}

// WithRun tags every record with a fresh run id, so interleaved output from
// separate invocations can be told apart.
func WithRun(logger *slog.Logger) *slog.Logger {
	return logger.With("run", uuid.NewString()[:8])
}
