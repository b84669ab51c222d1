// Command tilefx finds a LIFX Tile on the LAN and runs an effect on it.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"tilefx/internal/config"
	"tilefx/internal/logging"
	"tilefx/internal/prompt"
	"tilefx/internal/store"
)

// Set at build time via -ldflags "-X main.version=…".
var version = "dev"

var (
	flagEffect     string
	flagClearCache bool
	flagVerbose    bool
	flagInstant    bool
	flagConfig     string

	app = &cobra.Command{
		Use:   "tilefx",
		Short: "Run animation effects on a LIFX Tile",
		Long: `tilefx finds a LIFX Tile on the local network, caches where it is, fades
it to a clean base color and hands it over to an effect.

Effects are YAML files in the directory named by EFFECTS_PATH.`,
		Example:       "  tilefx --effect ocean\n  tilefx -c -v",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
)

func init() {
	app.Flags().StringVarP(&flagEffect, "effect", "e", "", "effect name")
	app.Flags().BoolVarP(&flagClearCache, "clear-cache", "c", false, "clear device cache")
	app.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "show debug logs")
	app.Flags().BoolVarP(&flagInstant, "instant", "i", false, "use a short fade-out")
	app.Flags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	app.Flags().BoolP("version", "V", false, "print the version")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		_, noColor := os.LookupEnv("NO_COLOR")
		logger := logging.New(os.Stderr, config.LoggingConfig{Verbose: flagVerbose, NoColor: noColor})
		return exit(logger, err)
	}
	if flagVerbose {
		cfg.Logging.Verbose = true
	}
	if flagInstant {
		cfg.Instant = true
	}

	logger := logging.WithRun(logging.New(os.Stderr, cfg.Logging))
	return exit(logger, start(cmd.Context(), cfg, logger, RunOptions{Effect: flagEffect, ClearCache: flagClearCache}))
}

// exit logs how the run ended. An interrupt is a clean exit.
func exit(logger *slog.Logger, err error) error {
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(err.Error())
		logger.Info("Exiting…")
		return err
	}
	logger.Info("Exiting…")
	return nil
}

func start(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts RunOptions) error {
	a, err := NewApp(cfg, logger, prompt.Terminal{})
	if err != nil {
		return err
	}
	release, err := ensureSingleInstance(lockPath(a.store))
	if err != nil {
		return err
	}
	defer release()
	return a.Run(ctx, opts)
}

func lockPath(s *store.Store) string {
	return filepath.Join(filepath.Dir(s.Path()), "tilefx.lock")
}
