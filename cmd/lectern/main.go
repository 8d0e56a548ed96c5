package main

import (
	"fmt"
	"os"

	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/ui/tui"
	"github.com/PizzaHomicide/lectern/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// It is unrecoverable if we cannot produce an application config
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialise logger.  The terminal belongs to the TUI so logs go to a file.
	logger, err := log.New(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	log.SetDefaultLogger(logger)

	log.Info("Starting up Lectern", "version", version.GetVersion(), "build_time", version.GetBuildTime())

	if err := tui.Run(cfg); err != nil {
		log.Error("Unhandled error while running TUI", "error", err)
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log.Info("Lectern shutting down.  Goodbye!")
}
