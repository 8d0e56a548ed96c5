package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PizzaHomicide/lectern/internal/auth"
	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/repository/cms"
	"github.com/PizzaHomicide/lectern/internal/repository/sqlstore"
	"github.com/PizzaHomicide/lectern/internal/scheduler"
	"github.com/PizzaHomicide/lectern/internal/seed"
	"github.com/PizzaHomicide/lectern/internal/server"
	"github.com/PizzaHomicide/lectern/internal/service"
	"github.com/PizzaHomicide/lectern/internal/version"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	issueToken := flag.Uint("issue-token", 0, "print a bearer token for the given student id and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a token printed by -issue-token")
	seedFile := flag.String("seed", "", "load cohorts, lessons and enrollments from a YAML file and exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetVersionInfo())
		return
	}

	// A missing .env is normal outside of local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		_, _ = fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.New(log.Config{Level: cfg.Logging.Level, FilePath: log.Stdout})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	log.SetDefaultLogger(logger)

	if *issueToken != 0 {
		token, err := auth.IssueToken(cfg.Server.JWTSecret, uint(*issueToken), *tokenTTL)
		if err != nil {
			log.Error("Failed to issue token", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg, *seedFile); err != nil {
		log.Error("Progress server stopped with an error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, seedFile string) error {
	log.Info("Starting up Lectern progress server", "version", version.GetVersion(), "build_time", version.GetBuildTime(),
		"driver", cfg.Server.DatabaseDriver)

	db, err := sqlstore.Open(cfg.Server.DatabaseDriver, cfg.Server.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlstore.Close(db); err != nil {
			log.Warn("Failed to close database", "error", err)
		}
	}()

	contentStore := sqlstore.NewContentStore(db)
	enrollmentStore := sqlstore.NewEnrollmentStore(db)
	progressStore := sqlstore.NewProgressStore(db)

	if seedFile != "" {
		f, err := seed.Load(seedFile)
		if err != nil {
			return err
		}
		result, err := seed.Apply(context.Background(), f, contentStore, enrollmentStore)
		if err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		log.Info("Seed complete", "cohorts", result.Cohorts, "lessons", result.Lessons, "enrollments", result.Enrollments)
		return nil
	}

	verifier, err := auth.NewVerifier(cfg.Server.JWTSecret)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, verifier, server.Services{
		Progress:   service.NewProgressService(contentStore, enrollmentStore, progressStore, !cfg.Server.SkipEnrollmentCheckOnWrite),
		Aggregator: service.NewProgressAggregator(contentStore, enrollmentStore, progressStore),
		Catalog:    service.NewCatalogService(contentStore, enrollmentStore, progressStore),
	})

	jobs, err := newScheduler(cfg, contentStore, enrollmentStore)
	if err != nil {
		return err
	}
	jobs.Start()

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- srv.Listen()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		_ = jobs.Stop(context.Background())
		return fmt.Errorf("listener failed: %w", err)
	case sig := <-stop:
		log.Info("Shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("HTTP server did not shut down cleanly", "error", err)
	}
	if err := jobs.Stop(ctx); err != nil {
		log.Warn("Scheduled jobs did not finish before shutdown", "error", err)
	}

	log.Info("Lectern progress server shutting down.  Goodbye!")
	return nil
}

func newScheduler(cfg *config.Config, content *sqlstore.ContentStore, enrollments *sqlstore.EnrollmentStore) (*scheduler.Scheduler, error) {
	jobs, err := scheduler.New(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, err
	}

	lifecycle := service.NewCohortLifecycleService(content, enrollments)
	err = jobs.Add("cohort_lifecycle", cfg.Scheduler.CohortLifecycle, func(ctx context.Context) error {
		_, err := lifecycle.Advance(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if cfg.CMS.Endpoint == "" {
		log.Info("No CMS endpoint configured, content sync disabled")
		return jobs, nil
	}

	client, err := cms.NewClient(cfg.CMS.Endpoint, cfg.CMS.Token)
	if err != nil {
		return nil, err
	}
	sync := service.NewContentSyncService(cms.NewCatalogSource(client), content)
	err = jobs.Add("content_sync", cfg.Scheduler.ContentSync, func(ctx context.Context) error {
		_, err := sync.Sync(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
