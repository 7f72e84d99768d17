package cmd

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/r-baldridge/jules-aero-researcher/internal/clock/system"
	"github.com/r-baldridge/jules-aero-researcher/internal/config"
	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
	"github.com/r-baldridge/jules-aero-researcher/internal/filter"
	"github.com/r-baldridge/jules-aero-researcher/internal/logbook"
	"github.com/r-baldridge/jules-aero-researcher/internal/pipeline"
	"github.com/r-baldridge/jules-aero-researcher/internal/policy"
	"github.com/r-baldridge/jules-aero-researcher/internal/source"
	"github.com/r-baldridge/jules-aero-researcher/internal/source/brave"
	"github.com/r-baldridge/jules-aero-researcher/internal/source/fedreg"
	"github.com/r-baldridge/jules-aero-researcher/internal/source/ntrs"
	"github.com/r-baldridge/jules-aero-researcher/internal/source/webpage"
	"github.com/r-baldridge/jules-aero-researcher/internal/state"
	"github.com/r-baldridge/jules-aero-researcher/internal/verify"
)

// newRunCmd creates the 'run' subcommand: one ingestion pass over every
// configured source.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Executes one ingestion run",
		Long: `Queries every enabled source once, filters candidates by the configured
keywords, verifies attached documents, and appends new items to the
research log. Exits non-zero on any state-integrity or log-write failure.`,
		RunE: runRunCommand,
	}
}

func runRunCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	eng, err := buildEngine(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer eng.Close(a.logger)

	report, err := eng.pipeline.Run(cmd.Context(), eng.query)
	printReport(report)
	if err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}
	return nil
}

// engine bundles a constructed pipeline with everything it must release.
type engine struct {
	pipeline *pipeline.Pipeline
	query    feed.Query
	store    feed.Store
	journal  *logbook.Writer
}

func (e *engine) Close(logger *zap.Logger) {
	if err := e.journal.Close(); err != nil {
		logger.Warn("Failed to close research log", zap.Error(err))
	}
	if err := e.store.Close(); err != nil {
		logger.Warn("Failed to close dedup store", zap.Error(err))
	}
}

// buildEngine wires sources, filter, verifier, store and journal per the
// configuration. The dedup store is loaded here: unreadable state refuses
// to run rather than risk duplicate entries.
func buildEngine(cfg config.Config, logger *zap.Logger) (*engine, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Load(); err != nil {
		store.Close()
		return nil, err
	}

	journal, err := logbook.Open(cfg.LogPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init research log: %w", err)
	}

	gate := &source.Gate{
		Robots:  policy.NewRobotsEnforcer(cfg.RespectRobots, cfg.UserAgent, logger),
		Limiter: policy.NewHostLimiter(cfg.RateLimitPerHost, 2),
	}
	httpClient := &http.Client{Timeout: cfg.Timeout()}
	retry := policy.NewRetryPolicy(
		cfg.HTTP.MaxRetries,
		time.Duration(cfg.HTTP.BackoffInitialMs)*time.Millisecond,
		time.Duration(cfg.HTTP.BackoffMaxMs)*time.Millisecond,
	)

	verifier := verify.New(httpClient, retry, gate.Limiter, verify.Options{
		UserAgent:        cfg.UserAgent,
		MaxDocumentBytes: cfg.Verify.MaxDocumentBytes,
		MinReadableChars: cfg.Verify.MinReadableChars,
		PreviewChars:     cfg.Verify.PreviewChars,
	}, logger)

	sources := buildSources(cfg, httpClient, gate, logger)
	if len(sources) == 0 {
		journal.Close()
		store.Close()
		return nil, fmt.Errorf("no sources enabled")
	}

	clk := system.New()
	return &engine{
		pipeline: pipeline.New(
			sources,
			filter.New(cfg.Keywords, filter.MatchMode(cfg.MatchMode)),
			verifier,
			store,
			journal,
			clk,
			logger,
		),
		query: feed.Query{
			Keywords: cfg.Keywords,
			Since:    clk.Now().Add(-cfg.Window()),
		},
		store:   store,
		journal: journal,
	}, nil
}

func openStore(cfg config.Config) (feed.Store, error) {
	switch cfg.State.Backend {
	case "sqlite":
		return state.NewSQLiteStore(cfg.State.Path)
	default:
		return state.NewJSONStore(cfg.State.Path), nil
	}
}

func buildSources(cfg config.Config, httpClient *http.Client, gate *source.Gate, logger *zap.Logger) []feed.Source {
	var sources []feed.Source
	if cfg.Sources.NTRS.Enabled {
		sources = append(sources, ntrs.New(
			httpClient, gate, cfg.UserAgent, cfg.Sources.NTRS.PageSize, logger))
	}
	if cfg.Sources.FedReg.Enabled {
		sources = append(sources, fedreg.New(
			httpClient, gate, cfg.UserAgent,
			cfg.Sources.FedReg.Agencies, cfg.Sources.FedReg.Term, cfg.Sources.FedReg.PerPage,
			logger))
	}
	if cfg.Sources.Brave.Enabled {
		sources = append(sources, brave.New(
			httpClient, gate, cfg.UserAgent,
			cfg.Sources.Brave.APIKey, cfg.Sources.Brave.Query, logger))
	}
	if cfg.Sources.Pages.Enabled {
		sources = append(sources, webpage.New(
			cfg.Sources.Pages.URLs, gate, cfg.UserAgent, cfg.Timeout(), logger))
	}
	return sources
}

func printReport(report feed.RunReport) {
	fmt.Printf("Run %s complete.\n", report.RunID)
	fmt.Printf("  fetched:       %d\n", report.Fetched)
	fmt.Printf("  filtered out:  %d\n", report.FilteredOut)
	fmt.Printf("  verify failed: %d\n", report.VerifyFailed)
	fmt.Printf("  duplicates:    %d\n", report.Duplicates)
	fmt.Printf("  written:       %d\n", report.Written)
	if len(report.SourceErrors) > 0 {
		names := make([]string, 0, len(report.SourceErrors))
		for name := range report.SourceErrors {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("  source errors:")
		for _, name := range names {
			fmt.Printf("    %s: %s\n", name, report.SourceErrors[name])
		}
	}
}
