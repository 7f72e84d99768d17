package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/r-baldridge/jules-aero-researcher/internal/clock/system"
	"github.com/r-baldridge/jules-aero-researcher/internal/logbook"
	"github.com/r-baldridge/jules-aero-researcher/internal/source"
)

// newRecoverCmd creates the 'recover' subcommand: rebuild the seen-state
// from the research log. This is the explicit recovery path; normal runs
// never re-parse the log.
func newRecoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Rebuilds the dedup state from the research log",
		Long: `Parses every entry block in the research log, derives each entry's
identifier from its source link, and writes a fresh dedup state. Use this
after losing or corrupting the state file.`,
		RunE: runRecoverCommand,
	}
}

func runRecoverCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	f, err := os.Open(a.cfg.LogPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("research log %s does not exist; nothing to recover", a.cfg.LogPath)
	}
	if err != nil {
		return fmt.Errorf("open research log: %w", err)
	}
	defer f.Close()

	entries, err := logbook.Scan(f)
	if err != nil {
		return fmt.Errorf("parse research log: %w", err)
	}

	store, err := openStore(a.cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Load(); err != nil {
		// Recovery exists precisely because the state may be unreadable;
		// start from an empty set instead of refusing.
		a.logger.Warn("existing state unreadable; rebuilding from scratch", zap.Error(err))
	}

	clk := system.New()
	recovered := 0
	for _, entry := range entries {
		id := source.RecoverID(entry.Link)
		if store.Contains(id) {
			continue
		}
		store.MarkSeen(id, clk.Now())
		recovered++
	}
	if err := store.Persist(); err != nil {
		return fmt.Errorf("persist recovered state: %w", err)
	}

	fmt.Printf("Recovered %d identifiers from %d log entries.\n", recovered, len(entries))
	return nil
}
