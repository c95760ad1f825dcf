package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pablobm/calculate/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayEngineResult holds the replay result for a single engine.
type ReplayEngineResult struct {
	Engine  string `json:"engine"`
	Events  int    `json:"events"`
	LastSeq int64  `json:"last_seq"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Engines       []ReplayEngineResult `json:"engines"`
	TotalEvents   int                  `json:"total_events"`
	SchemaVersion int                  `json:"schema_version"`
	Mismatched    []string             `json:"mismatched,omitempty"`
	Intact        bool                 `json:"intact"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-read the journal and verify event IDs",
		Long: `Re-read every journaled recompute in order and recompute its
content-addressed ID. An ID that no longer matches its row means the
row was edited after it was written.

Exit codes:
  0 - Every event matches its ID
  1 - One or more events were altered
  2 - Command error (database not found, etc.)

Examples:
  calculate replay --db ./calc.db
  calculate replay --db ./calc.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	version, err := st.SchemaVersion(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read schema version", err)
	}
	engines, err := st.Engines(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list engines", err)
	}

	result := ReplayResult{
		Engines:       make([]ReplayEngineResult, 0, len(engines)),
		SchemaVersion: version,
	}
	for _, id := range engines {
		events, err := st.ReadEngineEvents(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay engine %s", id), err)
		}
		er := ReplayEngineResult{Engine: id, Events: len(events)}
		if len(events) > 0 {
			er.LastSeq = events[len(events)-1].Seq
		}
		out.VerboseLog("Replayed %d event(s) of engine %s", er.Events, id)
		result.Engines = append(result.Engines, er)
		result.TotalEvents += er.Events
	}

	result.Mismatched, err = st.Verify(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to verify journal", err)
	}
	result.Intact = len(result.Mismatched) == 0

	if out.Format == "json" {
		if err := out.Success(result); err != nil {
			return err
		}
	} else {
		w := out.Writer
		if len(result.Engines) == 0 {
			fmt.Fprintln(w, "No events found in database.")
		}
		for _, e := range result.Engines {
			fmt.Fprintf(w, "%s: %d event(s), last seq %d\n", truncateID(e.Engine), e.Events, e.LastSeq)
		}
		for _, id := range result.Mismatched {
			fmt.Fprintf(w, "✗ altered event %s\n", truncateID(id))
		}
		if result.Intact {
			fmt.Fprintf(w, "✓ %d event(s) verified\n", result.TotalEvents)
		}
	}

	if !result.Intact {
		return NewExitError(ExitFailure, fmt.Sprintf("%d event(s) altered", len(result.Mismatched)))
	}
	return nil
}
