package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pablobm/calculate/internal/store"
	"github.com/pablobm/calculate/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Engine   string // optional - filter to one engine
}

// TraceStats holds summary statistics for a trace.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	Engines     int            `json:"engines"`
	ByTrigger   map[string]int `json:"by_trigger"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Engine   string        `json:"engine,omitempty"`
	Timeline []trace.Event `json:"timeline"`
	Stats    TraceStats    `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recompute journal",
		Long: `Show the recomputes recorded in a journal database, in seq order.

Each line shows what triggered the recompute, which base it was, the
operand sums that went in and the text that was written.

Examples:
  calculate trace --db ./calc.db
  calculate trace --db ./calc.db --engine 0192f4c1-...
  calculate trace --db ./calc.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "show one engine only")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var events []trace.Event
	if opts.Engine != "" {
		events, err = st.ReadEngineEvents(ctx, opts.Engine)
	} else {
		events, err = st.ReadEvents(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := TraceResult{
		Engine:   opts.Engine,
		Timeline: events,
		Stats:    traceStats(events),
	}

	if out.Format == "json" {
		return out.Success(result)
	}
	outputTraceText(out.Writer, result, opts.Verbose)
	return nil
}

func traceStats(events []trace.Event) TraceStats {
	stats := TraceStats{TotalEvents: len(events), ByTrigger: map[string]int{}}
	engines := map[string]bool{}
	for _, e := range events {
		engines[e.Engine] = true
		stats.ByTrigger[string(e.Trigger)]++
	}
	stats.Engines = len(engines)
	return stats
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	if result.Engine != "" {
		fmt.Fprintf(w, "Trace for engine: %s\n\n", result.Engine)
	}

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, e := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %-7s %s base %d: %s = %s\n",
			e.Seq, strings.ToUpper(string(e.Trigger)), truncateID(e.Engine), e.Base, e.ResultSelector, e.Result)
		if verbose {
			fmt.Fprintf(w, "       Formula: %s\n", e.Formula)
			fmt.Fprintf(w, "       Inputs: %s\n", formatInputs(e.Inputs))
			fmt.Fprintf(w, "       ID: %s\n", truncateID(e.ID))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Engines:      %d\n", result.Stats.Engines)
	for _, t := range []trace.Trigger{trace.TriggerFormula, trace.TriggerRun, trace.TriggerChange} {
		fmt.Fprintf(w, "  %-13s %d\n", strings.ToUpper(string(t)[:1])+string(t)[1:]+":", result.Stats.ByTrigger[string(t)])
	}
}

// formatInputs formats operand sums with sorted keys for deterministic
// output.
func formatInputs(inputs map[string]string) string {
	if len(inputs) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, inputs[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
