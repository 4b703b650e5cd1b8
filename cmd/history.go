package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/clsprm/app"
	corehistory "github.com/kilianp07/clsprm/core/history"
	"github.com/kilianp07/clsprm/core/mip"
)

var historyOpts struct {
	statuses []string
	since    string
	limit    int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past solve runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringSliceVar(&historyOpts.statuses, "status", nil, "only runs with these statuses")
	f.StringVar(&historyOpts.since, "since", "", "only runs after this RFC3339 time")
	f.IntVar(&historyOpts.limit, "limit", 0, "keep the most recent runs only")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	q := corehistory.Query{Limit: historyOpts.limit}
	for _, s := range historyOpts.statuses {
		st, err := mip.ParseStatus(s)
		if err != nil {
			return err
		}
		q.Statuses = append(q.Statuses, st)
	}
	if historyOpts.since != "" {
		t, err := time.Parse(time.RFC3339, historyOpts.since)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		q.Start = t
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Logging.HistoryPath == "" {
		return fmt.Errorf("logging.history_path is not configured")
	}
	return withService(cfg, func(ctx context.Context, svc *app.Service) error {
		recs, err := svc.History(ctx, q)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "TIME\tRUN\tINPUT\tSTATUS\tOBJECTIVE\tNODES\tSECONDS")
		for _, r := range recs {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g\t%d\t%.3f\n",
				r.Timestamp.Format(time.RFC3339), r.RunID, r.Input, r.Status, r.Objective, r.Nodes, r.Duration)
		}
		return tw.Flush()
	})
}
