package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/LouYuanbo1/feedharvest/internal/infra/persistence/es"
	"github.com/spf13/cobra"
)

var (
	runsOutcome string
	runsLimit   int
	runsID      string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded harvest runs from Elasticsearch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !appcfg.Elasticsearch.Enabled {
			return fmt.Errorf("elasticsearch is disabled: set elasticsearch.enabled or FEEDHARVEST_ES_ADDRESS")
		}
		client, err := es.InitTypedEsClient[*model.Report](appcfg, log)
		if err != nil {
			return err
		}
		return listRuns(cmd, client)
	},
}

func listRuns(cmd *cobra.Command, client es.TypedEsClient[*model.Report]) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if runsID != "" {
		r, err := client.GetDoc(ctx, runsID)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("run %s not found", runsID)
		}
		printRun(out, r)
		return nil
	}

	recorded, err := client.CountDocs(ctx)
	if err != nil {
		return err
	}
	reports, matched, err := es.RecentReports(ctx, client, model.Outcome(runsOutcome), runsLimit)
	if err != nil {
		return err
	}
	if runsOutcome != "" {
		fmt.Fprintf(out, "%d runs recorded, %d with outcome %s\n", recorded, matched, runsOutcome)
	} else {
		fmt.Fprintf(out, "%d runs recorded\n", recorded)
	}
	for _, r := range reports {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\thighest=%d\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.RunID, r.Outcome, r.URL, r.HighestIndexSeen)
	}
	return nil
}

func printRun(out io.Writer, r *model.Report) {
	fmt.Fprintf(out, "run:        %s\n", r.RunID)
	fmt.Fprintf(out, "url:        %s\n", r.URL)
	fmt.Fprintf(out, "outcome:    %s (%s)\n", r.Outcome, r.StopReason)
	fmt.Fprintf(out, "highest:    %d\n", r.HighestIndexSeen)
	fmt.Fprintf(out, "rounds:     %d (stale streak %d)\n", r.ScrollRounds, r.StaleStreak)
	fmt.Fprintf(out, "containers: %d\n", r.Containers)
	fmt.Fprintf(out, "started:    %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "finished:   %s\n", r.FinishedAt.Format("2006-01-02 15:04:05"))
	if len(r.Artifacts) > 0 {
		fmt.Fprintf(out, "artifacts:  %s\n", strings.Join(r.Artifacts, ", "))
	}
	if r.Error != "" {
		fmt.Fprintf(out, "error:      %s\n", r.Error)
	}
}

func init() {
	runsCmd.Flags().StringVar(&runsOutcome, "outcome", "", "only runs with this outcome (target, stale, maxrounds, empty, notloaded)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsCmd.Flags().StringVar(&runsID, "id", "", "show a single run by id")
}
