package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jdziat/langfuse-annotator/internal/annotation"
)

func newQueuesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "queues",
		Short: "List annotation queues with pending and completed counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			summaries, err := annotation.ListQueueSummaries(cmd.Context(), annotation.NewClientBackend(c), a.logger)
			if err != nil {
				return fmt.Errorf("listing queues: %w", err)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(a.stdout, "No annotation queues found.")
				return nil
			}

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPENDING\tCOMPLETED")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", s.ID, s.Name, s.PendingItemCount, s.CompletedItemCount)
			}
			return w.Flush()
		},
	}
}
