package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsmedic/opsmedic/internal/infrastructure/di"
)

func newAuditCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the most recent repair audit entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := di.NewContainer(globalConfig, GetLogger())
			if err != nil {
				return err
			}
			defer container.Close()

			entries, err := container.AuditSink().List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no audit entries")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTOOL\tOK\tCASE\tOUTPUT")
			for _, e := range entries {
				ok := "yes"
				if !e.Success {
					ok = "no"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.Local().Format(time.RFC3339), e.ToolName, ok, e.CaseID, e.Output)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries to show")
	return cmd
}
