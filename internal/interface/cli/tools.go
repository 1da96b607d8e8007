package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/opsmedic/opsmedic/internal/infrastructure/di"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the registered tools and their capability class",
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := di.NewContainer(globalConfig, GetLogger())
			if err != nil {
				return err
			}
			defer container.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCAPABILITY\tDESCRIPTION")
			for _, d := range container.Catalog().Descriptors() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.Capability, d.Description)
			}
			return w.Flush()
		},
	}
}
