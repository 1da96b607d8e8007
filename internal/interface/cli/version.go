package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsmedic/opsmedic/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the opsmedic version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "opsmedic %s\n", buildinfo.GetVersion())
		},
	}
}
