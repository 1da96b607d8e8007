// Package cli implements the opsmedic command-line interface.
package cli

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/opsmedic/opsmedic/internal/app/config"
	infraconfig "github.com/opsmedic/opsmedic/internal/infrastructure/config"
)

// globalConfig holds the loaded configuration for all commands
var globalConfig config.Config

// NewRoot builds the root command
func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "opsmedic",
		Short:         "Conversational host diagnose-and-repair assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration before any command runs
			// Priority: ENV > setting.yaml > defaults
			baseDir := ".opsmedic"
			if home := os.Getenv("OPSMEDIC_HOME"); home != "" {
				baseDir = home
			}

			cfg, err := infraconfig.LoadSettings(afero.NewOsFs(), baseDir)
			if err != nil {
				return err
			}
			globalConfig = cfg
			InitGlobalLogger(cfg.LogLevel())
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newAuditCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
