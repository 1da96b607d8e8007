package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	infraconfig "github.com/opsmedic/opsmedic/internal/infrastructure/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default setting.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			baseDir := ".opsmedic"
			if home := os.Getenv("OPSMEDIC_HOME"); home != "" {
				baseDir = home
			}

			fs := afero.NewOsFs()
			if err := fs.MkdirAll(baseDir, 0755); err != nil {
				return err
			}

			path := filepath.Join(baseDir, "setting.yaml")
			if _, err := fs.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}

			if err := afero.WriteFile(fs, path, infraconfig.CreateDefaultSettings(), 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}
