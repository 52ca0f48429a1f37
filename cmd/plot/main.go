// Command plot serves and edits directories of numeric columns and the
// tables assembled from them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plot451/plot/pkg/config"
	"github.com/plot451/plot/pkg/logger"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "plot",
	Short: "Directories of numeric columns, combined into tables",
	Long: `plot stores numeric columns in a directory tree and lets you combine
columns into tables without copying them.

Run "plot serve" for the HTTP API or "plot shell" for an interactive session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := logger.Init(loaded.Log.Level, loaded.Log.Format); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "plot.yaml", "config file (missing file means defaults)")
	rootCmd.AddCommand(serveCmd, shellCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
