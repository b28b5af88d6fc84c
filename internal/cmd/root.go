// Package cmd implements the solace command line.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Solace/internal/log"
	"github.com/soaringjerry/Solace/internal/server"
)

var (
	flagSQLite    string
	flagSnapshot  string
	flagCatalog   string
	flagSealKey   string
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "solace",
	Short: "Mental-health check-in assessments",
	Long: `solace runs the Solace assessment in the terminal, inspects the
question catalog, shows stored history and serves the HTTP API.

Storage flags default to the SOLACE_* environment variables used by the server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := log.DefaultConfig()
		cfg.Level = log.ParseLevel(flagLogLevel)
		cfg.Format = log.ParseFormat(flagLogFormat)
		cfg.Output = cmd.ErrOrStderr()
		log.SetDefault(log.New(cfg))
	},
}

func init() {
	env := server.ConfigFromEnv()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagSQLite, "sqlite", env.SQLitePath, "SQLite database file (empty for the JSON snapshot store)")
	pf.StringVar(&flagSnapshot, "snapshot", env.SnapshotPath, "JSON snapshot file used when --sqlite is empty")
	pf.StringVar(&flagCatalog, "catalog", env.CatalogPath, "YAML catalog file (empty for the built-in catalog)")
	pf.StringVar(&flagSealKey, "seal-key", env.SealKey, "secret used to seal free-text answers in SQLite")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "text", "log format: text or json")
}

// config merges the persistent flags over the environment.
func config() server.Config {
	cfg := server.ConfigFromEnv()
	cfg.SQLitePath = flagSQLite
	cfg.SnapshotPath = flagSnapshot
	cfg.CatalogPath = flagCatalog
	cfg.SealKey = flagSealKey
	return cfg
}

// ExecuteContext runs the root command with ctx, cancelled on interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func subjectDefault() string {
	if s := os.Getenv("SOLACE_SUBJECT"); s != "" {
		return s
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "local"
}
