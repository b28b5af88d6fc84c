package cmd

import (
	"github.com/spf13/cobra"

	"github.com/soaringjerry/Solace/internal/log"
	"github.com/soaringjerry/Solace/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the same server as cmd/server. Other settings come from the
SOLACE_* environment variables.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config()
		cfg.Addr = serveAddr
		cfg.LogLevel, cfg.LogFormat = flagLogLevel, flagLogFormat
		app, err := server.New(cfg, log.Default())
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", server.ConfigFromEnv().Addr, "listen address")
	rootCmd.AddCommand(serveCmd)
}
