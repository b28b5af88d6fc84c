package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Solace/internal/log"
	"github.com/soaringjerry/Solace/internal/models"
	"github.com/soaringjerry/Solace/internal/server"
	"github.com/soaringjerry/Solace/internal/services"
	"github.com/soaringjerry/Solace/internal/tui"
)

var (
	historySubject string
	historyPeriod  string
	historyJSON    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored results and trends for a subject",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historySubject, "subject", subjectDefault(), "subject id")
	historyCmd.Flags().StringVar(&historyPeriod, "period", "week", "bucket period: week, month or year")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print the summary as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := config()
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	catalog, err := server.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	store, conn, err := server.OpenStore(cfg, log.Default())
	if err != nil {
		return err
	}
	if conn != nil {
		defer conn.Close()
	}
	svc := services.NewHistoryService(store, catalog, loc)
	summary, err := svc.Summary(historySubject, historyPeriod)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	stored, err := svc.Entries(historySubject)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tui.RenderHistory(models.HistoryEntries(stored), time.Now()))
	if summary.Total > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, tui.RenderSummary(summary))
	}
	return nil
}
