package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/log"
	"github.com/soaringjerry/Solace/internal/server"
	"github.com/soaringjerry/Solace/internal/services"
	"github.com/soaringjerry/Solace/internal/tui"
)

var (
	takeSubject    string
	takeLocale     string
	takeAccessible bool
)

var takeCmd = &cobra.Command{
	Use:   "take",
	Short: "Take the assessment interactively",
	Long: `Walk through every visible question and print the Solace score.
The result is saved to the configured store.

Examples:
  solace take --subject alice
  solace take --sqlite ./solace.db --seal-key "$SOLACE_SEAL_KEY"
`,
	Args: cobra.NoArgs,
	RunE: runTake,
}

func init() {
	takeCmd.Flags().StringVar(&takeSubject, "subject", subjectDefault(), "subject id the result is stored under")
	takeCmd.Flags().StringVar(&takeLocale, "locale", "en", "locale for prompts and labels")
	takeCmd.Flags().BoolVar(&takeAccessible, "accessible", false, "plain line prompts instead of the form UI")
	rootCmd.AddCommand(takeCmd)
}

func runTake(cmd *cobra.Command, args []string) error {
	cfg := config()
	logger := log.Default()
	catalog, err := server.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	store, conn, err := server.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	if conn != nil {
		defer conn.Close()
	}
	svc := services.NewAssessmentService(catalog, assessment.DefaultEngine(), store, services.WithLogger(logger))
	runner := tui.NewRunner(svc, tui.FormAsker{Accessible: takeAccessible}, cmd.OutOrStdout())

	v, err := runner.Run(cmd.Context(), services.StartRequest{SubjectID: takeSubject, Locale: takeLocale})
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Assessment abandoned, nothing was saved.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderResult(v))
	if v.EntryID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved as %s\n", v.EntryID)
	}
	return nil
}
