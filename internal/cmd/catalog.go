package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Solace/internal/assessment"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect question catalogs",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a YAML catalog file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := assessment.LoadCatalogFile(args[0])
		if err != nil {
			return err
		}
		conditional := 0
		for _, q := range c.Questions() {
			if q.Condition != nil {
				conditional++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d questions, %d conditional\n", args[0], c.Len(), conditional)
		return nil
	},
}

var catalogDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the active catalog as YAML",
	Long: `Print the catalog selected by --catalog, or the built-in catalog, as YAML.
The output can be edited and passed back with --catalog.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := assessment.DefaultCatalog()
		if flagCatalog != "" {
			var err error
			if c, err = assessment.LoadCatalogFile(flagCatalog); err != nil {
				return err
			}
		}
		b, err := assessment.MarshalCatalogYAML(c)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd, catalogDumpCmd)
	rootCmd.AddCommand(catalogCmd)
}
