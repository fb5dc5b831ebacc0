package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rentdash/internal/dataset"
	"github.com/KaramelBytes/rentdash/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a dataset file and store its listings in PostgreSQL",
	Long: `Decodes a CSV, TSV or XLSX file with the same rules as the dashboard and
replaces the rental_listings table with its rows. Set pg_dsn first, then use
dataset_source=postgres to serve from the database.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		ds, err := dataset.FileLoader{
			Path:    args[0],
			Options: dataset.Options{Delimiter: c.DelimiterRune(), Sheet: c.SheetName},
		}.Load(ctx)
		if err != nil {
			return err
		}
		st, err := store.Open(c.PGDSN)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Ping(ctx); err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		if err := st.ReplaceAll(ctx, ds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d listings from %s (%d dropped)\n", ds.Len(), args[0], ds.Dropped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
