package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rentdash/internal/analysis"
	"github.com/KaramelBytes/rentdash/internal/utils"
)

var (
	summaryFilters filterFlags
	summaryJSON    bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Filter the dataset and print the six aggregates",
	Long: `Loads the configured dataset, applies the filter flags and prints a report
with listings per city, mean rent by rooms and city, mean area and rent per
city, the share of listings accepting pets and the rent distribution after
removing outliers on the total.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		c, err := summaryFilters.criteria(cmd, ds)
		if err != nil {
			return err
		}
		d := analysis.Build(ds, c)
		out := cmd.OutOrStdout()
		if summaryJSON {
			b, err := utils.PrettyJSON(d)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprint(out, d.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryFilters.register(summaryCmd)
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "print the dashboard as JSON")
}
