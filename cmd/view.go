package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rentdash/internal/utils"
	"github.com/KaramelBytes/rentdash/internal/view"
	"github.com/KaramelBytes/rentdash/internal/web"
)

var (
	viewFilters     filterFlags
	viewDescription string
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Manage saved filter views",
}

var viewSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the given filter flags as a named view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		c, err := viewFilters.criteria(cmd, ds)
		if err != nil {
			return err
		}
		vs, err := viewStore()
		if err != nil {
			return err
		}
		v := view.New(args[0], viewDescription, c)
		if err := vs.Save(v); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ View saved: %s (%s)\n", v.Name, v.ID)
		return nil
	},
}

var viewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved views",
	RunE: func(cmd *cobra.Command, args []string) error {
		vs, err := viewStore()
		if err != nil {
			return err
		}
		list, err := vs.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "(no views)")
			return nil
		}
		for _, v := range list {
			line := fmt.Sprintf("- %s", v.Name)
			if v.Description != "" {
				line += " (" + v.Description + ")"
			}
			fmt.Fprintf(out, "%s  cities=%s rooms=%v updated=%s\n",
				line, strings.Join(v.Criteria.Cities, ","), v.Criteria.Rooms, v.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var viewShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a saved view as JSON with its dashboard query string",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vs, err := viewStore()
		if err != nil {
			return err
		}
		v, err := vs.Load(args[0])
		if err != nil {
			return err
		}
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, string(b))
		fmt.Fprintf(out, "query: /?%s\n", web.EncodeCriteria(v.Criteria).Encode())
		return nil
	},
}

var viewDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vs, err := viewStore()
		if err != nil {
			return err
		}
		if err := vs.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ View deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.AddCommand(viewSaveCmd, viewListCmd, viewShowCmd, viewDeleteCmd)
	viewFilters.register(viewSaveCmd)
	viewSaveCmd.Flags().StringVarP(&viewDescription, "description", "d", "", "view description")
}
