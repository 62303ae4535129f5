package cmd

import (
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/adapters/devauth"
)

var demoUsersCmd = &cobra.Command{
	Use:   "demo-users",
	Short: "List the built-in demo accounts",
	Long: `List the accounts accepted when AUTH_MODE=mock. They share one
password, set with DEV_AUTH_PASSWORD (default "` + devauth.DefaultPassword + `").`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		users := devauth.DemoUsers()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), users)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		printf(tw, "EMAIL\tROLE\tNAME\tDEPARTMENT\n")
		for _, u := range users {
			printf(tw, "%s\t%s\t%s\t%s\n", u.Email, u.Role, u.Name, u.DepartmentName)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(demoUsersCmd)
}
