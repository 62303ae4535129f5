package cmd

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/navigation"
)

var routeCmd = &cobra.Command{
	Use:   "route <path>",
	Short: "Evaluate the route guards for a path",
	Long: `Run the route table against the persisted session and print the
first guard decision and the page the console would finally render.

Example:
  pulsectl route /admin/users`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd, func(_ context.Context, s Sessions) error {
			sess := s.Current()
			requested := navigation.CleanPath(args[0])
			final, first := navigation.Resolve(sess, requested)
			kind := navigation.Classify(requested).Kind

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"path":     requested,
					"kind":     kind.String(),
					"decision": first.Outcome.String(),
					"location": first.Location,
					"final":    final,
				})
			}
			w := cmd.OutOrStdout()
			printf(w, "%s (%s)\n", requested, kind)
			if first.Allowed() {
				printf(w, "  allow\n")
			} else {
				printf(w, "  redirect -> %s\n", first.Location)
			}
			printf(w, "  renders %s\n", final)
			return nil
		})
	},
}

var navCmd = &cobra.Command{
	Use:   "nav",
	Short: "Print the navigation menu for the session's role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSessions(cmd, func(_ context.Context, s Sessions) error {
			items := navigation.MenuFor(s.Current().Role())
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			printMenu(cmd.OutOrStdout(), items, 0)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(routeCmd, navCmd)
}

func printMenu(w io.Writer, items []navigation.MenuItem, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, it := range items {
		if it.Href != "" {
			printf(w, "%s%s  %s\n", indent, it.Title, it.Href)
		} else {
			printf(w, "%s%s\n", indent, it.Title)
		}
		printMenu(w, it.Children, depth+1)
	}
}
