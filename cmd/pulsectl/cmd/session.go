package cmd

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/navigation"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Re-validate the session with the verifier",
	Long: `Ask the verifier who the persisted token belongs to and store the
answer. A rejected token signs the session out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSessions(cmd, func(ctx context.Context, s Sessions) error {
			if _, err := s.RefreshIdentity(ctx); err != nil {
				return err
			}
			return printSession(cmd.OutOrStdout(), s.Current())
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted session without a network call",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSessions(cmd, func(_ context.Context, s Sessions) error {
			return printSession(cmd.OutOrStdout(), s.Current())
		})
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd, statusCmd)
}

func printSession(w io.Writer, sess domainauth.Session) error {
	if jsonOutput {
		out := map[string]any{
			"authenticated": sess.IsAuthenticated(),
			"status":        sess.Status,
		}
		if sess.IsAuthenticated() {
			out["user"] = sess.Identity
			out["dashboard"] = navigation.DashboardPathFor(sess.Role())
		}
		return writeJSON(w, out)
	}

	if !sess.IsAuthenticated() {
		printf(w, "Not signed in.\n")
		return nil
	}
	id := sess.Identity
	printf(w, "Signed in as %s <%s>\n", id.Name, id.Email)
	printf(w, "  Role:       %s\n", id.Role)
	if dept := id.DepartmentName; dept != "" {
		printf(w, "  Department: %s\n", dept)
	}
	printf(w, "  Dashboard:  %s\n", navigation.DashboardPathFor(id.Role))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
