package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/navigation"
)

// PasswordEnv supplies the password non-interactively.
const PasswordEnv = "PULSE_PASSWORD"

var (
	loginEmail    string
	loginPassword string
	loginFrom     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session",
	Long: `Verify an email and password with the configured verifier and
persist the resulting session for the console and later commands.

The password is taken from --password, then $PULSE_PASSWORD, then the
first line of standard input.

Examples:
  pulsectl login --email faculty@example.com
  PULSE_PASSWORD=password123 pulsectl login --email hod@example.com --from /hod/reports`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the persisted session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSessions(cmd, func(ctx context.Context, s Sessions) error {
			if err := s.Logout(ctx); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Signed out.\n")
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email (required)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password (visible in shell history)")
	loginCmd.Flags().StringVar(&loginFrom, "from", "", "page to land on after signing in")
	_ = loginCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(loginCmd, logoutCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	password, err := resolvePassword(loginPassword, cmd.InOrStdin())
	if err != nil {
		return err
	}

	return withSessions(cmd, func(ctx context.Context, s Sessions) error {
		id, err := s.Login(ctx, strings.TrimSpace(loginEmail), password)
		if err != nil {
			return err
		}
		target := loginFrom
		if target == "" || navigation.Classify(target).Kind == navigation.KindPublicOnly {
			target = navigation.PathDashboard
		}
		landing, _ := navigation.Resolve(s.Current(), target)

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"authenticated": true,
				"user":          id,
				"redirect_to":   landing,
			})
		}
		w := cmd.OutOrStdout()
		printf(w, "Signed in as %s <%s> (%s).\n", id.Name, id.Email, id.Role)
		printf(w, "Landing page: %s\n", landing)
		return nil
	})
}

// resolvePassword picks the flag, the environment, then one line of stdin.
func resolvePassword(flag string, stdin io.Reader) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(PasswordEnv); v != "" {
		return v, nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password required: pass --password, set " + PasswordEnv + " or pipe it on stdin")
	}
	return line, nil
}
