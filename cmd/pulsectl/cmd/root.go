// Package cmd provides the CLI commands for pulsectl.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vijayaragavaan2065/faculty-pulse-view/config"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/bootstrap"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
)

// Sessions is the part of the session core the commands drive.
type Sessions interface {
	Current() domainauth.Session
	Rehydrate(ctx context.Context) domainauth.Session
	Login(ctx context.Context, email, password string) (domainauth.Identity, error)
	Logout(ctx context.Context) error
	RefreshIdentity(ctx context.Context) (domainauth.Identity, error)
}

// openSessions builds the rehydrated session core and a release func.
// Tests replace it.
var openSessions = func(ctx context.Context, verbose bool) (Sessions, func() error, error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logCfg := cfg.Observability.Logging
	if !verbose {
		logCfg = config.LoggingConfig{Level: "error", Format: "text"}
	}
	logger := bootstrap.InitLogger(logCfg, os.Stderr)

	app, err := bootstrap.NewApp(ctx, bootstrap.AppOptions{Config: cfg, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	app.Sessions.Rehydrate(ctx)
	return app.Sessions, app.Close, nil
}

var (
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "pulsectl",
	Short: "pulsectl - academic dashboard session tool",
	Long: `pulsectl signs in to the academic dashboard and inspects the
persisted session shared with the pulse console.

Configuration is read from the environment (and a .env file in the
current directory). The most relevant variables:
  AUTH_MODE          mock | api | oidc
  SESSION_STORE      file | redis | postgres
  SESSION_STORE_DIR  directory of the file store
  SESSION_PROFILE    name of the session to operate on

Commands:
  login       Sign in and persist the session
  logout      Sign out and clear the persisted session
  whoami      Re-validate the session with the verifier
  status      Show the persisted session without a network call
  route       Evaluate the route guards for a path
  nav         Print the navigation menu for the session's role
  demo-users  List the built-in demo accounts
  version     Print version information`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at the configured LOG_LEVEL instead of errors only")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print machine-readable JSON")
}

// withSessions opens the session core for one command.
func withSessions(cmd *cobra.Command, fn func(ctx context.Context, s Sessions) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, release, err := openSessions(ctx, verbose)
	if err != nil {
		return err
	}
	runErr := fn(ctx, s)
	if release != nil {
		if cerr := release(); cerr != nil {
			runErr = errors.Join(runErr, cerr)
		}
	}
	return runErr
}

// describe turns session errors into the user-facing sentence and leaves
// everything else (configuration, I/O) verbatim.
func describe(err error) string {
	switch {
	case errors.Is(err, domainauth.ErrNotAuthenticated):
		return "not signed in; run 'pulsectl login' first"
	case errors.Is(err, domainauth.ErrInvalidCredentials),
		errors.Is(err, domainauth.ErrVerifierUnavailable),
		errors.Is(err, domainauth.ErrStoreUnavailable),
		errors.Is(err, domainauth.ErrSessionExpired),
		errors.Is(err, domainauth.ErrSuperseded):
		return domainauth.UserMessage(err)
	default:
		return err.Error()
	}
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
