package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trashdash/trashdash-go/internal/models"
	"github.com/trashdash/trashdash-go/internal/session"
	"github.com/trashdash/trashdash-go/internal/validate"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the TrashDash backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set TRASHDASH_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set TRASHDASH_PASSWORD, will prompt if not provided)")

	return cmd
}

// loginDeps holds the injectable dependencies so tests can supply a mock
// store and capture output.
type loginDeps struct {
	store  *session.Store
	appCfg session.Config
	out    io.Writer
}

type loginOption func(*loginDeps)

// WithLoginStore injects a pre-built session store (tests).
func WithLoginStore(store *session.Store, appCfg session.Config) loginOption {
	return func(d *loginDeps) {
		d.store = store
		d.appCfg = appCfg
	}
}

// WithLoginOutput redirects command output (tests).
func WithLoginOutput(out io.Writer) loginOption {
	return func(d *loginDeps) { d.out = out }
}

func runLogin(email, password string, opts ...loginOption) error {
	deps := loginDeps{out: os.Stdout}
	for _, opt := range opts {
		opt(&deps)
	}

	// Environment variables cover non-interactive use (CI, scripts)
	if email == "" {
		email = os.Getenv("TRASHDASH_EMAIL")
	}
	if password == "" {
		password = os.Getenv("TRASHDASH_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or TRASHDASH_EMAIL env var)")
	}

	if deps.store == nil {
		store, appCfg, err := newSessionStore(deps.out)
		if err != nil {
			return err
		}
		deps.store = store
		deps.appCfg = appCfg
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Fprint(deps.out, "Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Fprintln(deps.out)
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or TRASHDASH_PASSWORD env var)")
		}
	}

	creds := models.LoginCredentials{Email: email, Password: password}
	if err := validate.ValidateLogin(creds); err != nil {
		return err
	}

	fmt.Fprintf(deps.out, "Logging in to the %s app...\n", deps.appCfg.App)

	if err := deps.store.Login(context.Background(), creds); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	sess := deps.store.Session()
	fmt.Fprintln(deps.out, "✓ Login successful!")
	fmt.Fprintf(deps.out, "  User: %s (%s)\n", sess.User.FullName(), sess.User.Email)
	fmt.Fprintf(deps.out, "  Role: %s\n", sess.User.Role.Label())

	return nil
}
