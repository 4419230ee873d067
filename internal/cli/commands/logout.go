package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/trashdash/trashdash-go/internal/session"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout()
		},
	}
}

type logoutDeps struct {
	store *session.Store
	out   io.Writer
}

type logoutOption func(*logoutDeps)

// WithLogoutStore injects a pre-built session store (tests).
func WithLogoutStore(store *session.Store) logoutOption {
	return func(d *logoutDeps) { d.store = store }
}

// WithLogoutOutput redirects command output (tests).
func WithLogoutOutput(out io.Writer) logoutOption {
	return func(d *logoutDeps) { d.out = out }
}

func runLogout(opts ...logoutOption) error {
	deps := logoutDeps{out: os.Stdout}
	for _, opt := range opts {
		opt(&deps)
	}

	if deps.store == nil {
		store, _, err := newSessionStore(deps.out)
		if err != nil {
			return err
		}
		deps.store = store
	}

	ctx := context.Background()

	// Pick up any persisted session first so the backend gets notified
	deps.store.RefreshAuth(ctx)
	deps.store.Logout(ctx)

	fmt.Fprintln(deps.out, "✓ Logged out.")
	return nil
}
