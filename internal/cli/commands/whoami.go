package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trashdash/trashdash-go/internal/format"
	"github.com/trashdash/trashdash-go/internal/session"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami()
		},
	}
}

type whoamiDeps struct {
	store *session.Store
	out   io.Writer
}

type whoamiOption func(*whoamiDeps)

// WithWhoamiStore injects a pre-built session store (tests).
func WithWhoamiStore(store *session.Store) whoamiOption {
	return func(d *whoamiDeps) { d.store = store }
}

// WithWhoamiOutput redirects command output (tests).
func WithWhoamiOutput(out io.Writer) whoamiOption {
	return func(d *whoamiDeps) { d.out = out }
}

func runWhoami(opts ...whoamiOption) error {
	deps := whoamiDeps{out: os.Stdout}
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

	deps.store.RefreshAuth(context.Background())

	sess := deps.store.Session()
	if !sess.IsAuthenticated || sess.User == nil {
		return fmt.Errorf("not authenticated. Please run 'trashdash login' first")
	}

	user := sess.User
	w := tabwriter.NewWriter(deps.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", user.ID)
	fmt.Fprintf(w, "Name\t%s\n", user.FullName())
	fmt.Fprintf(w, "Email\t%s\n", user.Email)
	fmt.Fprintf(w, "Phone\t%s\n", format.PhoneNumber(user.Phone))
	fmt.Fprintf(w, "Role\t%s\n", user.Role.Label())
	fmt.Fprintf(w, "Status\t%s\n", format.Label(string(user.Status)))
	w.Flush()

	return nil
}
