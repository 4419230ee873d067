package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/trashdash/trashdash-go/internal/models"
	"github.com/trashdash/trashdash-go/internal/session"
	"github.com/trashdash/trashdash-go/internal/validate"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var data models.RegisterData
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new TrashDash account",
		RunE: func(cmd *cobra.Command, args []string) error {
			data.Role = models.Role(role)
			return runRegister(data)
		},
	}

	cmd.Flags().StringVar(&data.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&data.Password, "password", "", "Password")
	cmd.Flags().StringVar(&data.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&data.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&data.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&role, "role", string(models.RoleCustomer), "Account role (customer, dasher)")

	return cmd
}

type registerDeps struct {
	store  *session.Store
	appCfg session.Config
	out    io.Writer
}

type registerOption func(*registerDeps)

// WithRegisterStore injects a pre-built session store (tests).
func WithRegisterStore(store *session.Store, appCfg session.Config) registerOption {
	return func(d *registerDeps) {
		d.store = store
		d.appCfg = appCfg
	}
}

// WithRegisterOutput redirects command output (tests).
func WithRegisterOutput(out io.Writer) registerOption {
	return func(d *registerDeps) { d.out = out }
}

func runRegister(data models.RegisterData, opts ...registerOption) error {
	deps := registerDeps{out: os.Stdout}
	for _, opt := range opts {
		opt(&deps)
	}

	if err := validate.ValidateRegistration(data); err != nil {
		return err
	}

	if deps.store == nil {
		store, appCfg, err := newSessionStore(deps.out)
		if err != nil {
			return err
		}
		deps.store = store
		deps.appCfg = appCfg
	}

	if err := deps.store.Register(context.Background(), data); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	sess := deps.store.Session()
	fmt.Fprintln(deps.out, "✓ Account created!")
	fmt.Fprintf(deps.out, "  User: %s (%s)\n", sess.User.FullName(), sess.User.Email)
	fmt.Fprintf(deps.out, "  Role: %s\n", sess.User.Role.Label())

	return nil
}
