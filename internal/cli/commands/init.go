package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cliconfig "github.com/trashdash/trashdash-go/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var app string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a trashdash.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(app, apiURL)
		},
	}

	cmd.Flags().StringVar(&app, "app", "customer", "Which app this checkout is (customer, dasher, admin)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend base URL override (optional)")

	return cmd
}

func runInit(app, apiURL string) error {
	if _, err := os.Stat(cliconfig.ConfigFileName); err == nil {
		return fmt.Errorf("%s already exists", cliconfig.ConfigFileName)
	}

	cfg := &cliconfig.Config{App: app, APIURL: apiURL}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := cliconfig.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("✓ Created %s for the %s app\n", cliconfig.ConfigFileName, app)
	return nil
}
