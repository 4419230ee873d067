package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trashdash/trashdash-go/internal/cli/commands"
	"github.com/trashdash/trashdash-go/internal/config"
	"github.com/trashdash/trashdash-go/internal/logger"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "trashdash",
	Short: "TrashDash - trash-bin concierge from the command line",
	Long: `TrashDash CLI - Manage your TrashDash session and account.

The same binary serves the customer, dasher and admin apps; which one you
are talking to is set per directory in trashdash.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			logger.Init("info", "console")
			return
		}
		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	},
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("trashdash version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
