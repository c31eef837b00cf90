package cli

import (
	"github.com/dmitrijs2005/paaster/internal/client/config"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the paaster command tree around cfg. Flags are
// bound onto cfg, so they override the values LoadConfig produced.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	var app *App

	root := &cobra.Command{
		Use:           "paaster",
		Short:         "End-to-end encrypted paste and file sharing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// -c/--config is consumed by config.LoadConfig before cobra runs; it is
	// declared here only so cobra accepts it.
	root.PersistentFlags().StringP("config", "c", "", "path to JSON config file")
	config.BindFlags(root.PersistentFlags(), cfg)

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		app = a
		return nil
	}
	root.PersistentPostRunE = func(*cobra.Command, []string) error {
		if app == nil {
			return nil
		}
		return app.Close()
	}

	current := func() *App { return app }
	root.AddCommand(
		newShareCommand(current),
		newOpenCommand(current),
		newHistoryCommand(current),
		newPingCommand(current),
	)

	return root
}
