package cli

import "github.com/spf13/cobra"

func newPingCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.api.Ping(cmd.Context()); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "%s is up", a.config.ServerURL)
			return nil
		},
	}
}
