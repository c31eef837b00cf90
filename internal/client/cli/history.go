package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/paaster/internal/client/models"
	"github.com/spf13/cobra"
)

func newHistoryCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List links published from this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shares, err := app().share.History(cmd.Context())
			if err != nil {
				return err
			}
			if len(shares) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), muted("no shares yet"))
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tEXPIRY\tTITLE\tLINK")
			t := time.Now()
			for _, s := range shares {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), expiryLabel(s, t), s.Title, s.URL)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "forget <id>",
		Short: "Remove a link from the local history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app().share.Forget(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Forgot %s", highlight(args[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove expired links from the local history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := app().share.PurgeHistory(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Removed %d expired link(s)", n)
			return nil
		},
	})

	return cmd
}

func expiryLabel(s *models.Share, t time.Time) string {
	switch {
	case s.BurnAfterRead:
		return "burn after read"
	case s.Expired(t):
		return "expired"
	case s.ExpiresAt != nil:
		return "in " + s.ExpiresAt.Sub(t).Round(time.Minute).String()
	default:
		return s.Expires
	}
}
