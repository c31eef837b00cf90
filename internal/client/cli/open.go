package cli

import (
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/paaster/internal/client/services"
	"github.com/dmitrijs2005/paaster/internal/cryptox"
	"github.com/dmitrijs2005/paaster/internal/filex"
	"github.com/spf13/cobra"
)

const maxPasswordAttempts = 3

func newOpenCommand(app func() *App) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "open <link>",
		Short: "Fetch and decrypt a share",
		Long: `Fetch a share, decrypt it locally and print the text. An attachment is
saved under --output using its original name.

Opening a burn-after-read share consumes it: a second open fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(cmd, app(), args[0], outDir)
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "directory for the attachment")

	return cmd
}

func runOpen(cmd *cobra.Command, app *App, link, outDir string) error {
	errOut := cmd.ErrOrStderr()

	stop := startSpinner(errOut, "Fetching...")
	fetched, err := app.share.Fetch(cmd.Context(), link)
	stop()
	if err != nil {
		return err
	}

	if fetched.Content.BurnAfterRead {
		printWarning(errOut, "This share was burn-after-read and is now deleted from the server")
	}

	opened, err := decryptWithRetry(cmd, app.share, fetched)
	if err != nil {
		return err
	}

	if title := fetched.Content.Title; title != "" {
		fmt.Fprintln(errOut, highlight(title))
	}
	if opened.Text != "" {
		fmt.Fprintln(cmd.OutOrStdout(), opened.Text)
	}

	if opened.File != nil {
		name := filepath.Base(opened.FileName)
		if name == "." || name == string(filepath.Separator) || name == "" {
			name = fetched.Content.ID + ".bin"
		}
		dir, err := filex.EnsureDir(outDir)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, name)
		if err := filex.WriteFileAtomic(path, opened.File, 0o600); err != nil {
			return fmt.Errorf("save attachment: %w", err)
		}
		printSuccess(errOut, "Saved %s (%s MB)", highlight(path), services.FormatSizeMB(len(opened.File)))
	}

	return nil
}

// decryptWithRetry decrypts without a password unless the share asks for
// one, and re-prompts after a failed attempt. The record is already
// fetched, so retries never hit the server again.
func decryptWithRetry(cmd *cobra.Command, svc services.ShareService, f *services.Fetched) (*services.Opened, error) {
	errOut := cmd.ErrOrStderr()

	if !f.Content.HasPassword {
		return svc.Decrypt(f, "")
	}

	var lastErr error
	for attempt := 0; attempt < maxPasswordAttempts; attempt++ {
		pw, err := GetPassword(errOut, "Password: ")
		if err != nil {
			return nil, err
		}
		opened, err := svc.Decrypt(f, pw)
		if err == nil {
			return opened, nil
		}
		if !cryptox.IsAuthenticationError(err) {
			return nil, err
		}
		lastErr = err
		fmt.Fprintln(errOut, errorMark+" Wrong password")
	}
	return nil, lastErr
}
