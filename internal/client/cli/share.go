package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/paaster/internal/client/services"
	"github.com/spf13/cobra"
)

type shareOptions struct {
	text     string
	title    string
	format   string
	expires  string
	password bool
}

func newShareCommand(app func() *App) *cobra.Command {
	opts := &shareOptions{}

	cmd := &cobra.Command{
		Use:   "share [file]",
		Short: "Encrypt and publish text and/or a file",
		Long: `Encrypt text and/or a file locally and publish the ciphertext.

Text comes from --text, or from standard input when neither --text nor a
file is given. The printed link carries the decryption key after '#';
anyone holding the link can read the content.

Expiry is one of b (burn after read), 10m, 30m, 1h, 6h, 12h, 1d, 3d, 7d.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShare(cmd, app(), opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.text, "text", "t", "", `text to share ("-" reads standard input)`)
	f.StringVar(&opts.title, "title", "", "title shown with the share (not encrypted)")
	f.StringVarP(&opts.format, "format", "f", "plaintext", "syntax highlighting hint")
	f.StringVarP(&opts.expires, "expires", "e", "1h", "expiry")
	f.BoolVarP(&opts.password, "password", "p", false, "protect the share with a password")

	return cmd
}

func runShare(cmd *cobra.Command, app *App, opts *shareOptions, args []string) error {
	out := cmd.OutOrStdout()
	in := &services.PublishInput{
		Text:    opts.text,
		Title:   opts.title,
		Format:  opts.format,
		Expires: opts.expires,
	}

	if len(args) == 1 {
		st, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		if st.Size() > services.MaxAttachmentSize {
			return fmt.Errorf("%s is %s MB, the limit is 50 MB", args[0], services.FormatSizeMB(int(st.Size())))
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		in.File = data
		in.FileName = filepath.Base(args[0])
	}

	if opts.text == "-" || (opts.text == "" && in.File == nil) {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read standard input: %w", err)
		}
		in.Text = string(b)
	}

	if opts.password {
		pw, err := GetNewPassword(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		in.Password = pw
	}

	stop := startSpinner(cmd.ErrOrStderr(), "Encrypting and uploading...")
	share, err := app.share.Publish(cmd.Context(), in)
	stop()
	if err != nil && share == nil {
		return err
	}
	if err != nil {
		printWarning(cmd.ErrOrStderr(), "%v", err)
	}

	printSuccess(cmd.ErrOrStderr(), "Published %s", highlight(share.ID))
	if share.BurnAfterRead {
		printWarning(cmd.ErrOrStderr(), "The link works once; opening it deletes the content")
	} else if share.ExpiresAt != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), muted("expires "+share.ExpiresAt.Local().Format("2006-01-02 15:04")))
	}
	fmt.Fprintln(out, share.URL)

	return nil
}
