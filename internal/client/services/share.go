// Package services contains application services for the paaster CLI.
// ShareService publishes content (encrypt, upload, build the share link)
// and opens share links (fetch, download, decrypt).
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/paaster/internal/client/client"
	"github.com/dmitrijs2005/paaster/internal/client/models"
	"github.com/dmitrijs2005/paaster/internal/client/repositories/history"
	"github.com/dmitrijs2005/paaster/internal/common"
	"github.com/dmitrijs2005/paaster/internal/cryptox"
	"github.com/dmitrijs2005/paaster/internal/timex"
)

// MaxAttachmentSize mirrors the server limit so oversized files are
// rejected before any encryption or upload.
const MaxAttachmentSize = 50 * 1024 * 1024

// ErrNothingToShare is returned by Publish when neither text nor file is set.
var ErrNothingToShare = errors.New("nothing to share")

type PublishInput struct {
	Text     string
	File     []byte
	FileName string
	Title    string
	Format   string
	Expires  string
	Password string
}

// Fetched is a record pulled from the server together with the encrypted
// attachment, if any. It can be decrypted any number of times, which lets
// the caller retry a wrong password on a burn-after-read share that is
// already gone from the server.
type Fetched struct {
	Content    *models.Content
	Fragment   string
	Attachment []byte
}

type Opened struct {
	Text     string
	File     []byte
	FileName string
}

type ShareService interface {
	Publish(ctx context.Context, in *PublishInput) (*models.Share, error)
	Fetch(ctx context.Context, shareURL string) (*Fetched, error)
	Decrypt(f *Fetched, password string) (*Opened, error)
	History(ctx context.Context) ([]*models.Share, error)
	Forget(ctx context.Context, id string) error
	PurgeHistory(ctx context.Context) (int64, error)
}

type shareService struct {
	client  client.Client
	history history.Repository
	server  string
	now     timex.Clock
}

// NewShareService builds a ShareService. hist may be nil, in which case
// published links are not remembered.
func NewShareService(c client.Client, hist history.Repository, serverURL string) ShareService {
	return &shareService{
		client:  c,
		history: hist,
		server:  strings.TrimRight(serverURL, "/"),
		now:     timex.UTCNow,
	}
}

// FormatSizeMB renders n bytes as megabytes with two decimals.
func FormatSizeMB(n int) string {
	return fmt.Sprintf("%.2f", float64(n)/1024/1024)
}

func (s *shareService) Publish(ctx context.Context, in *PublishInput) (*models.Share, error) {
	if in.Text == "" && in.File == nil {
		return nil, ErrNothingToShare
	}
	if len(in.File) > MaxAttachmentSize {
		return nil, common.ErrPayloadTooLarge
	}

	sealed, err := cryptox.Seal(in.Text, in.File, in.Password)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	req := &models.CreateRequest{
		Text:        sealed.Text,
		Title:       in.Title,
		Format:      in.Format,
		Expires:     in.Expires,
		HasPassword: in.Password != "",
	}
	if sealed.File != nil {
		req.Attachment = sealed.File
		req.AttachmentName = in.FileName
		req.AttachmentSize = FormatSizeMB(len(in.File))
	}

	content, err := s.client.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	share := &models.Share{
		ID:            content.ID,
		Server:        s.server,
		URL:           s.server + "/" + content.ID + "#" + sealed.Fragment,
		Title:         content.Title,
		Expires:       content.Expires,
		BurnAfterRead: content.BurnAfterRead,
		HasAttachment: content.Attachment != nil,
		CreatedAt:     content.CreatedAt,
		ExpiresAt:     content.ExpiresAt,
	}
	if share.CreatedAt.IsZero() {
		share.CreatedAt = s.now()
	}

	if s.history != nil {
		if err := s.history.Add(ctx, share); err != nil {
			return share, fmt.Errorf("published but not saved to history: %w", err)
		}
	}

	return share, nil
}

// ParseShareURL splits a share link into the id and the fragment. The link
// is {server}/{id}#{fragment}; a bare "{id}#{fragment}" is accepted too.
func ParseShareURL(raw string) (id, fragment string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", common.ErrFormat, err)
	}

	fragment = u.Fragment
	id = strings.Trim(u.Path, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}

	if id == "" {
		return "", "", fmt.Errorf("%w: share link has no id", common.ErrFormat)
	}
	if fragment == "" {
		return "", "", fmt.Errorf("%w: share link has no key fragment", common.ErrFormat)
	}
	return id, fragment, nil
}

func (s *shareService) Fetch(ctx context.Context, shareURL string) (*Fetched, error) {
	id, fragment, err := ParseShareURL(shareURL)
	if err != nil {
		return nil, err
	}
	if _, _, err := cryptox.DecodeFragment(fragment); err != nil {
		return nil, err
	}

	content, err := s.client.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	f := &Fetched{Content: content, Fragment: fragment}
	if content.Attachment != nil && content.Attachment.Data != "" {
		f.Attachment, err = s.client.Download(ctx, content.Attachment.Data)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (s *shareService) Decrypt(f *Fetched, password string) (*Opened, error) {
	out := &Opened{}

	if f.Content.Text != "" {
		text, err := cryptox.DecryptText(f.Content.Text, f.Fragment, password)
		if err != nil {
			return nil, err
		}
		out.Text = text
	}

	if f.Attachment != nil {
		data, err := cryptox.Decrypt(f.Attachment, f.Fragment, password)
		if err != nil {
			return nil, err
		}
		out.File = data
		out.FileName = f.Content.Attachment.Name
	}

	return out, nil
}

func (s *shareService) History(ctx context.Context) ([]*models.Share, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(ctx)
}

func (s *shareService) Forget(ctx context.Context, id string) error {
	if s.history == nil {
		return nil
	}
	return s.history.Forget(ctx, s.server, id)
}

func (s *shareService) PurgeHistory(ctx context.Context) (int64, error) {
	if s.history == nil {
		return 0, nil
	}
	return s.history.PurgeExpired(ctx, s.now())
}
