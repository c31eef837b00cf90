package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/paaster/internal/client/models"
	"github.com/dmitrijs2005/paaster/internal/common"
	"github.com/dmitrijs2005/paaster/internal/netx"
	"github.com/google/uuid"
)

// MaxDownloadSize bounds attachment downloads; ciphertext is the plaintext
// limit plus the 16-byte tag.
const MaxDownloadSize = 50*1024*1024 + 16

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(b))

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrFormat, msg)
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusGone:
		return common.ErrAlreadyConsumed
	case http.StatusRequestEntityTooLarge:
		return common.ErrPayloadTooLarge
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	default:
		return fmt.Errorf("%w: %s: %s", ErrUnexpected, resp.Status, msg)
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/ping", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *HTTPClient) Create(ctx context.Context, in *models.CreateRequest) (*models.Content, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := []struct{ name, value string }{
		{"expires", in.Expires},
		{"title", in.Title},
		{"format", in.Format},
		{"text", in.Text},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if in.HasPassword {
		if err := mw.WriteField("hasPassword", "true"); err != nil {
			return nil, err
		}
	}
	if in.Attachment != nil {
		fw, err := mw.CreateFormFile("attachment_data", "encrypted.bin")
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(in.Attachment); err != nil {
			return nil, err
		}
		if err := mw.WriteField("attachment_name", in.AttachmentName); err != nil {
			return nil, err
		}
		if err := mw.WriteField("attachment_size", in.AttachmentSize); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	out := &models.Content{}
	if err := c.do(req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Get(ctx context.Context, id string) (*models.Content, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	out := &models.Content{}
	if err := c.do(req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Download(ctx context.Context, blobURL string) ([]byte, error) {
	data, err := netx.Download(ctx, c.http, blobURL, MaxDownloadSize)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}
	return data, nil
}
