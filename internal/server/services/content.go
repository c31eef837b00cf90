// Package services contains server-side business logic. This file implements
// ContentService, which owns the lifecycle of shared content: creation with
// ID allocation and TTL, one-shot consumption of burn-after-read records and
// the sweep of pending blob deletions.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/paaster/internal/common"
	"github.com/dmitrijs2005/paaster/internal/logging"
	"github.com/dmitrijs2005/paaster/internal/server/blobs"
	"github.com/dmitrijs2005/paaster/internal/server/config"
	"github.com/dmitrijs2005/paaster/internal/server/models"
	"github.com/dmitrijs2005/paaster/internal/server/repositories/objects"
	"github.com/dmitrijs2005/paaster/internal/timex"
)

const (
	DefaultFormat = "plaintext"

	lockValue         = "locked"
	lockTTL           = 60 * time.Second
	burnBlobDelay     = 5 * time.Minute
	defaultBlobMaxAge = time.Hour
	maxIDAttempts     = 64
)

func recordKey(id string) string { return common.Namespace + ":" + id }
func lockKey(id string) string   { return common.Namespace + ":viewed:" + id }
func filesKey() string           { return common.Namespace + ":files" }

// validID reports whether id could have been issued by Create. Anything
// else never reaches the store, so lock keys cannot be read through Get.
func validID(id string) bool {
	if len(id) != common.IDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(common.IDAlphabet, id[i]) < 0 {
			return false
		}
	}
	return true
}

// FileInput is the encrypted attachment as received from the sender.
// Size is the original size in MB as a decimal string.
type FileInput struct {
	Data []byte
	Name string
	Size string
}

// CreateInput carries the fields of a create request. Text is already
// base64 ciphertext; the server never sees plaintext.
type CreateInput struct {
	Text        string
	Title       string
	Format      string
	Expires     string
	HasPassword bool
	File        *FileInput
}

// SweepResult reports one sweep run.
type SweepResult struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

type ContentService struct {
	store             objects.Repository
	blobs             blobs.Storage
	logger            logging.Logger
	now               timex.Clock
	newID             func() (string, error)
	uploadPath        string
	maxAttachmentSize int64
}

// NewContentService wires a ContentService from its collaborators and the
// server config.
func NewContentService(store objects.Repository, bs blobs.Storage, logger logging.Logger, cfg *config.Config) *ContentService {
	return &ContentService{
		store:             store,
		blobs:             bs,
		logger:            logger.With("module", "content"),
		now:               timex.UTCNow,
		newID:             func() (string, error) { return common.RandomString(common.IDLength, common.IDAlphabet) },
		uploadPath:        cfg.UploadPath,
		maxAttachmentSize: cfg.MaxAttachmentSize,
	}
}

func (s *ContentService) validate(in *CreateInput) (ttl time.Duration, burn bool, size float64, err error) {
	ttl, burn, err = ParseExpires(in.Expires)
	if err != nil {
		return 0, false, 0, err
	}

	if in.File != nil {
		if s.maxAttachmentSize > 0 && int64(len(in.File.Data)) > s.maxAttachmentSize {
			return 0, false, 0, fmt.Errorf("%w: max %d bytes", common.ErrPayloadTooLarge, s.maxAttachmentSize)
		}
		if in.File.Size != "" {
			size, err = strconv.ParseFloat(in.File.Size, 64)
			if err != nil {
				return 0, false, 0, fmt.Errorf("%w: attachment_size %q", common.ErrFormat, in.File.Size)
			}
		}
	}

	if in.Text == "" && in.File == nil {
		return 0, false, 0, fmt.Errorf("%w: nothing to share", common.ErrFormat)
	}

	return ttl, burn, size, nil
}

// allocateID draws random IDs until one is not taken.
func (s *ContentService) allocateID(ctx context.Context) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}

		taken, err := s.store.Exists(ctx, recordKey(id))
		if err != nil {
			return "", fmt.Errorf("check id: %w", err)
		}
		if !taken {
			return id, nil
		}
		s.logger.Debug(ctx, "id collision", "id", id)
	}
	return "", fmt.Errorf("%w: no free id after %d attempts", common.ErrorInternal, maxIDAttempts)
}

// Create validates the request, uploads the attachment and persists the
// record. TTL records with an attachment schedule the blob for deletion at
// their expiry; burn-after-read records are stored without a TTL.
func (s *ContentService) Create(ctx context.Context, in *CreateInput) (*models.Content, error) {
	ttl, burn, size, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	id, err := s.allocateID(ctx)
	if err != nil {
		return nil, err
	}

	var blobURL string
	if in.File != nil {
		maxAge := ttl
		if maxAge == 0 {
			maxAge = defaultBlobMaxAge
		}
		blobPath := path.Join(s.uploadPath, "encrypted", id+".bin")
		blobURL, err = s.blobs.Put(ctx, blobPath, in.File.Data, maxAge)
		if err != nil {
			return nil, fmt.Errorf("upload attachment: %w", err)
		}
	}

	now := s.now().UTC()
	format := in.Format
	if format == "" {
		format = DefaultFormat
	}

	c := &models.Content{
		ID:            id,
		Text:          in.Text,
		Title:         in.Title,
		Format:        format,
		Expires:       in.Expires,
		BurnAfterRead: burn,
		HasPassword:   in.HasPassword,
		CreatedAt:     now,
	}
	if !burn {
		exp := now.Add(ttl)
		c.ExpiresAt = &exp
	}
	if blobURL != "" && in.File.Name != "" && in.File.Size != "" {
		c.Attachment = &models.Attachment{Data: blobURL, Name: in.File.Name, Size: size}
	}

	if !burn && blobURL != "" {
		if err := s.scheduleBlobDeletion(ctx, models.BlobDeletion{URL: blobURL, DeleteAfter: *c.ExpiresAt}); err != nil {
			return nil, fmt.Errorf("schedule blob deletion: %w", err)
		}
	}

	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, recordKey(id), b, ttl); err != nil {
		return nil, fmt.Errorf("store content: %w", err)
	}

	s.logger.Info(ctx, "content created", "id", id, "burn", burn, "attachment", blobURL != "")
	return c, nil
}

// Get returns the record for id. A burn-after-read record is consumed by
// the first caller that wins the lock; later callers racing for it get
// common.ErrAlreadyConsumed, and callers after the delete get
// common.ErrorNotFound.
func (s *ContentService) Get(ctx context.Context, id string) (*models.Content, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	b, err := s.store.Get(ctx, recordKey(id))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("load content: %w", err)
	}

	c := &models.Content{}
	if err := json.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("decode content %s: %w", id, err)
	}

	if !c.BurnAfterRead {
		return c, nil
	}

	acquired, err := s.store.SetIfAbsent(ctx, lockKey(id), []byte(lockValue))
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, common.ErrAlreadyConsumed
	}

	if err := s.store.Expire(ctx, lockKey(id), lockTTL); err != nil {
		s.logger.Warn(ctx, "lock ttl not set", "id", id, "error", err)
	}

	if err := s.store.Delete(ctx, recordKey(id)); err != nil {
		return nil, fmt.Errorf("delete consumed content: %w", err)
	}

	if c.Attachment != nil && c.Attachment.Data != "" {
		d := models.BlobDeletion{URL: c.Attachment.Data, DeleteAfter: s.now().Add(burnBlobDelay)}
		if err := s.scheduleBlobDeletion(ctx, d); err != nil {
			s.logger.Error(ctx, "blob deletion not scheduled", "id", id, "error", err)
		}
	}

	s.logger.Info(ctx, "content consumed", "id", id)
	return c, nil
}

// scheduleBlobDeletion adds d to the pending set, scored in Unix ms.
func (s *ContentService) scheduleBlobDeletion(ctx context.Context, d models.BlobDeletion) error {
	return s.store.AddScored(ctx, filesKey(), d.URL, d.DeleteAfter.UnixMilli())
}

// Sweep deletes every blob whose scheduled time has passed. Each delete is
// independent; failures are logged and counted. All due entries leave the
// schedule whether or not their blob was deleted.
func (s *ContentService) Sweep(ctx context.Context) (*SweepResult, error) {
	due, err := s.store.RangeByScore(ctx, filesKey(), 0, s.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list due blobs: %w", err)
	}

	res := &SweepResult{}
	for _, url := range due {
		if err := s.blobs.Delete(ctx, url); err != nil {
			res.Failed++
			s.logger.Error(ctx, "blob delete failed", "url", url, "error", err)
			continue
		}
		res.Deleted++
	}

	if len(due) > 0 {
		if err := s.store.RemoveScored(ctx, filesKey(), due...); err != nil {
			return res, fmt.Errorf("unschedule blobs: %w", err)
		}
	}

	if p, ok := s.store.(objects.Purger); ok {
		n, err := p.PurgeExpired(ctx)
		if err != nil {
			s.logger.Warn(ctx, "purge expired failed", "error", err)
		} else if n > 0 {
			s.logger.Debug(ctx, "purged expired keys", "count", n)
		}
	}

	s.logger.Info(ctx, "sweep finished", "deleted", res.Deleted, "failed", res.Failed)
	return res, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *ContentService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error(ctx, "sweep failed", "error", err)
			}
		}
	}
}
