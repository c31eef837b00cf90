// Package blobs stores encrypted attachments and hands out the URL they
// can be fetched from. The same URL is later used to delete them.
package blobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrForeignURL is returned by Delete when the URL was not issued by the
// storage it is handed to.
var ErrForeignURL = errors.New("url does not belong to this storage")

// Storage is the blob backend used by the content lifecycle.
type Storage interface {
	// Put writes data under path and returns its public URL.
	Put(ctx context.Context, path string, data []byte, cacheMaxAge time.Duration) (string, error)
	// Delete removes the blob previously returned by Put.
	Delete(ctx context.Context, url string) error
}

func cacheControl(maxAge time.Duration) string {
	return fmt.Sprintf("public, max-age=%d", int64(maxAge/time.Second))
}

// cleanPath rejects empty paths and any attempt to climb out of the root.
func cleanPath(path string) (string, error) {
	p := strings.TrimLeft(path, "/")
	if p == "" {
		return "", fmt.Errorf("empty blob path")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("invalid blob path %q", path)
		}
	}
	return p, nil
}

// keyFromURL strips prefix from url and validates the remainder as a path.
func keyFromURL(prefix, url string) (string, error) {
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	return cleanPath(strings.TrimPrefix(url, prefix))
}
