package blobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/paaster/internal/filex"
)

// LocalRoute is where the HTTP server mounts LocalStorage.Handler.
const LocalRoute = "/blobs/"

// LocalStorage writes blobs below a directory and serves them from the API
// server itself. It exists for development and single-node setups.
type LocalStorage struct {
	dir    string
	prefix string
}

func NewLocalStorage(dir, publicBaseURL string) (*LocalStorage, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalStorage{
		dir:    abs,
		prefix: strings.TrimRight(publicBaseURL, "/") + LocalRoute,
	}, nil
}

func (s *LocalStorage) file(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

// Put ignores cacheMaxAge; Handler sets its own Cache-Control.
func (s *LocalStorage) Put(ctx context.Context, path string, data []byte, cacheMaxAge time.Duration) (string, error) {
	key, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	if err := filex.WriteFileAtomic(s.file(key), data, 0o640); err != nil {
		return "", fmt.Errorf("write blob %s: %w", key, err)
	}
	return s.prefix + key, nil
}

// Delete is idempotent: a blob that is already gone counts as deleted.
func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	key, err := keyFromURL(s.prefix, url)
	if err != nil {
		return err
	}
	if err := os.Remove(s.file(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// Handler serves stored blobs. Mount it under LocalRoute.
func (s *LocalStorage) Handler() http.Handler {
	fileServer := http.StripPrefix(LocalRoute, http.FileServer(http.Dir(s.dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", cacheControl(time.Hour))
		w.Header().Set("Content-Type", "application/octet-stream")
		fileServer.ServeHTTP(w, r)
	})
}
