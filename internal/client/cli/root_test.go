package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/paaster/internal/client/config"
	"github.com/dmitrijs2005/paaster/internal/common"
	"github.com/dmitrijs2005/paaster/internal/logging"
	"github.com/dmitrijs2005/paaster/internal/server/blobs"
	srvconfig "github.com/dmitrijs2005/paaster/internal/server/config"
	"github.com/dmitrijs2005/paaster/internal/server/repositories/objects"
	"github.com/dmitrijs2005/paaster/internal/server/rest"
	"github.com/dmitrijs2005/paaster/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer runs the real HTTP API over an in-memory store and local
// blob storage.
func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewUnstartedServer(nil)
	baseURL := "http://" + ts.Listener.Addr().String()

	scfg := &srvconfig.Config{}
	scfg.LoadDefaults()

	local, err := blobs.NewLocalStorage(t.TempDir(), baseURL)
	require.NoError(t, err)

	svc := services.NewContentService(objects.NewMemoryRepository(nil), local, logging.NewNopLogger(), scfg)
	ts.Config.Handler = rest.NewHTTPServer("", logging.NewNopLogger(), svc, "secret", scfg.MaxAttachmentSize, local.Handler()).Handler()
	ts.Start()
	t.Cleanup(ts.Close)

	return ts
}

func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	return &config.Config{
		ServerURL:   serverURL,
		Timeout:     5 * time.Second,
		HistoryPath: filepath.Join(t.TempDir(), "history.db"),
	}
}

func run(cfg *config.Config, stdin string, args ...string) (string, string, error) {
	cmd := NewRootCommand(cfg)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestShareAndOpen_Text(t *testing.T) {
	cfg := testConfig(t, startServer(t).URL)

	out, _, err := run(cfg, "hello", "share", "-e", "1h")
	require.NoError(t, err)
	link := strings.TrimSpace(out)
	assert.Regexp(t, `/[0-9A-Za-z]{6}#[0-9A-Za-z]{38}$`, link)

	out, _, err = run(cfg, "", "open", link)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	// Not burn-after-read: still readable.
	out, _, err = run(cfg, "", "open", link)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestShareAndOpen_BurnAfterRead(t *testing.T) {
	cfg := testConfig(t, startServer(t).URL)

	out, errOut, err := run(cfg, "", "share", "--text", "once", "-e", "b")
	require.NoError(t, err)
	assert.Contains(t, errOut, "works once")
	link := strings.TrimSpace(out)

	out, errOut, err = run(cfg, "", "open", link)
	require.NoError(t, err)
	assert.Equal(t, "once\n", out)
	assert.Contains(t, errOut, "burn-after-read")

	_, _, err = run(cfg, "", "open", link)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestShareAndOpen_FileWithPassword(t *testing.T) {
	cfg := testConfig(t, startServer(t).URL)

	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("attached bytes"), 0o600))

	calls := stubPasswords(t, "pw", "pw", "wrong", "pw")

	out, _, err := run(cfg, "", "share", src, "-p", "--title", "my notes")
	require.NoError(t, err)
	link := strings.TrimSpace(out)

	outDir := filepath.Join(t.TempDir(), "downloads")
	out, errOut, err := run(cfg, "", "open", link, "-o", outDir)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Wrong password")
	assert.Contains(t, errOut, "my notes")
	assert.Equal(t, 4, *calls)

	got, err := os.ReadFile(filepath.Join(outDir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "attached bytes", string(got))
}

func TestOpen_GivesUpAfterThreeWrongPasswords(t *testing.T) {
	cfg := testConfig(t, startServer(t).URL)

	stubPasswords(t, "pw", "pw", "a", "b", "c")
	out, _, err := run(cfg, "", "share", "-t", "secret", "-p")
	require.NoError(t, err)

	_, _, err = run(cfg, "", "open", strings.TrimSpace(out))
	assert.ErrorIs(t, err, common.ErrAuthentication)
	assert.Equal(t, "Decryption failed", describeError(err))
}

func TestShare_InvalidExpiry(t *testing.T) {
	cfg := testConfig(t, startServer(t).URL)

	_, _, err := run(cfg, "text", "share", "-e", "9m")
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestOpen_MalformedLink(t *testing.T) {
	cfg := testConfig(t, startServer(t).URL)

	_, _, err := run(cfg, "", "open", cfg.ServerURL+"/abc123")
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestHistory(t *testing.T) {
	cfg := testConfig(t, startServer(t).URL)

	_, errOut, err := run(cfg, "", "history")
	require.NoError(t, err)
	assert.Contains(t, errOut, "no shares yet")

	out, _, err := run(cfg, "kept", "share", "--title", "first")
	require.NoError(t, err)
	link := strings.TrimSpace(out)
	id := link[strings.LastIndex(link, "/")+1 : strings.Index(link, "#")]

	out, _, err = run(cfg, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, link)

	_, _, err = run(cfg, "", "history", "purge")
	require.NoError(t, err)
	out, _, err = run(cfg, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	_, _, err = run(cfg, "", "history", "forget", id)
	require.NoError(t, err)
	out, _, err = run(cfg, "", "history")
	require.NoError(t, err)
	assert.NotContains(t, out, id)
}

func TestHistoryDisabled(t *testing.T) {
	cfg := testConfig(t, startServer(t).URL)
	cfg.HistoryPath = ""

	_, _, err := run(cfg, "x", "share")
	require.NoError(t, err)

	_, errOut, err := run(cfg, "", "history")
	require.NoError(t, err)
	assert.Contains(t, errOut, "no shares yet")
}

func TestPing(t *testing.T) {
	ts := startServer(t)
	cfg := testConfig(t, ts.URL)

	out, _, err := run(cfg, "", "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "is up")

	ts.Close()
	_, _, err = run(cfg, "", "ping")
	assert.Error(t, err)
	assert.Contains(t, describeError(err), "Server unavailable")
}

func TestServerFlagOverridesConfig(t *testing.T) {
	ts := startServer(t)
	cfg := testConfig(t, "http://127.0.0.1:1")

	_, _, err := run(cfg, "", "ping", "--server", ts.URL)
	require.NoError(t, err)
	assert.Equal(t, ts.URL, cfg.ServerURL)
}
