package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/paaster/internal/common"
	"github.com/dmitrijs2005/paaster/internal/cryptox"
	"github.com/dmitrijs2005/paaster/internal/logging"
	"github.com/dmitrijs2005/paaster/internal/server/config"
	"github.com/dmitrijs2005/paaster/internal/server/repositories/objects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeBlobs struct {
	mu        sync.Mutex
	stored    map[string][]byte
	maxAges   map[string]time.Duration
	deleted   []string
	failOn    map[string]bool
	putErr    error
	putCalled int
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{
		stored:  map[string][]byte{},
		maxAges: map[string]time.Duration{},
		failOn:  map[string]bool{},
	}
}

func (f *fakeBlobs) Put(ctx context.Context, path string, data []byte, maxAge time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalled++
	if f.putErr != nil {
		return "", f.putErr
	}
	url := "https://blobs.test/" + path
	f.stored[url] = data
	f.maxAges[url] = maxAge
	return url, nil
}

func (f *fakeBlobs) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[url] {
		return errors.New("storage unavailable")
	}
	delete(f.stored, url)
	f.deleted = append(f.deleted, url)
	return nil
}

type testEnv struct {
	svc   *ContentService
	store *objects.MemoryRepository
	blobs *fakeBlobs
	clock *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	store := objects.NewMemoryRepository(clock.Now)
	bs := newFakeBlobs()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	svc := NewContentService(store, bs, logging.NewNopLogger(), cfg)
	svc.now = clock.Now
	return &testEnv{svc: svc, store: store, blobs: bs, clock: clock}
}

func TestCreate_TTLRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.svc.Create(ctx, &CreateInput{Text: "Y2lwaGVy", Title: "t", Expires: "10m"})
	require.NoError(t, err)

	assert.Len(t, c.ID, common.IDLength)
	for _, r := range c.ID {
		assert.True(t, strings.ContainsRune(common.IDAlphabet, r))
	}
	assert.Equal(t, DefaultFormat, c.Format)
	assert.False(t, c.BurnAfterRead)
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, env.clock.Now().Add(10*time.Minute), *c.ExpiresAt)
	assert.True(t, c.HasTermination())
	assert.Nil(t, c.Attachment)

	got, err := env.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Y2lwaGVy", got.Text)
	assert.Equal(t, "t", got.Title)

	env.clock.Advance(10 * time.Minute)
	_, err = env.svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCreate_RejectsBadExpiry(t *testing.T) {
	env := newTestEnv(t)

	for _, exp := range []string{"9m", "", "forever"} {
		_, err := env.svc.Create(context.Background(), &CreateInput{Text: "x", Expires: exp})
		assert.ErrorIs(t, err, common.ErrFormat, "expires %q", exp)
	}
	assert.Zero(t, env.blobs.putCalled)
}

func TestCreate_RejectsEmpty(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Create(context.Background(), &CreateInput{Expires: "1h"})
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestCreate_PayloadTooLarge(t *testing.T) {
	env := newTestEnv(t)
	env.svc.maxAttachmentSize = 8

	_, err := env.svc.Create(context.Background(), &CreateInput{
		Expires: "1h",
		File:    &FileInput{Data: make([]byte, 9), Name: "a.bin", Size: "0.00001"},
	})
	assert.ErrorIs(t, err, common.ErrPayloadTooLarge)
	assert.Zero(t, env.blobs.putCalled, "nothing is uploaded")
}

func TestCreate_BadAttachmentSize(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Create(context.Background(), &CreateInput{
		Expires: "1h",
		File:    &FileInput{Data: []byte{1}, Name: "a.bin", Size: "big"},
	})
	assert.ErrorIs(t, err, common.ErrFormat)
}

func TestCreate_AttachmentSchedulesDeletionAtExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.svc.Create(ctx, &CreateInput{
		Expires: "1h",
		File:    &FileInput{Data: []byte{1, 2, 3}, Name: "photo.png", Size: "1.5"},
	})
	require.NoError(t, err)
	require.NotNil(t, c.Attachment)

	assert.Equal(t, "https://blobs.test/paaster/encrypted/"+c.ID+".bin", c.Attachment.Data)
	assert.Equal(t, "photo.png", c.Attachment.Name)
	assert.Equal(t, 1.5, c.Attachment.Size)
	assert.Equal(t, time.Hour, env.blobs.maxAges[c.Attachment.Data])

	due, err := env.store.RangeByScore(ctx, filesKey(), 0, c.ExpiresAt.UnixMilli())
	require.NoError(t, err)
	assert.Equal(t, []string{c.Attachment.Data}, due)

	due, err = env.store.RangeByScore(ctx, filesKey(), 0, c.ExpiresAt.UnixMilli()-1)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestCreate_AttachmentWithoutNameIsNotRecorded(t *testing.T) {
	env := newTestEnv(t)

	c, err := env.svc.Create(context.Background(), &CreateInput{
		Expires: "1h",
		File:    &FileInput{Data: []byte{1}},
	})
	require.NoError(t, err)
	assert.Nil(t, c.Attachment)
	assert.Equal(t, 1, env.blobs.putCalled)
}

func TestCreate_UploadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.blobs.putErr = errors.New("bucket missing")

	_, err := env.svc.Create(context.Background(), &CreateInput{
		Expires: "1h",
		File:    &FileInput{Data: []byte{1}, Name: "a", Size: "1"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket missing")
}

func TestCreate_RetriesOnIDCollision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.Set(ctx, recordKey("AAAAAA"), []byte("{}"), 0))
	require.NoError(t, env.store.Set(ctx, recordKey("BBBBBB"), []byte("{}"), 0))

	ids := []string{"AAAAAA", "BBBBBB", "CCCCCC"}
	calls := 0
	env.svc.newID = func() (string, error) {
		id := ids[calls]
		calls++
		return id, nil
	}

	c, err := env.svc.Create(ctx, &CreateInput{Text: "x", Expires: "1h"})
	require.NoError(t, err)
	assert.Equal(t, "CCCCCC", c.ID)
	assert.Equal(t, 3, calls)
}

func TestCreate_GivesUpAfterManyCollisions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.Set(ctx, recordKey("AAAAAA"), []byte("{}"), 0))
	env.svc.newID = func() (string, error) { return "AAAAAA", nil }

	_, err := env.svc.Create(ctx, &CreateInput{Text: "x", Expires: "1h"})
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestGet_NotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Get(context.Background(), "nope00")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_RejectsMalformedIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.svc.Create(ctx, &CreateInput{Text: "secret", Expires: "b"})
	require.NoError(t, err)

	_, err = env.svc.Get(ctx, "viewed:"+c.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = env.svc.Get(ctx, c.ID)
	require.NoError(t, err)

	// the lock key now holds a non-record value
	_, err = env.svc.Get(ctx, "viewed:"+c.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	for _, id := range []string{"", "abc", "abc12!", "abcdefg", "files"} {
		_, err = env.svc.Get(ctx, id)
		assert.ErrorIs(t, err, common.ErrorNotFound, id)
	}
}

func TestBurnAfterRead_Sequential(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.svc.Create(ctx, &CreateInput{
		Text:    "secret",
		Expires: "b",
		File:    &FileInput{Data: []byte{9}, Name: "f.txt", Size: "0.1"},
	})
	require.NoError(t, err)
	assert.True(t, c.BurnAfterRead)
	assert.Nil(t, c.ExpiresAt)
	assert.Equal(t, defaultBlobMaxAge, env.blobs.maxAges[c.Attachment.Data])

	due, err := env.store.RangeByScore(ctx, filesKey(), 0, 1<<62)
	require.NoError(t, err)
	assert.Empty(t, due, "burn records are scheduled on read, not on create")

	got, err := env.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Text)

	_, err = env.svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	due, err = env.store.RangeByScore(ctx, filesKey(), 0, env.clock.Now().Add(burnBlobDelay).UnixMilli())
	require.NoError(t, err)
	assert.Equal(t, []string{c.Attachment.Data}, due)

	due, err = env.store.RangeByScore(ctx, filesKey(), 0, env.clock.Now().UnixMilli())
	require.NoError(t, err)
	assert.Empty(t, due, "the blob outlives the read by the grace delay")
}

// gatedStore holds every Get until n callers have read, so concurrent
// readers are guaranteed to all see the record before anyone consumes it.
type gatedStore struct {
	objects.Repository
	wg sync.WaitGroup
}

func (g *gatedStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := g.Repository.Get(ctx, key)
	g.wg.Done()
	g.wg.Wait()
	return b, err
}

func TestBurnAfterRead_ConcurrentReaders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.svc.Create(ctx, &CreateInput{Text: "once", Expires: "b"})
	require.NoError(t, err)

	gate := &gatedStore{Repository: env.store}
	gate.wg.Add(2)
	env.svc.store = gate

	var (
		wg      sync.WaitGroup
		results = make([]error, 2)
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.svc.Get(ctx, c.ID)
		}(i)
	}
	wg.Wait()

	var ok, consumed int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, common.ErrAlreadyConsumed):
			consumed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, consumed)

	env.svc.store = env.store
	_, err = env.svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestBurnAfterRead_LockHasGraceTTL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.svc.Create(ctx, &CreateInput{Text: "once", Expires: "b"})
	require.NoError(t, err)
	_, err = env.svc.Get(ctx, c.ID)
	require.NoError(t, err)

	held, err := env.store.Exists(ctx, lockKey(c.ID))
	require.NoError(t, err)
	assert.True(t, held)

	env.clock.Advance(lockTTL)
	held, err = env.store.Exists(ctx, lockKey(c.ID))
	require.NoError(t, err)
	assert.False(t, held)
}

func TestSweep_IsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := env.clock.Now().UnixMilli()

	urls := []string{"https://blobs.test/1", "https://blobs.test/2", "https://blobs.test/3"}
	for i, u := range urls {
		require.NoError(t, env.store.AddScored(ctx, filesKey(), u, now-int64(i)))
	}
	require.NoError(t, env.store.AddScored(ctx, filesKey(), "https://blobs.test/later", now+1000))
	env.blobs.failOn[urls[1]] = true

	res, err := env.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)
	assert.Equal(t, 1, res.Failed)
	assert.ElementsMatch(t, []string{urls[0], urls[2]}, env.blobs.deleted)

	left, err := env.store.RangeByScore(ctx, filesKey(), 0, now+1000)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://blobs.test/later"}, left)
}

func TestSweep_Empty(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &SweepResult{}, res)
}

func TestSweep_PurgesExpiredKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, &CreateInput{Text: "x", Expires: "10m"})
	require.NoError(t, err)
	env.clock.Advance(11 * time.Minute)

	_, err = env.svc.Sweep(ctx)
	require.NoError(t, err)

	n, err := env.store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "sweep already purged")
}

func TestEndToEnd_PublishFetchDecrypt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	fragment, text, err := cryptox.EncryptText("hello", "")
	require.NoError(t, err)

	c, err := env.svc.Create(ctx, &CreateInput{Text: text, Format: "plaintext", Expires: "1h"})
	require.NoError(t, err)

	got, err := env.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "plaintext", got.Format)

	plain, err := cryptox.DecryptText(got.Text, fragment, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", plain)
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, env.store.AddScored(ctx, filesKey(), "https://blobs.test/x", 0))

	done := make(chan struct{})
	go func() {
		env.svc.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		env.blobs.mu.Lock()
		defer env.blobs.mu.Unlock()
		return len(env.blobs.deleted) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
