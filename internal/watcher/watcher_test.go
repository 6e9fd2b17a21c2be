package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driving"
)

// fakeIngest records uploads and simulates duplicates.
type fakeIngest struct {
	mu        sync.Mutex
	uploads   []string
	reindexed []string
	existing  map[string]string // filename -> existing id
}

func (f *fakeIngest) Upload(_ context.Context, filename string, _ []byte) (*driving.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if id, ok := f.existing[filename]; ok {
		return nil, &domain.DuplicateError{Filename: filename, ExistingID: id}
	}
	f.uploads = append(f.uploads, filename)
	return &driving.UploadResult{DocumentID: "doc-" + filename, Filename: filename, ChunkCount: 1}, nil
}

func (f *fakeIngest) Delete(_ context.Context, _ string) (int, error) { return 0, nil }

func (f *fakeIngest) Reindex(_ context.Context, id string) (*driving.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reindexed = append(f.reindexed, id)
	return &driving.UploadResult{DocumentID: id, Filename: "existing", ChunkCount: 1}, nil
}

func (f *fakeIngest) List(_ context.Context, _, _ string) ([]driving.FileInfo, driving.CorpusStats, error) {
	return nil, driving.CorpusStats{}, nil
}

func (f *fakeIngest) CorrectDocType(_ context.Context, _, _ string) (int, error) { return 0, nil }

func (f *fakeIngest) uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

func (f *fakeIngest) reindexes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reindexed...)
}

func startWatcher(t *testing.T, ingest *fakeIngest, dir string) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	w := New(ingest, []string{".txt", ".pdf"}, WithSettle(50*time.Millisecond))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Watch(ctx, dir)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the watcher a moment to register the directory.
	time.Sleep(50 * time.Millisecond)
	return cancel
}

func TestWatchIngestsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	ingest := &fakeIngest{}
	startWatcher(t, ingest, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("본문"), 0600))

	assert.Eventually(t, func() bool {
		return len(ingest.uploaded()) == 1
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"a.txt"}, ingest.uploaded())
}

func TestWatchIgnoresUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	ingest := &fakeIngest{}
	startWatcher(t, ingest, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.hwp"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("본문"), 0600))

	assert.Eventually(t, func() bool {
		return len(ingest.uploaded()) == 1
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"keep.txt"}, ingest.uploaded())
}

func TestWatchCoalescesWriteBursts(t *testing.T) {
	dir := t.TempDir()
	ingest := &fakeIngest{}
	startWatcher(t, ingest, dir)

	path := filepath.Join(dir, "burst.txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = f.WriteString("조각 ")
		require.NoError(t, err)
		require.NoError(t, f.Sync())
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	assert.Eventually(t, func() bool {
		return len(ingest.uploaded()) >= 1
	}, 3*time.Second, 20*time.Millisecond)

	// The burst settles into a single upload.
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, ingest.uploaded(), 1)
}

func TestWatchReindexesDuplicates(t *testing.T) {
	dir := t.TempDir()
	ingest := &fakeIngest{existing: map[string]string{"known.txt": "doc1"}}
	startWatcher(t, ingest, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "known.txt"), []byte("갱신"), 0600))

	assert.Eventually(t, func() bool {
		return len(ingest.reindexes()) == 1
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"doc1"}, ingest.reindexes())
	assert.Empty(t, ingest.uploaded())
}
