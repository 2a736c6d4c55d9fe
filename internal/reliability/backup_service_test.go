package reliability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/stocklab/stocklab/internal/testing"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Upload(ctx context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) Download(ctx context.Context, key string, w io.WriterAt) (int64, error) {
	m.mu.Lock()
	data, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return 0, errors.New("no such key")
	}
	n, err := w.WriteAt(data, 0)
	return int64(n), err
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, SizeBytes: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) keys() []string {
	objects, _ := m.List(context.Background(), "")
	keys := make([]string, len(objects))
	for i, o := range objects {
		keys[i] = o.Key
	}
	return keys
}

func newBackupService(t *testing.T, store ObjectStore) *BackupService {
	t.Helper()
	stocklab, cleanupA := testutil.NewTestDB(t, "stocklab")
	t.Cleanup(cleanupA)
	cache, cleanupB := testutil.NewTestDB(t, "cache")
	t.Cleanup(cleanupB)

	_, err := stocklab.Conn().Exec(`INSERT INTO daily_prices (ticker, date, close, source) VALUES ('SPY', '2024-01-02', 472.65, 'test')`)
	require.NoError(t, err)

	return NewBackupService(store, t.TempDir(), "stocklab/", zerolog.Nop(), stocklab, nil, cache)
}

func TestArchiveName(t *testing.T) {
	ts := time.Date(2024, 3, 8, 14, 30, 22, 0, time.UTC)
	name := ArchiveName(ts)
	assert.Equal(t, "stocklab-backup-2024-03-08-143022.tar.gz", name)

	parsed, ok := ParseArchiveName(name)
	require.True(t, ok)
	assert.True(t, ts.Equal(parsed))

	for _, bad := range []string{"stocklab-backup-nope.tar.gz", "other-2024-03-08-143022.tar.gz", "stocklab-backup-2024-03-08-143022.zip"} {
		_, ok := ParseArchiveName(bad)
		assert.False(t, ok, bad)
	}
}

func TestExpiredBackups(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	daysAgo := func(d int) BackupInfo {
		return BackupInfo{Key: ArchiveName(now.AddDate(0, 0, -d)), Timestamp: now.AddDate(0, 0, -d)}
	}

	tests := []struct {
		name      string
		backups   []BackupInfo
		retention int
		want      int
	}{
		{name: "too few to rotate", backups: []BackupInfo{daysAgo(100), daysAgo(200)}, retention: 30, want: 0},
		{name: "keeps newest three even if old", backups: []BackupInfo{daysAgo(40), daysAgo(50), daysAgo(60), daysAgo(70)}, retention: 30, want: 1},
		{name: "only past cutoff", backups: []BackupInfo{daysAgo(1), daysAgo(2), daysAgo(3), daysAgo(10), daysAgo(31), daysAgo(45)}, retention: 30, want: 2},
		{name: "zero retention keeps everything", backups: []BackupInfo{daysAgo(1), daysAgo(2), daysAgo(3), daysAgo(400)}, retention: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, ExpiredBackups(tt.backups, tt.retention, now), tt.want)
		})
	}
}

func TestCreateArchive(t *testing.T) {
	svc := newBackupService(t, nil)
	dest := t.TempDir()

	archivePath, metadata, err := svc.CreateArchive(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, dest, filepath.Dir(archivePath))
	require.Len(t, metadata.Databases, 2)
	assert.Equal(t, "stocklab.db", metadata.Databases[0].Filename)
	assert.True(t, strings.HasPrefix(metadata.Databases[0].Checksum, "sha256:"))
	assert.Positive(t, metadata.Databases[0].SizeBytes)

	verified, err := VerifyArchive(archivePath)
	require.NoError(t, err)
	assert.Equal(t, metadata.Databases, verified.Databases)

	// staging directories are removed
	entries, err := os.ReadDir(svc.dataDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestVerifyArchive_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("not an archive"), 0644))

	_, err := VerifyArchive(path)
	assert.Error(t, err)
}

func TestCreateAndUploadBackup(t *testing.T) {
	store := newMemoryStore()
	svc := newBackupService(t, store)
	svc.now = func() time.Time { return time.Date(2024, 6, 30, 3, 0, 0, 0, time.UTC) }

	info, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stocklab/stocklab-backup-2024-06-30-030000.tar.gz", info.Key)
	assert.Equal(t, []string{info.Key}, store.keys())
	assert.Equal(t, int64(len(store.objects[info.Key])), info.SizeBytes)

	metadata, err := svc.VerifyLatest(context.Background())
	require.NoError(t, err)
	assert.Len(t, metadata.Databases, 2)
}

func TestRotateOldBackups(t *testing.T) {
	store := newMemoryStore()
	now := time.Date(2024, 6, 30, 3, 0, 0, 0, time.UTC)
	for _, days := range []int{1, 2, 3, 20, 40, 90} {
		require.NoError(t, store.Upload(context.Background(), "stocklab/"+ArchiveName(now.AddDate(0, 0, -days)), bytes.NewReader([]byte("x"))))
	}
	require.NoError(t, store.Upload(context.Background(), "stocklab/stocklab-backup-garbage.tar.gz", bytes.NewReader(nil)))

	svc := NewBackupService(store, t.TempDir(), "stocklab", zerolog.Nop())
	svc.now = func() time.Time { return now }

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 6)
	assert.Equal(t, int64(24), backups[0].AgeHours)

	deleted, err := svc.RotateOldBackups(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	backups, err = svc.ListBackups(context.Background())
	require.NoError(t, err)
	assert.Len(t, backups, 4)
}

func TestBackupService_NoStore(t *testing.T) {
	svc := NewBackupService(nil, t.TempDir(), "", zerolog.Nop())

	_, err := svc.CreateAndUploadBackup(context.Background())
	assert.Error(t, err)
	_, err = svc.ListBackups(context.Background())
	assert.Error(t, err)
	_, _, err = svc.CreateArchive(context.Background(), t.TempDir())
	assert.Error(t, err)
}
