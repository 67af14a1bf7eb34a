package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/covenantmonitor/internal/database"
	testingpkg "github.com/aristath/covenantmonitor/internal/testing"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader, _ int64) error {
	if m.failOn == "upload" {
		return errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ObjectInfo, 0, len(m.objects))
	for key, data := range m.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, ObjectInfo{Key: key, SizeBytes: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func newTestBackupService(t *testing.T, store ObjectStore) (*BackupService, *database.DB) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "compliance")
	t.Cleanup(cleanup)

	_, err := db.Conn().Exec(`INSERT INTO covenant_definitions
		(id, deal_id, name, operator, threshold, created_at, updated_at)
		VALUES ('c1', 'deal-1', 'Leverage', '<=', 4.5, 0, 0)`)
	require.NoError(t, err)

	svc := NewBackupService(store, []*database.DB{db}, t.TempDir(), zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 6, 30, 23, 0, 0, 0, time.UTC) }
	return svc, db
}

func TestBackupService_CreateAndUpload(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestBackupService(t, store)

	result, err := svc.CreateAndUpload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "covenantmonitor-backup-2026-06-30-230000.tar.gz", result.Key)
	assert.Contains(t, result.Checksum, "sha256:")

	archive, ok := store.objects[result.Key]
	require.True(t, ok)
	assert.Equal(t, int64(len(archive)), result.SizeBytes)

	gz, err := gzip.NewReader(bytes.NewReader(archive))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	names := []string{}
	var metadata BackupMetadata
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, header.Name)
		if header.Name == metadataFilename {
			require.NoError(t, json.NewDecoder(tr).Decode(&metadata))
		}
	}
	assert.Equal(t, []string{"compliance.db", metadataFilename}, names)
	require.Len(t, metadata.Databases, 1)
	assert.Equal(t, "compliance", metadata.Databases[0].Name)
	assert.Positive(t, metadata.Databases[0].SizeBytes)
}

func TestBackupService_UploadFailure(t *testing.T) {
	store := newMemoryStore()
	store.failOn = "upload"
	svc, _ := newTestBackupService(t, store)

	_, err := svc.CreateAndUpload(context.Background())
	assert.ErrorContains(t, err, "bucket unavailable")
}

func TestBackupService_ListAndRotate(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestBackupService(t, store)

	for _, key := range []string{
		"covenantmonitor-backup-2026-06-29-230000.tar.gz",
		"covenantmonitor-backup-2026-06-28-230000.tar.gz",
		"covenantmonitor-backup-2026-06-01-230000.tar.gz",
		"covenantmonitor-backup-2026-04-01-230000.tar.gz",
		"covenantmonitor-backup-2026-03-01-230000.tar.gz",
		"covenantmonitor-backup-garbage.tar.gz",
	} {
		store.objects[key] = []byte("x")
	}

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 5)
	assert.Equal(t, "covenantmonitor-backup-2026-06-29-230000.tar.gz", backups[0].Filename)
	assert.Equal(t, int64(24), backups[0].AgeHours)

	deleted, err := svc.RotateOldBackups(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = svc.RotateOldBackups(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	remaining, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	assert.Len(t, remaining, 3)
}
