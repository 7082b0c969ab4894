package session

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "sessions.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	store, err := NewGormStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGormStoreConcurrentAppendMessageIsStrictlySequential(t *testing.T) {
	store := newTestGormStore(t)
	sess, err := store.CreateSession("dev-1", "/dev/ttyUSB0")
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := store.AppendMessage(sess.ID, "user", "x", "in", "", nil)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	msgs, err := store.ListMessages(sess.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, n)

	seen := make(map[uint64]bool)
	for _, m := range msgs {
		require.False(t, seen[m.ID], "duplicate id %d", m.ID)
		seen[m.ID] = true
	}
	for i := uint64(1); i <= n; i++ {
		require.True(t, seen[i], "missing id %d", i)
	}
}

func TestGormStoreAppendMessageUnknownSessionFails(t *testing.T) {
	store := newTestGormStore(t)
	_, err := store.AppendMessage("nope", "user", "hi", "in", "", nil)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGormStoreCloseThenOperationsFail(t *testing.T) {
	store := newTestGormStore(t)
	sess, err := store.CreateSession("dev-1", "/dev/ttyUSB0")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.AppendMessage(sess.ID, "user", "hi", "in", "", nil)
	require.Error(t, err)
}
