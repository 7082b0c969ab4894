package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateSessionThenAppendMessage(t *testing.T) {
	store := NewMemStore()
	sess, err := store.CreateSession("dev-1", "/dev/ttyUSB0")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	msg, err := store.AppendMessage(sess.ID, "user", "hello", "in", "greeting", nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), msg.ID)

	msgs, err := store.ListMessages(sess.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestAppendMessageUnknownSessionFails(t *testing.T) {
	store := NewMemStore()
	_, err := store.AppendMessage("nope", "user", "hi", "in", "", nil)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestConcurrentAppendMessageIsStrictlySequential(t *testing.T) {
	store := NewMemStore()
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

func TestListMessagesRangeReturnsOnlyNewer(t *testing.T) {
	store := NewMemStore()
	sess, _ := store.CreateSession("dev-1", "/dev/ttyUSB0")
	for i := 0; i < 5; i++ {
		_, err := store.AppendMessage(sess.ID, "user", "x", "in", "", nil)
		require.NoError(t, err)
	}
	msgs, err := store.ListMessagesRange(sess.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, uint64(3), msgs[0].ID)
}

func TestFilterMessagesByFeatureContains(t *testing.T) {
	store := NewMemStore()
	sess, _ := store.CreateSession("dev-1", "/dev/ttyUSB0")
	_, _ = store.AppendMessage(sess.ID, "user", "a", "in", "temp,voltage", nil)
	_, _ = store.AppendMessage(sess.ID, "user", "b", "in", "humidity", nil)

	msgs, err := store.FilterMessages(sess.ID, "", "", "temp", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "a", msgs[0].Content)
}

func TestFeatureIndexTokenizesOnCommaAndWhitespace(t *testing.T) {
	store := NewMemStore()
	sess, _ := store.CreateSession("dev-1", "/dev/ttyUSB0")
	_, _ = store.AppendMessage(sess.ID, "user", "a", "in", "temp, voltage temp", nil)

	idx, err := store.FeatureIndex(sess.ID)
	require.NoError(t, err)
	require.Equal(t, 2, idx["temp"])
	require.Equal(t, 1, idx["voltage"])
}

func TestSessionStatsOnEmptySession(t *testing.T) {
	store := NewMemStore()
	sess, _ := store.CreateSession("dev-1", "/dev/ttyUSB0")
	stats, err := store.SessionStats(sess.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stats.MessageCount)
	require.Nil(t, stats.FirstAt)
}

func TestCloseSessionIsIdempotent(t *testing.T) {
	store := NewMemStore()
	sess, _ := store.CreateSession("dev-1", "/dev/ttyUSB0")
	require.NoError(t, store.CloseSession(sess.ID))
	require.NoError(t, store.CloseSession(sess.ID))

	sessions, err := store.ListSessions(FilterClosed, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}

func TestListSessionsFilters(t *testing.T) {
	store := NewMemStore()
	open, _ := store.CreateSession("dev-1", "/dev/ttyUSB0")
	closed, _ := store.CreateSession("dev-2", "/dev/ttyUSB1")
	require.NoError(t, store.CloseSession(closed.ID))

	openOnly, err := store.ListSessions(FilterOpen, 0)
	require.NoError(t, err)
	require.Len(t, openOnly, 1)
	require.Equal(t, open.ID, openOnly[0].ID)

	all, err := store.ListSessions(FilterAll, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestExportSessionReturnsSessionAndMessages(t *testing.T) {
	store := NewMemStore()
	sess, _ := store.CreateSession("dev-1", "/dev/ttyUSB0")
	_, _ = store.AppendMessage(sess.ID, "user", "a", "in", "", nil)

	exported, msgs, err := store.ExportSession(sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.ID, exported.ID)
	require.Len(t, msgs, 1)
}
