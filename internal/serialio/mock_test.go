package serialio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockHandleWriteCapturesBytes(t *testing.T) {
	m := NewMockHandle()
	n, err := m.Write([]byte("PING"))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte("PING"), m.WrittenBytes())
}

func TestMockHandleReadReturnsQueuedChunk(t *testing.T) {
	m := NewMockHandle()
	m.QueueRead([]byte("PONG\n"))
	buf := make([]byte, 64)
	n, err := m.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "PONG\n", string(buf[:n]))
}

func TestMockHandleReadWithEmptyQueueIsTimeoutNotError(t *testing.T) {
	m := NewMockHandle()
	buf := make([]byte, 64)
	n, err := m.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestMockHandleCloseIsNotIdempotentAtHandleLevel(t *testing.T) {
	m := NewMockHandle()
	require.NoError(t, m.Close())
	_, err := m.Write([]byte("x"))
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, m.Close(), ErrClosed)
}
