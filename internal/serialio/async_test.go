package serialio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsyncHandleDelegatesToInner(t *testing.T) {
	mock := NewMockHandle()
	mock.QueueRead([]byte("hello"))
	async := NewAsyncHandle(mock)
	defer async.Close()

	n, err := async.Write([]byte("hi"))
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []byte("hi"), mock.WrittenBytes())

	buf := make([]byte, 16)
	n, err = async.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))
}

func TestAsyncHandleCloseStopsWorker(t *testing.T) {
	mock := NewMockHandle()
	async := NewAsyncHandle(mock)
	require.NoError(t, async.Close())
	_, err := mock.Write([]byte("x"))
	require.ErrorIs(t, err, ErrClosed)
}
