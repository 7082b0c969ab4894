package serialio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRealHandleOverPTYRoundTrip(t *testing.T) {
	master, slaveName, err := OpenTestPTY()
	if err != nil {
		t.Skipf("pty unavailable in this sandbox: %v", err)
	}
	defer master.Close()

	cfg := DefaultConfig(115200)
	cfg.Timeout = 200 * time.Millisecond
	h, err := Open(slaveName, cfg)
	require.NoError(t, err)
	defer h.Close()

	n, err := h.Write([]byte("PING"))
	require.NoError(t, err)
	require.Equal(t, 4, n)

	got := make([]byte, 4)
	_, err = master.Read(got)
	require.NoError(t, err)
	require.Equal(t, "PING", string(got))

	_, err = master.Write([]byte("PONG\n"))
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err = h.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "PONG\n", string(buf[:n]))
}

func TestRealHandleReadTimesOutWithoutData(t *testing.T) {
	master, slaveName, err := OpenTestPTY()
	if err != nil {
		t.Skipf("pty unavailable in this sandbox: %v", err)
	}
	defer master.Close()

	cfg := DefaultConfig(9600)
	cfg.Timeout = 50 * time.Millisecond
	h, err := Open(slaveName, cfg)
	require.NoError(t, err)
	defer h.Close()

	buf := make([]byte, 16)
	n, err := h.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
