package portsvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mosaic-labs/serialmcp/internal/serialio"
)

func mockOpener(mock *serialio.MockHandle) Opener {
	return func(name string, cfg serialio.Config) (serialio.Handle, error) {
		return mock, nil
	}
}

func TestOpenThenOpenFailsAlreadyOpen(t *testing.T) {
	svc := New(mockOpener(serialio.NewMockHandle()))
	require.NoError(t, svc.Open(DefaultConfig("PORT_X", 9600)))
	err := svc.Open(DefaultConfig("PORT_X", 9600))
	require.ErrorIs(t, err, ErrAlreadyOpen)
}

func TestWriteAndReadOnClosedFailsNotOpen(t *testing.T) {
	svc := New(mockOpener(serialio.NewMockHandle()))
	_, err := svc.Write("x")
	require.ErrorIs(t, err, ErrNotOpen)
	_, err = svc.Read()
	require.ErrorIs(t, err, ErrNotOpen)
}

func TestWriteAppendsTerminatorExactlyOnce(t *testing.T) {
	mock := serialio.NewMockHandle()
	svc := New(mockOpener(mock))
	cfg := DefaultConfig("PORT_X", 9600)
	cfg.Terminator = "\n"
	require.NoError(t, svc.Open(cfg))

	res, err := svc.Write("AB")
	require.NoError(t, err)
	require.Equal(t, uint32(3), res.BytesWritten)

	res, err = svc.Write("AB\n")
	require.NoError(t, err)
	require.Equal(t, uint32(3), res.BytesWritten)

	require.Equal(t, []byte("AB\nAB\n"), mock.WrittenBytes())
}

func TestReadTrimsTerminatorOnce(t *testing.T) {
	mock := serialio.NewMockHandle()
	svc := New(mockOpener(mock))
	cfg := DefaultConfig("PORT_X", 9600)
	cfg.Terminator = "\n"
	require.NoError(t, svc.Open(cfg))

	mock.QueueRead([]byte("PONG\n"))
	res, err := svc.Read()
	require.NoError(t, err)
	require.Equal(t, "PONG", res.Text)
	require.Equal(t, uint32(5), res.BytesRead)
}

func TestReadTimeoutIncrementsStreakWithoutTouchingActivity(t *testing.T) {
	mock := serialio.NewMockHandle()
	svc := New(mockOpener(mock))
	svc.now = func() time.Time { return time.Unix(1000, 0) }
	require.NoError(t, svc.Open(DefaultConfig("PORT_X", 9600)))

	res, err := svc.Read()
	require.NoError(t, err)
	require.True(t, res.Timeout)
	require.Equal(t, uint32(1), res.TimeoutStreak)

	res, err = svc.Read()
	require.NoError(t, err)
	require.Equal(t, uint32(2), res.TimeoutStreak)

	m := svc.Metrics()
	require.Equal(t, uint64(0), m.Counters.BytesReadTotal)
}

func TestIdleWatchdogAutoClosesAndIncrementsCount(t *testing.T) {
	mock := serialio.NewMockHandle()
	svc := New(mockOpener(mock))

	cur := time.Unix(1000, 0)
	svc.now = func() time.Time { return cur }

	cfg := DefaultConfig("PORT_X", 9600)
	cfg.HasIdleDisconnect = true
	cfg.IdleDisconnectMs = 50
	require.NoError(t, svc.Open(cfg))

	cur = cur.Add(60 * time.Millisecond)
	res, err := svc.Read()
	require.NoError(t, err)
	require.NotNil(t, res.AutoClose)
	require.Equal(t, "idle_timeout", res.AutoClose.Reason)
	require.Equal(t, uint32(1), res.AutoClose.IdleCloseCount)

	status := svc.Status()
	require.False(t, status.IsOpen)
}

func TestCloseIsIdempotent(t *testing.T) {
	svc := New(mockOpener(serialio.NewMockHandle()))
	require.NoError(t, svc.Open(DefaultConfig("PORT_X", 9600)))

	r1, err := svc.Close()
	require.NoError(t, err)
	require.True(t, r1.WasOpen)

	r2, err := svc.Close()
	require.NoError(t, err)
	require.False(t, r2.WasOpen)
}

func TestReconfigureResetsCountersAndKeepsPortNameWhenOpen(t *testing.T) {
	mock := serialio.NewMockHandle()
	svc := New(mockOpener(mock))
	require.NoError(t, svc.Open(DefaultConfig("PORT_X", 9600)))

	mock.QueueRead([]byte("data"))
	_, err := svc.Read()
	require.NoError(t, err)
	require.NotZero(t, svc.Metrics().Counters.BytesReadTotal)

	baud := uint32(115200)
	require.NoError(t, svc.Reconfigure(Partial{BaudRate: &baud}))

	status := svc.Status()
	require.True(t, status.IsOpen)
	require.Equal(t, "PORT_X", status.Config.PortName)
	require.Equal(t, uint32(115200), status.Config.BaudRate)
	require.Zero(t, status.Counters.BytesReadTotal)
}

func TestReconfigureRequiresPortNameWhenClosed(t *testing.T) {
	svc := New(mockOpener(serialio.NewMockHandle()))
	baud := uint32(9600)
	err := svc.Reconfigure(Partial{BaudRate: &baud})
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, KindInvalid, svcErr.Kind)
}
