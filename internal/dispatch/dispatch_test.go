package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mosaic-labs/serialmcp/internal/enumerate"
	"github.com/mosaic-labs/serialmcp/internal/negotiate"
	"github.com/mosaic-labs/serialmcp/internal/portsvc"
	"github.com/mosaic-labs/serialmcp/internal/serialio"
	"github.com/mosaic-labs/serialmcp/internal/session"
)

func newTestDispatcher(mock *serialio.MockHandle) *Dispatcher {
	opener := func(name string, cfg serialio.Config) (serialio.Handle, error) {
		return mock, nil
	}
	ports := portsvc.New(portsvc.Opener(opener))
	neg := negotiate.New(negotiate.Opener(opener), negotiate.ManufacturerStrategy{})
	store := session.NewMemStore()
	enum := enumerate.Static{{Name: "/dev/ttyUSB0"}}
	return New(ports, neg, store, enum)
}

func TestOpenWriteReadEndToEnd(t *testing.T) {
	mock := serialio.NewMockHandle()
	mock.QueueRead([]byte("PONG\n"))
	d := newTestDispatcher(mock)

	_, err := d.Call("open_port", map[string]any{
		"port_name": "PORT_X", "baud_rate": float64(9600), "terminator": "\n",
	})
	require.NoError(t, err)

	res, err := d.Call("write", map[string]any{"text": "PING"})
	require.NoError(t, err)
	require.Equal(t, uint32(5), res.Structured["bytes_written"])

	res, err = d.Call("read", nil)
	require.NoError(t, err)
	require.Equal(t, "PONG", res.Structured["text"])
	require.Equal(t, uint32(5), res.Structured["bytes_read"])

	st, err := d.Call("status", nil)
	require.NoError(t, err)
	require.Equal(t, uint64(5), st.Structured["bytes_read_total"])
}

func TestOpenPortRequiresPortName(t *testing.T) {
	d := newTestDispatcher(serialio.NewMockHandle())
	_, err := d.Call("open_port", map[string]any{"baud_rate": float64(9600)})
	require.Error(t, err)
	var invalidErr *InvalidArgumentsError
	require.ErrorAs(t, err, &invalidErr)
	require.Equal(t, "port_name", invalidErr.Field)
}

func TestUnknownToolReturnsError(t *testing.T) {
	d := newTestDispatcher(serialio.NewMockHandle())
	_, err := d.Call("not_a_tool", nil)
	require.Error(t, err)
}

func TestSessionCreateAppendListEndToEnd(t *testing.T) {
	d := newTestDispatcher(serialio.NewMockHandle())

	res, err := d.Call("create_session", map[string]any{"device_id": "dev1"})
	require.NoError(t, err)
	sessionID := res.Structured["id"].(string)
	require.NotEmpty(t, sessionID)

	for i := 0; i < 4; i++ {
		res, err := d.Call("append_message", map[string]any{
			"session_id": sessionID, "role": "agent", "content": "hello",
		})
		require.NoError(t, err)
		require.Equal(t, uint64(i+1), res.Structured["message_id"])
	}

	res, err = d.Call("list_messages", map[string]any{"session_id": sessionID})
	require.NoError(t, err)
	msgs := res.Structured["messages"].([]any)
	require.Len(t, msgs, 4)
}

func TestFilterMessagesByFeatureAndRole(t *testing.T) {
	d := newTestDispatcher(serialio.NewMockHandle())
	res, _ := d.Call("create_session", map[string]any{"device_id": "dev1"})
	sessionID := res.Structured["id"].(string)

	_, _ = d.Call("append_message", map[string]any{
		"session_id": sessionID, "role": "device", "content": "a", "features": "ack",
	})
	_, _ = d.Call("append_message", map[string]any{
		"session_id": sessionID, "role": "device", "content": "b", "features": "ack,temp",
	})
	_, _ = d.Call("append_message", map[string]any{
		"session_id": sessionID, "role": "device", "content": "c", "features": "noop",
	})
	_, _ = d.Call("append_message", map[string]any{
		"session_id": sessionID, "role": "agent", "content": "d", "features": "ack",
	})
	_, _ = d.Call("append_message", map[string]any{
		"session_id": sessionID, "role": "device", "content": "e",
	})

	res, err := d.Call("filter_messages", map[string]any{
		"session_id": sessionID, "role": "device", "feature_contains": "ack",
	})
	require.NoError(t, err)
	msgs := res.Structured["messages"].([]any)
	require.Len(t, msgs, 2)
}

func TestDetectPortUsesManufacturerStrategy(t *testing.T) {
	d := newTestDispatcher(serialio.NewMockHandle())
	res, err := d.Call("detect_port", map[string]any{
		"port_name": "PORT_X", "vid": "0x0403",
	})
	require.NoError(t, err)
	require.Equal(t, "manufacturer", res.Structured["strategy"])
	require.Equal(t, uint32(115200), res.Structured["baud_rate"])
}

func TestCloseIsIdempotentThroughDispatcher(t *testing.T) {
	d := newTestDispatcher(serialio.NewMockHandle())
	_, err := d.Call("close", nil)
	require.NoError(t, err)
	res, err := d.Call("close", nil)
	require.NoError(t, err)
	require.Equal(t, false, res.Structured["was_open"])
}
