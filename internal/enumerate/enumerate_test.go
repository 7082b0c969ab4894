package enumerate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticEnumeratorReturnsFixedList(t *testing.T) {
	e := Static{{Name: "/dev/ttyUSB0", VID: "0x0403"}}
	ports, err := e.List()
	require.NoError(t, err)
	require.Len(t, ports, 1)
	require.Equal(t, "/dev/ttyUSB0", ports[0].Name)
}
