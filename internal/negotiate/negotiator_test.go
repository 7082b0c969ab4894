package negotiate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mosaic-labs/serialmcp/internal/serialio"
)

func openAlwaysSucceeds(name string, cfg serialio.Config) (serialio.Handle, error) {
	return serialio.NewMockHandle(), nil
}

func TestManufacturerStrategyMatchesVID(t *testing.T) {
	n := Default(openAlwaysSucceeds)
	params, err := n.Detect("PORT_X", Hints{VID: "0x0403"})
	require.NoError(t, err)
	require.Equal(t, "manufacturer", params.StrategyName)
	require.Equal(t, uint32(115200), params.BaudRate)
	require.GreaterOrEqual(t, params.Confidence, 0.7)
}

func TestManufacturerNotApplicableFallsThroughToSweep(t *testing.T) {
	n := Default(openAlwaysSucceeds)
	params, err := n.Detect("PORT_X", Hints{})
	require.NoError(t, err)
	require.Equal(t, "standard_sweep", params.StrategyName)
}

func TestAllStrategiesFailWhenOpenAlwaysErrors(t *testing.T) {
	alwaysFail := func(name string, cfg serialio.Config) (serialio.Handle, error) {
		return nil, serialio.ErrClosed
	}
	n := Default(alwaysFail)
	_, err := n.Detect("PORT_X", Hints{VID: "0x0403"})
	var failErr *AllStrategiesFailedError
	require.ErrorAs(t, err, &failErr)
	require.Len(t, failErr.Failures, 3)
}

func TestDetectPreferredJumpsDirectlyToStrategy(t *testing.T) {
	n := Default(openAlwaysSucceeds)
	params, err := n.DetectPreferred("standard_sweep", "PORT_X", Hints{})
	require.NoError(t, err)
	require.Equal(t, "standard_sweep", params.StrategyName)
}

func TestDetectManRunsIndependentlyPerPort(t *testing.T) {
	n := Default(openAlwaysSucceeds)
	results := n.DetectMany(context.Background(), []string{"A", "B", "C"}, Hints{})
	require.Len(t, results, 3)
	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, results[name].Err)
	}
}
