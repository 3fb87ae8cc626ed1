package bem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaturationVapourPressure(t *testing.T) {
	// 20 degree C で約 2339 Pa, 0 degree C で約 611 Pa
	assert.InDelta(t, 2339, SaturationVapourPressure(20), 5)
	assert.InDelta(t, 611, SaturationVapourPressure(0), 2)
	assert.Less(t, SaturationVapourPressure(-10), SaturationVapourPressure(0))
}

func TestHumidAirDensity(t *testing.T) {
	dry, err := HumidAirDensity(15, StandardPressure, 0)
	require.NoError(t, err)
	assert.InDelta(t, StandardAirDensity, dry, 1e-3)

	humid, err := HumidAirDensity(15, StandardPressure, 80)
	require.NoError(t, err)
	assert.Less(t, humid, dry)

	cold, err := HumidAirDensity(-10, StandardPressure, 50)
	require.NoError(t, err)
	assert.Greater(t, cold, dry)

	_, err = HumidAirDensity(15, 0, 50)
	assert.Error(t, err)
	_, err = HumidAirDensity(15, StandardPressure, 120)
	assert.Error(t, err)
	_, err = HumidAirDensity(-300, StandardPressure, 50)
	assert.Error(t, err)
}
