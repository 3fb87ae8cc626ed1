package bem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testControllerSettings() VariableSpeedSettings {
	return VariableSpeedSettings{
		RotorRadius:     40,
		RatedPower:      1.5e6,
		OptimalTSR:      8,
		MinRotorSpeed:   0.6,
		MaxRotorSpeed:   2.2,
		CutInWindSpeed:  3,
		CutOutWindSpeed: 25,
	}
}

func TestVariableSpeedControllerTracking(t *testing.T) {
	c, err := NewVariableSpeedController(testControllerSettings(), nil, nil)
	require.NoError(t, err)

	// 最適周速比の追従
	out := c.ComputeOperatingPoint(ControllerInput{WindSpeed: 8, BasePitch: 0.01})
	assert.False(t, out.Parked)
	assert.InDelta(t, 8*8/40.0, out.RotorSpeed, 1e-12)
	assert.InDelta(t, out.RotorSpeed*40, out.TipSpeed, 1e-12)
	assert.Equal(t, 0.01, out.Pitch)

	// 下限・上限
	out = c.ComputeOperatingPoint(ControllerInput{WindSpeed: 3})
	assert.Equal(t, 0.6, out.RotorSpeed)
	out = c.ComputeOperatingPoint(ControllerInput{WindSpeed: 20})
	assert.Equal(t, 2.2, out.RotorSpeed)
}

func TestVariableSpeedControllerParked(t *testing.T) {
	c, err := NewVariableSpeedController(testControllerSettings(), nil, nil)
	require.NoError(t, err)
	for _, v := range []float64{0.5, 2.99, 25.01, 40} {
		out := c.ComputeOperatingPoint(ControllerInput{WindSpeed: v, BasePitch: 0.1})
		assert.True(t, out.Parked, "U=%g", v)
		assert.Zero(t, out.RotorSpeed)
		assert.Equal(t, 0.1, out.Pitch)
	}
}

func TestVariableSpeedControllerAboveRated(t *testing.T) {
	s := testControllerSettings()
	s.PowerTable = []float64{0, 1.5e6, 3e6}
	s.SpeedTable = []float64{0.6, 2.0, 1.0}
	_, err := NewVariableSpeedController(s, nil, nil)
	assert.Error(t, err, "decreasing speed table")

	s.SpeedTable = []float64{0.6, 1.8, 2.0}
	c, err := NewVariableSpeedController(s, nil, nil)
	require.NoError(t, err)

	// 定格以上では出力-回転数テーブルで回転数を絞る
	out := c.ComputeOperatingPoint(ControllerInput{WindSpeed: 12, ElectricalPower: 1.5e6})
	assert.InDelta(t, 1.8, out.RotorSpeed, 1e-12)
	// 定格未満では追従のまま
	out = c.ComputeOperatingPoint(ControllerInput{WindSpeed: 9, ElectricalPower: 1.4e6})
	assert.InDelta(t, 8*9/40.0, out.RotorSpeed, 1e-12)
}

func TestVariableSpeedControllerElectricalPower(t *testing.T) {
	c, err := NewVariableSpeedController(testControllerSettings(), nil, ConstantEfficiency(0.9))
	require.NoError(t, err)

	pel, eta := c.ElectricalPower(1e6, 1)
	assert.InDelta(t, 0.9e6, pel, 1e-6)
	assert.Equal(t, 0.9, eta)

	pel, _ = c.ElectricalPower(5e6, 1)
	assert.Equal(t, 1.5e6, pel)
}

func TestPitchScheduleAndEfficiencyTables(t *testing.T) {
	ps, err := NewTablePitchSchedule([]float64{10, 20}, []float64{0, 0.2})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, ps.Offset(15), 1e-12)
	assert.Equal(t, 0.0, ps.Offset(5))
	assert.Zero(t, NoPitchSchedule{}.Offset(15))

	c, err := NewVariableSpeedController(testControllerSettings(), ps, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, c.ComputeOperatingPoint(ControllerInput{WindSpeed: 15, BasePitch: 0.05}).Pitch, 1e-12)

	te, err := NewTableEfficiency(1e6, []float64{0, 1}, []float64{0.8, 0.95})
	require.NoError(t, err)
	assert.InDelta(t, 0.875, te.Efficiency(0.5e6, 0), 1e-12)

	_, err = NewTableEfficiency(1e6, []float64{0, 1}, []float64{0, 0.95})
	assert.Error(t, err)
	_, err = NewTableEfficiency(0, []float64{0, 1}, []float64{0.8, 0.95})
	assert.Error(t, err)
}

func TestNewVariableSpeedControllerValidation(t *testing.T) {
	for name, mutate := range map[string]func(*VariableSpeedSettings){
		"radius":       func(s *VariableSpeedSettings) { s.RotorRadius = 0 },
		"rated power":  func(s *VariableSpeedSettings) { s.RatedPower = -1 },
		"tsr":          func(s *VariableSpeedSettings) { s.OptimalTSR = 0 },
		"min speed":    func(s *VariableSpeedSettings) { s.MinRotorSpeed = -0.1 },
		"speed range":  func(s *VariableSpeedSettings) { s.MaxRotorSpeed = s.MinRotorSpeed },
		"cut-out":      func(s *VariableSpeedSettings) { s.CutOutWindSpeed = 2 },
		"table length": func(s *VariableSpeedSettings) { s.PowerTable = []float64{0, 1} },
		"power order": func(s *VariableSpeedSettings) {
			s.PowerTable = []float64{0, 0}
			s.SpeedTable = []float64{1, 2}
		},
	} {
		s := testControllerSettings()
		mutate(&s)
		_, err := NewVariableSpeedController(s, nil, nil)
		assert.Error(t, err, name)
	}
}
