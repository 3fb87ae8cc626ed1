package bem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testSections() []BladeSection {
	return []BladeSection{
		{Radius: 0.3, Chord: 0.12, Twist: 0.2},
		{Radius: 0.6, Chord: 0.10, Twist: 0.1},
		{Radius: 0.8, Chord: 0.08, Twist: 0.05},
		{Radius: 1.0, Chord: 0.06, Twist: 0.0},
	}
}

var testPolar = FlatPlatePolar{LiftSlope: 2 * math.Pi, Drag: 0.01}

func newTestGeometry(t *testing.T, cone, yaw, tilt float64) *TurbineGeometry {
	t.Helper()
	g, err := NewTurbineGeometry(testSections(), testPolar)
	require.NoError(t, err)
	require.NoError(t, g.Configure(0.1, cone, yaw, tilt, 2, 30, 3))
	g.PrecomputeRotationMatrices()
	return g
}

func TestNewTurbineGeometryValidation(t *testing.T) {
	cases := map[string][]BladeSection{
		"empty":            nil,
		"zero chord":       {{Radius: 0.5, Chord: 0}},
		"negative radius":  {{Radius: -1, Chord: 0.1}},
		"unordered radius": {{Radius: 0.5, Chord: 0.1}, {Radius: 0.4, Chord: 0.1}},
		"duplicate radius": {{Radius: 0.5, Chord: 0.1}, {Radius: 0.5, Chord: 0.1}},
	}
	for name, ss := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewTurbineGeometry(ss, testPolar)
			assert.Error(t, err)
		})
	}

	_, err := NewTurbineGeometry(testSections(), nil)
	assert.Error(t, err)
}

func TestConfigureValidation(t *testing.T) {
	g, err := NewTurbineGeometry(testSections(), testPolar)
	require.NoError(t, err)

	assert.Error(t, g.Configure(-0.1, 0, 0, 0, 0, 30, 3), "negative hub radius")
	assert.Error(t, g.Configure(1.0, 0, 0, 0, 0, 30, 3), "hub radius at tip")
	assert.Error(t, g.Configure(0.4, 0, 0, 0, 0, 30, 3), "hub radius beyond first section")
	assert.Error(t, g.Configure(0.1, 0, 0, 0, 0, 30, 0), "zero blades")
	assert.Error(t, g.Configure(0.1, 0, 0, 0, 0, 0, 3), "zero hub height")
	assert.NoError(t, g.Configure(0.1, 0, 0, 0, 0, 30, 3))
}

func TestQueriesBeforePrecomputePanic(t *testing.T) {
	g, err := NewTurbineGeometry(testSections(), testPolar)
	require.NoError(t, err)

	assert.Panics(t, func() { g.PrecomputeRotationMatrices() })
	require.NoError(t, g.Configure(0.1, 0, 0, 0, 0, 30, 3))
	assert.Panics(t, func() { g.GlobalPositionsAtAzimuth(0) })
	assert.Panics(t, func() { g.WorldToBladeLocalMatrix(0) })

	g.PrecomputeRotationMatrices()
	assert.NotPanics(t, func() { g.GlobalPositionsAtAzimuth(0) })
}

func TestWorldToBladeLocalIsOrthonormal(t *testing.T) {
	g := newTestGeometry(t, 0.05, 0.3, 0.1)
	for _, psi := range []float64{0, math.Pi / 2, math.Pi, 4} {
		m := g.WorldToBladeLocalMatrix(psi)
		var mmt mat.Dense
		mmt.Mul(m, m.T())
		assert.True(t, mat.EqualApprox(&mmt, eye3(), 1e-12), "psi=%g", psi)
		assert.InDelta(t, 1, mat.Det(m), 1e-12, "psi=%g", psi)
	}
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

func TestGlobalPositionsAtAzimuth(t *testing.T) {
	g := newTestGeometry(t, 0, 0, 0)

	// ψ = 0: ブレードは鉛直上向き
	ps := g.GlobalPositionsAtAzimuth(0)
	require.Len(t, ps, g.SectionCount())
	for i, p := range ps {
		assert.InDelta(t, -2, p.X, 1e-12)
		assert.InDelta(t, 0, p.Y, 1e-12)
		assert.InDelta(t, 30+g.Radius(i), p.Z, 1e-12)
	}

	// ψ = π/2: 水平
	ps = g.GlobalPositionsAtAzimuth(math.Pi / 2)
	for i, p := range ps {
		assert.InDelta(t, -2, p.X, 1e-12)
		assert.InDelta(t, g.Radius(i), math.Abs(p.Y), 1e-12)
		assert.InDelta(t, 30, p.Z, 1e-12)
	}

	// ロータ中心からの距離は方位角・姿勢によらず半径
	g = newTestGeometry(t, 0.05, 0.4, 0.1)
	c := g.RotorCentre()
	for _, psi := range []float64{0, 1, 2, 3} {
		for i, p := range g.GlobalPositionsAtAzimuth(psi) {
			d := math.Sqrt((p.X-c.X)*(p.X-c.X) + (p.Y-c.Y)*(p.Y-c.Y) + (p.Z-c.Z)*(p.Z-c.Z))
			assert.InDelta(t, g.Radius(i), d, 1e-12)
		}
	}
}

func TestGeometryAccessors(t *testing.T) {
	g := newTestGeometry(t, 0.05, 0, 0)
	assert.Equal(t, 4, g.SectionCount())
	assert.Equal(t, 1.0, g.TipRadius())
	assert.Equal(t, 0.1, g.HubRadius())
	assert.Equal(t, 3, g.BladeCount())
	assert.Equal(t, 30.0, g.HubHeight())
	assert.Equal(t, 0.05, g.Cone())
	assert.Equal(t, 0.08, g.Chord(2))
	assert.Equal(t, 0.1, g.Twist(1))
	assert.Equal(t, testPolar, g.Polar())
}
