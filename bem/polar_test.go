package bem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAirfoilPolarInterpolation(t *testing.T) {
	a := &AirfoilPolar{Name: "naca"}
	alpha := []float64{-0.2, 0, 0.2}
	require.NoError(t, a.AddCurve(1e6, alpha, []float64{-1, 0, 1}, []float64{0.02, 0.01, 0.02}, []float64{0, 0, 0}))
	require.NoError(t, a.AddCurve(3e5, alpha, []float64{-0.8, 0, 0.8}, []float64{0.04, 0.02, 0.04}, []float64{0, 0, 0}))

	// 迎角方向の線形補間
	cl, cd, _ := a.Coefficients(1e6, 0.1)
	assert.InDelta(t, 0.5, cl, 1e-12)
	assert.InDelta(t, 0.015, cd, 1e-12)

	// レイノルズ数方向の線形補間
	cl, _, _ = a.Coefficients(6.5e5, 0.2)
	assert.InDelta(t, 0.9, cl, 1e-12)

	// 範囲外は端の値
	cl, _, _ = a.Coefficients(1e4, 0.2)
	assert.InDelta(t, 0.8, cl, 1e-12)
	cl, _, _ = a.Coefficients(1e7, 0.5)
	assert.InDelta(t, 1.0, cl, 1e-12)

	// 2π ずれた迎角は同じ値
	cl1, _, _ := a.Coefficients(1e6, 0.1+2*math.Pi)
	assert.InDelta(t, 0.5, cl1, 1e-9)
}

func TestAirfoilPolarAddCurveValidation(t *testing.T) {
	a := &AirfoilPolar{Name: "x"}
	assert.Error(t, a.AddCurve(1e6, []float64{0}, []float64{0}, []float64{0}, []float64{0}))
	assert.Error(t, a.AddCurve(1e6, []float64{0, 1}, []float64{0}, []float64{0, 0}, []float64{0, 0}))
	require.NoError(t, a.AddCurve(1e6, []float64{0, 1}, []float64{0, 1}, []float64{0, 0}, []float64{0, 0}))
	assert.Error(t, a.AddCurve(1e6, []float64{0, 1}, []float64{0, 1}, []float64{0, 0}, []float64{0, 0}), "duplicate Reynolds number")
}

func TestSectionPolars(t *testing.T) {
	thin := &AirfoilPolar{Name: "thin"}
	require.NoError(t, thin.AddCurve(1e6, []float64{-1, 1}, []float64{-2, 2}, []float64{0.01, 0.01}, []float64{0, 0}))
	thick := &AirfoilPolar{Name: "thick"}
	require.NoError(t, thick.AddCurve(1e6, []float64{-1, 1}, []float64{-1, 1}, []float64{0.03, 0.03}, []float64{0, 0}))

	sections := []BladeSection{{Radius: 0.5, Chord: 0.1, Airfoil: "thick"}, {Radius: 1, Chord: 0.05, Airfoil: "thin"}}
	sp, err := NewSectionPolars(sections, map[string]*AirfoilPolar{"thin": thin, "thick": thick})
	require.NoError(t, err)

	cl, cd, _ := sp.Coefficients(0, 1e6, 0, 0.5)
	assert.InDelta(t, 0.5, cl, 1e-12)
	assert.InDelta(t, 0.03, cd, 1e-12)
	cl, _, _ = sp.Coefficients(1, 1e6, 0, 0.5)
	assert.InDelta(t, 1.0, cl, 1e-12)

	_, err = NewSectionPolars(sections, map[string]*AirfoilPolar{"thin": thin})
	assert.Error(t, err)
	_, err = NewSectionPolars(sections, map[string]*AirfoilPolar{"thin": thin, "thick": {Name: "thick"}})
	assert.Error(t, err)
}

func TestWrapAngle(t *testing.T) {
	assert.InDelta(t, 0.1, wrapAngle(0.1+2*math.Pi), 1e-12)
	assert.InDelta(t, -0.1, wrapAngle(-0.1-4*math.Pi), 1e-12)
	assert.InDelta(t, -math.Pi, wrapAngle(math.Pi), 1e-12)
}
