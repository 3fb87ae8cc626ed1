package bem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestShearAtHubHeight(t *testing.T) {
	models := map[string]ShearModel{
		"log":      LogShear{Roughness: 0.03},
		"power":    PowerLawShear{Exponent: 0.14},
		"unstable": DiabaticShear{Roughness: 0.03, ObukhovLength: -200},
		"stable":   DiabaticShear{Roughness: 0.03, ObukhovLength: 300},
		"none":     NoShear{},
	}
	for name, m := range models {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, 9.0, m.Velocity(90, 90, 9), 1e-12)
		})
	}
}

func TestPowerLawShear(t *testing.T) {
	// 指数 0 は恒等
	s := PowerLawShear{}
	for _, h := range []float64{10, 50, 150} {
		assert.Equal(t, 8.0, s.Velocity(h, 90, 8))
	}

	s = PowerLawShear{Exponent: 1.0 / 7}
	assert.InDelta(t, 8*math.Pow(2, 1.0/7), s.Velocity(180, 90, 8), 1e-12)
	assert.Less(t, s.Velocity(40, 90, 8), 8.0)
	assert.Zero(t, s.Velocity(0, 90, 8))
}

func TestLogShear(t *testing.T) {
	s := LogShear{Roughness: 0.1}
	assert.InDelta(t, 10*math.Log(10/0.1)/math.Log(100/0.1), s.Velocity(10, 100, 10), 1e-12)
	assert.Zero(t, s.Velocity(0.05, 100, 10))
}

func TestDiabaticShearNeutralMatchesLog(t *testing.T) {
	lg := LogShear{Roughness: 0.05}
	for _, L := range []float64{0, math.Inf(1), math.Inf(-1)} {
		d := DiabaticShear{Roughness: 0.05, ObukhovLength: L}
		for _, h := range []float64{20, 60, 120} {
			assert.InDelta(t, lg.Velocity(h, 80, 7), d.Velocity(h, 80, 7), 1e-12)
		}
	}
}

func TestStabilityCorrection(t *testing.T) {
	assert.Zero(t, StabilityCorrection(50, 0))
	assert.Zero(t, StabilityCorrection(50, math.Inf(1)))

	// 安定: -5 h/L
	assert.InDelta(t, -5*50.0/200, StabilityCorrection(50, 200), 1e-12)

	// 不安定: 正の補正, h/L -> 0 で 0 に近づく
	assert.Greater(t, StabilityCorrection(50, -100), 0.0)
	assert.InDelta(t, 0, StabilityCorrection(1e-6, -100), 1e-6)

	// 不安定では上空ほど風速が小さく (シアが弱く) なる
	unstable := DiabaticShear{Roughness: 0.03, ObukhovLength: -100}
	neutral := LogShear{Roughness: 0.03}
	assert.Less(t, unstable.Velocity(150, 90, 8), neutral.Velocity(150, 90, 8))
}

func TestVeer(t *testing.T) {
	v := r3.Vec{X: 8, Y: 1, Z: 0.5}
	assert.Equal(t, v, NoVeer{}.Rotate(v, 120, 90))
	assert.Equal(t, v, LinearVeer{}.Rotate(v, 120, 90))
	assert.Equal(t, v, LinearVeer{Rate: 0.01}.Rotate(v, 90, 90))

	got := LinearVeer{Rate: 0.01}.Rotate(r3.Vec{X: 8}, 100, 90)
	assert.InDelta(t, 8*math.Cos(0.1), got.X, 1e-12)
	assert.InDelta(t, 8*math.Sin(0.1), got.Y, 1e-12)
	assert.InDelta(t, 8, math.Hypot(got.X, got.Y), 1e-12)
}
