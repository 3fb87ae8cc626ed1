package bem

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat/distuv"
)

type AEPOptions struct {
	Shape        float64         // Weibull 形状係数 k
	BinWidth     float64         // 風速ビン幅, m/s
	MinWindSpeed float64         // 積算下限風速, m/s
	MaxWindSpeed float64         // 積算上限風速, m/s
	Price        decimal.Decimal // 売電単価, 通貨/kWh
}

func DefaultAEPOptions() AEPOptions {
	return AEPOptions{Shape: 2, BinWidth: 0.5, MinWindSpeed: 0, MaxWindSpeed: 30}
}

type AEPResult struct {
	MeanWindSpeed float64         `csv:"mean_wind_speed"` // 年平均風速, m/s
	Scale         float64         `csv:"scale"`           // Weibull 尺度係数, m/s
	Energy        float64         `csv:"energy"`          // 年間発電量, Wh
	Revenue       decimal.Decimal `csv:"revenue"`         // 年間売電額
}

/*
年間発電量の計算

	出力曲線を風速で線形補間し、Weibull 分布の各ビンの確率を掛けて積算する。
	出力曲線の範囲外の風速では出力 0。
*/
type AEPCalculator struct {
	power    interp.PiecewiseLinear
	minCurve float64
	maxCurve float64
	opts     AEPOptions
}

func NewAEPCalculator(curve []PowerCurvePoint, opts AEPOptions) (*AEPCalculator, error) {
	switch {
	case len(curve) < 2:
		return nil, fmt.Errorf("aep: power curve needs at least 2 points, got %d", len(curve))
	case opts.Shape <= 0:
		return nil, fmt.Errorf("aep: weibull shape must be positive, got %g", opts.Shape)
	case opts.BinWidth <= 0:
		return nil, fmt.Errorf("aep: bin width must be positive, got %g", opts.BinWidth)
	case opts.MinWindSpeed < 0:
		return nil, fmt.Errorf("aep: min wind speed must not be negative, got %g", opts.MinWindSpeed)
	case opts.MaxWindSpeed <= opts.MinWindSpeed:
		return nil, fmt.Errorf("aep: max wind speed %g must exceed min wind speed %g", opts.MaxWindSpeed, opts.MinWindSpeed)
	}

	xs := make([]float64, len(curve))
	ys := make([]float64, len(curve))
	for i, p := range curve {
		xs[i] = p.WindSpeed
		ys[i] = p.ElectricalPower
	}
	if !strictlyIncreasing(xs) {
		return nil, errors.New("aep: power curve wind speeds must be strictly increasing")
	}

	c := &AEPCalculator{minCurve: xs[0], maxCurve: xs[len(xs)-1], opts: opts}
	if err := c.power.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("aep: %w", err)
	}
	return c, nil
}

// 風速 v の発電出力, W
func (c *AEPCalculator) Power(v float64) float64 {
	if v < c.minCurve || v > c.maxCurve {
		return 0
	}
	return c.power.Predict(v)
}

/*
年平均風速 mean における年間発電量

	尺度係数は A = mean / Γ(1 + 1/k)。
*/
func (c *AEPCalculator) Compute(mean float64) (AEPResult, error) {
	if mean <= 0 {
		return AEPResult{}, fmt.Errorf("aep: mean wind speed must be positive, got %g", mean)
	}
	k := c.opts.Shape
	scale := mean / math.Gamma(1+1/k)
	dist := distuv.Weibull{K: k, Lambda: scale}

	var energy float64
	for v := c.opts.MinWindSpeed; v < c.opts.MaxWindSpeed; v += c.opts.BinWidth {
		hi := math.Min(v+c.opts.BinWidth, c.opts.MaxWindSpeed)
		prob := dist.CDF(hi) - dist.CDF(v)
		energy += c.Power(0.5*(v+hi)) * prob
	}
	energy *= HoursPerYear

	revenue := decimal.NewFromFloat(energy / 1000).Mul(c.opts.Price)
	return AEPResult{MeanWindSpeed: mean, Scale: scale, Energy: energy, Revenue: revenue}, nil
}

func (c *AEPCalculator) ComputeRange(means []float64) ([]AEPResult, error) {
	out := make([]AEPResult, 0, len(means))
	for _, m := range means {
		r, err := c.Compute(m)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}
