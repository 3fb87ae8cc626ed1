package bem

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

/*
運転点の空力係数を返すコールバック

	Args:
		windSpeed: 風速, m/s
		tsr: 周速比
		pitch: ピッチ角, rad

	Returns:
		Cp, Ct
*/
type AeroFunc func(windSpeed, tsr, pitch float64) (float64, float64, error)

/*
BEM ソルバから AeroFunc を作成する。

	azimuths の各方位角で解いた Cp, Ct の平均を返す。空の場合は方位角 0 のみ。
	Solver は読み取りのみなので、返す関数は並列に呼んでよい。
*/
func RotorAero(s *Solver, azimuths []float64) AeroFunc {
	if len(azimuths) == 0 {
		azimuths = []float64{0}
	}
	return func(windSpeed, tsr, pitch float64) (float64, float64, error) {
		cps := make([]float64, len(azimuths))
		cts := make([]float64, len(azimuths))
		for i, psi := range azimuths {
			cp, ct, err := s.PowerCoefficients(windSpeed, tsr, pitch, psi)
			if err != nil {
				return 0, 0, err
			}
			cps[i], cts[i] = cp, ct
		}
		n := float64(len(azimuths))
		return floats.Sum(cps) / n, floats.Sum(cts) / n, nil
	}
}

// 方位角を [0, 2π) で n 等分する
func EvenAzimuths(n int) []float64 {
	if n <= 1 {
		return []float64{0}
	}
	return floats.Span(make([]float64, n+1), 0, 2*math.Pi)[:n]
}

// 出力曲線の1点
type PowerCurvePoint struct {
	WindSpeed       float64 `csv:"wind_speed"`       // 風速, m/s
	TipSpeed        float64 `csv:"tip_speed"`        // 翼端周速, m/s
	Pitch           float64 `csv:"pitch"`            // ピッチ角, rad
	TSR             float64 `csv:"tsr"`              // 周速比
	AeroPower       float64 `csv:"aero_power"`       // 空力出力, W
	ElectricalPower float64 `csv:"electrical_power"` // 発電出力, W
	RotorSpeed      float64 `csv:"rotor_speed"`      // 回転角速度, rad/s
	Torque          float64 `csv:"torque"`           // トルク, N m
	Efficiency      float64 `csv:"efficiency"`       // 伝達効率
	Cp              float64 `csv:"cp"`
	Ct              float64 `csv:"ct"`
	Iterations      int     `csv:"iterations"`
	Converged       bool    `csv:"converged"`
	Parked          bool    `csv:"parked"`
	Warning         string  `csv:"warning"`
}

type OperationOptions struct {
	Tolerance  float64 // 発電出力の相対収束判定値
	MinIter    int     // 最小反復回数
	MaxIter    int     // 最大反復回数
	AirDensity float64 // 空気密度, kg/m3
}

func DefaultOperationOptions() OperationOptions {
	return OperationOptions{Tolerance: 1e-4, MinIter: 2, MaxIter: 50, AirDensity: StandardAirDensity}
}

/*
風速ごとに制御と BEM を反復して出力曲線を作る。

	各風速で制御器に運転点を問い合わせ、AeroFunc で Cp, Ct を求め、
	発電出力の変化が Tolerance 未満になるまで繰り返す。
*/
type OperationSolver struct {
	controller  TurbineController
	aero        AeroFunc
	rotorRadius float64
	opts        OperationOptions
}

func NewOperationSolver(controller TurbineController, aero AeroFunc, rotorRadius float64, opts OperationOptions) (*OperationSolver, error) {
	switch {
	case controller == nil:
		return nil, errors.New("operation: controller is required")
	case aero == nil:
		return nil, errors.New("operation: aero callback is required")
	case rotorRadius <= 0:
		return nil, fmt.Errorf("operation: rotor radius must be positive, got %g", rotorRadius)
	case opts.Tolerance <= 0:
		return nil, fmt.Errorf("operation: tolerance must be positive, got %g", opts.Tolerance)
	case opts.MinIter < 1:
		return nil, fmt.Errorf("operation: min iterations must be at least 1, got %d", opts.MinIter)
	case opts.MaxIter < opts.MinIter:
		return nil, fmt.Errorf("operation: max iterations %d below min iterations %d", opts.MaxIter, opts.MinIter)
	case opts.AirDensity <= 0:
		return nil, fmt.Errorf("operation: air density must be positive, got %g", opts.AirDensity)
	}
	return &OperationSolver{controller: controller, aero: aero, rotorRadius: rotorRadius, opts: opts}, nil
}

/*
出力曲線を計算する。

	前の風速の発電出力を次の風速の初期値にする。

	Args:
		pitch: 基準ピッチ角, rad
		windSpeeds: 風速, m/s

	Returns:
		風速ごとの PowerCurvePoint
*/
func (s *OperationSolver) Run(pitch float64, windSpeeds []float64) ([]PowerCurvePoint, error) {
	curve := make([]PowerCurvePoint, 0, len(windSpeeds))
	var warm float64
	for _, v := range windSpeeds {
		p, err := s.SolvePoint(pitch, v, warm)
		if err != nil {
			return curve, err
		}
		curve = append(curve, p)
		warm = p.ElectricalPower
	}
	return curve, nil
}

/*
風速ごとに独立に並列計算する。初期値は 0 (前の風速を引き継がない)。

	Args:
		ctx: キャンセル用
		workers: 同時に計算する風速の数, 0 以下は制限なし
*/
func (s *OperationSolver) RunParallel(ctx context.Context, pitch float64, windSpeeds []float64, workers int) ([]PowerCurvePoint, error) {
	curve := make([]PowerCurvePoint, len(windSpeeds))

	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, v := range windSpeeds {
		i, v := i, v
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := s.SolvePoint(pitch, v, 0)
			if err != nil {
				return err
			}
			curve[i] = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return curve, nil
}

/*
1風速の運転点を収束させる。

	制御器が返す回転角速度の変化の向きが反転するたびに更新量を半分にする。
	定格出力の前後で追従と絞り込みが交互に選ばれる場合は,
	発電出力が定格出力になる回転角速度に収束する。
	最大反復回数に達した場合も最後の結果を Converged=false で返す。

	Args:
		pitch: 基準ピッチ角, rad
		windSpeed: 風速, m/s
		warmStart: 発電出力の初期推定値, W
*/
func (s *OperationSolver) SolvePoint(pitch, windSpeed, warmStart float64) (PowerCurvePoint, error) {
	if windSpeed <= 0 {
		return PowerCurvePoint{}, fmt.Errorf("operation: wind speed must be positive, got %g", windSpeed)
	}

	// 風車が受ける風の動圧 x 面積 x 風速, W
	pWind := 0.5 * s.opts.AirDensity * math.Pi * s.rotorRadius * s.rotorRadius * windSpeed * windSpeed * windSpeed

	pel := warmStart
	var point PowerCurvePoint
	var speed rotorSpeedRelaxation
	for iter := 1; iter <= s.opts.MaxIter; iter++ {
		out := s.controller.ComputeOperatingPoint(ControllerInput{
			WindSpeed:       windSpeed,
			ElectricalPower: pel,
			BasePitch:       pitch,
		})
		if out.Parked {
			return PowerCurvePoint{
				WindSpeed:  windSpeed,
				Pitch:      out.Pitch,
				Iterations: iter,
				Converged:  true,
				Parked:     true,
			}, nil
		}
		out.RotorSpeed = speed.next(out.RotorSpeed)
		out.TipSpeed = out.RotorSpeed * s.rotorRadius

		tsr := out.TipSpeed / windSpeed
		cp, ct, err := s.aero(windSpeed, tsr, out.Pitch)
		if err != nil {
			w := fmt.Sprintf("U=%g m/s: aerodynamic solve failed: %v", windSpeed, err)
			log.Printf("warning: %s", w)
			return PowerCurvePoint{
				WindSpeed:  windSpeed,
				TipSpeed:   out.TipSpeed,
				Pitch:      out.Pitch,
				TSR:        tsr,
				RotorSpeed: out.RotorSpeed,
				Iterations: iter,
				Warning:    w,
			}, nil
		}

		aero := cp * pWind
		pelNew, eta := s.controller.ElectricalPower(aero, out.RotorSpeed)

		var torque float64
		if out.RotorSpeed > 0 {
			torque = aero / out.RotorSpeed
		}
		point = PowerCurvePoint{
			WindSpeed:       windSpeed,
			TipSpeed:        out.TipSpeed,
			Pitch:           out.Pitch,
			TSR:             tsr,
			AeroPower:       aero,
			ElectricalPower: pelNew,
			RotorSpeed:      out.RotorSpeed,
			Torque:          torque,
			Efficiency:      eta,
			Cp:              cp,
			Ct:              ct,
			Iterations:      iter,
		}

		change := math.Abs(pelNew - pel)
		pel = pelNew
		if iter >= s.opts.MinIter && change <= s.opts.Tolerance*math.Max(math.Abs(pelNew), 1) {
			point.Converged = true
			return point, nil
		}
	}

	point.Warning = fmt.Sprintf("U=%g m/s: not converged after %d iterations", windSpeed, s.opts.MaxIter)
	log.Printf("warning: %s", point.Warning)
	return point, nil
}

// 回転角速度の反復の緩和
type rotorSpeedRelaxation struct {
	prev   float64 // 前回使った回転角速度, rad/s
	step   float64 // 前回の変化量の向き
	factor float64
	used   bool
}

func (r *rotorSpeedRelaxation) next(proposed float64) float64 {
	if !r.used {
		r.prev, r.factor, r.used = proposed, 1, true
		return proposed
	}
	d := proposed - r.prev
	if d*r.step < 0 {
		r.factor *= 0.5
	}
	if d != 0 {
		r.step = d
	}
	r.prev += r.factor * d
	return r.prev
}
