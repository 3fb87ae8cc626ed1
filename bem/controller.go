package bem

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
)

type ControllerInput struct {
	WindSpeed       float64 // 風速, m/s
	ElectricalPower float64 // 前回反復の発電出力, W
	BasePitch       float64 // 基準ピッチ角, rad
}

type ControllerOutput struct {
	TipSpeed   float64 // 翼端周速, m/s
	RotorSpeed float64 // 回転角速度, rad/s
	Pitch      float64 // ピッチ角, rad
	Parked     bool    // カットイン未満またはカットアウト超過で停止
}

type TurbineController interface {
	ComputeOperatingPoint(in ControllerInput) ControllerOutput
	// 空力出力から発電出力と伝達効率を求める
	ElectricalPower(aeroPower, rotorSpeed float64) (float64, float64)
}

// 風速に応じたピッチ角の補正量
type PitchSchedule interface {
	Offset(windSpeed float64) float64
}

type NoPitchSchedule struct{}

func (NoPitchSchedule) Offset(float64) float64 { return 0 }

// 風速 -> ピッチ補正量の区分線形テーブル
type TablePitchSchedule struct {
	table interp.PiecewiseLinear
}

/*
Args:

	windSpeeds: 風速, m/s, 昇順
	pitch: ピッチ補正量, rad
*/
func NewTablePitchSchedule(windSpeeds, pitch []float64) (*TablePitchSchedule, error) {
	var ps TablePitchSchedule
	if err := ps.table.Fit(windSpeeds, pitch); err != nil {
		return nil, fmt.Errorf("pitch schedule: %w", err)
	}
	return &ps, nil
}

func (ps *TablePitchSchedule) Offset(windSpeed float64) float64 {
	return ps.table.Predict(windSpeed)
}

// ドライブトレインの効率
type EfficiencyModel interface {
	Efficiency(aeroPower, rotorSpeed float64) float64
}

type ConstantEfficiency float64

func (c ConstantEfficiency) Efficiency(float64, float64) float64 { return float64(c) }

// 定格出力に対する出力比 -> 効率の区分線形テーブル
type TableEfficiency struct {
	ratedPower float64
	table      interp.PiecewiseLinear
}

func NewTableEfficiency(ratedPower float64, powerFraction, efficiency []float64) (*TableEfficiency, error) {
	if ratedPower <= 0 {
		return nil, fmt.Errorf("efficiency table: rated power must be positive, got %g", ratedPower)
	}
	for i, e := range efficiency {
		if e <= 0 || e > 1 {
			return nil, fmt.Errorf("efficiency table: efficiency[%d]=%g outside (0, 1]", i, e)
		}
	}
	te := &TableEfficiency{ratedPower: ratedPower}
	if err := te.table.Fit(powerFraction, efficiency); err != nil {
		return nil, fmt.Errorf("efficiency table: %w", err)
	}
	return te, nil
}

func (te *TableEfficiency) Efficiency(aeroPower, _ float64) float64 {
	return te.table.Predict(aeroPower / te.ratedPower)
}

type VariableSpeedSettings struct {
	RotorRadius     float64   // ロータ半径, m
	RatedPower      float64   // 定格出力, W
	OptimalTSR      float64   // 最適周速比
	MinRotorSpeed   float64   // 最小回転角速度, rad/s
	MaxRotorSpeed   float64   // 最大回転角速度, rad/s
	CutInWindSpeed  float64   // カットイン風速, m/s
	CutOutWindSpeed float64   // カットアウト風速, m/s
	PowerTable      []float64 // 出力, W, 単調増加
	SpeedTable      []float64 // 回転角速度, rad/s
}

/*
可変速制御

	定格未満では最適周速比を追従し、定格以上では出力-回転数テーブルで回転数を絞る。
	ピッチ角は基準値にピッチスケジュールの補正量を加える。
*/
type VariableSpeedController struct {
	settings   VariableSpeedSettings
	speed      interp.PiecewiseLinear
	pitch      PitchSchedule
	efficiency EfficiencyModel
}

func NewVariableSpeedController(s VariableSpeedSettings, pitch PitchSchedule, efficiency EfficiencyModel) (*VariableSpeedController, error) {
	switch {
	case s.RotorRadius <= 0:
		return nil, fmt.Errorf("controller: rotor radius must be positive, got %g", s.RotorRadius)
	case s.RatedPower <= 0:
		return nil, fmt.Errorf("controller: rated power must be positive, got %g", s.RatedPower)
	case s.OptimalTSR <= 0:
		return nil, fmt.Errorf("controller: optimal tip speed ratio must be positive, got %g", s.OptimalTSR)
	case s.MinRotorSpeed < 0:
		return nil, fmt.Errorf("controller: min rotor speed must not be negative, got %g", s.MinRotorSpeed)
	case s.MaxRotorSpeed <= s.MinRotorSpeed:
		return nil, fmt.Errorf("controller: max rotor speed %g must exceed min rotor speed %g", s.MaxRotorSpeed, s.MinRotorSpeed)
	case s.CutOutWindSpeed <= s.CutInWindSpeed:
		return nil, fmt.Errorf("controller: cut-out wind speed %g must exceed cut-in %g", s.CutOutWindSpeed, s.CutInWindSpeed)
	}

	powers, speeds := s.PowerTable, s.SpeedTable
	if len(powers) == 0 && len(speeds) == 0 {
		powers = []float64{0, s.RatedPower}
		speeds = []float64{s.MinRotorSpeed, s.MaxRotorSpeed}
	}
	if len(powers) != len(speeds) {
		return nil, fmt.Errorf("controller: power table has %d entries, speed table %d", len(powers), len(speeds))
	}
	if !strictlyIncreasing(powers) {
		return nil, errors.New("controller: power table must be strictly increasing")
	}
	if !sort.Float64sAreSorted(speeds) {
		return nil, errors.New("controller: speed table must not decrease with power")
	}

	if pitch == nil {
		pitch = NoPitchSchedule{}
	}
	if efficiency == nil {
		efficiency = ConstantEfficiency(1)
	}

	c := &VariableSpeedController{settings: s, pitch: pitch, efficiency: efficiency}
	if err := c.speed.Fit(powers, speeds); err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	return c, nil
}

func (c *VariableSpeedController) Settings() VariableSpeedSettings { return c.settings }

func (c *VariableSpeedController) ComputeOperatingPoint(in ControllerInput) ControllerOutput {
	s := c.settings
	if in.WindSpeed < s.CutInWindSpeed || in.WindSpeed > s.CutOutWindSpeed {
		return ControllerOutput{Pitch: in.BasePitch, Parked: true}
	}

	// 最適周速比の追従
	omega := s.OptimalTSR * in.WindSpeed / s.RotorRadius
	if in.ElectricalPower >= s.RatedPower {
		omega = math.Min(omega, c.speed.Predict(in.ElectricalPower))
	}
	omega = math.Max(s.MinRotorSpeed, math.Min(s.MaxRotorSpeed, omega))

	return ControllerOutput{
		TipSpeed:   omega * s.RotorRadius,
		RotorSpeed: omega,
		Pitch:      in.BasePitch + c.pitch.Offset(in.WindSpeed),
	}
}

// 発電出力は定格出力で頭打ち
func (c *VariableSpeedController) ElectricalPower(aeroPower, rotorSpeed float64) (float64, float64) {
	eta := c.efficiency.Efficiency(aeroPower, rotorSpeed)
	return math.Min(aeroPower*eta, c.settings.RatedPower), eta
}

func strictlyIncreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return false
		}
	}
	return true
}
