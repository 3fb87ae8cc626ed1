package bem

import (
	"errors"
	"fmt"
	"log"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/integrate"
)

// 翼端損失で翼端半径に加える距離の既定値, m
const DefaultTipLossExtraDistance = 0.05

// 全断面が収束しなかった場合のエラー
var ErrNoConvergedSection = errors.New("bem: no blade section converged")

// 流入角の探索区間, rad。先頭から順に試す。
var phiBrackets = [][2]float64{
	{1e-6, math.Pi/2 - 1e-6}, // 風車状態
	{-math.Pi / 4, -1e-6},    // プロペラブレーキ状態
}

type SolverOptions struct {
	AirDensity           float64 // 空気密度, kg/m3
	Viscosity            float64 // 空気の粘性係数, Pa s
	SpeedOfSound         float64 // 音速, m/s
	TipLoss              bool    // 翼端損失
	HubLoss              bool    // 翼根損失
	TipLossExtraDistance float64 // 翼端損失で翼端半径に加える距離, m。0 の場合, 翼端の断面は荷重 0
	RootFinder           Brent
	Parallel             bool // 断面ごとに並列に解く
}

func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		AirDensity:   StandardAirDensity,
		Viscosity:    AirDynamicViscosity,
		SpeedOfSound: SpeedOfSound,
		TipLoss:      true,
		HubLoss:      true,
		RootFinder:   DefaultBrent,

		TipLossExtraDistance: DefaultTipLossExtraDistance,
	}
}

// 運転点
type OperatingPoint struct {
	WindSpeed float64 // 風速, m/s
	TSR       float64 // 周速比
	Pitch     float64 // ピッチ角, rad
	Azimuth   float64 // 方位角, rad
}

// 断面の解
type SectionResult struct {
	Radius     float64 // 半径, m
	Phi        float64 // 流入角, rad
	Alpha      float64 // 迎角, rad
	A          float64 // 軸方向誘導係数
	APrime     float64 // 接線方向誘導係数
	Cl         float64
	Cd         float64
	Cm         float64
	Cn         float64 // 法線方向力係数
	Ct         float64 // 接線方向力係数
	F          float64 // 翼端・翼根損失係数
	Reynolds   float64
	Mach       float64
	W          float64 // 相対流速, m/s
	Normal     float64 // ブレード1枚の単位長さあたり法線方向力, N/m
	Tangential float64 // ブレード1枚の単位長さあたり接線方向力, N/m
	Converged  bool
}

// 1運転点の解。生成後は変更しない。
type SolverResult struct {
	Success      bool
	WindSpeed    float64 // m/s
	TSR          float64
	Pitch        float64 // rad
	Azimuth      float64 // rad
	RotationRate float64 // rad/s
	Sections     []SectionResult
	Cp           float64
	Ct           float64
	Power        float64 // 空力出力, W
	Thrust       float64 // スラスト, N
	Torque       float64 // トルク, N m
	Warnings     []string
}

func (r *SolverResult) ConvergedCount() int {
	n := 0
	for _, s := range r.Sections {
		if s.Converged {
			n++
		}
	}
	return n
}

// BEM ソルバ。形状と戦略は読み取りのみで、複数の goroutine から同時に Solve してよい。
type Solver struct {
	geometry  *TurbineGeometry
	flow      FlowStrategies
	induction InductionModel
	opts      SolverOptions
}

/*
BEM ソルバを作成する。

	Args:
		g: ロータ形状 (Configure, PrecomputeRotationMatrices 済み)
		flow: 流入場の戦略
		induction: 誘導係数モデル, nil の場合は BuhlInduction
		opts: 計算条件
*/
func NewSolver(g *TurbineGeometry, flow FlowStrategies, induction InductionModel, opts SolverOptions) (*Solver, error) {
	if g == nil {
		return nil, errors.New("solver: turbine geometry is required")
	}
	if g.rot == nil {
		return nil, errors.New("solver: turbine geometry is not configured")
	}
	if g.BladeCount() < 1 {
		return nil, fmt.Errorf("solver: blade count must be at least 1, got %d", g.BladeCount())
	}
	if g.TipRadius()-g.HubRadius() <= 0 {
		return nil, fmt.Errorf("solver: zero radius span (hub %g m, tip %g m)", g.HubRadius(), g.TipRadius())
	}
	if opts.AirDensity <= 0 {
		return nil, fmt.Errorf("solver: air density must be positive, got %g", opts.AirDensity)
	}
	if opts.Viscosity <= 0 {
		return nil, fmt.Errorf("solver: air viscosity must be positive, got %g", opts.Viscosity)
	}
	if opts.SpeedOfSound <= 0 {
		return nil, fmt.Errorf("solver: speed of sound must be positive, got %g", opts.SpeedOfSound)
	}
	if opts.TipLossExtraDistance < 0 {
		return nil, fmt.Errorf("solver: tip loss extra distance must not be negative, got %g", opts.TipLossExtraDistance)
	}
	if induction == nil {
		induction = BuhlInduction{}
	}
	return &Solver{geometry: g, flow: flow, induction: induction, opts: opts}, nil
}

func (s *Solver) Geometry() *TurbineGeometry { return s.geometry }
func (s *Solver) Options() SolverOptions     { return s.opts }

func (s *Solver) flowCalculator(op OperatingPoint) *FlowCalculator {
	omega := op.TSR * op.WindSpeed / s.geometry.TipRadius()
	return NewFlowCalculator(s.geometry, s.flow.withDefaults(op.WindSpeed), omega, op.Azimuth)
}

/*
運転点における各断面の誘導係数とロータの Cp, Ct を求める。

	収束しない断面は警告を付けてロータの積分から除外する。
	全断面が収束しなかった場合のみ ErrNoConvergedSection を返す。
*/
func (s *Solver) Solve(op OperatingPoint) (*SolverResult, error) {
	if op.WindSpeed <= 0 {
		return nil, fmt.Errorf("operating point: wind speed must be positive, got %g", op.WindSpeed)
	}

	flow := s.flowCalculator(op)
	n := s.geometry.SectionCount()
	sections := make([]SectionResult, n)
	errs := make([]error, n)

	if s.opts.Parallel {
		var eg errgroup.Group
		for i := 0; i < n; i++ {
			i := i
			eg.Go(func() error {
				sections[i], errs[i] = s.solveSection(i, flow, op)
				return nil
			})
		}
		eg.Wait()
	} else {
		for i := 0; i < n; i++ {
			sections[i], errs[i] = s.solveSection(i, flow, op)
		}
	}

	res := &SolverResult{
		WindSpeed:    op.WindSpeed,
		TSR:          op.TSR,
		Pitch:        op.Pitch,
		Azimuth:      op.Azimuth,
		RotationRate: flow.RotationRate(),
		Sections:     sections,
	}
	for i, err := range errs {
		if err == nil {
			continue
		}
		w := fmt.Sprintf("section %d (r=%.3f m) excluded from rotor integral: %v", i, sections[i].Radius, err)
		log.Printf("warning: %s", w)
		res.Warnings = append(res.Warnings, w)
	}
	if !s.hasLoadedSection(res) {
		return res, fmt.Errorf("%w (U=%g m/s, tsr=%g, pitch=%g rad)", ErrNoConvergedSection, op.WindSpeed, op.TSR, op.Pitch)
	}

	s.integrate(res)
	res.Success = true
	return res, nil
}

/*
断面 i の流入角を求める。

	探索区間で符号が変わらない場合は ErrNotBracketed を返す。
	翼端損失の翼端半径に達した断面は F = 0 なので, 荷重 0 の収束点とする。
*/
func (s *Solver) solveSection(i int, flow *FlowCalculator, op OperatingPoint) (SectionResult, error) {
	vx, vy := flow.BladeLocalVelocities(i)
	lambdaR := flow.LocalLambda(i)
	if s.atLossTip(i) {
		phi := math.Atan2(vx, vy)
		return SectionResult{
			Radius:    s.geometry.Radius(i),
			Phi:       phi,
			Alpha:     phi - (s.geometry.Twist(i) + op.Pitch),
			W:         math.Hypot(vx, vy),
			Converged: true,
		}, nil
	}
	residual := func(phi float64) float64 {
		_, r := s.evaluate(i, phi, vx, vy, lambdaR, op)
		return r
	}

	err := ErrNotBracketed
	for _, b := range phiBrackets {
		var phi float64
		phi, err = s.opts.RootFinder.Solve(residual, b[0], b[1])
		if err == nil {
			sr, _ := s.evaluate(i, phi, vx, vy, lambdaR, op)
			sr.Converged = true
			return sr, nil
		}
		if !errors.Is(err, ErrNotBracketed) {
			break
		}
	}
	return SectionResult{Radius: s.geometry.Radius(i)}, err
}

// 翼端の荷重 0 の点以外に収束した断面があるか
func (s *Solver) hasLoadedSection(res *SolverResult) bool {
	for i, sr := range res.Sections {
		if sr.Converged && !s.atLossTip(i) {
			return true
		}
	}
	return false
}

func (s *Solver) atLossTip(i int) bool {
	return s.opts.TipLoss && s.geometry.Radius(i) >= s.geometry.TipRadius()+s.opts.TipLossExtraDistance
}

/*
流入角 phi を仮定したときの断面の状態と残差を求める。

	残差は仮定した φ と誘導係数から求め直した φ の差を、極を持たない形で表したもの:
		R(φ) = sinφ/(1-a) - cosφ/(λr (1+a'))
	R = 0 と tanφ = vx (1-a) / (vy (1+a')) は同値。
*/
func (s *Solver) evaluate(i int, phi, vx, vy, lambdaR float64, op OperatingPoint) (SectionResult, float64) {
	g := s.geometry
	r := g.Radius(i)
	c := g.Chord(i)
	b := float64(g.BladeCount())
	sphi, cphi := math.Sincos(phi)

	// 誘導なしの相対流速でレイノルズ数, マッハ数を求める
	w0 := math.Hypot(vx, vy)
	re := s.opts.AirDensity * w0 * c / s.opts.Viscosity
	mach := w0 / s.opts.SpeedOfSound

	alpha := phi - (g.Twist(i) + op.Pitch)
	cl, cd, cm := g.Polar().Coefficients(i, re, mach, alpha)

	cn := cl*cphi + cd*sphi
	ct := cl*sphi - cd*cphi

	F := PrandtlLoss(phi, g.BladeCount(), r, g.TipRadius()+s.opts.TipLossExtraDistance, g.HubRadius(), s.opts.TipLoss, s.opts.HubLoss)

	// 局所ソリディティ
	sigma := b * c / (2 * math.Pi * r)
	k := sigma * cn / (4 * F * sphi * sphi)
	kRot := sigma * ct / (4 * F * sphi * cphi)

	f := s.induction.Factors(InductionInput{K: k, KRot: kRot, F: F, Phi: phi})

	lr := clampAwayFromZero(lambdaR, 1e-9)
	residual := sphi/(1-f.A) - cphi/(lr*(1+f.APrime))

	ua := vx * (1 - f.A)
	ut := vy * (1 + f.APrime)
	w2 := ua*ua + ut*ut
	q := 0.5 * s.opts.AirDensity * w2 * c

	return SectionResult{
		Radius:     r,
		Phi:        phi,
		Alpha:      alpha,
		A:          f.A,
		APrime:     f.APrime,
		Cl:         cl,
		Cd:         cd,
		Cm:         cm,
		Cn:         cn,
		Ct:         ct,
		F:          F,
		Reynolds:   re,
		Mach:       mach,
		W:          math.Sqrt(w2),
		Normal:     q * cn,
		Tangential: q * ct,
	}, residual
}

/*
収束した断面の荷重を半径方向に台形積分してロータの値を求める。

	ハブ半径に荷重 0 の点を置く。
*/
func (s *Solver) integrate(res *SolverResult) {
	g := s.geometry
	b := float64(g.BladeCount())

	rs := make([]float64, 0, len(res.Sections)+1)
	dT := make([]float64, 0, len(res.Sections)+1)
	dQ := make([]float64, 0, len(res.Sections)+1)
	for _, sr := range res.Sections {
		if !sr.Converged {
			continue
		}
		if len(rs) == 0 && g.HubRadius() < sr.Radius {
			rs = append(rs, g.HubRadius())
			dT = append(dT, 0)
			dQ = append(dQ, 0)
		}
		rs = append(rs, sr.Radius)
		dT = append(dT, b*sr.Normal)
		dQ = append(dQ, b*sr.Tangential*sr.Radius)
	}

	if len(rs) >= 2 {
		res.Thrust = integrate.Trapezoidal(rs, dT)
		res.Torque = integrate.Trapezoidal(rs, dQ)
	}
	res.Power = res.Torque * res.RotationRate

	R := g.TipRadius()
	q := 0.5 * s.opts.AirDensity * math.Pi * R * R
	u := res.WindSpeed
	res.Cp = res.Power / (q * u * u * u)
	res.Ct = res.Thrust / (q * u * u)
}

// 誘導なしの幾何流入角, rad
func (s *Solver) GeometricInflowAngle(section int, op OperatingPoint) float64 {
	vx, vy := s.flowCalculator(op).BladeLocalVelocities(section)
	return math.Atan2(vx, vy)
}

// 断面 section で流入角 phi を仮定したときの残差
func (s *Solver) Residual(section int, phi float64, op OperatingPoint) float64 {
	flow := s.flowCalculator(op)
	vx, vy := flow.BladeLocalVelocities(section)
	_, r := s.evaluate(section, phi, vx, vy, flow.LocalLambda(section), op)
	return r
}

/*
BEM の入口: 運転点を与えて Cp, Ct を返す。

	Args:
		windSpeed: 風速, m/s
		tsr: 周速比
		pitch: ピッチ角, rad
		azimuth: 方位角, rad
*/
func (s *Solver) PowerCoefficients(windSpeed, tsr, pitch, azimuth float64) (float64, float64, error) {
	res, err := s.Solve(OperatingPoint{WindSpeed: windSpeed, TSR: tsr, Pitch: pitch, Azimuth: azimuth})
	if err != nil {
		return 0, 0, err
	}
	return res.Cp, res.Ct, nil
}
