package bem

import (
	"context"
	"log"
	"math"
)

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func rpmToRadPerSec(rpm float64) float64 { return rpm * 2 * math.Pi / 60 }

// 設定から組み立てた計算一式
type Rotor struct {
	Config     *Config
	Geometry   *TurbineGeometry
	Solver     *Solver
	Controller *VariableSpeedController
	Operation  *OperationSolver
	AirDensity float64 // kg/m3
}

// 断面荷重の出力行
type SectionLoad struct {
	WindSpeed  float64 `csv:"wind_speed"`  // m/s
	AzimuthDeg float64 `csv:"azimuth_deg"` // degree
	Section    int     `csv:"section"`
	Radius     float64 `csv:"radius"`    // m
	PhiDeg     float64 `csv:"phi_deg"`   // degree
	AlphaDeg   float64 `csv:"alpha_deg"` // degree
	A          float64 `csv:"a"`
	APrime     float64 `csv:"a_prime"`
	Cl         float64 `csv:"cl"`
	Cd         float64 `csv:"cd"`
	F          float64 `csv:"tip_hub_loss"`
	Reynolds   float64 `csv:"reynolds"`
	Mach       float64 `csv:"mach"`
	Normal     float64 `csv:"normal"`     // N/m
	Tangential float64 `csv:"tangential"` // N/m
	Converged  bool    `csv:"converged"`
}

/*
設定からロータ形状, BEM ソルバ, 制御器, 運転点ソルバを組み立てる。

	Args:
		cfg: 検証済みの設定

	Returns:
		Rotor
*/
func NewRotor(cfg *Config) (*Rotor, error) {
	sections, err := cfg.bladeSections()
	if err != nil {
		return nil, err
	}

	polar, err := cfg.polar(sections)
	if err != nil {
		return nil, err
	}

	g, err := NewTurbineGeometry(sections, polar)
	if err != nil {
		return nil, err
	}
	t := cfg.Turbine
	if err := g.Configure(t.HubRadius, degToRad(t.ConeDeg), degToRad(t.YawDeg), degToRad(t.TiltDeg), t.TowerDistance, t.HubHeight, t.BladeCount); err != nil {
		return nil, err
	}
	g.PrecomputeRotationMatrices()

	rho, err := cfg.Atmosphere.AirDensity()
	if err != nil {
		return nil, err
	}

	induction, err := cfg.Simulation.inductionModel()
	if err != nil {
		return nil, err
	}

	sim := cfg.Simulation
	opts := DefaultSolverOptions()
	opts.AirDensity = rho
	opts.Viscosity = cfg.Atmosphere.Viscosity
	opts.SpeedOfSound = cfg.Atmosphere.SpeedOfSound
	opts.TipLoss = sim.TipLoss
	opts.HubLoss = sim.HubLoss
	opts.TipLossExtraDistance = sim.TipLossExtraDistance
	opts.Parallel = sim.Parallel

	solver, err := NewSolver(g, cfg.Atmosphere.flowStrategies(), induction, opts)
	if err != nil {
		return nil, err
	}

	controller, err := cfg.Controller.build(g.TipRadius())
	if err != nil {
		return nil, err
	}

	op, err := NewOperationSolver(controller, RotorAero(solver, EvenAzimuths(sim.AzimuthSteps)), g.TipRadius(), OperationOptions{
		Tolerance:  sim.Tolerance,
		MinIter:    sim.MinIter,
		MaxIter:    sim.MaxIter,
		AirDensity: rho,
	})
	if err != nil {
		return nil, err
	}

	return &Rotor{
		Config:     cfg,
		Geometry:   g,
		Solver:     solver,
		Controller: controller,
		Operation:  op,
		AirDensity: rho,
	}, nil
}

func (c *Config) bladeSections() ([]BladeSection, error) {
	if c.Blade.File != "" {
		return LoadBladeSections(c.Resolve(c.Blade.File))
	}
	rows := make([]*BladeRow, len(c.Blade.Sections))
	for i := range c.Blade.Sections {
		rows[i] = &c.Blade.Sections[i]
	}
	return bladeSectionsFromRows(rows), nil
}

func (c *Config) polar(sections []BladeSection) (Polar, error) {
	if c.Airfoils.PolarFile == "" {
		return FlatPlatePolar{LiftSlope: c.Airfoils.FlatPlate.LiftSlope, Drag: c.Airfoils.FlatPlate.Drag}, nil
	}
	airfoils, err := LoadPolars(c.Resolve(c.Airfoils.PolarFile))
	if err != nil {
		return nil, err
	}
	return NewSectionPolars(sections, airfoils)
}

func (a AtmosphereConfig) flowStrategies() FlowStrategies {
	var fs FlowStrategies
	switch a.Shear {
	case "power":
		fs.Shear = PowerLawShear{Exponent: a.ShearExponent}
	case "log":
		fs.Shear = LogShear{Roughness: a.Roughness}
	case "diabatic":
		obukhov := a.ObukhovLength
		if obukhov == 0 {
			obukhov = math.Inf(1)
		}
		fs.Shear = DiabaticShear{Roughness: a.Roughness, ObukhovLength: obukhov}
	}
	if a.VeerRate != 0 {
		fs.Veer = LinearVeer{Rate: degToRad(a.VeerRate)}
	}
	return fs
}

func (ct ControllerConfig) build(rotorRadius float64) (*VariableSpeedController, error) {
	speeds := make([]float64, len(ct.RPMTable))
	for i, rpm := range ct.RPMTable {
		speeds[i] = rpmToRadPerSec(rpm)
	}

	var pitch PitchSchedule
	if len(ct.PitchWindSpeeds) > 0 {
		offsets := make([]float64, len(ct.PitchDeg))
		for i, d := range ct.PitchDeg {
			offsets[i] = degToRad(d)
		}
		ps, err := NewTablePitchSchedule(ct.PitchWindSpeeds, offsets)
		if err != nil {
			return nil, err
		}
		pitch = ps
	}

	var efficiency EfficiencyModel
	switch {
	case len(ct.EfficiencyLoad) > 0:
		te, err := NewTableEfficiency(ct.RatedPower, ct.EfficiencyLoad, ct.EfficiencyTable)
		if err != nil {
			return nil, err
		}
		efficiency = te
	case ct.Efficiency > 0:
		efficiency = ConstantEfficiency(ct.Efficiency)
	}

	return NewVariableSpeedController(VariableSpeedSettings{
		RotorRadius:     rotorRadius,
		RatedPower:      ct.RatedPower,
		OptimalTSR:      ct.OptimalTSR,
		MinRotorSpeed:   rpmToRadPerSec(ct.MinRPM),
		MaxRotorSpeed:   rpmToRadPerSec(ct.MaxRPM),
		CutInWindSpeed:  ct.CutIn,
		CutOutWindSpeed: ct.CutOut,
		PowerTable:      ct.PowerTable,
		SpeedTable:      speeds,
	}, pitch, efficiency)
}

/*
設定の風速範囲で出力曲線を計算する。

	simulation.workers が 2 以上なら風速ごとに並列 (初期値の引き継ぎなし)。
*/
func (r *Rotor) PowerCurve(ctx context.Context) ([]PowerCurvePoint, error) {
	sim := r.Config.Simulation
	pitch := degToRad(sim.PitchDeg)
	speeds := sim.WindSpeeds()
	if sim.Workers > 1 {
		return r.Operation.RunParallel(ctx, pitch, speeds, sim.Workers)
	}
	return r.Operation.Run(pitch, speeds)
}

/*
出力曲線の各点 (停止点を除く) で断面荷重を求める。

	方位角は出力曲線と同じく simulation.azimuth_steps で等分した各方位角。
*/
func (r *Rotor) SectionLoads(curve []PowerCurvePoint) []SectionLoad {
	azimuths := EvenAzimuths(r.Config.Simulation.AzimuthSteps)
	var rows []SectionLoad
	for _, p := range curve {
		if p.Parked {
			continue
		}
		for _, psi := range azimuths {
			res, err := r.Solver.Solve(OperatingPoint{WindSpeed: p.WindSpeed, TSR: p.TSR, Pitch: p.Pitch, Azimuth: psi})
			if err != nil {
				log.Printf("warning: section loads at U=%g m/s, azimuth %g rad: %v", p.WindSpeed, psi, err)
				continue
			}
			for i, s := range res.Sections {
				rows = append(rows, SectionLoad{
					WindSpeed:  p.WindSpeed,
					AzimuthDeg: psi * 180 / math.Pi,
					Section:    i,
					Radius:     s.Radius,
					PhiDeg:     s.Phi * 180 / math.Pi,
					AlphaDeg:   s.Alpha * 180 / math.Pi,
					A:          s.A,
					APrime:     s.APrime,
					Cl:         s.Cl,
					Cd:         s.Cd,
					F:          s.F,
					Reynolds:   s.Reynolds,
					Mach:       s.Mach,
					Normal:     s.Normal,
					Tangential: s.Tangential,
					Converged:  s.Converged,
				})
			}
		}
	}
	return rows
}

// 設定の年平均風速ごとの年間発電量
func (r *Rotor) AEP(curve []PowerCurvePoint) ([]AEPResult, error) {
	e := r.Config.AEP
	price, err := e.price()
	if err != nil {
		return nil, err
	}
	calc, err := NewAEPCalculator(curve, AEPOptions{
		Shape:        e.Shape,
		BinWidth:     e.BinWidth,
		MinWindSpeed: 0,
		MaxWindSpeed: e.MaxSpeed,
		Price:        price,
	})
	if err != nil {
		return nil, err
	}
	return calc.ComputeRange(e.MeanSpeed)
}
