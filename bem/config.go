package bem

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// 角度は設定ファイルでは degree、内部では rad。

type TurbineConfig struct {
	BladeCount    int     `yaml:"blade_count"`
	HubRadius     float64 `yaml:"hub_radius"`     // m
	HubHeight     float64 `yaml:"hub_height"`     // m
	TowerDistance float64 `yaml:"tower_distance"` // m
	ConeDeg       float64 `yaml:"cone_deg"`
	YawDeg        float64 `yaml:"yaw_deg"`
	TiltDeg       float64 `yaml:"tilt_deg"`
}

type BladeConfig struct {
	File     string     `yaml:"file"` // 断面表 CSV, 設定ファイルからの相対パス可
	Sections []BladeRow `yaml:"sections"`
}

type AirfoilConfig struct {
	PolarFile string `yaml:"polar_file"` // 極曲線表 CSV
	// PolarFile が空の場合は全断面を平板翼とする
	FlatPlate struct {
		LiftSlope float64 `yaml:"lift_slope"` // 1/rad
		Drag      float64 `yaml:"drag"`
	} `yaml:"flat_plate"`
}

type AtmosphereConfig struct {
	Density          float64 `yaml:"density"`           // kg/m3, 0 の場合は温湿度から計算
	Temperature      float64 `yaml:"temperature"`       // degree C
	Pressure         float64 `yaml:"pressure"`          // Pa
	RelativeHumidity float64 `yaml:"relative_humidity"` // %
	Viscosity        float64 `yaml:"viscosity"`         // Pa s
	SpeedOfSound     float64 `yaml:"speed_of_sound"`    // m/s
	Shear            string  `yaml:"shear"`             // none | power | log | diabatic
	ShearExponent    float64 `yaml:"shear_exponent"`
	Roughness        float64 `yaml:"roughness"`      // m
	ObukhovLength    float64 `yaml:"obukhov_length"` // m
	VeerRate         float64 `yaml:"veer_rate"`      // degree/m
}

type ControllerConfig struct {
	RatedPower      float64   `yaml:"rated_power"` // W
	OptimalTSR      float64   `yaml:"optimal_tsr"`
	MinRPM          float64   `yaml:"min_rpm"`
	MaxRPM          float64   `yaml:"max_rpm"`
	CutIn           float64   `yaml:"cut_in"`  // m/s
	CutOut          float64   `yaml:"cut_out"` // m/s
	PowerTable      []float64 `yaml:"power_table"`
	RPMTable        []float64 `yaml:"rpm_table"`
	PitchWindSpeeds []float64 `yaml:"pitch_wind_speeds"`
	PitchDeg        []float64 `yaml:"pitch_deg"`
	Efficiency      float64   `yaml:"efficiency"` // 一定効率, 0 の場合は 1 または表
	EfficiencyLoad  []float64 `yaml:"efficiency_load"`
	EfficiencyTable []float64 `yaml:"efficiency_table"`
}

type SimulationConfig struct {
	WindSpeedMin         float64 `yaml:"wind_speed_min"`  // m/s
	WindSpeedMax         float64 `yaml:"wind_speed_max"`  // m/s
	WindSpeedStep        float64 `yaml:"wind_speed_step"` // m/s
	PitchDeg             float64 `yaml:"pitch_deg"`
	Tolerance            float64 `yaml:"tolerance"`
	MinIter              int     `yaml:"min_iter"`
	MaxIter              int     `yaml:"max_iter"`
	TipLoss              bool    `yaml:"tip_loss"`
	HubLoss              bool    `yaml:"hub_loss"`
	TipLossExtraDistance float64 `yaml:"tip_loss_extra_distance"` // m
	Induction            string  `yaml:"induction"`               // buhl | glauert | none
	AzimuthSteps         int     `yaml:"azimuth_steps"`
	Workers              int     `yaml:"workers"`
	Parallel             bool    `yaml:"parallel"`
}

type AEPConfig struct {
	Shape     float64   `yaml:"shape"`
	BinWidth  float64   `yaml:"bin_width"` // m/s
	MaxSpeed  float64   `yaml:"max_speed"` // m/s
	MeanSpeed []float64 `yaml:"mean_speeds"`
	Price     string    `yaml:"price"` // 通貨/kWh, 10進文字列
}

type Config struct {
	Turbine    TurbineConfig    `yaml:"turbine"`
	Blade      BladeConfig      `yaml:"blade"`
	Airfoils   AirfoilConfig    `yaml:"airfoils"`
	Atmosphere AtmosphereConfig `yaml:"atmosphere"`
	Controller ControllerConfig `yaml:"controller"`
	Simulation SimulationConfig `yaml:"simulation"`
	AEP        AEPConfig        `yaml:"aep"`

	dir string // 相対パスの基準
}

// 省略時の値
func DefaultConfig() Config {
	var c Config
	c.Turbine.BladeCount = 3
	c.Turbine.HubHeight = 90
	c.Atmosphere.Viscosity = AirDynamicViscosity
	c.Atmosphere.SpeedOfSound = SpeedOfSound
	c.Atmosphere.Temperature = 15
	c.Atmosphere.Pressure = StandardPressure
	c.Atmosphere.Shear = "none"
	c.Simulation.WindSpeedMin = 3
	c.Simulation.WindSpeedMax = 25
	c.Simulation.WindSpeedStep = 1
	c.Simulation.Tolerance = 1e-4
	c.Simulation.MinIter = 2
	c.Simulation.MaxIter = 50
	c.Simulation.TipLoss = true
	c.Simulation.HubLoss = true
	c.Simulation.TipLossExtraDistance = DefaultTipLossExtraDistance
	c.Simulation.Induction = "buhl"
	c.Simulation.AzimuthSteps = 1
	c.AEP.Shape = 2
	c.AEP.BinWidth = 0.5
	c.AEP.MaxSpeed = 30
	c.AEP.Price = "0"
	return c
}

/*
設定ファイルを読み込む。

	Args:
		filePath: YAML ファイルのパス

	Returns:
		検証済みの Config
*/
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", filePath, err)
	}
	cfg.dir = filepath.Dir(filePath)
	return cfg, nil
}

// YAML を既定値の上に読み込み検証する。未知のキーはエラー。
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// 設定ファイルのディレクトリを基準にパスを解決する
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

func (c *Config) Validate() error {
	t := c.Turbine
	switch {
	case t.BladeCount < 1:
		return fmt.Errorf("turbine.blade_count must be at least 1, got %d", t.BladeCount)
	case t.HubRadius < 0:
		return fmt.Errorf("turbine.hub_radius must not be negative, got %g", t.HubRadius)
	case t.HubHeight <= 0:
		return fmt.Errorf("turbine.hub_height must be positive, got %g", t.HubHeight)
	}

	if c.Blade.File == "" && len(c.Blade.Sections) == 0 {
		return errors.New("blade: either file or sections is required")
	}
	if c.Blade.File != "" && len(c.Blade.Sections) > 0 {
		return errors.New("blade: file and sections are mutually exclusive")
	}
	if c.Airfoils.PolarFile == "" && c.Airfoils.FlatPlate.LiftSlope == 0 {
		return errors.New("airfoils: either polar_file or flat_plate.lift_slope is required")
	}

	a := c.Atmosphere
	switch {
	case a.Density < 0:
		return fmt.Errorf("atmosphere.density must not be negative, got %g", a.Density)
	case a.Viscosity <= 0:
		return fmt.Errorf("atmosphere.viscosity must be positive, got %g", a.Viscosity)
	case a.SpeedOfSound <= 0:
		return fmt.Errorf("atmosphere.speed_of_sound must be positive, got %g", a.SpeedOfSound)
	}
	switch a.Shear {
	case "", "none":
	case "power":
	case "log", "diabatic":
		if a.Roughness <= 0 {
			return fmt.Errorf("atmosphere.roughness must be positive for %s shear, got %g", a.Shear, a.Roughness)
		}
	default:
		return fmt.Errorf("atmosphere.shear: unknown model %q", a.Shear)
	}

	ct := c.Controller
	switch {
	case ct.RatedPower <= 0:
		return fmt.Errorf("controller.rated_power must be positive, got %g", ct.RatedPower)
	case ct.OptimalTSR <= 0:
		return fmt.Errorf("controller.optimal_tsr must be positive, got %g", ct.OptimalTSR)
	case ct.MaxRPM <= ct.MinRPM:
		return fmt.Errorf("controller.max_rpm %g must exceed min_rpm %g", ct.MaxRPM, ct.MinRPM)
	case ct.CutOut <= ct.CutIn:
		return fmt.Errorf("controller.cut_out %g must exceed cut_in %g", ct.CutOut, ct.CutIn)
	case len(ct.PowerTable) != len(ct.RPMTable):
		return fmt.Errorf("controller.power_table has %d entries, rpm_table %d", len(ct.PowerTable), len(ct.RPMTable))
	case len(ct.PitchWindSpeeds) != len(ct.PitchDeg):
		return fmt.Errorf("controller.pitch_wind_speeds has %d entries, pitch_deg %d", len(ct.PitchWindSpeeds), len(ct.PitchDeg))
	case len(ct.EfficiencyLoad) != len(ct.EfficiencyTable):
		return fmt.Errorf("controller.efficiency_load has %d entries, efficiency_table %d", len(ct.EfficiencyLoad), len(ct.EfficiencyTable))
	case ct.Efficiency < 0 || ct.Efficiency > 1:
		return fmt.Errorf("controller.efficiency must be in [0, 1], got %g", ct.Efficiency)
	}

	s := c.Simulation
	switch {
	case s.WindSpeedMin <= 0:
		return fmt.Errorf("simulation.wind_speed_min must be positive, got %g", s.WindSpeedMin)
	case s.WindSpeedMax < s.WindSpeedMin:
		return fmt.Errorf("simulation.wind_speed_max %g below wind_speed_min %g", s.WindSpeedMax, s.WindSpeedMin)
	case s.WindSpeedStep <= 0:
		return fmt.Errorf("simulation.wind_speed_step must be positive, got %g", s.WindSpeedStep)
	case s.Tolerance <= 0:
		return fmt.Errorf("simulation.tolerance must be positive, got %g", s.Tolerance)
	case s.MinIter < 1:
		return fmt.Errorf("simulation.min_iter must be at least 1, got %d", s.MinIter)
	case s.MaxIter < s.MinIter:
		return fmt.Errorf("simulation.max_iter %d below min_iter %d", s.MaxIter, s.MinIter)
	case s.TipLossExtraDistance < 0:
		return fmt.Errorf("simulation.tip_loss_extra_distance must not be negative, got %g", s.TipLossExtraDistance)
	case s.AzimuthSteps < 1:
		return fmt.Errorf("simulation.azimuth_steps must be at least 1, got %d", s.AzimuthSteps)
	case s.Workers < 0:
		return fmt.Errorf("simulation.workers must not be negative, got %d", s.Workers)
	}
	if _, err := s.inductionModel(); err != nil {
		return err
	}

	e := c.AEP
	switch {
	case e.Shape <= 0:
		return fmt.Errorf("aep.shape must be positive, got %g", e.Shape)
	case e.BinWidth <= 0:
		return fmt.Errorf("aep.bin_width must be positive, got %g", e.BinWidth)
	case e.MaxSpeed <= 0:
		return fmt.Errorf("aep.max_speed must be positive, got %g", e.MaxSpeed)
	}
	for i, m := range e.MeanSpeed {
		if m <= 0 {
			return fmt.Errorf("aep.mean_speeds[%d] must be positive, got %g", i, m)
		}
	}
	if _, err := c.AEP.price(); err != nil {
		return err
	}
	return nil
}

func (s SimulationConfig) inductionModel() (InductionModel, error) {
	switch s.Induction {
	case "", "buhl":
		return BuhlInduction{}, nil
	case "glauert":
		return GlauertInduction{}, nil
	case "none":
		return NoInduction{}, nil
	}
	return nil, fmt.Errorf("simulation.induction: unknown model %q", s.Induction)
}

// 計算する風速の列, m/s
func (s SimulationConfig) WindSpeeds() []float64 {
	var vs []float64
	n := int((s.WindSpeedMax-s.WindSpeedMin)/s.WindSpeedStep + 1e-9)
	for i := 0; i <= n; i++ {
		vs = append(vs, s.WindSpeedMin+float64(i)*s.WindSpeedStep)
	}
	return vs
}

func (e AEPConfig) price() (decimal.Decimal, error) {
	if e.Price == "" {
		return decimal.Zero, nil
	}
	p, err := decimal.NewFromString(e.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("aep.price: %w", err)
	}
	if p.IsNegative() {
		return decimal.Zero, fmt.Errorf("aep.price must not be negative, got %s", p)
	}
	return p, nil
}

// 空気密度, kg/m3。Density が 0 の場合は温度・気圧・相対湿度から求める。
func (a AtmosphereConfig) AirDensity() (float64, error) {
	if a.Density > 0 {
		return a.Density, nil
	}
	rho, err := HumidAirDensity(a.Temperature, a.Pressure, a.RelativeHumidity)
	if err != nil {
		return 0, fmt.Errorf("atmosphere: %w", err)
	}
	return rho, nil
}
