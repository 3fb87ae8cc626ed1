package bem

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ブレード断面
type BladeSection struct {
	Radius      float64 // 回転中心からの半径, m
	Chord       float64 // 翼弦長, m
	Twist       float64 // ねじり角, rad
	AeroCentreX float64 // 空力中心の翼弦方向オフセット, m
	AeroCentreY float64 // 空力中心の翼厚方向オフセット, m
	Airfoil     string  // 翼型名
}

/*
座標変換行列の組

	world: x 風下方向, y 横方向, z 鉛直上向き
	nacelle: ヨー角だけ world から z 軸まわりに回転
	shaft: チルト角だけ nacelle から y 軸まわりに回転, x が回転軸
	blade root: コーン角だけ shaft から y 軸まわりに回転, z がブレード軸
*/
type RotationMatrixSet struct {
	nacelleToWorld   *mat.Dense // ヨー
	worldToNacelle   *mat.Dense
	shaftToNacelle   *mat.Dense // チルト
	nacelleToShaft   *mat.Dense
	bladeRootToShaft *mat.Dense // コーン
	shaftToBladeRoot *mat.Dense
}

// ロータ形状と座標変換
type TurbineGeometry struct {
	sections []BladeSection
	polar    Polar

	hubRadius     float64 // ハブ半径, m
	cone          float64 // コーン角, rad
	yaw           float64 // ヨー角, rad
	tilt          float64 // チルト角, rad
	towerDistance float64 // タワー中心からロータ中心までの距離, m
	hubHeight     float64 // ハブ高さ, m
	bladeCount    int     // ブレード枚数

	configured bool
	rot        *RotationMatrixSet
}

/*
ブレード断面表からロータ形状を作成する。

	Args:
		sections: 半径の昇順に並んだ断面
		polar: 翼型の空力係数テーブル

	Returns:
		TurbineGeometry, 断面が不正な場合はエラー
*/
func NewTurbineGeometry(sections []BladeSection, polar Polar) (*TurbineGeometry, error) {
	if len(sections) == 0 {
		return nil, errors.New("blade: at least one section is required")
	}
	if polar == nil {
		return nil, errors.New("blade: airfoil polar is required")
	}
	for i, s := range sections {
		if s.Radius <= 0 {
			return nil, fmt.Errorf("blade section %d: radius must be positive, got %g", i, s.Radius)
		}
		if s.Chord <= 0 {
			return nil, fmt.Errorf("blade section %d: chord must be positive, got %g", i, s.Chord)
		}
		if i > 0 && s.Radius <= sections[i-1].Radius {
			return nil, fmt.Errorf("blade section %d: radius %g is not greater than previous %g", i, s.Radius, sections[i-1].Radius)
		}
	}

	ss := make([]BladeSection, len(sections))
	copy(ss, sections)

	return &TurbineGeometry{sections: ss, polar: polar}, nil
}

/*
ロータのマクロ形状を設定する。PrecomputeRotationMatrices より前に呼ぶ。

	Args:
		hubRadius: ハブ半径, m
		cone: コーン角, rad
		yaw: ヨー角, rad
		tilt: チルト角, rad
		towerDistance: タワー中心からロータ中心までの距離, m
		hubHeight: ハブ高さ, m
		bladeCount: ブレード枚数
*/
func (g *TurbineGeometry) Configure(hubRadius, cone, yaw, tilt, towerDistance, hubHeight float64, bladeCount int) error {
	if hubRadius < 0 {
		return fmt.Errorf("turbine: hub radius must not be negative, got %g", hubRadius)
	}
	if hubRadius >= g.TipRadius() {
		return fmt.Errorf("turbine: hub radius %g must be smaller than tip radius %g", hubRadius, g.TipRadius())
	}
	if hubRadius > g.sections[0].Radius {
		return fmt.Errorf("turbine: hub radius %g lies outside the first blade section at %g", hubRadius, g.sections[0].Radius)
	}
	if bladeCount < 1 {
		return fmt.Errorf("turbine: blade count must be at least 1, got %d", bladeCount)
	}
	if hubHeight <= 0 {
		return fmt.Errorf("turbine: hub height must be positive, got %g", hubHeight)
	}

	g.hubRadius = hubRadius
	g.cone = cone
	g.yaw = yaw
	g.tilt = tilt
	g.towerDistance = towerDistance
	g.hubHeight = hubHeight
	g.bladeCount = bladeCount
	g.configured = true
	g.rot = nil
	return nil
}

// 固定の座標変換行列を計算する。
func (g *TurbineGeometry) PrecomputeRotationMatrices() {
	if !g.configured {
		panic("turbine geometry: Configure must be called before PrecomputeRotationMatrices")
	}

	nacelleToWorld := rotationZ(g.yaw)
	shaftToNacelle := rotationY(g.tilt)
	bladeRootToShaft := rotationY(g.cone)

	g.rot = &RotationMatrixSet{
		nacelleToWorld:   nacelleToWorld,
		worldToNacelle:   mat.DenseCopyOf(nacelleToWorld.T()),
		shaftToNacelle:   shaftToNacelle,
		nacelleToShaft:   mat.DenseCopyOf(shaftToNacelle.T()),
		bladeRootToShaft: bladeRootToShaft,
		shaftToBladeRoot: mat.DenseCopyOf(bladeRootToShaft.T()),
	}
}

func (g *TurbineGeometry) mustBePrecomputed() {
	if g.rot == nil {
		panic("turbine geometry: rotation matrices are not precomputed")
	}
}

/*
方位角 psi における各断面の world 座標を求める。

	Args:
		psi: 方位角, rad

	Returns:
		各断面の位置, m, [i]
*/
func (g *TurbineGeometry) GlobalPositionsAtAzimuth(psi float64) []r3.Vec {
	g.mustBePrecomputed()

	// blade root -> world
	var m mat.Dense
	m.Product(g.rot.nacelleToWorld, g.rot.shaftToNacelle, azimuthMatrix(psi), g.rot.bladeRootToShaft)

	offset := g.RotorCentre()
	ps := make([]r3.Vec, len(g.sections))
	for i, s := range g.sections {
		p := transform(&m, r3.Vec{Z: s.Radius})
		ps[i] = r3.Vec{X: p.X + offset.X, Y: p.Y + offset.Y, Z: p.Z + offset.Z}
	}
	return ps
}

// ロータ中心の world 座標, m
func (g *TurbineGeometry) RotorCentre() r3.Vec {
	return r3.Vec{X: -g.towerDistance, Z: g.hubHeight}
}

/*
world 座標系の速度をブレード局所座標系に変換する行列を求める。

	blade root <- azimuth <- shaft <- nacelle <- world の積。
	方位角の行列は毎回計算する。

	Args:
		psi: 方位角, rad
*/
func (g *TurbineGeometry) WorldToBladeLocalMatrix(psi float64) *mat.Dense {
	g.mustBePrecomputed()

	var m mat.Dense
	m.Product(g.rot.shaftToBladeRoot, azimuthMatrix(psi).T(), g.rot.nacelleToShaft, g.rot.worldToNacelle)
	return &m
}

func (g *TurbineGeometry) SectionCount() int { return len(g.sections) }

func (g *TurbineGeometry) Section(i int) BladeSection { return g.sections[i] }

func (g *TurbineGeometry) Chord(i int) float64 { return g.sections[i].Chord }

func (g *TurbineGeometry) Twist(i int) float64 { return g.sections[i].Twist }

func (g *TurbineGeometry) Radius(i int) float64 { return g.sections[i].Radius }

func (g *TurbineGeometry) AeroCentre(i int) (float64, float64) {
	return g.sections[i].AeroCentreX, g.sections[i].AeroCentreY
}

// 最外断面の半径がロータ半径
func (g *TurbineGeometry) TipRadius() float64 { return g.sections[len(g.sections)-1].Radius }

func (g *TurbineGeometry) HubRadius() float64     { return g.hubRadius }
func (g *TurbineGeometry) HubHeight() float64     { return g.hubHeight }
func (g *TurbineGeometry) Cone() float64          { return g.cone }
func (g *TurbineGeometry) BladeCount() int        { return g.bladeCount }
func (g *TurbineGeometry) Polar() Polar           { return g.polar }
func (g *TurbineGeometry) TowerDistance() float64 { return g.towerDistance }

// 回転軸方向に見て時計回りを正とする回転行列 (右手系)

func rotationX(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

func rotationY(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

func rotationZ(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// blade root(回転後) -> shaft, 回転軸 x まわり
func azimuthMatrix(psi float64) *mat.Dense {
	return rotationX(psi)
}

func transform(m mat.Matrix, v r3.Vec) r3.Vec {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}
