package bem

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// 局所速度比の分母として許す最小の軸方向速度, m/s
const minAxialVelocity = 1e-6

/*
流入場を構成する戦略の組

	FlowCalculator はここから参照するだけで、所有はこの構造体が持つ。
	Inlet が nil の場合は運転点の風速による一様流、Shear が nil の場合はシアなし、
	Veer が nil の場合は NoVeer。
*/
type FlowStrategies struct {
	Inlet InletVelocityProvider
	Shear ShearModel
	Veer  VeerModel
}

func (fs FlowStrategies) withDefaults(windSpeed float64) FlowStrategies {
	if fs.Inlet == nil {
		fs.Inlet = UniformInlet{Free: r3.Vec{X: windSpeed}}
	}
	if fs.Veer == nil {
		fs.Veer = NoVeer{}
	}
	return fs
}

/*
ある (回転角速度, 方位角) における各断面の局所流速

	生成時に一度だけ計算し、以降は参照のみ。別の方位角や回転数では作り直す。
*/
type FlowCalculator struct {
	geometry     *TurbineGeometry
	rotationRate float64  // 回転角速度, rad/s
	azimuth      float64  // 方位角, rad
	field        []r3.Vec // ブレード局所座標の速度, m/s, [i]
}

/*
局所流速場を計算する。

	Args:
		g: ロータ形状 (PrecomputeRotationMatrices 済み)
		fs: 流入場の戦略, Inlet は必須
		rotationRate: 回転角速度, rad/s
		azimuth: 方位角, rad
*/
func NewFlowCalculator(g *TurbineGeometry, fs FlowStrategies, rotationRate, azimuth float64) *FlowCalculator {
	positions := g.GlobalPositionsAtAzimuth(azimuth)

	fc := &FlowCalculator{
		geometry:     g,
		rotationRate: rotationRate,
		azimuth:      azimuth,
	}

	// (1) 流入速度
	field := fc.inletField(fs.Inlet, positions)
	// (2) シア
	field = fc.applyShear(fs.Shear, fs.Inlet, positions, field)
	// (3) ベア
	field = fc.applyVeer(fs.Veer, positions, field)
	// (4) ブレード局所座標へ変換し回転による速度を加える
	fc.field = fc.toBladeLocal(field)

	return fc
}

func (fc *FlowCalculator) inletField(inlet InletVelocityProvider, positions []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(positions))
	for i, p := range positions {
		out[i] = inlet.Velocity(p)
	}
	return out
}

// 風下方向成分をシアモデルの値で置き換える
func (fc *FlowCalculator) applyShear(shear ShearModel, inlet InletVelocityProvider, positions, field []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(field))
	copy(out, field)
	if shear == nil {
		return out
	}

	hubHeight := fc.geometry.HubHeight()
	hubVelocity := inlet.Velocity(fc.geometry.RotorCentre()).X
	for i, p := range positions {
		out[i].X = shear.Velocity(p.Z, hubHeight, hubVelocity)
	}
	return out
}

func (fc *FlowCalculator) applyVeer(veer VeerModel, positions, field []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(field))
	if veer == nil {
		copy(out, field)
		return out
	}
	hubHeight := fc.geometry.HubHeight()
	for i, p := range positions {
		out[i] = veer.Rotate(field[i], p.Z, hubHeight)
	}
	return out
}

func (fc *FlowCalculator) toBladeLocal(field []r3.Vec) []r3.Vec {
	m := fc.geometry.WorldToBladeLocalMatrix(fc.azimuth)
	cone := math.Cos(fc.geometry.Cone())

	out := make([]r3.Vec, len(field))
	for i, v := range field {
		out[i] = transform(m, v)
		// 翼から見た相対風として周速を接線方向に加える
		out[i].Y += fc.rotationRate * fc.geometry.Radius(i) * cone
	}
	return out
}

/*
断面 i の局所速度

	Returns:
		軸方向速度, 接線方向速度, m/s
*/
func (fc *FlowCalculator) BladeLocalVelocities(i int) (float64, float64) {
	return fc.field[i].X, fc.field[i].Y
}

// 断面 i の局所速度 (半径方向成分を含む), m/s
func (fc *FlowCalculator) LocalVelocity(i int) r3.Vec {
	return fc.field[i]
}

// 断面 i の局所周速比 (接線方向速度 / 軸方向速度)
func (fc *FlowCalculator) LocalLambda(i int) float64 {
	vx, vy := fc.BladeLocalVelocities(i)
	return vy / clampAwayFromZero(vx, minAxialVelocity)
}

func (fc *FlowCalculator) RotationRate() float64 { return fc.rotationRate }
func (fc *FlowCalculator) Azimuth() float64      { return fc.azimuth }

func clampAwayFromZero(x, eps float64) float64 {
	if math.Abs(x) >= eps {
		return x
	}
	if x < 0 {
		return -eps
	}
	return eps
}
