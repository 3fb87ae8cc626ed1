package bem

import "math"

// 翼端・翼根損失係数の下限
const minLossFactor = 1e-4

/*
誘導係数モデルへの入力

	K    = σ' cn / (4 F sin²φ)
	KRot = σ' ct / (4 F sinφ cosφ)
*/
type InductionInput struct {
	K    float64 // 軸方向の負荷パラメータ
	KRot float64 // 接線方向の負荷パラメータ
	F    float64 // 翼端・翼根損失係数
	Phi  float64 // 流入角, rad
}

type InductionFactors struct {
	A      float64 // 軸方向誘導係数
	APrime float64 // 接線方向誘導係数
}

type InductionModel interface {
	Factors(in InductionInput) InductionFactors
}

/*
運動量理論 + Buhl の高誘導補正

	φ > 0 (風車状態): k <= 2/3 では a = k/(1+k)、それ以上は Buhl の経験式。
	φ < 0 (プロペラブレーキ状態): k > 1 では a = k/(k-1), それ以外は a = 0。
*/
type BuhlInduction struct{}

func (BuhlInduction) Factors(in InductionInput) InductionFactors {
	var a float64
	k, F := in.K, in.F
	if in.Phi > 0 {
		if k <= 2.0/3.0 {
			a = k / (1 + k)
		} else {
			g1 := 2*F*k - (10.0/9.0 - F)
			g2 := 2*F*k - F*(4.0/3.0-F)
			g3 := 2*F*k - (25.0/9.0 - 2*F)
			if math.Abs(g3) < 1e-6 {
				a = 1 - 1/(2*math.Sqrt(g2))
			} else {
				a = (g1 - math.Sqrt(g2)) / g3
			}
		}
	} else {
		a = propellerBrakeInduction(k)
	}
	return InductionFactors{A: a, APrime: tangentialInduction(in.KRot)}
}

/*
Glauert 補正 (Spera の式)

	運動量理論の a が臨界値 CriticalInduction を超えたら Spera の式に切り替える。
*/
type GlauertInduction struct {
	CriticalInduction float64 // 臨界誘導係数, 0 の場合は 0.2
}

func (g GlauertInduction) Factors(in InductionInput) InductionFactors {
	ac := g.CriticalInduction
	if ac <= 0 {
		ac = 0.2
	}

	var a float64
	if in.Phi > 0 {
		a = in.K / (1 + in.K)
		if a > ac && in.K > 0 {
			kk := 1 / in.K
			q := kk*(1-2*ac) + 2
			a = 0.5 * (2 + kk*(1-2*ac) - math.Sqrt(q*q+4*(kk*ac*ac-1)))
		}
	} else {
		a = propellerBrakeInduction(in.K)
	}
	return InductionFactors{A: a, APrime: tangentialInduction(in.KRot)}
}

// 誘導なし (幾何流入角での検算用)
type NoInduction struct{}

func (NoInduction) Factors(InductionInput) InductionFactors { return InductionFactors{} }

// k <= 1 ではプロペラブレーキ状態の関係式が成り立たない
func propellerBrakeInduction(k float64) float64 {
	if k > 1 {
		return k / (k - 1)
	}
	return 0
}

func tangentialInduction(kRot float64) float64 {
	return kRot / (1 - kRot)
}

/*
Prandtl の翼端・翼根損失係数

	Args:
		phi: 流入角, rad
		bladeCount: ブレード枚数
		r: 断面半径, m
		tipRadius: 翼端半径 (翼端損失の追加距離を含む), m
		hubRadius: ハブ半径, m
		tip, hub: 翼端・翼根損失を考慮するか

	Returns:
		損失係数 F (下限 minLossFactor)
*/
func PrandtlLoss(phi float64, bladeCount int, r, tipRadius, hubRadius float64, tip, hub bool) float64 {
	sphi := math.Abs(math.Sin(phi))
	if sphi < 1e-12 {
		return 1
	}

	b := float64(bladeCount)
	F := 1.0
	if tip && r < tipRadius {
		f := b / 2 * (tipRadius - r) / (r * sphi)
		F *= 2 / math.Pi * math.Acos(math.Exp(-f))
	} else if tip {
		F = 0
	}
	if hub && hubRadius > 0 && r > hubRadius {
		f := b / 2 * (r - hubRadius) / (hubRadius * sphi)
		F *= 2 / math.Pi * math.Acos(math.Exp(-f))
	}
	return math.Max(F, minLossFactor)
}
