package bem

import "math"

/*
鉛直シアモデル

	height における風下方向の風速を、ハブ高さ hubHeight とハブ風速 hubVelocity から求める。
*/
type ShearModel interface {
	Velocity(height, hubHeight, hubVelocity float64) float64
}

// 対数則
type LogShear struct {
	Roughness float64 // 粗度長, m
}

func (s LogShear) Velocity(height, hubHeight, hubVelocity float64) float64 {
	if height <= s.Roughness {
		return 0
	}
	return hubVelocity * math.Log(height/s.Roughness) / math.Log(hubHeight/s.Roughness)
}

// べき乗則
type PowerLawShear struct {
	Exponent float64 // べき指数
}

func (s PowerLawShear) Velocity(height, hubHeight, hubVelocity float64) float64 {
	if height <= 0 {
		return 0
	}
	return hubVelocity * math.Pow(height/hubHeight, s.Exponent)
}

/*
Monin-Obukhov の非中立大気の対数則

	u(h) ∝ ln(h/z0) - ψ(h/L)
	ObukhovLength が 0 または無限大の場合は中立 (LogShear と同じ)。
*/
type DiabaticShear struct {
	Roughness     float64 // 粗度長, m
	ObukhovLength float64 // Obukhov 長, m, 負: 不安定, 正: 安定
}

func (s DiabaticShear) Velocity(height, hubHeight, hubVelocity float64) float64 {
	if height <= s.Roughness {
		return 0
	}
	num := math.Log(height/s.Roughness) - StabilityCorrection(height, s.ObukhovLength)
	den := math.Log(hubHeight/s.Roughness) - StabilityCorrection(hubHeight, s.ObukhovLength)
	return hubVelocity * num / den
}

/*
安定度補正関数 ψ(h/L)

	不安定 (L < 0): Paulson の積分形, x = (1 - 16 h/L)^(1/4)
	安定 (L > 0): -5 h/L
	中立: 0
*/
func StabilityCorrection(height, obukhovLength float64) float64 {
	if obukhovLength == 0 || math.IsInf(obukhovLength, 0) {
		return 0
	}
	zeta := height / obukhovLength
	if obukhovLength < 0 {
		x := math.Pow(1-16*zeta, 0.25)
		return 2*math.Log((1+x)/2) + math.Log((1+x*x)/2) - 2*math.Atan(x) + math.Pi/2
	}
	return -5 * zeta
}

// シアなし: 高さによらずハブ風速
type NoShear struct{}

func (NoShear) Velocity(_, _, hubVelocity float64) float64 { return hubVelocity }
