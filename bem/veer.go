package bem

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// 風向の高さ方向変化 (ベア)
type VeerModel interface {
	Rotate(v r3.Vec, height, hubHeight float64) r3.Vec
}

type NoVeer struct{}

func (NoVeer) Rotate(v r3.Vec, _, _ float64) r3.Vec { return v }

// ハブ高さからの高さの差に比例して水平成分を z 軸まわりに回転する
type LinearVeer struct {
	Rate float64 // ベア率, rad/m
}

func (l LinearVeer) Rotate(v r3.Vec, height, hubHeight float64) r3.Vec {
	theta := l.Rate * (height - hubHeight)
	if theta == 0 {
		return v
	}
	s, c := math.Sincos(theta)
	return r3.Vec{
		X: c*v.X - s*v.Y,
		Y: s*v.X + c*v.Y,
		Z: v.Z,
	}
}
