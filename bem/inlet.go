package bem

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// world 座標の位置における流入速度 (誘導なし)
type InletVelocityProvider interface {
	Velocity(p r3.Vec) r3.Vec
}

// 一様流
type UniformInlet struct {
	Free r3.Vec // 一様流速度, m/s
}

func (u UniformInlet) Velocity(r3.Vec) r3.Vec { return u.Free }

/*
時刻ごとの3次元乱流場

	y-z 格子上に速度3成分を持ち、空間は双線形、時間は線形に補間する。
	格子外は端の値を使う。
*/
type TurbulentInlet struct {
	ys    []float64     // 横方向格子, m, 昇順
	zs    []float64     // 鉛直方向格子, m, 昇順
	times []float64     // 時刻, s, 昇順
	u     [][][]float64 // [t][iy][iz], m/s
	v     [][][]float64
	w     [][][]float64
	time  float64 // 評価時刻, s
}

/*
乱流場を作成する。

	Args:
		ys, zs: 格子座標, m
		times: 時刻, s
		u, v, w: 速度成分, m/s, [t][iy][iz]
*/
func NewTurbulentInlet(ys, zs, times []float64, u, v, w [][][]float64) (*TurbulentInlet, error) {
	if len(ys) < 2 || len(zs) < 2 {
		return nil, errors.New("turbulence: grid needs at least 2 points per direction")
	}
	if len(times) == 0 {
		return nil, errors.New("turbulence: at least one time step is required")
	}
	for name, xs := range map[string][]float64{"y": ys, "z": zs, "time": times} {
		if !sort.Float64sAreSorted(xs) || hasDuplicates(xs) {
			return nil, fmt.Errorf("turbulence: %s coordinates must be strictly increasing", name)
		}
	}
	for name, c := range map[string][][][]float64{"u": u, "v": v, "w": w} {
		if len(c) != len(times) {
			return nil, fmt.Errorf("turbulence: %s has %d time steps, want %d", name, len(c), len(times))
		}
		for t := range c {
			if len(c[t]) != len(ys) {
				return nil, fmt.Errorf("turbulence: %s[%d] has %d rows, want %d", name, t, len(c[t]), len(ys))
			}
			for iy := range c[t] {
				if len(c[t][iy]) != len(zs) {
					return nil, fmt.Errorf("turbulence: %s[%d][%d] has %d columns, want %d", name, t, iy, len(c[t][iy]), len(zs))
				}
			}
		}
	}
	return &TurbulentInlet{ys: ys, zs: zs, times: times, u: u, v: v, w: w, time: times[0]}, nil
}

// 評価時刻を t にした乱流場を返す。元の場は変更しない。
func (ti TurbulentInlet) At(t float64) *TurbulentInlet {
	ti.time = t
	return &ti
}

// 全格子点・全時刻の主流方向平均風速, m/s
func (ti *TurbulentInlet) MeanWindSpeed() float64 {
	var sum float64
	var n int
	for t := range ti.u {
		for iy := range ti.u[t] {
			sum += floats.Sum(ti.u[t][iy])
			n += len(ti.u[t][iy])
		}
	}
	return sum / float64(n)
}

func (ti *TurbulentInlet) Velocity(p r3.Vec) r3.Vec {
	it, ft := bracketIndex(ti.times, ti.time)
	iy, fy := bracketIndex(ti.ys, p.Y)
	iz, fz := bracketIndex(ti.zs, p.Z)

	sample := func(c [][][]float64) float64 {
		v0 := bilinear(c[it], iy, iz, fy, fz)
		if ft == 0 {
			return v0
		}
		v1 := bilinear(c[it+1], iy, iz, fy, fz)
		return v0 + ft*(v1-v0)
	}
	return r3.Vec{X: sample(ti.u), Y: sample(ti.v), Z: sample(ti.w)}
}

func bilinear(g [][]float64, iy, iz int, fy, fz float64) float64 {
	iy1, iz1 := iy, iz
	if fy > 0 {
		iy1 = iy + 1
	}
	if fz > 0 {
		iz1 = iz + 1
	}
	a := g[iy][iz] + fz*(g[iy][iz1]-g[iy][iz])
	b := g[iy1][iz] + fz*(g[iy1][iz1]-g[iy1][iz])
	return a + fy*(b-a)
}

// xs の中で x を挟む区間の下端インデックスと区間内の割合。範囲外は端に丸める。
func bracketIndex(xs []float64, x float64) (int, float64) {
	n := len(xs)
	if n == 1 || x <= xs[0] {
		return 0, 0
	}
	if x >= xs[n-1] {
		return n - 1, 0
	}
	j := sort.SearchFloat64s(xs, x)
	if xs[j] == x {
		return j, 0
	}
	return j - 1, (x - xs[j-1]) / (xs[j] - xs[j-1])
}

func hasDuplicates(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] == xs[i-1] {
			return true
		}
	}
	return false
}
