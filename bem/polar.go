package bem

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// 断面の空力係数を返す。迎角は rad。
type Polar interface {
	Coefficients(section int, reynolds, mach, alpha float64) (cl, cd, cm float64)
}

// 平板翼: Cl = LiftSlope * alpha, Cd 一定
type FlatPlatePolar struct {
	LiftSlope float64 // 揚力傾斜, 1/rad
	Drag      float64 // 抗力係数
}

func (p FlatPlatePolar) Coefficients(_ int, _, _, alpha float64) (float64, float64, float64) {
	return p.LiftSlope * alpha, p.Drag, 0
}

// あるレイノルズ数での1枚の極曲線
type polarCurve struct {
	reynolds float64
	cl       interp.PiecewiseLinear
	cd       interp.PiecewiseLinear
	cm       interp.PiecewiseLinear
}

/*
翼型ごとの極曲線テーブル。

	レイノルズ数ごとに迎角の区分線形補間を持ち、レイノルズ数方向は
	前後2枚の間で線形補間する。範囲外は端の値を使う。
*/
type AirfoilPolar struct {
	Name   string
	curves []polarCurve
}

/*
レイノルズ数 reynolds の極曲線を追加する。

	Args:
		reynolds: レイノルズ数
		alpha: 迎角, rad, 昇順
		cl, cd, cm: 揚力, 抗力, モーメント係数
*/
func (a *AirfoilPolar) AddCurve(reynolds float64, alpha, cl, cd, cm []float64) error {
	n := len(alpha)
	if n < 2 {
		return fmt.Errorf("airfoil %s: polar at Re=%g needs at least 2 points", a.Name, reynolds)
	}
	if len(cl) != n || len(cd) != n || len(cm) != n {
		return fmt.Errorf("airfoil %s: polar at Re=%g has mismatched column lengths", a.Name, reynolds)
	}
	for _, c := range a.curves {
		if c.reynolds == reynolds {
			return fmt.Errorf("airfoil %s: duplicate polar at Re=%g", a.Name, reynolds)
		}
	}

	var pc polarCurve
	pc.reynolds = reynolds
	if err := pc.cl.Fit(alpha, cl); err != nil {
		return fmt.Errorf("airfoil %s: Re=%g lift: %w", a.Name, reynolds, err)
	}
	if err := pc.cd.Fit(alpha, cd); err != nil {
		return fmt.Errorf("airfoil %s: Re=%g drag: %w", a.Name, reynolds, err)
	}
	if err := pc.cm.Fit(alpha, cm); err != nil {
		return fmt.Errorf("airfoil %s: Re=%g moment: %w", a.Name, reynolds, err)
	}

	a.curves = append(a.curves, pc)
	sort.Slice(a.curves, func(i, j int) bool { return a.curves[i].reynolds < a.curves[j].reynolds })
	return nil
}

func (a *AirfoilPolar) Coefficients(reynolds, alpha float64) (float64, float64, float64) {
	alpha = wrapAngle(alpha)

	n := len(a.curves)
	if n == 0 {
		return 0, 0, 0
	}
	if n == 1 || reynolds <= a.curves[0].reynolds {
		c := &a.curves[0]
		return c.cl.Predict(alpha), c.cd.Predict(alpha), c.cm.Predict(alpha)
	}
	if reynolds >= a.curves[n-1].reynolds {
		c := &a.curves[n-1]
		return c.cl.Predict(alpha), c.cd.Predict(alpha), c.cm.Predict(alpha)
	}

	j := sort.Search(n, func(i int) bool { return a.curves[i].reynolds >= reynolds })
	lo, hi := &a.curves[j-1], &a.curves[j]
	w := (reynolds - lo.reynolds) / (hi.reynolds - lo.reynolds)
	lerp := func(x, y float64) float64 { return x + w*(y-x) }
	return lerp(lo.cl.Predict(alpha), hi.cl.Predict(alpha)),
		lerp(lo.cd.Predict(alpha), hi.cd.Predict(alpha)),
		lerp(lo.cm.Predict(alpha), hi.cm.Predict(alpha))
}

// 断面ごとに翼型を割り当てた Polar
type SectionPolars struct {
	airfoils []*AirfoilPolar
}

/*
断面の翼型名から SectionPolars を作成する。

	Args:
		sections: ブレード断面
		airfoils: 翼型名 -> 極曲線
*/
func NewSectionPolars(sections []BladeSection, airfoils map[string]*AirfoilPolar) (*SectionPolars, error) {
	sp := &SectionPolars{airfoils: make([]*AirfoilPolar, len(sections))}
	for i, s := range sections {
		a, ok := airfoils[s.Airfoil]
		if !ok {
			return nil, fmt.Errorf("blade section %d: unknown airfoil %q", i, s.Airfoil)
		}
		if len(a.curves) == 0 {
			return nil, fmt.Errorf("blade section %d: airfoil %q has no polar data", i, s.Airfoil)
		}
		sp.airfoils[i] = a
	}
	return sp, nil
}

// Mach 数は現在のテーブルでは使わない
func (sp *SectionPolars) Coefficients(section int, reynolds, _, alpha float64) (float64, float64, float64) {
	return sp.airfoils[section].Coefficients(reynolds, alpha)
}

// [-pi, pi) に正規化
func wrapAngle(a float64) float64 {
	if a >= -math.Pi && a < math.Pi {
		return a
	}
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
