package bem

import (
	"errors"
	"math"
)

var (
	// 区間の両端で f の符号が同じ
	ErrNotBracketed = errors.New("bem: root is not bracketed")
	// 最大反復回数に達した
	ErrNoConvergence = errors.New("bem: root finder did not converge")
)

// 計算機イプシロン
const brentEps = 2.220446049250313e-16

/*
Brent 法による1変数関数の根の探索

	符号の変わる区間で逆2次補間, 割線法, 二分法を切り替える。導関数は使わない。
*/
type Brent struct {
	Tolerance     float64 // 根の絶対許容誤差
	MaxIterations int     // 最大反復回数
}

// BEM ソルバの既定の根探索
var DefaultBrent = Brent{Tolerance: 1e-8, MaxIterations: 100}

/*
区間 [lower, upper] にある f の根を求める。

	Args:
		f: 区間で連続な残差関数
		lower, upper: f(lower)*f(upper) < 0 となる区間

	Returns:
		根。符号が変わらない場合は ErrNotBracketed, 収束しない場合は ErrNoConvergence
*/
func (b Brent) Solve(f func(float64) float64, lower, upper float64) (float64, error) {
	tol := b.Tolerance
	if tol <= 0 {
		tol = DefaultBrent.Tolerance
	}
	maxIter := b.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultBrent.MaxIterations
	}

	a, c, x := lower, upper, upper
	fa, fx := f(a), f(x)
	if math.IsNaN(fa) || math.IsNaN(fx) {
		return math.NaN(), ErrNotBracketed
	}
	if fa == 0 {
		return a, nil
	}
	if fx == 0 {
		return x, nil
	}
	if (fa > 0 && fx > 0) || (fa < 0 && fx < 0) {
		return math.NaN(), ErrNotBracketed
	}

	fc := fx
	var d, e float64
	for i := 0; i < maxIter; i++ {
		if (fx > 0 && fc > 0) || (fx < 0 && fc < 0) {
			c, fc = a, fa
			d = x - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fx) {
			a, x, c = x, c, x
			fa, fx, fc = fx, fc, fx
		}

		tol1 := 2*brentEps*math.Abs(x) + 0.5*tol
		xm := 0.5 * (c - x)
		if math.Abs(xm) <= tol1 || fx == 0 {
			return x, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fx) {
			s := fx / fa
			var p, q float64
			if a == c {
				// 割線法
				p = 2 * xm * s
				q = 1 - s
			} else {
				// 逆2次補間
				q = fa / fc
				r := fx / fc
				p = s * (2*xm*q*(q-r) - (x-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)

			// 補間点が区間内にあり, 二分法より速く縮む場合のみ採用
			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = x, fx
		if math.Abs(d) > tol1 {
			x += d
		} else {
			x += math.Copysign(tol1, xm)
		}
		fx = f(x)
		if math.IsNaN(fx) {
			return math.NaN(), ErrNoConvergence
		}
	}

	return math.NaN(), ErrNoConvergence
}
