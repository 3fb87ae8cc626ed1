package bem

import (
	"fmt"
	"math"
)

/*
飽和水蒸気圧を計算する。

	Args:
		theta: 空気温度, degree C

	Returns:
		飽和水蒸気圧, Pa
*/
func SaturationVapourPressure(theta float64) float64 {
	// 絶対温度
	t := theta + 273.15

	const a1 = -6096.9385
	const a2 = 21.2409642
	const a3 = -0.02711193
	const a4 = 0.00001673952
	const a5 = 2.433502
	const b1 = -6024.5282
	const b2 = 29.32707
	const b3 = 0.010613863
	const b4 = -0.000013198825
	const b5 = -0.49382577

	if theta >= 0.0 {
		return math.Exp(a1/t + a2 + a3*t + a4*t*t + a5*math.Log(t))
	}
	return math.Exp(b1/t + b2 + b3*t + b4*t*t + b5*math.Log(t))
}

/*
湿り空気の密度を計算する。

	Args:
		theta: 空気温度, degree C
		pressure: 大気圧, Pa
		rh: 相対湿度, %

	Returns:
		空気密度, kg/m3
*/
func HumidAirDensity(theta, pressure, rh float64) (float64, error) {
	if pressure <= 0 {
		return 0, fmt.Errorf("air pressure must be positive, got %g Pa", pressure)
	}
	if rh < 0 || rh > 100 {
		return 0, fmt.Errorf("relative humidity must be within [0, 100], got %g", rh)
	}
	t := theta + 273.15
	if t <= 0 {
		return 0, fmt.Errorf("air temperature below absolute zero: %g degree C", theta)
	}

	// 水蒸気分圧, Pa
	pV := rh / 100.0 * SaturationVapourPressure(theta)
	// 乾き空気分圧, Pa
	pD := pressure - pV

	return pD/(gasConstantDryAir*t) + pV/(gasConstantVapour*t), nil
}
