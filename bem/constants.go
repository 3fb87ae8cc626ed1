package bem

// 標準大気の空気密度, kg/m3
const StandardAirDensity = 1.225

// 空気の粘性係数, Pa s
const AirDynamicViscosity = 1.81e-5

// 音速, m/s
const SpeedOfSound = 340.3

// 標準大気圧, Pa
const StandardPressure = 101325.0

// 乾き空気の気体定数, J/(kg K)
const gasConstantDryAir = 287.058

// 水蒸気の気体定数, J/(kg K)
const gasConstantVapour = 461.495

// 1年間の時間数, h
const HoursPerYear = 8760.0
