package calculator

import (
	"fmt"
	"math"
)

// 单位换算，只在用到的公式内进行
const (
	mmToM        = 0.001
	mToMM        = 1000
	minToS       = 60
	kelvinOffset = 273.15
	paSToMPaS    = 1000  // Pa.s -> mPa.s
	kgM3ToGCm3   = 0.001 // kg/m³ -> g/cm³
)

// Step 每次迭代按顺序执行的 12 个公式
type Step int

const (
	StepVelocity Step = iota
	StepDepositLayer
	StepNsr
	StepReow
	StepOilFraction
	StepWaxFraction
	StepPi1
	StepPi2
	StepMolarVolume
	StepDiffusion
	StepGrowthRate
	StepThickness

	stepCount
)

// stepFunc 计算结果写入 s，并返回该步的主要结果用于校验和记录
type stepFunc func(p *Parameters, s *StepState) (float64, error)

var steps = [stepCount]stepFunc{
	StepVelocity:     velocity,
	StepDepositLayer: depositLayer,
	StepNsr:          nsr,
	StepReow:         reow,
	StepOilFraction:  oilFraction,
	StepWaxFraction:  waxFraction,
	StepPi1:          pi1,
	StepPi2:          pi2,
	StepMolarVolume:  molarVolume,
	StepDiffusion:    diffusion,
	StepGrowthRate:   growthRate,
	StepThickness:    thickness,
}

type stepInfo struct {
	Symbol      string
	Description string
	Equation    string
	Unit        string // 内部单位
}

var stepInfos = [stepCount]stepInfo{
	StepVelocity:     {"Vo", "Velocity of oil", "Qo = mo / ρo\nVo = Qo / (π x (dw/2)²)", "m/s"},
	StepDepositLayer: {"δd", "(Guessed) thickness of wax deposit layer", "δd = 0.5 x (di - dw)", "m"},
	StepNsr:          {"Nsr", "Reynolds number of oil within deposit layer (evaluated at Tw)", "Nsr = (ρow x Vo x δd) / μow", ""},
	StepReow:         {"Reow", "Reynolds number of oil (evaluated at Tw)", "Reow = (ρow x Vo x dw) / μow", ""},
	StepOilFraction:  {"Fo", "Percentage (weight) of oil in the deposit", "Fo = 100 x (1 - (Reow^0.15 / 8))", "%"},
	StepWaxFraction:  {"Fw", "Fraction (weight) of solid wax in the deposit", "Fw = 1 - Fo/100", "Frac."},
	StepPi1:          {"π1", "Deposit porosity correction", "π1 = C1 / (1 - Fo/100)", ""},
	StepPi2:          {"π2", "Shear removal correction", "π2 = C2 x Nsr^C3", ""},
	StepMolarVolume:  {"MVww", "Molar volume of wax", "MVww = MWww / ρww", "cm³/mol"},
	StepDiffusion:    {"Dow", "Diffusion rate of wax", "", "m²/s"},
	StepGrowthRate:   {"dδ/dt", "Incremental increase of thickness of wax deposit layer", "dδ/dt = (π1 / (1 + π2)) x Dow x dC/dT x dT/dr", "m/s"},
	StepThickness:    {"δ", "Total thickness of wax deposit layer", "δ = δ(t-1) + dδ/dt x dt", "m"},
}

var diffusionEquations = map[DiffusionMethod]string{
	WilkeChang:   "Dow = 7.4E-12 x (Tw x MWow^0.5) / (μow x MVww^0.6)",
	HaydukMinhas: "Dow = 13.3E-12 x (Tw^1.47 x μow^(10.2/MVww - 0.791)) / MVww^0.71",
}

func (s Step) String() string {
	if s < 0 || s >= stepCount {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepInfos[s].Symbol
}

func (s Step) equation(p *Parameters) string {
	if s == StepDiffusion {
		return diffusionEquations[p.Method]
	}
	return stepInfos[s].Equation
}

func velocity(p *Parameters, s *StepState) (float64, error) {
	s.Qo = p.Mo / s.RhoO
	s.Vo = s.Qo / (math.Pi * math.Pow(s.Dw/2, 2))
	return s.Vo, nil
}

func depositLayer(p *Parameters, s *StepState) (float64, error) {
	s.DelD = 0.5 * (p.Di - s.Dw)
	return s.DelD, nil
}

func nsr(p *Parameters, s *StepState) (float64, error) {
	s.Nsr = s.RhoOW * s.Vo * s.DelD / s.MuOW
	return s.Nsr, nil
}

func reow(p *Parameters, s *StepState) (float64, error) {
	s.Reow = s.RhoOW * s.Vo * s.Dw / s.MuOW
	return s.Reow, nil
}

func oilFraction(p *Parameters, s *StepState) (float64, error) {
	s.Fo = 100 * (1 - math.Pow(s.Reow, 0.15)/8)
	return s.Fo, nil
}

func waxFraction(p *Parameters, s *StepState) (float64, error) {
	s.Fw = 1 - s.Fo/100
	return s.Fw, nil
}

func pi1(p *Parameters, s *StepState) (float64, error) {
	s.Pi1 = p.C1 / (1 - s.Fo/100)
	return s.Pi1, nil
}

// Nsr < 0 且 C3 非整数时结果为 NaN
func pi2(p *Parameters, s *StepState) (float64, error) {
	s.Pi2 = p.C2 * math.Pow(s.Nsr, p.C3)
	return s.Pi2, nil
}

func molarVolume(p *Parameters, s *StepState) (float64, error) {
	s.MVww = s.MWww / (s.RhoWW * kgM3ToGCm3)
	return s.MVww, nil
}

func diffusion(p *Parameters, s *StepState) (float64, error) {
	dow, err := Diffusivity(p.Method, s.Tw+kelvinOffset, s.MWow, s.MuOW*paSToMPaS, s.MVww)
	if err != nil {
		return 0, err
	}
	s.Dow = dow
	return s.Dow, nil
}

func growthRate(p *Parameters, s *StepState) (float64, error) {
	s.DDeltaDt = (s.Pi1 / (1 + s.Pi2)) * s.Dow * s.DCDT * s.DTdr
	return s.DDeltaDt, nil
}

func thickness(p *Parameters, s *StepState) (float64, error) {
	s.Delta = s.DeltaPrev + s.DDeltaDt*s.Dt
	return s.Delta, nil
}
