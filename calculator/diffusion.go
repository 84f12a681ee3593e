package calculator

import (
	"fmt"
	"math"
	"strings"

	"waxloop/model"
)

// 蜡在油中的扩散系数关联式
type DiffusionMethod int

const (
	WilkeChang DiffusionMethod = iota + 1
	HaydukMinhas
)

var diffusionMethodNames = map[DiffusionMethod]string{
	WilkeChang:   "Wilke-Chang",
	HaydukMinhas: "Hayduk-Minhas",
}

func (m DiffusionMethod) String() string {
	if name, ok := diffusionMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("DiffusionMethod(%d)", int(m))
}

// ParseDiffusionMethod 不区分大小写；"Hayduk-Minhass" 为历史拼写
func ParseDiffusionMethod(s string) (DiffusionMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wilke-chang":
		return WilkeChang, nil
	case "hayduk-minhas", "hayduk-minhass":
		return HaydukMinhas, nil
	}
	return 0, fmt.Errorf("unknown diffusion method %q: %w", s, model.ErrConfiguration)
}

// tk: K, mwow: g/mol, mu: mPa.s, mvww: cm³/mol; 结果 m²/s
type diffusionFunc func(tk, mwow, mu, mvww float64) float64

var diffusionFuncs = map[DiffusionMethod]diffusionFunc{
	WilkeChang:   wilkeChang,
	HaydukMinhas: haydukMinhas,
}

func wilkeChang(tk, mwow, mu, mvww float64) float64 {
	return 7.4e-12 * (tk * math.Sqrt(mwow)) / (mu * math.Pow(mvww, 0.6))
}

func haydukMinhas(tk, mwow, mu, mvww float64) float64 {
	return 13.3e-12 * (math.Pow(tk, 1.47) * math.Pow(mu, 10.2/mvww-0.791)) / math.Pow(mvww, 0.71)
}

// Diffusivity 按所选方法计算扩散系数
func Diffusivity(m DiffusionMethod, tk, mwow, mu, mvww float64) (float64, error) {
	f, ok := diffusionFuncs[m]
	if !ok {
		return 0, fmt.Errorf("diffusion method %v: %w", m, model.ErrConfiguration)
	}
	return f(tk, mwow, mu, mvww), nil
}
