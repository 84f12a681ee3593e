package calculator

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/ini.v1"

	"waxloop/model"
)

// Parameters 一次计算的用户参数，构造后不再修改
type Parameters struct {
	C1 float64
	C2 float64
	C3 float64

	Di  float64 // 管道初始内径, m
	Mo  float64 // 油质量流量, kg/s
	Pio float64 // 入口压力, Pa
	Toi float64 // 入口温度, °C

	Method DiffusionMethod
}

// 配置文件与请求中的参数名
const (
	keyC1        = "C1"
	keyC2        = "C2"
	keyC3        = "C3"
	keyDi        = "Di"
	keyMo        = "Mo"
	keyPio       = "Pio"
	keyToi       = "Toi"
	keyDowMethod = "DowMethod"
)

func (p Parameters) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{keyC1, p.C1}, {keyC2, p.C2}, {keyC3, p.C3},
		{keyDi, p.Di}, {keyMo, p.Mo}, {keyPio, p.Pio}, {keyToi, p.Toi},
	} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("parameter %s = %g: %w", v.name, v.value, model.ErrNumericDomain)
		}
	}
	if p.Di <= 0 {
		return fmt.Errorf("parameter %s = %g must be positive: %w", keyDi, p.Di, model.ErrConfiguration)
	}
	if p.Mo <= 0 {
		return fmt.Errorf("parameter %s = %g must be positive: %w", keyMo, p.Mo, model.ErrConfiguration)
	}
	if _, ok := diffusionFuncs[p.Method]; !ok {
		return fmt.Errorf("parameter %s: %v: %w", keyDowMethod, p.Method, model.ErrConfiguration)
	}
	return nil
}

// ParametersFromSection 读取 [simulation]，所有键都必须存在
func ParametersFromSection(sec *ini.Section) (Parameters, error) {
	var p Parameters
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{keyC1, &p.C1}, {keyC2, &p.C2}, {keyC3, &p.C3},
		{keyDi, &p.Di}, {keyMo, &p.Mo}, {keyPio, &p.Pio}, {keyToi, &p.Toi},
	} {
		if !sec.HasKey(f.key) {
			return Parameters{}, fmt.Errorf("[%s] %s: %w", sec.Name(), f.key, model.ErrMissingInput)
		}
		v, err := strconv.ParseFloat(sec.Key(f.key).String(), 64)
		if err != nil {
			return Parameters{}, fmt.Errorf("[%s] %s = %q: %w", sec.Name(), f.key, sec.Key(f.key).String(), model.ErrConfiguration)
		}
		*f.dst = v
	}
	if !sec.HasKey(keyDowMethod) {
		return Parameters{}, fmt.Errorf("[%s] %s: %w", sec.Name(), keyDowMethod, model.ErrMissingInput)
	}
	m, err := ParseDiffusionMethod(sec.Key(keyDowMethod).String())
	if err != nil {
		return Parameters{}, err
	}
	p.Method = m
	return p, p.Validate()
}

// ParametersFromRequest 请求中缺失的参数取 fallback；fallback 为 nil 时缺失即报错
func ParametersFromRequest(req model.RunRequest, fallback *Parameters) (Parameters, error) {
	var p Parameters
	if fallback != nil {
		p = *fallback
	}
	for _, f := range []struct {
		key string
		src *float64
		dst *float64
	}{
		{keyC1, req.C1, &p.C1}, {keyC2, req.C2, &p.C2}, {keyC3, req.C3, &p.C3},
		{keyDi, req.Di, &p.Di}, {keyMo, req.Mo, &p.Mo}, {keyPio, req.Pio, &p.Pio}, {keyToi, req.Toi, &p.Toi},
	} {
		switch {
		case f.src != nil:
			*f.dst = *f.src
		case fallback == nil:
			return Parameters{}, fmt.Errorf("request parameter %s: %w", f.key, model.ErrMissingInput)
		}
	}
	switch {
	case req.DowMethod != nil:
		m, err := ParseDiffusionMethod(*req.DowMethod)
		if err != nil {
			return Parameters{}, err
		}
		p.Method = m
	case fallback == nil:
		return Parameters{}, fmt.Errorf("request parameter %s: %w", keyDowMethod, model.ErrMissingInput)
	}
	return p, p.Validate()
}
