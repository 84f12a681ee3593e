package calculator

import "waxloop/table"

// StepState 单次迭代的全部中间量，每次迭代重新生成；
// 只有 DeltaPrev 来自上一次迭代。内部单位为 SI
type StepState struct {
	Iteration int     // 从 1 开始
	Time      float64 // min
	Dt        float64 // s

	// 时间序列输入
	Tw   float64 // °C
	Dw   float64 // m
	DTdr float64 // K/m

	DeltaPrev float64 // m

	// 物性
	TwTab table.ResolvedIndex
	TwWax table.ResolvedIndex
	RhoO  float64 // 入口条件下的油密度, kg/m³
	RhoOW float64 // kg/m³
	MuOW  float64 // Pa.s
	MWww  float64 // g/mol
	MWow  float64 // g/mol
	MWgw  float64 // g/mol
	RhoWW float64 // kg/m³
	DCDT  float64

	// 壁面处油相的传热物性，TAB 文件同时给出比热和导热系数时才计算
	Cpow float64 // J/(kg.K)
	Kow  float64 // W/(m.K)
	Prow float64

	// 公式链
	Qo       float64 // m³/s
	Vo       float64 // m/s
	DelD     float64 // m
	Nsr      float64
	Reow     float64
	Fo       float64 // %
	Fw       float64
	Pi1      float64
	Pi2      float64
	MVww     float64 // cm³/mol
	Dow      float64 // m²/s
	DDeltaDt float64 // m/s
	Delta    float64 // m
}

// row 输出行，保留 5 位有效数字，长度单位换算为 mm
func (s *StepState) row() Row {
	r := Row{
		Time:     s.Time,
		Tw:       s.Tw,
		Dw:       s.Dw,
		DTdr:     s.DTdr,
		RhoO:     s.RhoO,
		Qo:       s.Qo,
		Vo:       s.Vo,
		DelD:     s.DelD * mToMM,
		RhoOW:    s.RhoOW,
		MuOW:     s.MuOW,
		Cpow:     s.Cpow,
		Kow:      s.Kow,
		Prow:     s.Prow,
		Reow:     s.Reow,
		Fo:       s.Fo,
		Fw:       s.Fw,
		Nsr:      s.Nsr,
		MWww:     s.MWww,
		MWow:     s.MWow,
		MWgw:     s.MWgw,
		RhoWW:    s.RhoWW,
		MVww:     s.MVww,
		Pi1:      s.Pi1,
		Pi2:      s.Pi2,
		Dow:      s.Dow,
		DCDT:     s.DCDT,
		DDeltaDt: s.DDeltaDt * mToMM,
		Delta:    s.Delta * mToMM,
	}
	return r.rounded(significantFigures)
}
