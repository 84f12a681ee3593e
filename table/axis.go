package table

import (
	"fmt"
	"math"

	"waxloop/model"
)

// Axis 压力或温度网格点，下标从 1 开始，构造后不可修改
type Axis struct {
	values []float64
}

func NewAxis(values ...float64) Axis {
	v := make([]float64, len(values))
	copy(v, values)
	return Axis{values: v}
}

func (a Axis) Len() int {
	return len(a.values)
}

// At 返回第 i 个网格点 (1 <= i <= Len)
func (a Axis) At(i int) float64 {
	return a.values[i-1]
}

// Values 返回网格点的副本
func (a Axis) Values() []float64 {
	v := make([]float64, len(a.values))
	copy(v, a.values)
	return v
}

func (a Axis) Min() float64 {
	min := math.Inf(1)
	for _, v := range a.values {
		if v < min {
			min = v
		}
	}
	return min
}

func (a Axis) Max() float64 {
	max := math.Inf(-1)
	for _, v := range a.values {
		if v > max {
			max = v
		}
	}
	return max
}

// ResolvedIndex 物理值在网格上的位置
// Exact 为 true 时 Position 是整数下标；否则为两个整数下标之间的分数位置
type ResolvedIndex struct {
	Position float64
	Exact    bool
}

func ExactIndex(i int) ResolvedIndex {
	return ResolvedIndex{Position: float64(i), Exact: true}
}

func (r ResolvedIndex) Floor() int {
	return int(math.Floor(r.Position))
}

func (r ResolvedIndex) Ceil() int {
	return int(math.Ceil(r.Position))
}

// Fraction 分数位置的小数部分
func (r ResolvedIndex) Fraction() float64 {
	return r.Position - math.Floor(r.Position)
}

func (r ResolvedIndex) String() string {
	if r.Exact {
		return fmt.Sprintf("%d (exact)", int(r.Position))
	}
	return fmt.Sprintf("%.6g", r.Position)
}

// 超出网格范围时的处理方式
type OutOfRangePolicy int

const (
	Reject OutOfRangePolicy = iota // 返回 ErrConfiguration
	Clamp                          // 取最近的边界点
)

func ParseOutOfRangePolicy(s string) (OutOfRangePolicy, error) {
	switch s {
	case "reject", "":
		return Reject, nil
	case "clamp":
		return Clamp, nil
	}
	return Reject, fmt.Errorf("out of range policy %q: %w", s, model.ErrConfiguration)
}

func (p OutOfRangePolicy) String() string {
	if p == Clamp {
		return "clamp"
	}
	return "reject"
}

// Resolve 将物理值映射为网格下标
// 先找完全相等的点（取第一个）；否则分别找上界（值 >= 目标且差最小）和下界（值 <= 目标且差最小），
// 按线性关系求分数下标。
func Resolve(axis Axis, value float64, policy OutOfRangePolicy) (ResolvedIndex, error) {
	if axis.Len() == 0 {
		return ResolvedIndex{}, fmt.Errorf("resolve %g on empty axis: %w", value, model.ErrConfiguration)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ResolvedIndex{}, fmt.Errorf("resolve %g: %w", value, model.ErrNumericDomain)
	}

	for i := 1; i <= axis.Len(); i++ {
		if axis.At(i) == value {
			return ExactIndex(i), nil
		}
	}

	upper, lower := 0, 0
	upperGap, lowerGap := math.Inf(1), math.Inf(1)
	for i := 1; i <= axis.Len(); i++ {
		v := axis.At(i)
		// 上界取差值最小的最小下标
		if gap := v - value; gap > 0 && gap < upperGap {
			upper, upperGap = i, gap
		}
		// 下界取差值最小的最大下标，保证重复点时上下界相邻
		if gap := value - v; gap > 0 && gap <= lowerGap {
			lower, lowerGap = i, gap
		}
	}

	if upper == 0 || lower == 0 {
		if policy == Clamp {
			return clamp(axis, value), nil
		}
		return ResolvedIndex{}, fmt.Errorf("value %g outside axis range [%g, %g]: %w",
			value, axis.Min(), axis.Max(), model.ErrConfiguration)
	}

	position := (value-axis.At(lower))/(axis.At(upper)-axis.At(lower)) + float64(lower)
	return ResolvedIndex{Position: position, Exact: false}, nil
}

// 取最接近的网格点
func clamp(axis Axis, value float64) ResolvedIndex {
	best, bestGap := 1, math.Inf(1)
	for i := 1; i <= axis.Len(); i++ {
		if gap := math.Abs(axis.At(i) - value); gap < bestGap {
			best, bestGap = i, gap
		}
	}
	return ExactIndex(best)
}
