package table

import (
	"fmt"
	"math"

	"waxloop/model"
)

// DCDT 析蜡曲线在给定温度处的斜率
// cumulative 为各网格点累计蜡浓度（CompositionTable.Sums），feed 为进料中的总蜡浓度。
// 温度下标精确时取前后相邻两点（不超出 1..N），否则取所在区间的两个端点。
func DCDT(p, t ResolvedIndex, temps Axis, cumulative *PropertyTable, feed float64) (float64, error) {
	n := temps.Len()
	var lower, upper int
	if t.Exact {
		k := t.Floor()
		lower, upper = k-1, k+1
		if lower < 1 {
			lower = 1
		}
		if upper > n {
			upper = n
		}
	} else {
		lower, upper = t.Floor(), t.Ceil()
	}
	if lower < 1 || upper > n {
		return 0, fmt.Errorf("temperature neighbours (%d, %d) outside axis of %d points: %w",
			lower, upper, n, model.ErrConfiguration)
	}

	cLower, err := Property(p, ExactIndex(lower), cumulative)
	if err != nil {
		return 0, err
	}
	cUpper, err := Property(p, ExactIndex(upper), cumulative)
	if err != nil {
		return 0, err
	}

	dT := temps.At(lower) - temps.At(upper)
	if dT == 0 {
		return 0, fmt.Errorf("dC/dT between temperature points %d and %d with equal temperature: %w",
			lower, upper, model.ErrNumericDomain)
	}

	precipitatedLower := feed - cLower
	precipitatedUpper := feed - cUpper
	return math.Abs((precipitatedUpper - precipitatedLower) / dT), nil
}
