package table

import (
	"fmt"

	"waxloop/model"
)

// PropertyTable 物性二维表，外层为压力下标，内层为温度下标，均从 1 开始
type PropertyTable struct {
	rows [][]float64
}

// NewPropertyTable 按 rows[p-1][t-1] 构造，每一行长度必须相同
func NewPropertyTable(rows [][]float64) (*PropertyTable, error) {
	t := &PropertyTable{rows: make([][]float64, len(rows))}
	for i, row := range rows {
		if len(row) != len(rows[0]) {
			return nil, fmt.Errorf("property row %d has %d temperature points, want %d: %w",
				i+1, len(row), len(rows[0]), model.ErrFileFormat)
		}
		t.rows[i] = append([]float64(nil), row...)
	}
	return t, nil
}

// Size 压力点数、温度点数
func (t *PropertyTable) Size() (int, int) {
	if len(t.rows) == 0 {
		return 0, 0
	}
	return len(t.rows), len(t.rows[0])
}

// At 直接查表
func (t *PropertyTable) At(p, temp int) float64 {
	return t.rows[p-1][temp-1]
}

func (t *PropertyTable) check(p, temp int) error {
	np, nt := t.Size()
	if p < 1 || p > np || temp < 1 || temp > nt {
		return fmt.Errorf("grid point (%d, %d) outside %dx%d table: %w", p, temp, np, nt, model.ErrConfiguration)
	}
	return nil
}

// Property 根据压力、温度下标取物性值
// 两个都精确：直接查表；一个精确：一维线性插值；都不精确：四个角点双线性插值
func Property(p, t ResolvedIndex, tbl *PropertyTable) (float64, error) {
	p0, p1 := p.Floor(), p.Ceil()
	t0, t1 := t.Floor(), t.Ceil()
	if p.Exact {
		p1 = p0
	}
	if t.Exact {
		t1 = t0
	}
	for _, idx := range [][2]int{{p0, t0}, {p1, t1}} {
		if err := tbl.check(idx[0], idx[1]); err != nil {
			return 0, err
		}
	}

	switch {
	case p.Exact && t.Exact:
		return tbl.At(p0, t0), nil
	case p.Exact:
		return lerp(tbl.At(p0, t0), tbl.At(p0, t1), t.Fraction()), nil
	case t.Exact:
		return lerp(tbl.At(p0, t0), tbl.At(p1, t0), p.Fraction()), nil
	}

	fp, ft := p.Fraction(), t.Fraction()
	return (1-fp)*(1-ft)*tbl.At(p0, t0) +
		(1-fp)*ft*tbl.At(p0, t1) +
		fp*(1-ft)*tbl.At(p1, t0) +
		fp*ft*tbl.At(p1, t1), nil
}

func lerp(lower, upper, fraction float64) float64 {
	return lower + fraction*(upper-lower)
}

// CompositionTable 每个网格点上各蜡组分浓度
type CompositionTable struct {
	cells [][][]float64
}

func NewCompositionTable(cells [][][]float64) (*CompositionTable, error) {
	c := &CompositionTable{cells: make([][][]float64, len(cells))}
	for i, row := range cells {
		if len(row) != len(cells[0]) {
			return nil, fmt.Errorf("composition row %d has %d temperature points, want %d: %w",
				i+1, len(row), len(cells[0]), model.ErrFileFormat)
		}
		c.cells[i] = make([][]float64, len(row))
		for j, v := range row {
			c.cells[i][j] = append([]float64(nil), v...)
		}
	}
	return c, nil
}

// At 返回组分浓度的副本
func (c *CompositionTable) At(p, temp int) []float64 {
	return append([]float64(nil), c.cells[p-1][temp-1]...)
}

// Sums 各网格点的累计蜡浓度
func (c *CompositionTable) Sums() *PropertyTable {
	rows := make([][]float64, len(c.cells))
	for i, row := range c.cells {
		rows[i] = make([]float64, len(row))
		for j, v := range row {
			rows[i][j] = Sum(v)
		}
	}
	return &PropertyTable{rows: rows}
}

func Sum(values []float64) float64 {
	s := 0.0
	for _, v := range values {
		s += v
	}
	return s
}
