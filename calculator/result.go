package calculator

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"waxloop/model"
)

const significantFigures = 5

// Row 输出表中的一行；δd 与 δ 为 mm，dδ/dt 为 mm/s，时间为 min。
// TAB 文件没有比热或导热系数时 Cpow、Kow、Prow 为 0
type Row struct {
	Time     float64 `json:"time"`
	Tw       float64 `json:"tw"`
	Dw       float64 `json:"dw"`
	DTdr     float64 `json:"dt_dr"`
	RhoO     float64 `json:"rho_o"`
	Qo       float64 `json:"qo"`
	Vo       float64 `json:"vo"`
	DelD     float64 `json:"del_d"`
	RhoOW    float64 `json:"rho_ow"`
	MuOW     float64 `json:"mu_ow"`
	Cpow     float64 `json:"cp_ow"`
	Kow      float64 `json:"k_ow"`
	Prow     float64 `json:"pr_ow"`
	Reow     float64 `json:"reow"`
	Fo       float64 `json:"fo"`
	Fw       float64 `json:"fw"`
	Nsr      float64 `json:"nsr"`
	MWww     float64 `json:"mw_ww"`
	MWow     float64 `json:"mw_ow"`
	MWgw     float64 `json:"mw_gw"`
	RhoWW    float64 `json:"rho_ww"`
	MVww     float64 `json:"mv_ww"`
	Pi1      float64 `json:"pi1"`
	Pi2      float64 `json:"pi2"`
	Dow      float64 `json:"dow"`
	DCDT     float64 `json:"dc_dt"`
	DDeltaDt float64 `json:"ddelta_dt"`
	Delta    float64 `json:"delta"`
}

// Column 输出列的符号和单位
type Column struct {
	Symbol string
	Unit   string
}

func (c Column) String() string {
	if c.Unit == "" {
		return c.Symbol
	}
	return c.Symbol + " (" + c.Unit + ")"
}

// Columns 与 Row.Values 一一对应
var Columns = []Column{
	{"Time", "min"},
	{"Tw", "°C"},
	{"dw", "m"},
	{"dT/dr", "K/m"},
	{"ρo", "kg/m³"},
	{"Qo", "m³/s"},
	{"Vo", "m/s"},
	{"δd", "mm"},
	{"ρow", "kg/m³"},
	{"μow", "Pa.s"},
	{"Cpow", "J/kg.K"},
	{"kow", "W/m.K"},
	{"Prow", ""},
	{"Reow", ""},
	{"Fo", "%"},
	{"Fw", "Frac."},
	{"Nsr", ""},
	{"MWww", "g/mol"},
	{"MWow", "g/mol"},
	{"MWgw", "g/mol"},
	{"ρww", "kg/m³"},
	{"MVww", "cm³/mol"},
	{"π1", ""},
	{"π2", ""},
	{"Dow", "m²/s"},
	{"dC/dT", ""},
	{"dδ/dt", "mm/s"},
	{"δ", "mm"},
}

func (r Row) Values() []float64 {
	return []float64{
		r.Time, r.Tw, r.Dw, r.DTdr, r.RhoO, r.Qo, r.Vo, r.DelD,
		r.RhoOW, r.MuOW, r.Cpow, r.Kow, r.Prow, r.Reow, r.Fo, r.Fw, r.Nsr,
		r.MWww, r.MWow, r.MWgw, r.RhoWW, r.MVww, r.Pi1, r.Pi2, r.Dow, r.DCDT, r.DDeltaDt, r.Delta,
	}
}

func (r Row) rounded(sig int) Row {
	fields := []*float64{
		&r.Time, &r.Tw, &r.Dw, &r.DTdr, &r.RhoO, &r.Qo, &r.Vo, &r.DelD,
		&r.RhoOW, &r.MuOW, &r.Cpow, &r.Kow, &r.Prow, &r.Reow, &r.Fo, &r.Fw, &r.Nsr,
		&r.MWww, &r.MWow, &r.MWgw, &r.RhoWW, &r.MVww, &r.Pi1, &r.Pi2, &r.Dow, &r.DCDT, &r.DDeltaDt, &r.Delta,
	}
	for _, f := range fields {
		*f = roundSig(*f, sig)
	}
	return r
}

// roundSig 保留 sig 位有效数字
func roundSig(x float64, sig int) float64 {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'g', sig, 64), 64)
	if err != nil {
		return x
	}
	return v
}

// Table 按时间顺序追加的输出表
type Table struct {
	rows []Row
}

func (t *Table) add(r Row) {
	t.rows = append(t.rows, r)
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.rows))
	copy(rows, t.rows)
	return rows
}

func (t *Table) Last() (Row, bool) {
	if len(t.rows) == 0 {
		return Row{}, false
	}
	return t.rows[len(t.rows)-1], true
}

func (t *Table) Header() []string {
	header := make([]string, len(Columns))
	for i, c := range Columns {
		header[i] = c.String()
	}
	return header
}

func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return err
	}
	for _, r := range t.rows {
		values := r.Values()
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const outputSheet = "Outputs"

func (t *Table) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), outputSheet); err != nil {
		return err
	}
	header := make([]interface{}, len(Columns))
	for i, h := range t.Header() {
		header[i] = h
	}
	if err := f.SetSheetRow(outputSheet, "A1", &header); err != nil {
		return err
	}
	for n, r := range t.rows {
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		values := r.Values()
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		if err := f.SetSheetRow(outputSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// Save 按扩展名写出 .csv 或 .xlsx
func (t *Table) Save(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := t.WriteCSV(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".xlsx":
		return t.WriteXLSX(path)
	}
	return fmt.Errorf("output %s: unsupported extension %q: %w", path, filepath.Ext(path), model.ErrConfiguration)
}
