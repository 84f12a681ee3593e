package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"waxloop/model"
)

// 时间序列输入的列名
const (
	ColumnTw   = "Tw"    // 管壁/油蜡界面温度, °C
	ColumnDw   = "dw"    // 有效管径, mm
	ColumnDTdr = "dT/dr" // 径向温度梯度, K/m
)

// Sample 某一时刻的输入
type Sample struct {
	Time float64 // min
	Tw   float64
	Dw   float64
	DTdr float64
}

// Series 按时间升序排列的输入
type Series []Sample

// ReadSeries 按扩展名读取 .csv 或 .xlsx
func ReadSeries(path string) (Series, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadSeriesCSV(path, f)
	case ".xlsx":
		return readSeriesXLSX(path)
	}
	return nil, fmt.Errorf("time series %s: unsupported extension %q: %w",
		path, filepath.Ext(path), model.ErrConfiguration)
}

func ReadSeriesCSV(name string, r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	return seriesFromRecords(name, records)
}

func readSeriesXLSX(path string) (Series, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{File: path, Err: fmt.Errorf("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{File: path, Err: err}
	}
	return seriesFromRecords(path, rows)
}

// 第一行为表头，第一列为时间；紧随表头的单位行（首格非数值）跳过
func seriesFromRecords(name string, records [][]string) (Series, error) {
	if len(records) == 0 {
		return nil, &ParseError{File: name, Err: fmt.Errorf("empty time series")}
	}

	header := records[0]
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	idx := [3]int{}
	for k, c := range []string{ColumnTw, ColumnDw, ColumnDTdr} {
		i, ok := cols[c]
		if !ok || i == 0 {
			return nil, fmt.Errorf("%s: column %q: %w", name, c, model.ErrMissingInput)
		}
		idx[k] = i
	}

	body := records[1:]
	start := 2
	if len(body) > 0 && len(body[0]) > 0 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(body[0][0]), 64); err != nil {
			body = body[1:]
			start++
		}
	}

	series := make(Series, 0, len(body))
	for n, rec := range body {
		line := start + n
		if blank(rec) {
			continue
		}
		var v [4]float64
		for k, i := range [4]int{0, idx[0], idx[1], idx[2]} {
			if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				return nil, &ParseError{File: name, Line: line,
					Err: fmt.Errorf("column %q is empty", strings.TrimSpace(header[i]))}
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, &ParseError{File: name, Line: line,
					Err: fmt.Errorf("column %q: %q is not a number", strings.TrimSpace(header[i]), rec[i])}
			}
			v[k] = f
		}
		s := Sample{Time: v[0], Tw: v[1], Dw: v[2], DTdr: v[3]}
		if len(series) > 0 && s.Time < series[len(series)-1].Time {
			return nil, &ParseError{File: name, Line: line,
				Err: fmt.Errorf("time %g is before previous time %g", s.Time, series[len(series)-1].Time)}
		}
		series = append(series, s)
	}

	if len(series) < 2 {
		return nil, fmt.Errorf("%s: need at least 2 time points, got %d: %w", name, len(series), model.ErrMissingInput)
	}
	return series, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
