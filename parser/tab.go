package parser

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"waxloop/table"
)

// TAB 文件：50 x 50 压力/温度网格上的油相物性
const (
	TabPoints = 50

	tabValuesPerLine   = 5
	tabLinesPerBlock   = TabPoints / tabValuesPerLine
	tabPressureLine    = 2  // 第 3 行起 10 行为压力点
	tabTemperatureLine = 12 // 第 13 行起 10 行为温度点
)

// 物性标记
const (
	MarkerLiquidDensity      = "LIQUID DENSITY"
	MarkerLiquidViscosity    = "LIQUID VISCOSITY"
	MarkerLiquidHeatCapacity = "LIQUID HEAT CAPACITY"
	MarkerLiquidConductivity = "LIQUID THERMAL CONDUCTIVITY"
)

type TabData struct {
	Pressure    table.Axis // Pa
	Temperature table.Axis // °C

	Density      *table.PropertyTable // kg/m³
	Viscosity    *table.PropertyTable // Pa.s
	HeatCapacity *table.PropertyTable // 可选
	Conductivity *table.PropertyTable // 可选
}

type TabParser struct {
	text *textLines
}

func NewTabParser(name string, r io.Reader) (*TabParser, error) {
	text, err := readLines(name, r)
	if err != nil {
		return nil, err
	}
	return &TabParser{text: text}, nil
}

// ParseTabFile 读取并解析 TAB 文件
func ParseTabFile(path string) (*TabData, error) {
	text, err := openLines(path)
	if err != nil {
		return nil, err
	}
	return (&TabParser{text: text}).Parse()
}

func (p *TabParser) Parse() (*TabData, error) {
	pressure, err := p.axis(tabPressureLine)
	if err != nil {
		return nil, err
	}
	temperature, err := p.axis(tabTemperatureLine)
	if err != nil {
		return nil, err
	}

	data := &TabData{Pressure: pressure, Temperature: temperature}
	if data.Density, err = p.property(MarkerLiquidDensity, true); err != nil {
		return nil, err
	}
	if data.Viscosity, err = p.property(MarkerLiquidViscosity, true); err != nil {
		return nil, err
	}
	if data.HeatCapacity, err = p.property(MarkerLiquidHeatCapacity, false); err != nil {
		return nil, err
	}
	if data.Conductivity, err = p.property(MarkerLiquidConductivity, false); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"file":        p.text.name,
		"pressure":    fmt.Sprintf("[%g, %g]", pressure.Min(), pressure.Max()),
		"temperature": fmt.Sprintf("[%g, %g]", temperature.Min(), temperature.Max()),
	}).Debug("TAB 文件解析完成")
	return data, nil
}

func (p *TabParser) axis(start int) (table.Axis, error) {
	values, err := p.text.span(start, tabLinesPerBlock, tabValuesPerLine)
	if err != nil {
		return table.Axis{}, err
	}
	return table.NewAxis(values...), nil
}

// property 从标记行的下一行开始，每 10 行为一个压力点下的 50 个温度点
func (p *TabParser) property(marker string, required bool) (*table.PropertyTable, error) {
	found := p.text.find(marker)
	if len(found) == 0 {
		if !required {
			return nil, nil
		}
		return nil, &ParseError{File: p.text.name, Err: fmt.Errorf("marker %q not found", marker)}
	}

	start := found[0] + 1
	rows := make([][]float64, TabPoints)
	for i := range rows {
		row, err := p.text.span(start+i*tabLinesPerBlock, tabLinesPerBlock, tabValuesPerLine)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return table.NewPropertyTable(rows)
}
