package parser

import (
	"fmt"
	"io"
	"math"

	log "github.com/sirupsen/logrus"

	"waxloop/table"
)

// WAX 文件：30 x 30 压力/温度网格上的蜡相物性，以及与网格无关的组分数据
const (
	WaxPoints     = 30
	WaxComponents = 47

	MarkerPressurePoint = "!Pressure Point No."

	waxTemperatureOffset = 3 // 段首 + 3 + 9j 为第 j 个温度点
	waxDataOffset        = 4 // 段首 + 4 + 9j 起 8 行为该点的数据
	waxPointStride       = 9
	waxDataLines         = 8

	// 数据块内的位置
	waxDensityIndex  = 47
	waxGasMWIndex    = 48
	waxLiquidMWIndex = 49
	waxMWIndex       = 50
	waxMinValues     = waxMWIndex + 1
)

// 组分数据所在行（从 0 开始，左闭右开）
var (
	waxComponentMWLines      = [2]int{13, 18}
	waxComponentDensityLines = [2]int{19, 24}
	waxFeedLines             = [2]int{31, 39}
)

type WaxData struct {
	Pressure    table.Axis // Pa
	Temperature table.Axis // °C

	Concentration *table.CompositionTable // 各组分在液相中的浓度
	WaxDensity    *table.PropertyTable    // kg/m³
	GasMW         *table.PropertyTable    // g/mol
	LiquidMW      *table.PropertyTable    // g/mol
	WaxMW         *table.PropertyTable    // g/mol

	ComponentMW      []float64 // g/mol
	ComponentDensity []float64 // kg/m³
	Feed             []float64 // 进料中各组分浓度, mol/mol
}

// FeedConcentration 进料中的总蜡浓度
func (d *WaxData) FeedConcentration() float64 {
	return table.Sum(d.Feed)
}

type WaxParser struct {
	text *textLines
}

func NewWaxParser(name string, r io.Reader) (*WaxParser, error) {
	text, err := readLines(name, r)
	if err != nil {
		return nil, err
	}
	return &WaxParser{text: text}, nil
}

// ParseWaxFile 读取并解析 WAX 文件
func ParseWaxFile(path string) (*WaxData, error) {
	text, err := openLines(path)
	if err != nil {
		return nil, err
	}
	return (&WaxParser{text: text}).Parse()
}

func (p *WaxParser) Parse() (*WaxData, error) {
	segments := p.text.find(MarkerPressurePoint)
	if len(segments) != WaxPoints {
		return nil, &ParseError{File: p.text.name,
			Err: fmt.Errorf("found %d %q segments, want %d", len(segments), MarkerPressurePoint, WaxPoints)}
	}

	pressures := make([]float64, WaxPoints)
	temperatures := make([]float64, WaxPoints)
	for i, seg := range segments {
		v, err := p.text.single(seg + 1)
		if err != nil {
			return nil, err
		}
		pressures[i] = v
	}
	for j := range temperatures {
		v, err := p.text.single(segments[0] + waxTemperatureOffset + waxPointStride*j)
		if err != nil {
			return nil, err
		}
		temperatures[j] = v
	}

	concs := make([][][]float64, WaxPoints)
	density := make([][]float64, WaxPoints)
	gasMW := make([][]float64, WaxPoints)
	liquidMW := make([][]float64, WaxPoints)
	waxMW := make([][]float64, WaxPoints)
	for i, seg := range segments {
		concs[i] = make([][]float64, WaxPoints)
		density[i] = make([]float64, WaxPoints)
		gasMW[i] = make([]float64, WaxPoints)
		liquidMW[i] = make([]float64, WaxPoints)
		waxMW[i] = make([]float64, WaxPoints)
		for j := 0; j < WaxPoints; j++ {
			start := seg + waxDataOffset + waxPointStride*j
			values, err := p.text.span(start, waxDataLines, 0)
			if err != nil {
				return nil, err
			}
			if len(values) < waxMinValues {
				return nil, p.text.errorf(start, "pressure point %d temperature point %d has %d values, want at least %d",
					i+1, j+1, len(values), waxMinValues)
			}
			concs[i][j] = values[:WaxComponents]
			density[i][j] = values[waxDensityIndex]
			gasMW[i][j] = values[waxGasMWIndex]
			liquidMW[i][j] = values[waxLiquidMWIndex]
			waxMW[i][j] = values[waxMWIndex]
		}
	}

	data := &WaxData{
		Pressure:    table.NewAxis(pressures...),
		Temperature: table.NewAxis(temperatures...),
	}
	var err error
	if data.Concentration, err = table.NewCompositionTable(concs); err != nil {
		return nil, err
	}
	if data.WaxDensity, err = table.NewPropertyTable(density); err != nil {
		return nil, err
	}
	if data.GasMW, err = table.NewPropertyTable(gasMW); err != nil {
		return nil, err
	}
	if data.LiquidMW, err = table.NewPropertyTable(liquidMW); err != nil {
		return nil, err
	}
	if data.WaxMW, err = table.NewPropertyTable(waxMW); err != nil {
		return nil, err
	}

	if data.ComponentMW, err = p.components(waxComponentMWLines); err != nil {
		return nil, err
	}
	if data.ComponentDensity, err = p.components(waxComponentDensityLines); err != nil {
		return nil, err
	}
	if data.Feed, err = p.components(waxFeedLines); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"file":             p.text.name,
		"components":       len(data.Feed),
		"feed":             data.FeedConcentration(),
		"componentMW":      valueRange(data.ComponentMW),
		"componentDensity": valueRange(data.ComponentDensity),
	}).Debug("WAX 文件解析完成")
	return data, nil
}

func (p *WaxParser) components(lines [2]int) ([]float64, error) {
	values, err := p.text.span(lines[0], lines[1]-lines[0], 0)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, p.text.errorf(lines[0], "no component values in lines %d-%d", lines[0]+1, lines[1])
	}
	return values, nil
}

func valueRange(values []float64) string {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return fmt.Sprintf("[%g, %g]", lo, hi)
}
