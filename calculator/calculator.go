package calculator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"waxloop/model"
	"waxloop/parser"
	"waxloop/table"
)

// Inputs 解析后的输入，只读，可在多个 Calculator 之间共享
type Inputs struct {
	Tab    *parser.TabData
	Wax    *parser.WaxData
	Series parser.Series
}

// LoadInputs 读取 TAB、WAX 与时间序列文件
func LoadInputs(tabPath, waxPath, seriesPath string) (Inputs, error) {
	start := time.Now()
	tab, err := parser.ParseTabFile(tabPath)
	if err != nil {
		return Inputs{}, err
	}
	wax, err := parser.ParseWaxFile(waxPath)
	if err != nil {
		return Inputs{}, err
	}
	series, err := parser.ReadSeries(seriesPath)
	if err != nil {
		return Inputs{}, err
	}
	log.WithFields(log.Fields{
		"tab":     tabPath,
		"wax":     waxPath,
		"inputs":  seriesPath,
		"points":  len(series),
		"elapsed": time.Since(start),
	}).Info("输入文件读取完成")
	return Inputs{Tab: tab, Wax: wax, Series: series}, nil
}

func (in Inputs) check() error {
	switch {
	case in.Tab == nil:
		return fmt.Errorf("TAB data: %w", model.ErrMissingInput)
	case in.Wax == nil:
		return fmt.Errorf("WAX data: %w", model.ErrMissingInput)
	case len(in.Series) < 2:
		return fmt.Errorf("time series needs at least 2 points, got %d: %w", len(in.Series), model.ErrMissingInput)
	}
	return nil
}

type State int32

const (
	Initializing State = iota
	Iterating
	Done
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case Iterating:
		return "Iterating"
	case Done:
		return "Done"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// IterationError 计算失败时附带迭代序号（从 1 开始）与时间
type IterationError struct {
	Iteration int
	Time      float64 // min
	Err       error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("iteration %d (time %g min): %v", e.Iteration, e.Time, e.Err)
}

func (e *IterationError) Unwrap() error {
	return e.Err
}

type Option func(*Calculator)

func WithOutOfRangePolicy(p table.OutOfRangePolicy) Option {
	return func(c *Calculator) {
		c.policy = p
	}
}

func WithTracer(t *Tracer) Option {
	return func(c *Calculator) {
		c.tracer = t
	}
}

// WithCalcHub 每追加一行即推送到 hub；hub 由调用方关闭
func WithCalcHub(h *CalcHub) Option {
	return func(c *Calculator) {
		c.hub = h
	}
}

// Calculator 蜡沉积计算，一次 Run 顺序遍历整个时间序列
type Calculator struct {
	params Parameters
	inputs Inputs
	policy table.OutOfRangePolicy
	tracer *Tracer
	hub    *CalcHub

	// 初始化阶段确定，迭代中只读
	pioTab     table.ResolvedIndex
	pioWax     table.ResolvedIndex
	toiTab     table.ResolvedIndex
	rhoO       float64
	feed       float64
	cumulative *table.PropertyTable

	state atomic.Int32
}

func NewCalculator(params Parameters, inputs Inputs, opts ...Option) (*Calculator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := inputs.check(); err != nil {
		return nil, err
	}
	c := &Calculator{params: params, inputs: inputs}
	for _, opt := range opts {
		opt(c)
	}

	var err error
	if c.pioTab, err = table.Resolve(inputs.Tab.Pressure, params.Pio, c.policy); err != nil {
		return nil, fmt.Errorf("Pio on TAB pressure axis: %w", err)
	}
	if c.pioWax, err = table.Resolve(inputs.Wax.Pressure, params.Pio, c.policy); err != nil {
		return nil, fmt.Errorf("Pio on WAX pressure axis: %w", err)
	}
	if c.toiTab, err = table.Resolve(inputs.Tab.Temperature, params.Toi, c.policy); err != nil {
		return nil, fmt.Errorf("Toi on TAB temperature axis: %w", err)
	}
	if c.rhoO, err = table.Property(c.pioTab, c.toiTab, inputs.Tab.Density); err != nil {
		return nil, fmt.Errorf("ρo: %w", err)
	}
	c.feed = inputs.Wax.FeedConcentration()
	c.cumulative = inputs.Wax.Concentration.Sums()

	log.WithFields(log.Fields{
		"method": params.Method,
		"pioTab": c.pioTab,
		"pioWax": c.pioWax,
		"toiTab": c.toiTab,
		"rhoO":   c.rhoO,
		"feed":   c.feed,
	}).Info("初始化计算参数")
	return c, nil
}

func (c *Calculator) State() State {
	return State(c.state.Load())
}

func (c *Calculator) Parameters() Parameters {
	return c.params
}

// Run 从 δ(t-1) = 0 开始遍历时间序列；失败时不返回部分结果
func (c *Calculator) Run(ctx context.Context) (*Table, error) {
	c.state.Store(int32(Iterating))
	defer c.state.Store(int32(Done))

	start := time.Now()
	result := &Table{}
	delta := 0.0
	for k, sample := range c.inputs.Series {
		if err := ctx.Err(); err != nil {
			return nil, &IterationError{Iteration: k + 1, Time: sample.Time, Err: err}
		}
		s, err := c.iterate(k, delta)
		if err != nil {
			return nil, &IterationError{Iteration: k + 1, Time: sample.Time, Err: err}
		}
		row := s.row()
		result.add(row)
		if c.hub != nil {
			if err := c.hub.PushRow(ctx, row); err != nil {
				return nil, &IterationError{Iteration: k + 1, Time: sample.Time, Err: err}
			}
		}
		delta = s.Delta
	}

	last, _ := result.Last()
	log.WithFields(log.Fields{
		"method":  c.params.Method,
		"rows":    result.Len(),
		"delta":   last.Delta,
		"elapsed": time.Since(start),
	}).Info("计算完成")
	return result, nil
}

// interval 第 k 行的时间步长, s；第一行取序列的第一个间隔
func (c *Calculator) interval(k int) float64 {
	series := c.inputs.Series
	if k == 0 {
		return (series[1].Time - series[0].Time) * minToS
	}
	return (series[k].Time - series[k-1].Time) * minToS
}

func (c *Calculator) iterate(k int, deltaPrev float64) (*StepState, error) {
	sample := c.inputs.Series[k]
	s := &StepState{
		Iteration: k + 1,
		Time:      sample.Time,
		Dt:        c.interval(k),
		Tw:        sample.Tw,
		Dw:        sample.Dw * mmToM,
		DTdr:      sample.DTdr,
		DeltaPrev: deltaPrev,
		RhoO:      c.rhoO,
	}
	trace := c.tracer.iteration(&c.params, s)
	defer trace.flush()

	tab, wax := c.inputs.Tab, c.inputs.Wax
	var err error
	if s.TwTab, err = table.Resolve(tab.Temperature, s.Tw, c.policy); err != nil {
		return nil, fmt.Errorf("Tw on TAB temperature axis: %w", err)
	}
	if s.TwWax, err = table.Resolve(wax.Temperature, s.Tw, c.policy); err != nil {
		return nil, fmt.Errorf("Tw on WAX temperature axis: %w", err)
	}

	for _, l := range []struct {
		name string
		dst  *float64
		p, t table.ResolvedIndex
		tbl  *table.PropertyTable
	}{
		{"ρow", &s.RhoOW, c.pioTab, s.TwTab, tab.Density},
		{"μow", &s.MuOW, c.pioTab, s.TwTab, tab.Viscosity},
		{"MWww", &s.MWww, c.pioWax, s.TwWax, wax.WaxMW},
		{"MWow", &s.MWow, c.pioWax, s.TwWax, wax.LiquidMW},
		{"MWgw", &s.MWgw, c.pioWax, s.TwWax, wax.GasMW},
		{"ρww", &s.RhoWW, c.pioWax, s.TwWax, wax.WaxDensity},
	} {
		if *l.dst, err = table.Property(l.p, l.t, l.tbl); err != nil {
			return nil, fmt.Errorf("%s: %w", l.name, err)
		}
	}
	if err := c.prandtl(s); err != nil {
		return nil, err
	}
	if s.DCDT, err = table.DCDT(c.pioWax, s.TwWax, wax.Temperature, c.cumulative, c.feed); err != nil {
		return nil, fmt.Errorf("dC/dT: %w", err)
	}

	for step := Step(0); step < stepCount; step++ {
		v, err := steps[step](&c.params, s)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", step, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%v = %g: %w", step, v, model.ErrNumericDomain)
		}
		trace.step(&c.params, s, step, v)
	}
	return s, nil
}

// prandtl 壁面处油相的 Prandtl 数 Pr = μow·Cpow/kow；缺少比热或导热系数时跳过
func (c *Calculator) prandtl(s *StepState) error {
	tab := c.inputs.Tab
	if tab.HeatCapacity == nil || tab.Conductivity == nil {
		return nil
	}
	var err error
	if s.Cpow, err = table.Property(c.pioTab, s.TwTab, tab.HeatCapacity); err != nil {
		return fmt.Errorf("Cpow: %w", err)
	}
	if s.Kow, err = table.Property(c.pioTab, s.TwTab, tab.Conductivity); err != nil {
		return fmt.Errorf("kow: %w", err)
	}
	s.Prow = s.MuOW * s.Cpow / s.Kow
	if math.IsNaN(s.Prow) || math.IsInf(s.Prow, 0) {
		return fmt.Errorf("Prow = %g: %w", s.Prow, model.ErrNumericDomain)
	}
	return nil
}

// IsCanceled 判断计算是否因 ctx 结束而中止
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
