package calculator

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waxloop/model"
	"waxloop/parser"
	"waxloop/parser/parsertest"
	"waxloop/table"
)

func testParameters() Parameters {
	return Parameters{
		C1:     15,
		C2:     0.055,
		C3:     1.4,
		Di:     0.045,
		Mo:     0.50369,
		Pio:    101325,
		Toi:    46,
		Method: WilkeChang,
	}
}

func testInputs(t *testing.T, series parsertest.Series) Inputs {
	t.Helper()
	tp, err := parser.NewTabParser("test.tab", strings.NewReader(parsertest.DefaultTab().Text()))
	require.NoError(t, err)
	tab, err := tp.Parse()
	require.NoError(t, err)

	wp, err := parser.NewWaxParser("test.wax", strings.NewReader(parsertest.DefaultWax().Text()))
	require.NoError(t, err)
	wax, err := wp.Parse()
	require.NoError(t, err)

	s, err := parser.ReadSeriesCSV("inputs.csv", strings.NewReader(series.CSV()))
	require.NoError(t, err)
	return Inputs{Tab: tab, Wax: wax, Series: s}
}

func newTestCalculator(t *testing.T, p Parameters, opts ...Option) *Calculator {
	t.Helper()
	c, err := NewCalculator(p, testInputs(t, parsertest.DefaultSeries()), opts...)
	require.NoError(t, err)
	return c
}

func TestStepTableComplete(t *testing.T) {
	for s := Step(0); s < stepCount; s++ {
		assert.NotNil(t, steps[s], "step %d", s)
		assert.NotEmpty(t, stepInfos[s].Symbol, "step %d", s)
	}
	assert.Equal(t, "Vo", StepVelocity.String())
	assert.Equal(t, "δ", StepThickness.String())
	assert.Equal(t, "Step(12)", stepCount.String())
	for m := range diffusionFuncs {
		assert.NotEmpty(t, diffusionEquations[m], "%v", m)
	}
}

func TestRun(t *testing.T) {
	c := newTestCalculator(t, testParameters())
	assert.Equal(t, Initializing, c.State())

	tbl, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Done, c.State())

	fixture := parsertest.DefaultSeries()
	rows := tbl.Rows()
	require.Len(t, rows, len(fixture.Times))

	first := rows[0]
	assert.Equal(t, 0.0, first.Time)
	assert.Equal(t, 44.0, first.Tw)
	// ρo = 850 - 0.6*46 + 1e-6*101325
	assert.InEpsilon(t, 822.50, first.RhoO, 1e-4)
	assert.InEpsilon(t, 850-0.6*44+1e-6*101325, first.RhoOW, 1e-4)
	assert.InEpsilon(t, 0.005-0.00004*44, first.MuOW, 1e-4)
	assert.InEpsilon(t, 400/0.9, first.MVww, 1e-4)
	assert.InEpsilon(t, 0.047*0.8/60, first.DCDT, 1e-4)
	assert.InEpsilon(t, 1-first.Fo/100, first.Fw, 1e-3)
	assert.InEpsilon(t, 0.5*(0.045-0.0446)*1000, first.DelD, 1e-3)

	// 第一行 δ = dδ/dt * Δt，Δt 取 10 min
	assert.InEpsilon(t, first.DDeltaDt*600, first.Delta, 1e-3)
	assert.Greater(t, first.DDeltaDt, 0.0)

	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i].Delta, rows[i-1].Delta, "row %d", i)
		assert.GreaterOrEqual(t, rows[i].Time, rows[i-1].Time, "row %d", i)
	}
}

func TestRunReportsGasMWAndPrandtl(t *testing.T) {
	tbl, err := newTestCalculator(t, testParameters()).Run(context.Background())
	require.NoError(t, err)
	first := tbl.Rows()[0]
	assert.Equal(t, 18.5, first.MWgw)
	// 默认 TAB 文件没有比热和导热系数
	assert.Zero(t, first.Cpow)
	assert.Zero(t, first.Prow)

	fixture := parsertest.DefaultTab()
	fixture.HeatCapacity = func(p, t float64) float64 { return 2000 + 4*t }
	fixture.Conductivity = func(p, t float64) float64 { return 0.14 }
	tp, err := parser.NewTabParser("test.tab", strings.NewReader(fixture.Text()))
	require.NoError(t, err)
	inputs := testInputs(t, parsertest.DefaultSeries())
	inputs.Tab, err = tp.Parse()
	require.NoError(t, err)

	c, err := NewCalculator(testParameters(), inputs)
	require.NoError(t, err)
	tbl, err = c.Run(context.Background())
	require.NoError(t, err)
	first = tbl.Rows()[0]
	assert.InEpsilon(t, 2000+4*44, first.Cpow, 1e-6)
	assert.InEpsilon(t, 0.14, first.Kow, 1e-6)
	assert.InEpsilon(t, (0.005-0.00004*44)*(2000+4*44)/0.14, first.Prow, 1e-3)

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	for i, h := range records[0] {
		switch h {
		case "MWgw (g/mol)":
			assert.Equal(t, "18.5", records[1][i])
		case "Prow":
			assert.Equal(t, strconv.FormatFloat(first.Prow, 'g', -1, 64), records[1][i])
		}
	}
}

func TestRunIdempotent(t *testing.T) {
	c := newTestCalculator(t, testParameters())
	first, err := c.Run(context.Background())
	require.NoError(t, err)
	second, err := c.Run(context.Background())
	require.NoError(t, err)

	// 第二次计算从 δ = 0 重新开始
	if diff := pretty.Compare(first.Rows(), second.Rows()); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestRunHaydukMinhas(t *testing.T) {
	p := testParameters()
	p.Method = HaydukMinhas
	tbl, err := newTestCalculator(t, p).Run(context.Background())
	require.NoError(t, err)

	wc, err := newTestCalculator(t, testParameters()).Run(context.Background())
	require.NoError(t, err)

	a, _ := tbl.Last()
	b, _ := wc.Last()
	assert.NotEqual(t, a.Dow, b.Dow)
	assert.Equal(t, a.Vo, b.Vo)
}

func TestRunVariableInterval(t *testing.T) {
	series := parsertest.DefaultSeries()
	series.Times = []float64{0, 5, 20}
	tbl, err := newTestCalculatorWith(t, testParameters(), series).Run(context.Background())
	require.NoError(t, err)
	rows := tbl.Rows()
	require.Len(t, rows, 3)

	assert.InEpsilon(t, rows[0].DDeltaDt*300, rows[0].Delta, 1e-3)
	assert.InEpsilon(t, rows[2].DDeltaDt*900, rows[2].Delta-rows[1].Delta, 1e-3)
}

func newTestCalculatorWith(t *testing.T, p Parameters, series parsertest.Series, opts ...Option) *Calculator {
	t.Helper()
	c, err := NewCalculator(p, testInputs(t, series), opts...)
	require.NoError(t, err)
	return c
}

func TestRunNumericDomain(t *testing.T) {
	p := testParameters()
	// dw > di，δd 为负，Nsr^1.4 无定义
	p.Di = 0.04
	tbl, err := newTestCalculator(t, p).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, tbl)
	assert.ErrorIs(t, err, model.ErrNumericDomain)

	var ie *IterationError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, ie.Iteration)
	assert.Equal(t, 0.0, ie.Time)
	assert.Contains(t, err.Error(), "π2")
}

func TestRunOutOfRange(t *testing.T) {
	series := parsertest.DefaultSeries()
	series.Tw = func(time float64) float64 { return 40 + time }

	_, err := newTestCalculatorWith(t, testParameters(), series).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConfiguration)
	var ie *IterationError
	require.ErrorAs(t, err, &ie)
	// 70 °C 超出 WAX 温度范围 10..68
	assert.Equal(t, 4, ie.Iteration)

	// Clamp 下超出范围的温度取边界点
	tbl, err := newTestCalculatorWith(t, testParameters(), series,
		WithOutOfRangePolicy(table.Clamp)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(series.Times), tbl.Len())
}

func TestRunClamp(t *testing.T) {
	series := parsertest.DefaultSeries()
	series.Tw = func(time float64) float64 { return 69 }
	tbl, err := newTestCalculatorWith(t, testParameters(), series,
		WithOutOfRangePolicy(table.Clamp)).Run(context.Background())
	require.NoError(t, err)
	last, _ := tbl.Last()
	// 取 WAX 的边界温度点 68 °C
	assert.InEpsilon(t, 0.047*0.8/60, last.DCDT, 1e-4)
}

func TestRunCanceled(t *testing.T) {
	c := newTestCalculator(t, testParameters())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tbl, err := c.Run(ctx)
	assert.Nil(t, tbl)
	assert.True(t, IsCanceled(err))
	var ie *IterationError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, ie.Iteration)
	assert.Equal(t, Done, c.State())
}

func TestRunWithHub(t *testing.T) {
	hub := NewCalcHub(0)
	c := newTestCalculator(t, testParameters(), WithCalcHub(hub))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := c.Run(ctx)
		hub.Close()
		done <- err
	}()

	var got []Row
	for r := range hub.Rows() {
		got = append(got, r)
		if len(got) == 3 {
			cancel()
			break
		}
	}
	err := <-done
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
	assert.Len(t, got, 3)
	assert.Equal(t, 20.0, got[2].Time)
}

func TestNewCalculatorErrors(t *testing.T) {
	inputs := testInputs(t, parsertest.DefaultSeries())

	_, err := NewCalculator(testParameters(), Inputs{Wax: inputs.Wax, Series: inputs.Series})
	assert.ErrorIs(t, err, model.ErrMissingInput)

	_, err = NewCalculator(testParameters(), Inputs{Tab: inputs.Tab, Wax: inputs.Wax, Series: inputs.Series[:1]})
	assert.ErrorIs(t, err, model.ErrMissingInput)

	p := testParameters()
	p.Pio = 5e6
	_, err = NewCalculator(p, inputs)
	assert.ErrorIs(t, err, model.ErrConfiguration)
	assert.Contains(t, err.Error(), "Pio")

	p = testParameters()
	p.Method = 0
	_, err = NewCalculator(p, inputs)
	assert.ErrorIs(t, err, model.ErrConfiguration)

	p = testParameters()
	p.Mo = math.NaN()
	_, err = NewCalculator(p, inputs)
	assert.ErrorIs(t, err, model.ErrNumericDomain)
}

func TestTracer(t *testing.T) {
	var buf bytes.Buffer
	series := parsertest.DefaultSeries()
	series.Times = []float64{0, 10, 20}
	_, err := newTestCalculatorWith(t, testParameters(), series, WithTracer(NewTracer(&buf))).
		Run(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "Iteration no."))
	assert.Contains(t, out, "Iteration no. 2 \tTime 10 min \tMethod Wilke-Chang\nCalculating Vo :")
	assert.Equal(t, 3, strings.Count(out, "Calculating Vo :"))
	// 说明与公式只写一次
	assert.Equal(t, 1, strings.Count(out, "Vo: Velocity of oil"))
	assert.Equal(t, 1, strings.Count(out, diffusionEquations[WilkeChang]))
	assert.Equal(t, 3, strings.Count(out, "Calculating δ :"))
}

func TestIterationErrorUnwrap(t *testing.T) {
	err := error(&IterationError{Iteration: 2, Time: 10, Err: model.ErrNumericDomain})
	assert.True(t, errors.Is(err, model.ErrNumericDomain))
	assert.Equal(t, "iteration 2 (time 10 min): numeric domain error", err.Error())
}
