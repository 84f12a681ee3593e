package calculator

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waxloop/model"
	"waxloop/parser/parsertest"
)

func TestExecutor(t *testing.T) {
	inputs := testInputs(t, parsertest.DefaultSeries())

	wc := testParameters()
	hm := testParameters()
	hm.Method = HaydukMinhas
	bad := testParameters()
	bad.Di = -1

	jobs := []Job{
		{Name: "wilke-chang", Params: wc},
		{Name: "hayduk-minhas", Params: hm},
		{Name: "bad", Params: bad},
		{Name: "wilke-chang-again", Params: wc},
	}
	results := NewExecutor(2, inputs).Run(context.Background(), jobs)
	require.Len(t, results, len(jobs))

	for i, r := range results {
		assert.Equal(t, jobs[i].Name, r.Job.Name)
	}
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)
	assert.ErrorIs(t, results[2].Err, model.ErrConfiguration)
	assert.Nil(t, results[2].Table)
	require.NoError(t, results[3].Err)

	// 并行计算与单独计算结果一致
	single, err := newTestCalculator(t, wc).Run(context.Background())
	require.NoError(t, err)
	if diff := pretty.Compare(single.Rows(), results[0].Table.Rows()); diff != "" {
		t.Errorf("executor result differs (-single +executor):\n%s", diff)
	}
	if diff := pretty.Compare(results[0].Table.Rows(), results[3].Table.Rows()); diff != "" {
		t.Errorf("repeated job differs:\n%s", diff)
	}
}

func TestExecutorCanceled(t *testing.T) {
	inputs := testInputs(t, parsertest.DefaultSeries())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewExecutor(0, inputs).Run(ctx, []Job{{Name: "a", Params: testParameters()}})
	require.Len(t, results, 1)
	assert.True(t, IsCanceled(results[0].Err))
}

func TestExecutorSharedTracer(t *testing.T) {
	series := parsertest.DefaultSeries()
	series.Times = []float64{0, 10, 20}
	inputs := testInputs(t, series)

	wc := testParameters()
	hm := testParameters()
	hm.Method = HaydukMinhas

	var buf bytes.Buffer
	results := NewExecutor(2, inputs, WithTracer(NewTracer(&buf))).Run(context.Background(), []Job{
		{Name: "wilke-chang", Params: wc},
		{Name: "hayduk-minhas", Params: hm},
	})
	for _, r := range results {
		require.NoError(t, r.Err)
	}

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\tMethod Wilke-Chang\n"))
	assert.Equal(t, 3, strings.Count(out, "\tMethod Hayduk-Minhas\n"))

	// 每次迭代的记录完整且连续
	blocks := strings.Split(out, "\nIteration no. ")[1:]
	require.Len(t, blocks, 6)
	for _, b := range blocks {
		assert.Equal(t, 1, strings.Count(b, "\tMethod "), b)
		assert.Equal(t, int(stepCount), strings.Count(b, "Calculating "), b)
	}
}
