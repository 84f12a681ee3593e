package calculator

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Job 批量计算中的一次独立计算
type Job struct {
	Name    string
	Params  Parameters
	Options []Option
}

type Result struct {
	Job     Job
	Table   *Table
	Err     error
	Elapsed time.Duration
}

type task struct {
	index int
	job   Job
}

// Executor 多个 worker 从 dispatchChan 领取任务；各任务拥有自己的 Calculator 与输出表，
// 共享只读的输入数据
type Executor struct {
	workers int
	inputs  Inputs
	options []Option
}

func NewExecutor(workers int, inputs Inputs, opts ...Option) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{workers: workers, inputs: inputs, options: opts}
}

// Run 返回的结果与 jobs 顺序一致；单个任务失败不影响其他任务
func (e *Executor) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	dispatchChan := make(chan task, len(jobs))
	for i, job := range jobs {
		dispatchChan <- task{index: i, job: job}
	}
	close(dispatchChan)

	workers := e.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for t := range dispatchChan {
				results[t.index] = e.execute(ctx, t.job)
				log.WithFields(log.Fields{
					"worker":  i,
					"job":     t.job.Name,
					"elapsed": results[t.index].Elapsed,
					"err":     results[t.index].Err,
				}).Debug("任务完成")
			}
		}(i)
	}
	wg.Wait()
	return results
}

func (e *Executor) execute(ctx context.Context, job Job) Result {
	start := time.Now()
	opts := append(append([]Option{}, e.options...), job.Options...)
	c, err := NewCalculator(job.Params, e.inputs, opts...)
	if err != nil {
		return Result{Job: job, Err: err, Elapsed: time.Since(start)}
	}
	tbl, err := c.Run(ctx)
	return Result{Job: job, Table: tbl, Err: err, Elapsed: time.Since(start)}
}
