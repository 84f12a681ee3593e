package calculator

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Tracer 逐次迭代记录每个公式的计算结果；公式说明只在第一次迭代写出
type Tracer struct {
	logger *logrus.Logger
	closer io.Closer
}

// 只输出消息本身
type traceFormatter struct{}

func (traceFormatter) Format(e *logrus.Entry) ([]byte, error) {
	return []byte(e.Message + "\n"), nil
}

func NewTracer(w io.Writer) *Tracer {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(traceFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return &Tracer{logger: logger}
}

// OpenTracer 以追加方式打开 path
func OpenTracer(path string) (*Tracer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	t := NewTracer(f)
	t.closer = f
	return t, nil
}

func (t *Tracer) Close() error {
	if t == nil || t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

// traceBlock 一次迭代的记录，结束时整体写出，多个计算共用一个 Tracer 时不会交错
type traceBlock struct {
	t *Tracer
	b strings.Builder
}

// iteration 开始一次迭代的记录，标题中带扩散系数方法
func (t *Tracer) iteration(p *Parameters, s *StepState) *traceBlock {
	if t == nil {
		return nil
	}
	b := &traceBlock{t: t}
	fmt.Fprintf(&b.b, "\nIteration no. %d \tTime %g min \tMethod %s", s.Iteration, s.Time, p.Method)
	return b
}

func (b *traceBlock) line(format string, args ...interface{}) {
	b.b.WriteString("\n")
	b.b.WriteString(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b *traceBlock) step(p *Parameters, s *StepState, step Step, value float64) {
	if b == nil {
		return
	}
	info := stepInfos[step]
	b.line("Calculating %s :", info.Symbol)
	if s.Iteration == 1 {
		if info.Description != "" {
			b.line("%s: %s", info.Symbol, info.Description)
		}
		if eq := step.equation(p); eq != "" {
			b.line("%s", eq)
		}
	}
	b.line("%s = %g %s", info.Symbol, value, info.Unit)
}

// flush 失败的迭代也写出已完成的步骤
func (b *traceBlock) flush() {
	if b == nil {
		return
	}
	b.t.logger.Info(b.b.String())
}
