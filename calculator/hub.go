package calculator

import (
	"context"
	"sync"
)

// CalcHub 将计算过程中追加的每一行推送给消费者（例如 websocket 连接）
type CalcHub struct {
	rows chan Row
	once sync.Once
}

func NewCalcHub(buffer int) *CalcHub {
	if buffer < 0 {
		buffer = 0
	}
	return &CalcHub{rows: make(chan Row, buffer)}
}

func (ch *CalcHub) Rows() <-chan Row {
	return ch.rows
}

// PushRow 阻塞直到消费者取走或 ctx 结束
func (ch *CalcHub) PushRow(ctx context.Context, r Row) error {
	select {
	case ch.rows <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 由生产者在计算结束后调用，可重复调用
func (ch *CalcHub) Close() {
	ch.once.Do(func() {
		close(ch.rows)
	})
}
