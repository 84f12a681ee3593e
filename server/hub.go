package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"waxloop/calculator"
	"waxloop/model"
)

// Hub 对应一个 websocket 连接；同一时刻最多一个计算
type Hub struct {
	s    *Server
	conn *websocket.Conn
	// request
	msg chan model.Msg
	// response，只由 handleResponse 写入连接
	send chan model.Msg

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	stopRun context.CancelFunc
}

type startedContent struct {
	Method string `json:"method"`
	Points int    `json:"points"`
}

type doneContent struct {
	Rows  int     `json:"rows"`
	Delta float64 `json:"delta"` // mm
}

func NewHub(s *Server, conn *websocket.Conn) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		s:      s,
		conn:   conn,
		msg:    make(chan model.Msg, 10),
		send:   make(chan model.Msg, 10),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (h *Hub) close() {
	h.cancel()
	h.conn.Close()
}

func (h *Hub) handleResponse() {
	for {
		select {
		case reply := <-h.send:
			if err := h.conn.WriteJSON(&reply); err != nil {
				log.WithError(err).Warn("websocket write failed")
				h.cancel()
				return
			}
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) handleRequest() {
	for {
		select {
		case msg := <-h.msg:
			switch msg.Type {
			case model.MsgStart:
				h.start(msg)
			case model.MsgStop:
				h.stop()
			default:
				h.reply(model.MsgError, fmt.Sprintf("no such type %q", msg.Type))
			}
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) reply(typ, content string) {
	select {
	case h.send <- model.Msg{Type: typ, Content: content}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) replyJSON(typ string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.reply(model.MsgError, err.Error())
		return
	}
	h.reply(typ, string(data))
}

func (h *Hub) start(msg model.Msg) {
	h.mu.Lock()
	running := h.running
	h.mu.Unlock()
	if running {
		h.reply(model.MsgError, "a run is already in progress")
		return
	}

	var req model.RunRequest
	if err := json.Unmarshal([]byte(msg.Content), &req); err != nil {
		h.reply(model.MsgError, fmt.Sprintf("bad start request: %v", err))
		return
	}
	params, err := calculator.ParametersFromRequest(req, h.s.defaults)
	if err != nil {
		h.reply(model.MsgError, err.Error())
		return
	}
	var paths [3]string
	for i, name := range []string{req.TabFile, req.WaxFile, req.InputsFile} {
		if paths[i], err = h.s.dataPath(name); err != nil {
			h.reply(model.MsgError, err.Error())
			return
		}
	}
	inputs, err := calculator.LoadInputs(paths[0], paths[1], paths[2])
	if err != nil {
		h.reply(model.MsgError, err.Error())
		return
	}
	calcHub := calculator.NewCalcHub(h.s.rowBuffer)
	opts := append(append([]calculator.Option{}, h.s.options...), calculator.WithCalcHub(calcHub))
	c, err := calculator.NewCalculator(params, inputs, opts...)
	if err != nil {
		h.reply(model.MsgError, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(h.ctx)
	h.mu.Lock()
	h.running, h.stopRun = true, cancel
	h.mu.Unlock()
	h.replyJSON(model.MsgStarted, startedContent{
		Method: params.Method.String(),
		Points: len(inputs.Series),
	})

	// row 消息在 done 之前都是临时的，error 或 stopped 时客户端丢弃
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for row := range calcHub.Rows() {
			h.replyJSON(model.MsgRow, row)
		}
	}()
	go func() {
		tbl, err := c.Run(ctx)
		calcHub.Close()
		<-forwarded
		h.finish(tbl, err)
		cancel()
	}()
}

func (h *Hub) finish(tbl *calculator.Table, err error) {
	h.mu.Lock()
	h.running, h.stopRun = false, nil
	h.mu.Unlock()

	switch {
	case err != nil && calculator.IsCanceled(err):
		h.reply(model.MsgStopped, err.Error())
	case err != nil:
		log.WithError(err).Warn("计算失败")
		h.reply(model.MsgError, err.Error())
	default:
		last, _ := tbl.Last()
		h.replyJSON(model.MsgDone, doneContent{Rows: tbl.Len(), Delta: last.Delta})
	}
}

// stop 在两次迭代之间中止当前计算，由 finish 回复 stopped
func (h *Hub) stop() {
	h.mu.Lock()
	stopRun := h.stopRun
	h.mu.Unlock()
	if stopRun == nil {
		h.reply(model.MsgStopped, "not running")
		return
	}
	stopRun()
}
