package server

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"waxloop/calculator"
	"waxloop/model"
)

type Server struct {
	addr     string
	dataDir  string
	upgrader websocket.Upgrader

	// 请求中缺省的参数取 defaults，为 nil 时请求必须给出全部参数
	defaults  *calculator.Parameters
	options   []calculator.Option
	rowBuffer int
}

// NewServer 请求中的文件路径都相对于 dataDir
func NewServer(addr, dataDir string, upgrader websocket.Upgrader, defaults *calculator.Parameters, rowBuffer int, opts ...calculator.Option) *Server {
	return &Server{
		addr:      addr,
		dataDir:   dataDir,
		upgrader:  upgrader,
		defaults:  defaults,
		options:   opts,
		rowBuffer: rowBuffer,
	}
}

// dataPath 把请求中的相对路径解析到 dataDir 下，绝对路径或越出 dataDir 的路径被拒绝
func (s *Server) dataPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty file name: %w", model.ErrMissingInput)
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("file %q is outside the data directory: %w", name, model.ErrConfiguration)
	}
	return filepath.Join(s.dataDir, name), nil
}

// CheckOrigins 返回 Upgrader.CheckOrigin；allowed 为空时为 nil，即只允许同源
func CheckOrigins(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	hub := NewHub(s, conn)
	defer hub.close()

	go hub.handleRequest()
	go hub.handleResponse()
	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("websocket read failed")
			}
			return
		}
		select {
		case hub.msg <- msg:
		case <-hub.ctx.Done():
			return
		}
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	return mux
}

func (s *Server) Serve() error {
	log.WithField("addr", s.addr).Info("websocket 服务启动")
	return http.ListenAndServe(s.addr, s.Handler())
}
