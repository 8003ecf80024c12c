// 包 session：地图会话的 WebSocket 传输层，每个连接一个控制器与一个事件循环
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"carte-elus/internal/geo"
	"carte-elus/internal/logger"
	"carte-elus/internal/mapview"
	"carte-elus/internal/metrics"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 20 * time.Second
	writeTimeout = 5 * time.Second
	maxMessage   = 4 << 10
)

// Source 为数据持有者（*atlas.Atlas 实现）
type Source interface {
	Subscribe() (<-chan mapview.Event, func())
	Layers() []*geo.Layer
}

// Handler 将 HTTP 请求升级为地图会话
type Handler struct {
	src           Source
	newController func() *mapview.Controller
	upgrader      websocket.Upgrader
}

func NewHandler(src Source, newController func() *mapview.Controller) *Handler {
	return &Handler{
		src:           src,
		newController: newController,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 << 10,
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Debug("ws_upgrade_error", "err", err)
		return
	}
	s := &Session{conn: conn, ctrl: h.newController()}
	s.Run(r.Context(), h.src, r.UserAgent())
}

// 文档注释：单个地图会话
// 背景：客户端消息与数据加载通知在同一个循环里按到达顺序派发给控制器，控制器无需加锁。
// 约束：只有 Run 所在协程写连接；读协程只负责解码并投递事件。
type Session struct {
	conn *websocket.Conn
	ctrl *mapview.Controller
}

type inbound struct {
	ev  mapview.Event
	err error
}

// Run 运行会话直到连接断开或 ctx 取消
func (s *Session) Run(ctx context.Context, src Source, userAgent string) {
	l := logger.L()
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()
	defer s.conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	notices, unsubscribe := src.Subscribe()
	defer unsubscribe()

	if err := s.dispatch(mapview.Connected{UserAgent: userAgent}); err != nil {
		return
	}
	for _, layer := range src.Layers() {
		if err := s.dispatch(mapview.LayerLoaded{Layer: layer}); err != nil {
			return
		}
	}

	in := make(chan inbound)
	go s.readLoop(ctx, in)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	l.Debug("session_open", "ua", userAgent)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-in:
			if msg.err != nil {
				l.Debug("session_closed", "err", msg.err)
				return
			}
			if err := s.dispatch(msg.ev); err != nil {
				return
			}
		case ev, ok := <-notices:
			if !ok {
				return
			}
			if err := s.dispatch(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout)); err != nil {
				l.Debug("session_ping_error", "err", err)
				return
			}
		}
	}
}

func (s *Session) readLoop(ctx context.Context, in chan<- inbound) {
	s.conn.SetReadLimit(maxMessage)
	s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case in <- inbound{err: err}:
			case <-ctx.Done():
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		ev, err := mapview.DecodeEvent(msg)
		if err != nil {
			// 畸形消息忽略，不断开会话
			logger.L().Debug("session_bad_message", "err", err)
			continue
		}
		select {
		case in <- inbound{ev: ev}:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) dispatch(ev mapview.Event) error {
	metrics.SessionEventsTotal.WithLabelValues(ev.EventName()).Inc()
	for _, cmd := range s.ctrl.Dispatch(ev) {
		b, err := mapview.EncodeCommand(cmd)
		if err != nil {
			logger.L().Error("session_encode_error", "command", cmd.CommandName(), "err", err)
			continue
		}
		s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			logger.L().Debug("session_write_error", "err", err)
			return err
		}
	}
	return nil
}
