package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/caffeineduck/cwsplay/playground"
	"github.com/caffeineduck/cwsplay/transcript"
)

const writeWait = 10 * time.Second

var (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// socketMessage is sent to the page. A run produces one clear, then one
// line per transcript entry, then done.
type socketMessage struct {
	Type       string `json:"type"`
	Channel    string `json:"channel,omitempty"`
	Text       string `json:"text,omitempty"`
	Executed   bool   `json:"executed,omitempty"`
	Failed     bool   `json:"failed,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// socketWriter serializes writes; gorilla connections allow one writer.
type socketWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *socketWriter) send(msg any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(msg)
}

func (w *socketWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

// handleRunSocket keeps one transcript per connection and streams it to the
// page as runs append to it.
func (s *Server) handleRunSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s.metrics.sockets.Inc()
	defer s.metrics.sockets.Dec()

	conn.SetReadLimit(maxSourceBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	out := &socketWriter{conn: conn}
	ctl, editor := s.controller("", "")

	cancel := ctl.Transcript().Observe(transcript.ObserverFuncs{
		OnClear: func() {
			_ = out.send(socketMessage{Type: "clear"})
		},
		OnAppend: func(e transcript.Entry) {
			_ = out.send(socketMessage{Type: "line", Channel: e.Channel.String(), Text: e.Text})
		},
	})
	defer cancel()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	requests := make(chan runRequest)
	go func() {
		defer stop()
		for {
			var req runRequest
			if err := conn.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.WithError(err).Warn("WebSocket read error")
				}
				return
			}
			select {
			case requests <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Pings go out while a run holds the loop below.
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := out.ping(); err != nil {
					s.log.WithError(err).Debug("WebSocket ping error")
					stop()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case req := <-requests:
			editor.SetValue(req.Source, playground.CursorEnd)
			stats := ctl.Run(ctx)
			s.metrics.observeRun(stats)
			msg := socketMessage{
				Type:       "done",
				Executed:   stats.Executed,
				Failed:     stats.Failed,
				DurationMS: stats.Duration.Milliseconds(),
			}
			if err := out.send(msg); err != nil {
				return
			}
		case <-ctx.Done():
			s.log.Debug("WebSocket client disconnected")
			return
		}
	}
}
