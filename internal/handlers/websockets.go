package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"tilt_cover/internal/models"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10
	maxFrameSize    = 4 << 10
	defaultInterval = time.Second
	maxInterval     = 10 * time.Second
)

// wsEnvelope is the frame sent to stream clients.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// stateStream is one connected /ws client.
type stateStream struct {
	conn *websocket.Conn
}

func newStateStream(conn *websocket.Conn) *stateStream {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &stateStream{conn: conn}
}

// closed reads and discards client frames. The returned channel is closed
// once the client goes away or stops answering pings.
func (s *stateStream) closed() <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		for {
			if _, _, err := s.conn.NextReader(); err != nil {
				return
			}
		}
	}()
	return ch
}

func (s *stateStream) send(st models.CoverState) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(wsEnvelope{Type: "state", Data: st})
}

func (s *stateStream) ping() error {
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// wsConnect streams the cover state: once on connect, on every report from
// the controller, and at least every interval.
func (h *Handler) wsConnect(c *gin.Context) {
	interval := streamInterval(c)
	ctx := c.Request.Context()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	stream := newStateStream(conn)
	gone := stream.closed()

	var reports <-chan models.CoverState
	if h.services.StateFeed != nil {
		ch, unsub := h.services.StateFeed.Subscribe()
		defer unsub()
		reports = ch
	}

	snapshot := func() error {
		st, err := h.services.Monitoring.GetState(ctx)
		if err != nil {
			return err
		}
		return stream.send(st)
	}

	if err := snapshot(); err != nil {
		h.streamDropped("initial", err)
		return
	}

	refresh := time.NewTicker(interval)
	defer refresh.Stop()
	keepalive := time.NewTicker(pingPeriod)
	defer keepalive.Stop()

	for {
		var (
			stage string
			err   error
		)
		select {
		case <-gone:
			return
		case <-ctx.Done():
			return
		case st, ok := <-reports:
			if !ok {
				return
			}
			stage, err = "report", stream.send(st)
		case <-refresh.C:
			stage, err = "snapshot", snapshot()
		case <-keepalive.C:
			stage, err = "ping", stream.ping()
		}
		if err != nil {
			h.streamDropped(stage, err)
			return
		}
	}
}

func (h *Handler) streamDropped(stage string, err error) {
	if h.log != nil {
		h.log.Infow("ws_stream_closed", "stage", stage, "err", err)
	}
}

// streamInterval reads ?interval=2s, falling back to ?interval_ms=2000.
// Values outside (0, 10s] are ignored.
func streamInterval(c *gin.Context) time.Duration {
	if d, err := time.ParseDuration(c.Query("interval")); err == nil && d > 0 && d <= maxInterval {
		return d
	}
	if ms, err := strconv.Atoi(c.Query("interval_ms")); err == nil {
		if d := time.Duration(ms) * time.Millisecond; d > 0 && d <= maxInterval {
			return d
		}
	}
	return defaultInterval
}
