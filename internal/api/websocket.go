package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/phillipkujawa/wemo-controller/internal/events"
	"github.com/phillipkujawa/wemo-controller/internal/infrastructure/config"
	"github.com/phillipkujawa/wemo-controller/internal/infrastructure/logging"
)

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// handleWebSocket upgrades the connection and relays the event stream
// over it. The WebSocket surface carries the same events as /events in
// the same JSON envelope; it exists for clients that cannot hold an
// EventSource open (Stream Deck plugins, some embedded dashboards).
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		conn:   conn,
		sub:    s.broadcaster.Subscribe(),
		logger: s.logger,
	}
	s.logger.Debug("websocket client connected", "subscribers", s.broadcaster.SubscriberCount())

	go client.writePump(s.eventsCfg, s.broadcaster)
	go client.readPump(s.eventsCfg)
}

// wsClient is one connected WebSocket relay client.
type wsClient struct {
	conn   *websocket.Conn
	sub    *events.Subscription
	logger *logging.Logger
}

// writePump forwards broadcast events to the connection and pings it
// on the configured interval. It owns all writes; exiting closes the
// connection, which in turn stops the read pump.
func (c *wsClient) writePump(cfg config.EventsConfig, b *events.Broadcaster) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	writeWait := time.Duration(cfg.PongTimeout) * time.Second

	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		b.Unsubscribe(c.sub)
		c.conn.Close()
	}()

	if err := c.writeEvent(events.Event{
		Type: events.TypeConnected,
		Data: map[string]string{"message": "Connected to event stream"},
	}, writeWait); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-c.sub.C:
			if !ok {
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.writeEvent(ev, writeWait); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeEvent marshals one event and writes it as a text frame.
func (c *wsClient) writeEvent(ev events.Event, writeWait time.Duration) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	//nolint:errcheck // Best-effort deadline; write error caught below
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// readPump drains inbound frames to keep pong handling alive. The
// relay accepts no commands; anything the client sends is discarded.
func (c *wsClient) readPump(cfg config.EventsConfig) {
	defer c.conn.Close()

	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	c.conn.SetReadLimit(maxRequestBodySize)
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			} else {
				c.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		// Any client message resets the read deadline.
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	}
}
