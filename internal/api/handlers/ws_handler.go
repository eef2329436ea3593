package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/cartpilot/cartpilot/internal/events"
)

// WSHandler bridges a client's room subscriptions (Redis Pub/Sub) onto a
// websocket. Admin clients additionally receive the shared dashboard room.
type WSHandler struct {
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(rdb *redis.Client) *WSHandler {
	return &WSHandler{
		redis: rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *WSHandler) AssistantWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	channels := []string{events.Channel(events.UserRoom(userID))}
	if role, _ := c.Get("role"); role == "admin" {
		channels = append(channels, events.Channel(events.AdminRoom))
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, channels...)
	defer pubsub.Close()

	// reader: only to detect disconnect and keep the connection alive
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		}
	}()

	// writer: Redis Pub/Sub -> WS; envelopes are forwarded as-is
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}
}
