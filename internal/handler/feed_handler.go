package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/daonlabs/hagwon-backend/internal/config"
	"github.com/daonlabs/hagwon-backend/internal/websocket"
)

// FeedHandler streams lessons-table change events over WebSocket. Each
// connection holds its own Pub/Sub subscription, released when the client
// disconnects.
type FeedHandler struct {
	rdb      *redis.Client
	upgrader gorillaws.Upgrader
	log      zerolog.Logger
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		rdb:      rdb,
		upgrader: buildUpgrader(cfg.AllowedOrigins),
		log:      log.With().Str("component", "feed_handler").Logger(),
	}
}

// Stream handles GET /ws/v1/lessons/feed. It subscribes to the lesson
// feed channel and forwards every event to the client until the
// connection closes. The wrapped connection serializes writes, since the
// reader goroutine answers pings while this loop forwards events.
func (h *FeedHandler) Stream(c *gin.Context) {
	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := websocket.Wrap(raw)
	defer conn.Close()

	ctx := c.Request.Context()
	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.LessonFeedChannel())
	defer pubsub.Close()

	h.log.Debug().Str("remote", conn.RemoteAddr()).Msg("Feed subscriber connected")

	// Reader goroutine: consumes client pings and detects disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var req websocket.RequestEnvelope
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Action == websocket.ActionPing {
				if err := conn.WriteTyped(websocket.PongResponse{Event: websocket.EventPong}); err != nil {
					return
				}
			}
		}
	}()

	ch := pubsub.Channel()
	for {
		select {
		case <-done:
			h.log.Debug().Msg("Feed subscriber disconnected")
			return
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			payload := websocket.LessonChangeMessage{
				Event: websocket.EventLessonChange,
				Data:  json.RawMessage(msg.Payload),
			}
			if err := conn.WriteTyped(payload); err != nil {
				h.log.Debug().Err(err).Msg("Feed write failed, closing")
				return
			}
		}
	}
}

// buildUpgrader constructs the WebSocket upgrader with an origin check
// matching the configured CORS origins. "*" allows everything.
func buildUpgrader(allowedOrigins []string) gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}
