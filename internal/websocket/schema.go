package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────
//
// The lesson feed is almost entirely server → client; the only client
// messages are keepalive pings.

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is the shape of every client message.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventLessonChange Event = "lesson_change"
	EventError        Event = "error"
	EventPong         Event = "pong"
)

// LessonChangeMessage wraps a lessons-table mutation notification. Data
// is the raw feed event JSON, forwarded untouched from the Pub/Sub
// channel — clients treat any event as "refetch your view".
type LessonChangeMessage struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
