package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
)

// TestConcurrentPongAndEventWrites mirrors the feed handler's goroutine
// layout: a reader goroutine answers pings while the main loop floods
// change events over the same connection. The underlying library allows
// only one writer at a time, so both paths must interleave through the
// wrapped connection without tripping it.
func TestConcurrentPongAndEventWrites(t *testing.T) {
	const events = 200

	upgrader := gorillaws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	serverErr := make(chan error, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			serverErr <- err
			return
		}
		conn := Wrap(raw)
		defer conn.Close()

		var once sync.Once
		firstPing := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				var req RequestEnvelope
				if err := conn.ReadJSON(&req); err != nil {
					return
				}
				if req.Action == ActionPing {
					once.Do(func() { close(firstPing) })
					if err := conn.WriteTyped(PongResponse{Event: EventPong}); err != nil {
						return
					}
				}
			}
		}()

		// Only start flooding once pings are in flight, so pong writes
		// and event writes genuinely overlap.
		select {
		case <-firstPing:
		case <-time.After(5 * time.Second):
			serverErr <- errors.New("no ping received")
			return
		}

		for i := 0; i < events; i++ {
			msg := LessonChangeMessage{Event: EventLessonChange, Data: json.RawMessage(`{}`)}
			if err := conn.WriteTyped(msg); err != nil {
				serverErr <- err
				return
			}
		}

		<-done
		serverErr <- nil
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	// Ping continuously for the whole exchange.
	stopPings := make(chan struct{})
	go func() {
		for {
			select {
			case <-stopPings:
				return
			default:
				if err := client.WriteJSON(RequestEnvelope{Action: ActionPing}); err != nil {
					return
				}
				time.Sleep(time.Millisecond)
			}
		}
	}()

	changes, pongs := 0, 0
	for changes < events {
		var msg struct {
			Event Event `json:"event"`
		}
		client.SetReadDeadline(time.Now().Add(10 * time.Second))
		if err := client.ReadJSON(&msg); err != nil {
			t.Fatalf("read after %d changes, %d pongs: %v", changes, pongs, err)
		}
		switch msg.Event {
		case EventLessonChange:
			changes++
		case EventPong:
			pongs++
		}
	}
	close(stopPings)
	client.Close()

	if err := <-serverErr; err != nil {
		t.Fatalf("server side failed: %v", err)
	}
	if changes != events {
		t.Errorf("received %d change events, want %d", changes, events)
	}
	if pongs == 0 {
		t.Error("no pongs interleaved with the event flood")
	}
}

func TestWriteError(t *testing.T) {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := Wrap(raw)
		defer conn.Close()
		conn.WriteError("no such lesson")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	var resp ErrorResponse
	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := client.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Event != EventError || resp.Error != "no such lesson" {
		t.Errorf("got %+v", resp)
	}
}
