package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/undangan/internal/timefmt"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, slug string) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
		slug: slug,
	}
}

func receive(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got, true
	case <-time.After(50 * time.Millisecond):
		return Message{}, false
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "a")
	c2 := mockClient(hub, "b")
	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	// Should not panic
	hub.Unregister(c1)
	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastFiltersBySlug(t *testing.T) {
	hub := NewHub(slog.Default())

	same := mockClient(hub, "budi-ani")
	other := mockClient(hub, "rina-dodi")
	hub.Register(same)
	hub.Register(other)
	defer hub.Unregister(same)
	defer hub.Unregister(other)

	hub.Broadcast(RSVPChanged("budi-ani", ""))

	got, ok := receive(t, same)
	if !ok {
		t.Fatal("expected message for matching slug")
	}
	if got.Type != TypeRSVPChanged || got.Slug != "budi-ani" {
		t.Errorf("got %+v", got)
	}
	if _, ok := receive(t, other); ok {
		t.Error("client on another slug should not receive the message")
	}
}

func TestBroadcastSkipsOrigin(t *testing.T) {
	hub := NewHub(slog.Default())

	author := mockClient(hub, "budi-ani")
	author.session = "s-author"
	viewer := mockClient(hub, "budi-ani")
	viewer.session = "s-viewer"
	hub.Register(author)
	hub.Register(viewer)
	defer hub.Unregister(author)
	defer hub.Unregister(viewer)

	hub.Broadcast(RSVPChanged("budi-ani", "s-author"))

	if _, ok := receive(t, author); ok {
		t.Error("originating page should not be told to reload")
	}
	if _, ok := receive(t, viewer); !ok {
		t.Error("expected message for other viewer")
	}
}

func TestBroadcastEmptySlugReachesAll(t *testing.T) {
	hub := NewHub(slog.Default())
	a := mockClient(hub, "a")
	b := mockClient(hub, "b")
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(Message{Type: "reload"})

	for _, c := range []*Client{a, b} {
		if _, ok := receive(t, c); !ok {
			t.Error("expected message")
		}
	}
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "a")
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(RSVPChanged("a", ""))
	}
	// This should drop the message, not panic or block
	hub.Broadcast(RSVPChanged("a", ""))

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("expected %d buffered messages, got %d", sendBufferSize, got)
	}
	hub.Unregister(c)
}

func TestCountdownMessage(t *testing.T) {
	msg := CountdownMessage(timefmt.Remaining{Days: 1, Seconds: 5})
	if msg.Type != TypeCountdown || msg.Done {
		t.Errorf("got %+v", msg)
	}
	if msg.Remaining == nil || msg.Remaining.Days != 1 {
		t.Errorf("remaining = %+v", msg.Remaining)
	}
	if !CountdownMessage(timefmt.Remaining{}).Done {
		t.Error("zero remaining should be done")
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, "a")
			hub.Register(c)
			hub.Broadcast(RSVPChanged("a", ""))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestHandleWebSocketStreamsCountdown(t *testing.T) {
	hub := NewHub(slog.Default())
	target := time.Now().Add(48 * time.Hour)
	subject := func(r *http.Request) (Subject, bool) {
		if r.URL.Query().Get("s") != "ok" {
			return Subject{}, false
		}
		return Subject{Slug: "budi-ani", Target: target}, true
	}
	srv := httptest.NewServer(HandleWebSocket(hub, subject, nil, slog.Default()))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unknown session status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?s=ok"
	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeCountdown || msg.Remaining == nil {
		t.Fatalf("first message = %+v", msg)
	}
	if d := msg.Remaining.Days; d != 1 && d != 2 {
		t.Errorf("days = %d", d)
	}
}
