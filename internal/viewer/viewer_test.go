package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
)

type fakeReader struct {
	mu       sync.Mutex
	messages []kafka.Message
	errs     []error
	closed   bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		f.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(f.messages) > 0 {
		m := f.messages[0]
		f.messages = f.messages[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func dial(t *testing.T, srv *httptest.Server, hub *Hub) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestConsume_RelaysToClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv, hub)
	defer conn.Close()

	reader := &fakeReader{
		errs: []error{errors.New("leader not available")},
		messages: []kafka.Message{
			{Value: []byte("not json")},
			{Value: []byte(`{"eventType":"assistant.transcript.delta","sessionId":"s-1","text":"Hi"}`)},
		},
	}
	go Consume(ctx, hub, "assistant.transcript.delta", reader, time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Topic != "assistant.transcript.delta" {
		t.Errorf("unexpected topic %q", env.Topic)
	}
	var ev map[string]string
	if err := json.Unmarshal(env.Event, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev["sessionId"] != "s-1" || ev["text"] != "Hi" {
		t.Errorf("unexpected event %v", ev)
	}
}

func TestConsume_StopsAndClosesReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	reader := &fakeReader{}
	done := make(chan struct{})
	go func() {
		Consume(ctx, hub, "t", reader, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not return after cancel")
	}
	if !reader.closed {
		t.Error("expected reader closed")
	}
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv, hub)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewReader_UnreachableBrokerStillReturnsReader(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r := NewReader(ctx, []string{"127.0.0.1:1"}, "nirmana.message", time.Minute)
	if r == nil {
		t.Fatal("expected a reader even when seeking fails")
	}
	defer r.Close()

	if got := r.Config().Topic; got != "nirmana.message" {
		t.Errorf("expected topic nirmana.message, got %s", got)
	}
	if got := r.Config().Partition; got != 0 {
		t.Errorf("expected partition 0, got %d", got)
	}
}
