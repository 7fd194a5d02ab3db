package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/DriveDocs-Network/data_layer/client"
	"github.com/DriveDocs-Network/data_layer/sessionstore"
)

func TestSubscribeDeliversNotifications(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notifications/ws" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("auth=%q", r.Header.Get("Authorization"))
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		conn.WriteJSON(Notification{ID: 1, Category: "comments", Content: "new reply"})
		// Hold the connection open until the client closes it.
		conn.ReadMessage()
	}))
	defer srv.Close()

	sessions := client.NewSessionStore(sessionstore.NewMemoryStorage(), zerolog.Nop())
	if err := sessions.Save(context.Background(), client.Session{AccessToken: "tok"}); err != nil {
		t.Fatal(err)
	}

	stream := NewStream(srv.URL, sessions, zerolog.Nop())
	defer stream.Close()

	got := make(chan Notification, 1)
	if err := stream.Subscribe(context.Background(), func(n Notification) { got <- n }); err != nil {
		t.Fatalf("Subscribe() err = %v", err)
	}

	select {
	case n := <-got:
		if n.ID != 1 || n.Category != "comments" {
			t.Fatalf("notification = %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never arrived")
	}
}

func TestSubscribeWithoutSession(t *testing.T) {
	sessions := client.NewSessionStore(sessionstore.NewMemoryStorage(), zerolog.Nop())
	stream := NewStream("http://127.0.0.1:0", sessions, zerolog.Nop())

	err := stream.Subscribe(context.Background(), func(Notification) {})
	if !client.IsType(err, client.ErrTypeNoSession) {
		t.Fatalf("err = %v, want %s", err, client.ErrTypeNoSession)
	}
}
