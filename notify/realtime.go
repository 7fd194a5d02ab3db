package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/DriveDocs-Network/data_layer/client"
)

// Notification is a server-pushed user notification.
type Notification struct {
	ID       int64     `json:"id"`
	Category string    `json:"category"`
	Date     time.Time `json:"date"`
	Content  string    `json:"content"`
	Read     bool      `json:"read"`
	Image    *string   `json:"image"`
}

// Handler receives notifications as they arrive.
type Handler func(Notification)

// Stream subscribes to the notification websocket. One subscription per
// stream; Close terminates it.
type Stream struct {
	url      string
	sessions *client.SessionStore
	dialer   *websocket.Dialer
	log      zerolog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewStream creates a notification stream against the API base URL.
func NewStream(apiURL string, sessions *client.SessionStore, log zerolog.Logger) *Stream {
	wsURL := strings.TrimSuffix(apiURL, "/")
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)

	return &Stream{
		url:      wsURL + "/notifications/ws",
		sessions: sessions,
		dialer:   websocket.DefaultDialer,
		log:      log,
	}
}

// Subscribe connects with the current bearer credentials and delivers
// notifications to handler until Close is called or the connection drops.
// It fails with a no_session error when logged out.
func (s *Stream) Subscribe(ctx context.Context, handler Handler) error {
	token, ok := s.sessions.AccessToken()
	if !ok {
		return client.NoSessionError()
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("notification stream dial (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("notification stream dial: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return fmt.Errorf("notification stream is closed")
	}
	s.conn = conn
	s.mu.Unlock()

	go s.readLoop(conn, handler)
	return nil
}

func (s *Stream) readLoop(conn *websocket.Conn, handler Handler) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				s.log.Warn().Err(err).Msg("notification stream closed")
			}
			return
		}

		var n Notification
		if err := json.Unmarshal(data, &n); err != nil {
			s.log.Warn().Err(err).Msg("discarding malformed notification")
			continue
		}
		handler(n)
	}
}

// Close terminates the subscription.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	s.conn = nil
	return err
}
