package events

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"launchpad-ledger/internal/domain"
)

// SubscriberConfig configures a Subscriber.
type SubscriberConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the exponential backoff.
	MaxReconnectDelay time.Duration
	// ReadTimeout must exceed the hub's ping interval.
	ReadTimeout time.Duration
	// Buffer is the capacity of the events channel.
	Buffer int
}

// DefaultSubscriberConfig returns the default subscriber configuration.
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       90 * time.Second,
		Buffer:            1024,
	}
}

// Subscriber streams events from a hub, reconnecting with exponential
// backoff when the connection drops.
type Subscriber struct {
	endpoint string
	config   SubscriberConfig
	logger   *zap.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	events chan *domain.Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// Subscribe connects to the hub at endpoint (ws://host/ws/events). A
// non-empty mint limits the stream to that token.
func Subscribe(ctx context.Context, endpoint, mint string, config *SubscriberConfig, logger *zap.Logger) (*Subscriber, error) {
	cfg := DefaultSubscriberConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if mint != "" {
		q := u.Query()
		q.Set("mint", mint)
		u.RawQuery = q.Encode()
	}

	s := &Subscriber{
		endpoint: u.String(),
		config:   cfg,
		logger:   logger,
		events:   make(chan *domain.Event, cfg.Buffer),
		done:     make(chan struct{}),
	}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()
	return s, nil
}

// Events returns the stream. It is closed by Close.
func (s *Subscriber) Events() <-chan *domain.Event { return s.events }

// Close disconnects and closes the events channel.
func (s *Subscriber) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.events)
	return nil
}

func (s *Subscriber) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	// Answer the hub's pings so it keeps us, and extend our own deadline.
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.closed.Load() {
		_ = conn.Close()
		return fmt.Errorf("subscriber closed")
	}
	s.conn = conn
	return nil
}

func (s *Subscriber) readLoop() {
	defer s.wg.Done()

	delay := s.config.ReconnectDelay
	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.reconnect(&delay) {
				return
			}
			continue
		}

		_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.logger.Debug("event stream read failed", zap.Error(err))
			_ = conn.Close()
			s.connMu.Lock()
			if s.conn == conn {
				s.conn = nil
			}
			s.connMu.Unlock()
			continue
		}
		delay = s.config.ReconnectDelay

		var e domain.Event
		if err := json.Unmarshal(msg, &e); err != nil {
			s.logger.Debug("malformed event", zap.Error(err))
			continue
		}
		select {
		case s.events <- &e:
		case <-s.done:
			return
		}
	}
}

// reconnect waits delay, dials once and doubles delay on failure. It
// returns false when the subscriber was closed meanwhile.
func (s *Subscriber) reconnect(delay *time.Duration) bool {
	select {
	case <-s.done:
		return false
	case <-time.After(*delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.connect(ctx); err != nil {
		s.logger.Debug("reconnect failed", zap.Error(err), zap.Duration("delay", *delay))
		*delay *= 2
		if *delay > s.config.MaxReconnectDelay {
			*delay = s.config.MaxReconnectDelay
		}
	}
	return true
}
