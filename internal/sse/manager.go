package sse

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gameshelf/gameshelf-server/internal/id"
)

const (
	defaultHeartbeat   = 30 * time.Second
	defaultHistorySize = 128
	queueSize          = 256
	clientBufferSize   = 64
)

// Client is one connected event stream.
type Client struct {
	ConnectedAt time.Time
	Events      chan Event
	Done        chan struct{}
	ID          string
}

// Manager fans collection events out to connected clients and keeps a short
// history so a client that reconnects with Last-Event-ID receives what it missed.
type Manager struct {
	clients     map[string]*Client
	history     []Event
	queue       chan Event
	logger      *slog.Logger
	wg          sync.WaitGroup
	heartbeat   time.Duration
	historySize int
	mu          sync.Mutex

	closeMu sync.RWMutex
	closed  bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithHeartbeat sets the keepalive interval.
func WithHeartbeat(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.heartbeat = d
		}
	}
}

// WithHistorySize sets how many events are kept for replay.
func WithHistorySize(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.historySize = n
		}
	}
}

// NewManager creates a Manager. Call Start exactly once to begin delivery;
// Shutdown waits for the delivery loop even when Start has not run yet.
func NewManager(logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		clients:     make(map[string]*Client),
		queue:       make(chan Event, queueSize),
		logger:      logger,
		heartbeat:   defaultHeartbeat,
		historySize: defaultHistorySize,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.wg.Add(1)
	return m
}

// Start runs the delivery loop until ctx is canceled or Shutdown closes the
// queue. Call it once in its own goroutine.
func (m *Manager) Start(ctx context.Context) {
	defer m.wg.Done()

	m.logger.Info("event stream starting", slog.Duration("heartbeat", m.heartbeat))

	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-m.queue:
			if !ok {
				m.disconnectAll()
				return
			}
			m.publish(event)

		case <-ticker.C:
			m.publish(NewHeartbeatEvent())

		case <-ctx.Done():
			m.logger.Info("event stream stopping")
			m.disconnectAll()
			return
		}
	}
}

// Shutdown stops accepting events, waits for queued ones to be delivered and
// disconnects every client.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.closeMu.Lock()
	if m.closed {
		m.closeMu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("event stream drain timed out, queued events may be lost")
	}
	return nil
}

// Emit queues an event for delivery. It never blocks; when the queue is full
// the event is dropped and logged.
func (m *Manager) Emit(event Event) {
	m.closeMu.RLock()
	defer m.closeMu.RUnlock()

	if m.closed {
		return
	}

	select {
	case m.queue <- event:
	default:
		m.logger.Error("event queue full, dropping event", slog.String("event_type", string(event.Type)))
	}
}

// publish records a collection event and hands it to every client.
// Slow clients lose the event rather than stalling the others.
func (m *Manager) publish(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.Type != EventHeartbeat {
		m.history = append(m.history, event)
		if over := len(m.history) - m.historySize; over > 0 {
			m.history = slices.Delete(m.history, 0, over)
		}
	}

	var dropped int
	for _, client := range m.clients {
		select {
		case client.Events <- event:
		default:
			dropped++
			m.logger.Warn("dropped event for slow client",
				slog.String("client_id", client.ID),
				slog.String("event_type", string(event.Type)))
		}
	}

	if event.Type != EventHeartbeat {
		m.logger.Debug("event published",
			slog.String("event_type", string(event.Type)),
			slog.Int("clients", len(m.clients)),
			slog.Int("dropped", dropped))
	}
}

// Connect registers a client. A non-empty lastEventID queues the events
// published after it, or a single resync event when they are no longer held.
func (m *Manager) Connect(lastEventID string) (*Client, error) {
	clientID, err := id.Generate(id.PrefixSSEClient)
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		Events:      make(chan Event, clientBufferSize),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	replayed := 0
	if lastEventID != "" {
		missed, ok := m.since(lastEventID)
		if !ok || len(missed) > clientBufferSize/2 {
			client.Events <- NewResyncEvent(lastEventID)
		} else {
			for _, event := range missed {
				client.Events <- event
			}
			replayed = len(missed)
		}
	}
	m.clients[client.ID] = client
	total := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("event stream client connected",
		slog.String("client_id", clientID),
		slog.Int("replayed", replayed),
		slog.Int("total_clients", total))
	return client, nil
}

// since returns the events recorded after lastEventID. Caller holds m.mu.
func (m *Manager) since(lastEventID string) ([]Event, bool) {
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].ID == lastEventID {
			return slices.Clone(m.history[i+1:]), true
		}
	}
	return nil, false
}

// Disconnect removes a client and closes its channels.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, clientID)
	total := len(m.clients)
	m.mu.Unlock()

	close(client.Done)
	close(client.Events)

	m.logger.Info("event stream client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", total))
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *Manager) historyLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

func (m *Manager) disconnectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		close(client.Done)
		close(client.Events)
	}
	clear(m.clients)
}
