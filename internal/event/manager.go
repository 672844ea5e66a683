package event

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mms-viewer/backend/internal/metrics"
	"github.com/mms-viewer/backend/internal/web"
)

// DefaultMaxEvents limits the events kept in memory.
const DefaultMaxEvents = 20

// Manager keeps built events in the order they were added.
type Manager struct {
	builder   *Builder
	logger    *zap.Logger
	title     string
	maxEvents int

	mu     sync.RWMutex
	events map[string]*State
	order  []string
}

// NewManager creates an event manager. maxEvents <= 0 selects DefaultMaxEvents.
func NewManager(builder *Builder, title string, maxEvents int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	if title == "" {
		title = web.DefaultTitle
	}
	return &Manager{
		builder:   builder,
		logger:    logger,
		title:     title,
		maxEvents: maxEvents,
		events:    make(map[string]*State),
	}
}

// Build runs the pipeline for req and stores the result.
func (m *Manager) Build(ctx context.Context, req Request) (*State, error) {
	start := time.Now()
	state, err := m.builder.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	metrics.EventBuildSeconds.Observe(time.Since(start).Seconds())
	m.Add(state)
	return state, nil
}

// Add stores a built event under a new identifier, evicting the oldest when full.
func (m *Manager) Add(state *State) string {
	id := uuid.New().String()
	state.Event.ID = id

	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.order) >= m.maxEvents {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.events, oldest)
		m.logger.Info("evicted event", zap.String("id", oldest))
	}
	m.events[id] = state
	m.order = append(m.order, id)
	return id
}

// Get retrieves an event by ID.
func (m *Manager) Get(id string) (*State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.events[id]
	return state, ok
}

// List returns all events in insertion order.
func (m *Manager) List() []*State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*State, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.events[id])
	}
	return out
}

// Delete removes an event. It reports whether the event existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return false
	}
	delete(m.events, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Page lays out every event, oldest first.
func (m *Manager) Page() *web.Page {
	states := m.List()
	panels := make([]web.Panel, 0, len(states))
	for _, s := range states {
		p := web.CreateEvent(s.Event.Range, s.Event.Files, s.Chart)
		p.ID = s.Event.ID
		panels = append(panels, p)
	}
	return web.SimpleLayout(m.title, panels...)
}
