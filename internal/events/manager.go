package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler receives emitted events
type Handler func(event EventWithData)

// Manager handles event emission, logging and synchronous fan-out to subscribers
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	all      []subscription
	nextID   int
	log      zerolog.Logger
}

type subscription struct {
	id      int
	handler Handler
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("service", "events").Logger(),
	}
}

// Subscribe registers a handler for one event type
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// SubscribeAll registers a handler for every event type. The returned
// function removes it again.
func (m *Manager) SubscribeAll(handler Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.all = append(m.all, subscription{id: id, handler: handler})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.all {
			if sub.id == id {
				m.all = append(m.all[:i:i], m.all[i+1:]...)
				return
			}
		}
	}
}

// EmitTyped emits an event with typed data.
// Handlers run on the caller's goroutine in registration order; a panicking
// handler is logged and does not stop the others.
func (m *Manager) EmitTyped(module string, data EventData) {
	if m == nil || data == nil {
		return
	}

	event := EventWithData{
		Type:      data.EventType(),
		Timestamp: time.Now().UTC(),
		Module:    module,
		Data:      data,
	}

	eventJSON, err := json.Marshal(&event)
	if err != nil {
		m.log.Warn().Err(err).Str("event_type", string(event.Type)).Msg("Failed to marshal event")
	} else {
		m.log.Info().
			Str("event_type", string(event.Type)).
			Str("module", module).
			RawJSON("event", eventJSON).
			Msg("Event emitted")
	}

	m.mu.RLock()
	handlers := make([]Handler, 0, len(m.handlers[event.Type])+len(m.all))
	handlers = append(handlers, m.handlers[event.Type]...)
	for _, sub := range m.all {
		handlers = append(handlers, sub.handler)
	}
	m.mu.RUnlock()

	for _, h := range handlers {
		m.dispatch(h, event)
	}
}

// EmitError emits an error event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	if err == nil {
		return
	}
	m.EmitTyped(module, &ErrorEventData{Error: err.Error(), Context: context})
}

func (m *Manager) dispatch(h Handler, event EventWithData) {
	defer func() {
		if p := recover(); p != nil {
			m.log.Error().
				Interface("panic", p).
				Str("event_type", string(event.Type)).
				Msg("Event handler panicked")
		}
	}()
	h(event)
}
