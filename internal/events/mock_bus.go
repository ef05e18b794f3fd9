package events

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// MockEventBus is an in-memory EventBus for tests. Handlers run on the
// publishing goroutine, so a Publish returns only after every subscriber
// has seen the event.
type MockEventBus struct {
	mu              sync.RWMutex
	subscriptions   map[string][]interface{}
	publishedEvents map[string][]interface{}
	publishErr      error
	errors          []error
}

// NewMockEventBus creates a new MockEventBus instance
func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscriptions:   make(map[string][]interface{}),
		publishedEvents: make(map[string][]interface{}),
	}
}

func (m *MockEventBus) Subscribe(topic string, handler interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subscriptions[topic] = append(m.subscriptions[topic], handler)
	return nil
}

func (m *MockEventBus) SubscribeAsync(topic string, handler interface{}) error {
	return m.Subscribe(topic, handler)
}

func (m *MockEventBus) Unsubscribe(topic string, handler interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	handlers := m.subscriptions[topic]
	kept := handlers[:0]
	for _, h := range handlers {
		if reflect.ValueOf(h).Pointer() != reflect.ValueOf(handler).Pointer() {
			kept = append(kept, h)
		}
	}
	m.subscriptions[topic] = kept
	return nil
}

func (m *MockEventBus) Publish(topic string, event interface{}) error {
	m.mu.Lock()
	if m.publishErr != nil {
		err := m.publishErr
		m.mu.Unlock()
		return err
	}
	m.publishedEvents[topic] = append(m.publishedEvents[topic], event)
	handlers := append([]interface{}(nil), m.subscriptions[topic]...)
	m.mu.Unlock()

	for _, handler := range handlers {
		m.invokeHandler(handler, event)
	}
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subscriptions = make(map[string][]interface{})
	return nil
}

// SetPublishError makes every following Publish fail with err.
func (m *MockEventBus) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishErr = err
}

// GetPublishedEvents returns a copy of the events published on topic
func (m *MockEventBus) GetPublishedEvents(topic string) []interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]interface{}(nil), m.publishedEvents[topic]...)
}

func (m *MockEventBus) GetSubscriberCount(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.subscriptions[topic])
}

// Errors returns handler panics and type mismatches seen so far.
func (m *MockEventBus) Errors() []error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]error(nil), m.errors...)
}

// WaitForEvent waits for an event to be published on a topic
func (m *MockEventBus) WaitForEvent(topic string, timeout time.Duration) (interface{}, error) {
	deadline := time.Now().Add(timeout)
	for {
		if events := m.GetPublishedEvents(topic); len(events) > 0 {
			return events[len(events)-1], nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout waiting for event on topic %s after %v", topic, timeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// invokeHandler calls handler with event when its single parameter accepts
// the event's type, and records a mismatch otherwise.
func (m *MockEventBus) invokeHandler(handler interface{}, event interface{}) {
	defer func() {
		if r := recover(); r != nil {
			m.recordError(fmt.Errorf("handler panic: %v", r))
		}
	}()

	fn := reflect.ValueOf(handler)
	if fn.Kind() != reflect.Func || fn.Type().NumIn() != 1 {
		m.recordError(fmt.Errorf("handler %T must take exactly one argument", handler))
		return
	}

	arg := reflect.ValueOf(event)
	param := fn.Type().In(0)
	if !arg.IsValid() {
		arg = reflect.Zero(param)
	}
	if !arg.Type().AssignableTo(param) {
		m.recordError(fmt.Errorf("handler %T does not accept %T", handler, event))
		return
	}
	fn.Call([]reflect.Value{arg})
}

func (m *MockEventBus) recordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
}
