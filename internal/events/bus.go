package events

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	eventbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// ErrBusClosed is returned by every operation after Close.
var ErrBusClosed = errors.New("event bus is closed")

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	Publish(topic string, data interface{}) error
	Subscribe(topic string, handler interface{}) error
	// SubscribeAsync runs handler on its own goroutine for each event.
	// Publish does not wait for it and handlers may overlap. A panicking
	// handler is logged and does not take the process down.
	SubscribeAsync(topic string, handler interface{}) error
	Unsubscribe(topic string, handler interface{}) error
	Close() error
}

type subscriptionKey struct {
	topic   string
	handler uintptr
}

// eventBus adds close semantics and async panic recovery to asaskevich/EventBus.
type eventBus struct {
	bus    eventbus.Bus
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	// guarded maps an async handler to the recovering wrapper registered
	// in its place, so Unsubscribe can find it. Wrappers of one func type
	// share a code pointer, so the library removes the oldest of them.
	guarded map[subscriptionKey]interface{}
}

func NewEventBus(logger *zap.Logger) EventBus {
	return &eventBus{
		bus:     eventbus.New(),
		logger:  logger,
		guarded: make(map[subscriptionKey]interface{}),
	}
}

func (eb *eventBus) Publish(topic string, data interface{}) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return ErrBusClosed
	}

	eb.logger.Debug("Publishing event", zap.String("topic", topic))
	eb.bus.Publish(topic, data)
	return nil
}

func (eb *eventBus) Subscribe(topic string, handler interface{}) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return ErrBusClosed
	}

	eb.logger.Debug("Subscribing to topic", zap.String("topic", topic))
	return eb.bus.Subscribe(topic, handler)
}

func (eb *eventBus) SubscribeAsync(topic string, handler interface{}) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return ErrBusClosed
	}

	fn := reflect.ValueOf(handler)
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("%s is not of type reflect.Func", fn.Kind())
	}

	wrapped := eb.recovering(topic, fn)
	if err := eb.bus.SubscribeAsync(topic, wrapped, false); err != nil {
		return err
	}
	eb.guarded[subscriptionKey{topic: topic, handler: fn.Pointer()}] = wrapped

	eb.logger.Debug("Subscribing to topic asynchronously", zap.String("topic", topic))
	return nil
}

func (eb *eventBus) Unsubscribe(topic string, handler interface{}) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return ErrBusClosed
	}

	if fn := reflect.ValueOf(handler); fn.Kind() == reflect.Func {
		key := subscriptionKey{topic: topic, handler: fn.Pointer()}
		if wrapped, ok := eb.guarded[key]; ok {
			delete(eb.guarded, key)
			handler = wrapped
		}
	}

	eb.logger.Debug("Unsubscribing from topic", zap.String("topic", topic))
	return eb.bus.Unsubscribe(topic, handler)
}

// Close rejects further operations and waits for running async handlers.
func (eb *eventBus) Close() error {
	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()
		return nil
	}
	eb.closed = true
	eb.mu.Unlock()

	eb.logger.Info("Closing event bus")
	eb.bus.WaitAsync()

	return nil
}

// recovering returns a function of fn's type that calls fn and turns a panic
// into an error log.
func (eb *eventBus) recovering(topic string, fn reflect.Value) interface{} {
	fnType := fn.Type()

	return reflect.MakeFunc(fnType, func(args []reflect.Value) (results []reflect.Value) {
		defer func() {
			if r := recover(); r != nil {
				eb.logger.Error("Async event handler panicked",
					zap.String("topic", topic),
					zap.Any("panic", r))

				results = make([]reflect.Value, fnType.NumOut())
				for i := range results {
					results[i] = reflect.Zero(fnType.Out(i))
				}
			}
		}()

		if fnType.IsVariadic() {
			return fn.CallSlice(args)
		}
		return fn.Call(args)
	}).Interface()
}
