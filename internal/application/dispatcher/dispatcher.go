package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyjia/travel-approval/internal/domain/event"
)

// ErrClosed is returned once Close has been called
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher routes committed workflow events to side-effect handlers such as
// the notifier and metrics. Handlers never influence the outcome of the action
// that produced the event.
type Dispatcher interface {
	// Subscribe registers a handler under a generated name
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler with a name for logs and Unsubscribe
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// Unsubscribe removes every handler registered under name
	Unsubscribe(eventType event.Type, name string)

	// Dispatch runs handlers in registration order and stops at the first error
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs every handler in the background. The caller's
	// cancellation does not propagate; each run gets its own timeout.
	DispatchAsync(ctx context.Context, evt *event.Event)

	// ListHandlers returns registered handlers for an event type
	ListHandlers(eventType event.Type) []HandlerInfo

	// Close stops accepting events and waits for background runs
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

const (
	defaultHandlerTimeout = 30 * time.Second
	defaultMaxInFlight    = 16
)

type eventDispatcher struct {
	mu            sync.RWMutex
	subscriptions map[event.Type][]subscription
	logger        Logger
	timeout       time.Duration
	slots         chan struct{}

	// lifecycle orders running.Add against Close so Wait never races an Add
	lifecycle sync.Mutex
	running   sync.WaitGroup
	closed    atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// WithHandlerTimeout bounds each background run. Zero disables the bound.
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(d *eventDispatcher) {
		d.timeout = timeout
	}
}

// WithMaxInFlight caps how many background handler runs execute at once.
// Extra runs wait for a free slot. Values below one are ignored.
func WithMaxInFlight(n int) Option {
	return func(d *eventDispatcher) {
		if n > 0 {
			d.slots = make(chan struct{}, n)
		}
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		subscriptions: make(map[event.Type][]subscription),
		timeout:       defaultHandlerTimeout,
		slots:         make(chan struct{}, defaultMaxInFlight),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.mu.Lock()
	name := fmt.Sprintf("%s#%d", eventType, len(d.subscriptions[eventType]))
	d.subscriptions[eventType] = append(d.subscriptions[eventType], subscription{name: name, handler: handler})
	d.mu.Unlock()

	d.info("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	d.subscriptions[eventType] = append(d.subscriptions[eventType], subscription{name: name, handler: handler})
	d.mu.Unlock()

	d.info("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	current := d.subscriptions[eventType]
	kept := current[:0:0]
	for _, sub := range current {
		if sub.name != name {
			kept = append(kept, sub)
		}
	}
	d.subscriptions[eventType] = kept
	d.mu.Unlock()

	d.info("Handler unregistered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}

	for _, sub := range d.handlersFor(evt.Type) {
		if err := d.run(ctx, evt, sub); err != nil {
			d.error("Handler error",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"request_id", evt.RequestID,
				"handler_name", sub.name,
				"error", err,
			)
			return fmt.Errorf("handler %s failed: %w", sub.name, err)
		}
	}
	return nil
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	subs := d.handlersFor(evt.Type)
	detached := context.WithoutCancel(ctx)

	d.lifecycle.Lock()
	if d.closed.Load() {
		d.lifecycle.Unlock()
		d.error("Event dropped, dispatcher is closed",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"request_id", evt.RequestID,
		)
		return
	}
	d.running.Add(len(subs))
	for _, sub := range subs {
		go d.background(detached, evt, sub)
	}
	d.lifecycle.Unlock()

	d.info("Dispatching event",
		"event_type", evt.Type,
		"event_id", evt.ID,
		"request_id", evt.RequestID,
		"handler_count", len(subs),
	)
}

// background waits for a slot, then runs one handler under the dispatcher's timeout
func (d *eventDispatcher) background(ctx context.Context, evt *event.Event, sub subscription) {
	defer d.running.Done()

	d.slots <- struct{}{}
	defer func() { <-d.slots }()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.run(ctx, evt, sub); err != nil {
		d.error("Async handler error",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"request_id", evt.RequestID,
			"handler_name", sub.name,
			"error", err,
		)
	}
}

func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	subs := d.handlersFor(eventType)
	out := make([]HandlerInfo, len(subs))
	for i, sub := range subs {
		out[i] = HandlerInfo{Name: sub.name, EventType: eventType}
	}
	return out
}

func (d *eventDispatcher) Close() error {
	d.lifecycle.Lock()
	swapped := d.closed.CompareAndSwap(false, true)
	d.lifecycle.Unlock()
	if !swapped {
		return ErrClosed
	}

	d.info("Closing dispatcher, waiting for background handlers")
	d.running.Wait()
	d.info("Dispatcher closed")
	return nil
}

func (d *eventDispatcher) handlersFor(eventType event.Type) []subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]subscription(nil), d.subscriptions[eventType]...)
}

// run invokes one handler, turning a panic into an error
func (d *eventDispatcher) run(ctx context.Context, evt *event.Event, sub subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			d.error("Handler panic recovered",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", sub.name,
				"panic", r,
			)
		}
	}()
	return sub.handler(ctx, evt)
}

func (d *eventDispatcher) info(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, keysAndValues...)
	}
}

func (d *eventDispatcher) error(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, keysAndValues...)
	}
}
