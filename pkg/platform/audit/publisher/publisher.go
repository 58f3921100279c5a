// Package publisher decouples audit emission from storage. Domain services
// call Emit and never block on (or fail because of) the audit trail.
package publisher

import (
	"context"
	"sync"
	"time"

	audit "gatehouse/pkg/platform/audit"
	"gatehouse/pkg/platform/sentinel"
)

// Sink persists or forwards audit events.
type Sink interface {
	Append(ctx context.Context, event audit.Event) error
}

// Lister is implemented by sinks that can read events back (stores, as
// opposed to forward-only sinks like Kafka).
type Lister interface {
	ListByUser(ctx context.Context, userID int64) ([]audit.Event, error)
}

// Publisher fans audit events into a sink, synchronously by default or via a
// buffered worker when WithAsyncBuffer is set.
type Publisher struct {
	sink Sink

	mu     sync.Mutex
	ch     chan audit.Event
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous mode with the given
// buffer size. When the buffer is full events are dropped rather than
// blocking the request path.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.ch = make(chan audit.Event, size)
	}
}

func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{sink: sink}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.ch != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. In async mode a full buffer drops the event; audit
// must never block or fail the caller.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.ch == nil {
		return p.sink.Append(ctx, event)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	select {
	case p.ch <- event:
	default:
		// Buffer full: drop. Losing an ops event beats stalling a request.
	}
	return nil
}

// List reads back events for a user when the sink supports it.
func (p *Publisher) List(ctx context.Context, userID int64) ([]audit.Event, error) {
	lister, ok := p.sink.(Lister)
	if !ok {
		return nil, sentinel.ErrUnavailable
	}
	return lister.ListByUser(ctx, userID)
}

// Close stops the async worker, draining buffered events first. Safe to call
// in sync mode and more than once.
func (p *Publisher) Close() {
	if p.ch == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.ch {
		// Background context: the originating request may be long gone.
		_ = p.sink.Append(context.Background(), event)
	}
}
