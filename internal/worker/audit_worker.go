package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/service"
)

const (
	defaultAuditQueueSize = 1024
	auditDeliveryTimeout  = 15 * time.Second
)

// ErrAuditQueueFull is returned by Publish when the queue has no room.
var ErrAuditQueueFull = errors.New("audit queue full")

// ErrAuditQueueClosed is returned by Publish after Close.
var ErrAuditQueueClosed = errors.New("audit queue closed")

// AuditQueue is a Dispatcher that buffers events and delivers them to the
// wrapped dispatcher from a background goroutine. Publish never waits on
// subscribers.
type AuditQueue struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	queue      chan events.Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAuditQueue wraps dispatcher with a queue of the given capacity.
func NewAuditQueue(dispatcher events.Dispatcher, size int, logger *zap.Logger) *AuditQueue {
	if size <= 0 {
		size = defaultAuditQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditQueue{
		dispatcher: dispatcher,
		logger:     logger,
		queue:      make(chan events.Event, size),
		done:       make(chan struct{}),
	}
}

// Publish enqueues event. It drops the event when the queue is full.
func (q *AuditQueue) Publish(_ context.Context, event events.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrAuditQueueClosed
	}
	select {
	case q.queue <- event:
		return nil
	default:
		q.logger.Warn("audit event dropped", zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
		return ErrAuditQueueFull
	}
}

// Subscribe registers handler on the wrapped dispatcher.
func (q *AuditQueue) Subscribe(eventType events.EventType, handler events.EventHandler) {
	q.dispatcher.Subscribe(eventType, handler)
}

// Start launches the delivery goroutine.
func (q *AuditQueue) Start() {
	go q.run()
}

// Close stops accepting events and waits until queued ones are delivered.
// It must only be called after Start.
func (q *AuditQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()
	<-q.done
}

func (q *AuditQueue) run() {
	defer close(q.done)
	for event := range q.queue {
		ctx, cancel := context.WithTimeout(context.Background(), auditDeliveryTimeout)
		if err := q.dispatcher.Publish(ctx, event); err != nil {
			q.logger.Warn("audit event delivery failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// StartAuditWorker registers audit handlers.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
