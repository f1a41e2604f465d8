package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/events"
)

// AuditService records security events: every event is logged and, when a
// forwarder is configured, shipped to it.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	forward    events.EventHandler
}

// NewAuditService creates the service. forward may be nil.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, forward events.EventHandler) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{dispatcher: dispatcher, logger: logger, forward: forward}
}

// RegisterHandlers subscribes to every auth event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(ctx context.Context, event events.Event) error {
	level := zap.InfoLevel
	if event.Type == events.EventLoginFailed {
		level = zap.WarnLevel
	}
	if ce := a.logger.Check(level, "audit"); ce != nil {
		ce.Write(
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("user_id", event.UserID),
			zap.Time("at", event.Timestamp),
			zap.Any("payload", event.Payload),
		)
	}
	if a.forward == nil {
		return nil
	}
	return a.forward(ctx, event)
}
