package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/farmops/identity-service/internal/config"
	"github.com/farmops/identity-service/internal/events"
)

// AuditService records identity events for operators. Lockouts and deletions
// are the signals operators actually watch, so those log at warn level.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AuditConfig
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.AuditConfig) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleInfo)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleInfo)
	a.dispatcher.Subscribe(events.EventAccountLocked, a.handleWarn)
	a.dispatcher.Subscribe(events.EventCustomerRegistered, a.handleInfo)
	a.dispatcher.Subscribe(events.EventPINChanged, a.handleInfo)
	a.dispatcher.Subscribe(events.EventAccountProvisioned, a.handleInfo)
	a.dispatcher.Subscribe(events.EventAccountStatusChanged, a.handleInfo)
	a.dispatcher.Subscribe(events.EventAccountDeleted, a.handleWarn)
}

func (a *AuditService) handleInfo(ctx context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("phone", maskPhone(event.Phone)),
		zap.Any("payload", event.Payload))
	a.sendWebhookStub(ctx, event)
	return nil
}

func (a *AuditService) handleWarn(ctx context.Context, event events.Event) error {
	a.logger.Warn(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("phone", maskPhone(event.Phone)),
		zap.Any("payload", event.Payload))
	a.sendWebhookStub(ctx, event)
	return nil
}

func (a *AuditService) sendWebhookStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(a.cfg.WebhookURL) == "" {
		return
	}
	a.logger.Debug("sendWebhookStub",
		zap.String("url", a.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)))
}

// maskPhone keeps the last four digits for correlation without logging the
// full number.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
