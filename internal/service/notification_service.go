package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
)

// NotificationService turns domain events into log lines, email stubs and webhook posts.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
	client *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		logger: loggerOrNop(logger),
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// emailEvents reach the ticket's student by email; everything else is webhook only.
var emailEvents = map[events.EventType]bool{
	events.EventTicketClaimed:      true,
	events.EventTicketClosed:       true,
	events.EventTicketMessageAdded: true,
}

// Events lists the event types the service handles.
func (n *NotificationService) Events() []events.EventType {
	return []events.EventType{
		events.EventTicketCreated,
		events.EventTicketClaimed,
		events.EventTicketUnclaimed,
		events.EventTicketRerouted,
		events.EventTicketClosed,
		events.EventTicketMessageAdded,
		events.EventUserRoleChanged,
	}
}

// Handle processes one event.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	n.logger.Info("domain event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID),
		zap.Int64("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	if emailEvents[event.Type] {
		n.sendEmailStub(event)
	}
	return n.postWebhook(ctx, event)
}

func (n *NotificationService) sendEmailStub(event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email notification queued",
		zap.String("from", n.cfg.EmailFrom),
		zap.Int64("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) postWebhook(ctx context.Context, event events.Event) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
