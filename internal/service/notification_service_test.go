package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
)

func TestNotificationWithoutWebhookIsNoop(t *testing.T) {
	svc := NewNotificationService(zap.NewNop(), config.NotificationConfig{EmailFrom: "noreply@example.com"})
	err := svc.Handle(context.Background(), events.New(events.EventTicketClosed, 3, events.Actor{}, nil))
	assert.NoError(t, err)
}

func TestNotificationWebhook(t *testing.T) {
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ok := NewNotificationService(zap.NewNop(), config.NotificationConfig{WebhookURL: srv.URL + "/hook"})
	require.NoError(t, ok.Handle(context.Background(), events.New(events.EventTicketCreated, 1, events.Actor{}, nil)))
	assert.Equal(t, "application/json", contentType)

	failing := NewNotificationService(zap.NewNop(), config.NotificationConfig{WebhookURL: srv.URL + "/fail"})
	err := failing.Handle(context.Background(), events.New(events.EventTicketCreated, 1, events.Actor{}, nil))
	assert.ErrorContains(t, err, "502")
}

func TestNotificationEventsCoverEveryType(t *testing.T) {
	svc := NewNotificationService(nil, config.NotificationConfig{})
	assert.Len(t, svc.Events(), 7)
}
