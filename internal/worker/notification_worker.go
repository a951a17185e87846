package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/service"
)

// NotificationWorker moves notification delivery off the request path. Events are queued by the
// dispatcher and handled by a single goroutine; a full queue drops the event with a warning.
type NotificationWorker struct {
	service *service.NotificationService
	queue   chan events.Event
	logger  *zap.Logger
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewNotificationWorker creates a worker with the given queue size.
func NewNotificationWorker(svc *service.NotificationService, logger *zap.Logger, buffer int) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &NotificationWorker{service: svc, queue: make(chan events.Event, buffer), logger: logger}
}

// Register subscribes the worker to every event the service handles.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	if w == nil || w.service == nil || dispatcher == nil {
		return
	}
	for _, t := range w.service.Events() {
		dispatcher.Subscribe(t, w.enqueue)
	}
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full, dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}

// Start drains the queue until ctx is cancelled or Stop is called.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.queue:
				if !ok {
					return
				}
				if err := w.service.Handle(ctx, event); err != nil {
					w.logger.Warn("notification failed",
						zap.String("event_id", event.ID),
						zap.String("event_type", string(event.Type)),
						zap.Error(err))
				}
			}
		}
	}()
}

// Stop closes the queue and waits for in-flight events to drain.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
