package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/dsiops/secret-gitlab-trigger/models"
	"github.com/dsiops/secret-gitlab-trigger/services/dispatch"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const drainTimeout = 5 * time.Second

// EventDispatcher defines the interface for event handling operations
type EventDispatcher interface {
	HandleEvent(ctx context.Context, entry *models.AuditLogEntry) (*dispatch.Outcome, error)
}

// PubSubListener consumes audit log entries from a Pub/Sub pull subscription.
// It is the pull-based alternative to the HTTP push endpoint, for deployments
// wired to a log router sink instead of Eventarc.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	dispatcher   EventDispatcher
	logger       *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPubSubListener creates a listener bound to the given subscription.
// Client options are passed through; production callers pass none.
func NewPubSubListener(ctx context.Context, projectID, subscriptionID string, dispatcher EventDispatcher, logger *zap.Logger, opts ...option.ClientOption) (*PubSubListener, error) {
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &PubSubListener{
		client:       client,
		subscription: client.Subscription(subscriptionID),
		dispatcher:   dispatcher,
		logger:       logger,
	}, nil
}

// Start consumes the subscription until ctx is cancelled or Stop is called.
// It blocks, so callers run it in its own goroutine.
func (l *PubSubListener) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.mu.Lock()
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()
	defer close(done)

	l.logger.Info("pubsub listener started",
		zap.String("subscription", l.subscription.ID()))

	if err := l.subscription.Receive(ctx, l.handleMessage); err != nil {
		return fmt.Errorf("pubsub receive failed: %w", err)
	}
	return nil
}

// handleMessage processes a single delivery. Undecodable messages are acked
// so a poison pill cannot wedge the subscription; handling failures are
// nacked for redelivery.
func (l *PubSubListener) handleMessage(ctx context.Context, msg *pubsub.Message) {
	entry, err := models.DecodeAuditEntry(msg.Data)
	if err != nil {
		l.logger.Warn("acking undecodable message",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		msg.Ack()
		return
	}

	outcome, err := l.dispatcher.HandleEvent(ctx, entry)
	if err != nil {
		l.logger.Error("nacking message for redelivery",
			zap.String("message_id", msg.ID),
			zap.String("stage", string(dispatch.StageOf(err))),
			zap.Error(err))
		msg.Nack()
		return
	}

	l.logger.Debug("message handled",
		zap.String("message_id", msg.ID),
		zap.String("status", string(outcome.Status)))
	msg.Ack()
}

// Stop cancels the receive loop, waits for in-flight messages to drain, and
// closes the client
func (l *PubSubListener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(drainTimeout):
			l.logger.Warn("timed out waiting for receive loop to drain")
		}
	}

	if err := l.client.Close(); err != nil {
		l.logger.Warn("failed to close pubsub client", zap.Error(err))
	}
	l.logger.Info("pubsub listener stopped")
}
