package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cloudevents/sdk-go/v2/binding"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"
	"github.com/dsiops/secret-gitlab-trigger/models"
	"github.com/dsiops/secret-gitlab-trigger/services/dispatch"
	"github.com/dsiops/secret-gitlab-trigger/utils"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// EventDispatcher defines the interface for event handling operations
type EventDispatcher interface {
	// HandleEvent processes a single audit log entry
	HandleEvent(ctx context.Context, entry *models.AuditLogEntry) (*dispatch.Outcome, error)
}

// EventHandler handles pushed audit log events
type EventHandler struct {
	dispatcher EventDispatcher
	logger     *zap.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(dispatcher EventDispatcher, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleEvent handles POST /v1/events
// Accepts Eventarc CloudEvent deliveries (binary or structured mode), Pub/Sub
// push envelopes, and raw LogEntry JSON bodies.
func (h *EventHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	entry, err := decodeDelivery(ctx, r)
	if err != nil {
		h.logger.Warn("failed to decode event delivery",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid event payload", nil)
		return
	}

	outcome, err := h.dispatcher.HandleEvent(ctx, entry)
	if err != nil {
		// Non-2xx tells the delivery platform to redeliver the event
		h.logger.Error("event handling failed",
			zap.String("request_id", requestID),
			zap.String("stage", string(dispatch.StageOf(err))),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Event handling failed")
		return
	}

	h.logger.Debug("event handled",
		zap.String("request_id", requestID),
		zap.String("status", string(outcome.Status)))

	_ = utils.WriteOK(w, outcome)
}

// decodeDelivery extracts the audit log entry from an incoming delivery.
// Eventarc sends CloudEvents whose data is the LogEntry JSON; log-router push
// subscriptions wrap the base64-encoded LogEntry in a Pub/Sub envelope;
// manual replays post the LogEntry directly.
func decodeDelivery(ctx context.Context, r *http.Request) (*models.AuditLogEntry, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	msg := cehttp.NewMessage(r.Header, io.NopCloser(bytes.NewReader(body)))
	if msg.ReadEncoding() != binding.EncodingUnknown {
		event, err := binding.ToEvent(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("failed to decode cloud event: %w", err)
		}
		return models.DecodeAuditEntry(event.Data())
	}

	var envelope pushEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil &&
		envelope.Subscription != "" && len(envelope.Message.Data) > 0 {
		return models.DecodeAuditEntry(envelope.Message.Data)
	}

	return models.DecodeAuditEntry(body)
}

// pushEnvelope is the body of a Pub/Sub push delivery. Data is base64-encoded
// on the wire and decoded by encoding/json.
type pushEnvelope struct {
	Message struct {
		Data      []byte `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}
