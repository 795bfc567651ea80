package dispatch

import (
	"context"

	"github.com/dsiops/secret-gitlab-trigger/config"
	"github.com/dsiops/secret-gitlab-trigger/models"
	"github.com/dsiops/secret-gitlab-trigger/services/gitlab"
	"github.com/dsiops/secret-gitlab-trigger/services/secrets"
	"github.com/dsiops/secret-gitlab-trigger/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TriggerExecutor starts CI pipelines; satisfied by *gitlab.Client
type TriggerExecutor interface {
	TriggerPipeline(ctx context.Context, req gitlab.TriggerRequest) (*gitlab.PipelineRun, error)
}

// Service orchestrates the handling of a single secret audit event: guard,
// label fetch, policy gate, classification, pipeline trigger.
type Service struct {
	cfg       *config.Config
	secrets   secrets.LabelFetcher
	pipelines TriggerExecutor
	logger    *zap.Logger
}

// NewService creates a new dispatch service
func NewService(cfg *config.Config, fetcher secrets.LabelFetcher, pipelines TriggerExecutor, logger *zap.Logger) *Service {
	return &Service{
		cfg:       cfg,
		secrets:   fetcher,
		pipelines: pipelines,
		logger:    logger,
	}
}

// HandleEvent processes one audit log entry. Skips come back as a non-error
// Outcome; a returned error means the delivery must be retried by the
// platform (store lookup or trigger call failed).
func (s *Service) HandleEvent(ctx context.Context, entry *models.AuditLogEntry) (*Outcome, error) {
	eventID := uuid.New()
	event := models.ParseAuditEntry(entry)

	logger := s.logger.With(
		zap.String("event_id", eventID.String()),
		zap.String("method", event.Method),
		zap.String("resource", event.Resource),
		zap.String("caller", event.Caller))

	logger.Info("handling secret event")

	// Step 1: trigger configuration guard
	logger.Debug("step 1: checking trigger configuration")
	if err := s.cfg.GitLab.TriggerReady(); err != nil {
		logger.Warn("trigger configuration incomplete, skipping event",
			zap.Any("missing", utils.GetValidationFields(err)))
		return &Outcome{
			Status: StatusSkippedConfig,
			Reason: "trigger configuration incomplete",
			Event:  event,
		}, nil
	}

	// Step 2: resolve the secret path (events reference versions, labels
	// live on the parent secret)
	secretPath := models.StripVersion(event.Resource)
	logger.Debug("step 2: resolved secret path", zap.String("secret", secretPath))

	// Step 3: fetch secret labels
	logger.Debug("step 3: fetching secret labels")
	labels, err := s.secrets.SecretLabels(ctx, secretPath)
	if err != nil {
		if secrets.IsNotFound(err) {
			logger.Warn("secret no longer exists", zap.String("secret", secretPath))
		}
		return nil, &Error{Stage: StageStoreLookup, Err: err}
	}

	// Step 4: label policy gate
	logger.Debug("step 4: evaluating label policy",
		zap.Int("required", len(s.cfg.Policy.RequiredLabels)),
		zap.Int("present", len(labels)))
	if !s.cfg.Policy.RequiredLabels.SatisfiedBy(labels) {
		logger.Info("required labels not satisfied, skipping event",
			zap.Any("required", s.cfg.Policy.RequiredLabels))
		return &Outcome{
			Status: StatusSkippedLabels,
			Reason: "required labels not satisfied",
			Event:  event,
		}, nil
	}

	// Step 5: classify event and build pipeline variables
	eventType := event.Type()
	variables := s.buildVariables(event, eventType)
	logger.Debug("step 5: classified event", zap.String("event_type", string(eventType)))

	// Step 6: trigger the pipeline
	logger.Debug("step 6: triggering pipeline",
		zap.String("project", s.cfg.GitLab.ProjectID),
		zap.String("ref", s.cfg.GitLab.Ref))
	run, err := s.pipelines.TriggerPipeline(ctx, gitlab.TriggerRequest{
		ProjectID: s.cfg.GitLab.ProjectID,
		Token:     s.cfg.GitLab.TriggerToken,
		Ref:       s.cfg.GitLab.Ref,
		Variables: variables,
	})
	if err != nil {
		return nil, &Error{Stage: StageTrigger, Err: err}
	}

	logger.Info("pipeline triggered",
		zap.String("event_type", string(eventType)),
		zap.Int64("pipeline_id", run.ID),
		zap.String("web_url", run.WebURL))

	return &Outcome{
		Status:    StatusTriggered,
		Event:     event,
		EventType: eventType,
		Pipeline:  run,
	}, nil
}

// buildVariables assembles the variable set passed to the triggered pipeline.
// SECRET_RESOURCE carries the audited resource path verbatim, version suffix
// included; only the label lookup uses the version-stripped path.
func (s *Service) buildVariables(event models.SecretEvent, eventType models.EventType) map[string]string {
	return map[string]string{
		"SECRET_EVENT_TYPE": string(eventType),
		"SECRET_NAME":       models.ShortName(event.Resource),
		"SECRET_RESOURCE":   event.Resource,
		"GCP_PROJECT_ID":    s.cfg.GCP.ProjectID,
		"TRIGGERED_BY":      event.Caller,
	}
}
