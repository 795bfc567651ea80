package app

import (
	"context"
	"fmt"

	"github.com/dsiops/secret-gitlab-trigger/config"
	"github.com/dsiops/secret-gitlab-trigger/listener"
	"github.com/dsiops/secret-gitlab-trigger/services/dispatch"
	"github.com/dsiops/secret-gitlab-trigger/services/gitlab"
	"github.com/dsiops/secret-gitlab-trigger/services/secrets"
	"github.com/dsiops/secret-gitlab-trigger/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Services
	Secrets    secrets.LabelFetcher
	Pipelines  *gitlab.Client
	Dispatcher *dispatch.Service

	// Pub/Sub pull listener, nil unless a subscription is configured
	Listener *listener.PubSubListener

	secretClient *secrets.ManagerClient
}

// NewDependencies creates and wires up all application dependencies. Client
// options are passed through to the GCP clients; production callers pass none.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...option.ClientOption) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := cfg.Policy.ParseError(); err != nil {
		logger.Warn("invalid REQUIRED_LABELS, falling back to empty policy",
			zap.String("raw", cfg.Policy.Raw),
			zap.Error(err))
	}

	if err := deps.initSecretStore(ctx, opts...); err != nil {
		return nil, fmt.Errorf("failed to initialize secret store: %w", err)
	}

	deps.initPipelineClient()
	deps.initDispatcher()

	if err := deps.initListener(ctx, opts...); err != nil {
		return nil, fmt.Errorf("failed to initialize pubsub listener: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initSecretStore initializes the Secret Manager backed label fetcher
func (d *Dependencies) initSecretStore(ctx context.Context, opts ...option.ClientOption) error {
	client, err := secrets.NewManagerClient(ctx, d.Logger, opts...)
	if err != nil {
		return err
	}

	d.secretClient = client
	d.Secrets = client
	d.Logger.Info("secret store client initialized")
	return nil
}

// initPipelineClient initializes the GitLab trigger API client
func (d *Dependencies) initPipelineClient() {
	cfg := d.Config.GitLab
	d.Pipelines = gitlab.NewClient(cfg.BaseURL, cfg.Timeout, d.Logger)

	if err := cfg.TriggerReady(); err != nil {
		d.Logger.Warn("trigger configuration incomplete, events will be skipped",
			zap.Any("missing", utils.GetValidationFields(err)))
		return
	}

	d.Logger.Info("pipeline trigger client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.String("project", cfg.ProjectID),
		zap.String("ref", cfg.Ref))
}

// initDispatcher wires the event dispatch service
func (d *Dependencies) initDispatcher() {
	d.Dispatcher = dispatch.NewService(d.Config, d.Secrets, d.Pipelines, d.Logger)
	d.Logger.Info("event dispatcher initialized",
		zap.Int("required_labels", len(d.Config.Policy.RequiredLabels)))
}

// initListener builds the optional Pub/Sub pull subscriber. Deployments that
// receive Eventarc pushes leave the subscription unset and skip this.
func (d *Dependencies) initListener(ctx context.Context, opts ...option.ClientOption) error {
	sub := d.Config.GCP.PubSubSubscription
	if sub == "" {
		d.Logger.Info("pubsub subscription not configured, push delivery only")
		return nil
	}

	l, err := listener.NewPubSubListener(ctx, d.Config.GCP.PubSubProjectID, sub,
		d.Dispatcher, d.Logger, opts...)
	if err != nil {
		return err
	}

	d.Listener = l
	d.Logger.Info("pubsub listener initialized",
		zap.String("project", d.Config.GCP.PubSubProjectID),
		zap.String("subscription", sub))
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Listener != nil {
		d.Listener.Stop()
	}

	if d.secretClient != nil {
		if err := d.secretClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close secret store client: %w", err))
		} else {
			d.Logger.Info("secret store client closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
