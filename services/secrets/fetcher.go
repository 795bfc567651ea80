package secrets

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

// LabelFetcher reads the labels attached to a secret
type LabelFetcher interface {
	SecretLabels(ctx context.Context, name string) (map[string]string, error)
}

// secretAPI is the slice of the Secret Manager client the fetcher uses
type secretAPI interface {
	GetSecret(ctx context.Context, req *secretmanagerpb.GetSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error)
	Close() error
}

// ManagerClient implements LabelFetcher against GCP Secret Manager
type ManagerClient struct {
	api    secretAPI
	logger *zap.Logger
}

// NewManagerClient creates a Secret Manager backed fetcher. Credentials come
// from the environment unless overridden through client options.
func NewManagerClient(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*ManagerClient, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}

	return &ManagerClient{
		api:    client,
		logger: logger,
	}, nil
}

// SecretLabels returns the labels of the named secret. The name must be the
// resource path of the secret itself, without a version suffix. Failures are
// wrapped as *LookupError and must be propagated by callers so the event
// delivery is retried.
func (c *ManagerClient) SecretLabels(ctx context.Context, name string) (map[string]string, error) {
	secret, err := c.api.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: name})
	if err != nil {
		return nil, &LookupError{
			Name: name,
			Code: status.Code(err),
			Err:  err,
		}
	}

	labels := secret.GetLabels()
	c.logger.Debug("fetched secret labels",
		zap.String("secret", name),
		zap.Int("labels", len(labels)))

	if labels == nil {
		return map[string]string{}, nil
	}
	return labels, nil
}

// Close releases the underlying client connection
func (c *ManagerClient) Close() error {
	return c.api.Close()
}
