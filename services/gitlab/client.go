package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://gitlab.com"

// Client calls the GitLab pipeline trigger API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new trigger API client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// TriggerRequest carries everything needed to start a pipeline
type TriggerRequest struct {
	ProjectID string
	Token     string
	Ref       string
	Variables map[string]string
}

// TriggerPipeline starts a pipeline via POST
// /api/v4/projects/:id/trigger/pipeline. The project id may be numeric or
// namespaced ("group/project"); path separators are percent-encoded so the id
// travels as a single path segment. Variables are submitted as form fields
// named variables[KEY]. Any non-2xx response is an error.
func (c *Client) TriggerPipeline(ctx context.Context, req TriggerRequest) (*PipelineRun, error) {
	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/trigger/pipeline", c.baseURL, url.PathEscape(req.ProjectID))

	form := url.Values{}
	form.Set("token", req.Token)
	form.Set("ref", req.Ref)
	for k, v := range req.Variables {
		form.Set("variables["+k+"]", v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build trigger request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug("triggering pipeline",
		zap.String("project", req.ProjectID),
		zap.String("ref", req.Ref),
		zap.Int("variables", len(req.Variables)))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TriggerError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TriggerError{URL: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newTriggerError(endpoint, resp.StatusCode, body)
	}

	var run PipelineRun
	if err := json.Unmarshal(body, &run); err != nil {
		return nil, &TriggerError{
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode trigger response: %w", err),
		}
	}

	c.logger.Debug("pipeline created",
		zap.Int64("pipeline_id", run.ID),
		zap.String("status", run.Status))

	return &run, nil
}

// GitLab trigger API response types

// PipelineRun describes the pipeline created by a trigger call
type PipelineRun struct {
	ID        int64  `json:"id"`
	IID       int64  `json:"iid"`
	ProjectID int64  `json:"project_id"`
	SHA       string `json:"sha"`
	Ref       string `json:"ref"`
	Status    string `json:"status"`
	WebURL    string `json:"web_url"`
	CreatedAt string `json:"created_at"`
}
