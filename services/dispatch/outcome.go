package dispatch

import (
	"github.com/dsiops/secret-gitlab-trigger/models"
	"github.com/dsiops/secret-gitlab-trigger/services/gitlab"
)

// Status classifies how an event was resolved
type Status string

const (
	StatusTriggered     Status = "triggered"
	StatusSkippedConfig Status = "skipped_config"
	StatusSkippedLabels Status = "skipped_labels"
)

// Outcome is the non-error result of handling an event. Skips are outcomes
// rather than errors so the delivery platform acknowledges them instead of
// redelivering an event that will never trigger anything.
type Outcome struct {
	Status    Status              `json:"status"`
	Reason    string              `json:"reason,omitempty"`
	Event     models.SecretEvent  `json:"event"`
	EventType models.EventType    `json:"event_type,omitempty"`
	Pipeline  *gitlab.PipelineRun `json:"pipeline,omitempty"`
}

// Triggered reports whether the event actually started a pipeline
func (o *Outcome) Triggered() bool {
	return o.Status == StatusTriggered
}
