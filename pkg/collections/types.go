package collections

import (
	"encoding/json"
)

type TriggerStatus string

const (
	TriggerStatusTriggered TriggerStatus = "triggered"
	TriggerStatusRunning   TriggerStatus = "running"
	TriggerStatusCompleted TriggerStatus = "completed"
	TriggerStatusFailed    TriggerStatus = "failed"
)

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusPartial   RunStatus = "partial"
)

// IsTerminal reports whether a run in this status will not change again.
// Unknown statuses are treated as still in flight.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusPartial:
		return true
	default:
		return false
	}
}

// CollectionTrigger is the backend's acknowledgement of a trigger request.
type CollectionTrigger struct {
	CollectionRunID string        `json:"collection_run_id,omitempty"`
	WorkflowRunID   string        `json:"workflow_run_id,omitempty"`
	WorkspaceID     string        `json:"workspace_id"`
	Status          TriggerStatus `json:"status"`
	Message         string        `json:"message,omitempty"`
}

// UnmarshalJSON also accepts the legacy langgraph_run_id key.
func (t *CollectionTrigger) UnmarshalJSON(data []byte) error {
	type plain CollectionTrigger
	var aux struct {
		plain
		LegacyRunID string `json:"langgraph_run_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = CollectionTrigger(aux.plain)
	if t.WorkflowRunID == "" {
		t.WorkflowRunID = aux.LegacyRunID
	}
	return nil
}

// RunID picks the identifier to poll: the workflow run id when present,
// otherwise the collection run id.
func (t *CollectionTrigger) RunID() string {
	if t == nil {
		return ""
	}
	if t.WorkflowRunID != "" {
		return t.WorkflowRunID
	}
	return t.CollectionRunID
}

type Progress struct {
	CompletedTasks     int `json:"completed_tasks"`
	FailedTasks        int `json:"failed_tasks"`
	ResponsesCollected int `json:"responses_collected"`
}

// CollectionStatus is one snapshot of a run. Timestamps are kept as sent by the backend.
type CollectionStatus struct {
	RunID           string    `json:"run_id"`
	Status          RunStatus `json:"status"`
	CollectionRunID string    `json:"collection_run_id,omitempty"`
	WorkspaceID     string    `json:"workspace_id,omitempty"`
	Progress        *Progress `json:"progress,omitempty"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       string    `json:"created_at,omitempty"`
	UpdatedAt       string    `json:"updated_at,omitempty"`
}

func (s *CollectionStatus) IsTerminal() bool {
	return s != nil && s.Status.IsTerminal()
}

type HistoryEntry struct {
	CollectionRunID string    `json:"collection_run_id"`
	WorkspaceID     string    `json:"workspace_id"`
	Status          RunStatus `json:"status"`
	CreatedAt       string    `json:"created_at"`
	CompletedAt     *string   `json:"completed_at,omitempty"`
	PromptCount     int       `json:"prompt_count"`
	ProviderCount   int       `json:"provider_count"`
	ResponseCount   int       `json:"response_count"`
	Source          *string   `json:"source,omitempty"`
}

type HistoryPage struct {
	WorkspaceID string         `json:"workspace_id"`
	Collections []HistoryEntry `json:"collections"`
	Total       int            `json:"total"`
	Limit       int            `json:"limit"`
	Offset      int            `json:"offset"`
}

// HasMore reports whether further pages exist after this one.
func (p *HistoryPage) HasMore() bool {
	return p != nil && p.Offset+len(p.Collections) < p.Total
}

// OnboardingProgress tells whether a workspace has enough setup to run a collection.
type OnboardingProgress struct {
	CompetitorCount    int  `json:"competitor_count"`
	PromptCount        int  `json:"prompt_count"`
	HasCollection      bool `json:"has_collection"`
	MinCompetitors     int  `json:"min_competitors"`
	MinPrompts         int  `json:"min_prompts"`
	ReadyForCollection bool `json:"ready_for_collection"`
	CanComplete        bool `json:"can_complete"`
}
