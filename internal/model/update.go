package model

import "time"

// UpdateRequest is one SetProperty call produced by a commit
type UpdateRequest struct {
	Section Section `json:"section"`
	Key     string  `json:"key"`
	Value   any     `json:"value"`
}

// UpdateResult is the outcome of dispatching one UpdateRequest
type UpdateResult struct {
	Request UpdateRequest `json:"request"`
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
}

// CommitResponse is returned by the commit endpoint
type CommitResponse struct {
	CommitID string          `json:"commit_id,omitempty"`
	DryRun   bool            `json:"dry_run"`
	Requests []UpdateRequest `json:"requests"`
	Results  []UpdateResult  `json:"results,omitempty"`
}

const (
	UpdateStatusApplied = "applied"
	UpdateStatusFailed  = "failed"
)

// UpdateRecord is a dispatched update as kept in the history store
type UpdateRecord struct {
	ID        string    `json:"id"`
	CommitID  string    `json:"commit_id"`
	ServiceID string    `json:"service_id"`
	Section   Section   `json:"section"`
	Key       string    `json:"key"`
	Payload   string    `json:"payload"` // JSON encoded value
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateFilter holds filter criteria for listing history
type UpdateFilter struct {
	ServiceID string
	CommitID  string
	Limit     int
}
