package runs

import "time"

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusTimedOut   = "timed_out"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID            string     `json:"id"`
	RequestID     string     `json:"requestId,omitempty"`
	Status        string     `json:"status"`
	ProjectName   string     `json:"projectName"`
	ProjectARN    string     `json:"projectArn,omitempty"`
	BlueprintName string     `json:"blueprintName,omitempty"`
	InputURI      string     `json:"inputUri"`
	OutputURI     string     `json:"outputUri"`
	ResultFormat  string     `json:"resultFormat"`
	MediaHint     string     `json:"mediaHint,omitempty"`
	InvocationARN string     `json:"invocationArn,omitempty"`
	ResultURI     string     `json:"resultUri,omitempty"`
	RowCount      int        `json:"rowCount"`
	ErrorCode     string     `json:"errorCode,omitempty"`
	ErrorMessage  *string    `json:"errorMessage,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Terminal reports whether the run can no longer change.
func (r Run) Terminal() bool {
	switch r.Status {
	case StatusCompleted, StatusFailed, StatusTimedOut:
		return true
	default:
		return false
	}
}

// CreateInput is the caller-supplied part of a run. Empty fields fall back
// to the service defaults.
type CreateInput struct {
	InputURI      string `json:"inputUri"`
	OutputURI     string `json:"outputUri"`
	ProjectName   string `json:"projectName"`
	ProjectARN    string `json:"projectArn"`
	BlueprintName string `json:"blueprintName"`
	ResultFormat  string `json:"resultFormat"`
	MediaHint     string `json:"mediaHint"`
}

// StatusUpdate carries the optional fields written with a status change.
// Nil pointers leave the stored value untouched.
type StatusUpdate struct {
	ProjectARN    *string
	InvocationARN *string
	ResultURI     *string
	RowCount      *int
	ErrorCode     *string
	ErrorMessage  *string
	StartedAt     *time.Time
	CompletedAt   *time.Time
}
