package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResourceKind identifies the type of remote resource being waited on.
type ResourceKind string

const (
	KindDatasetGroup      ResourceKind = "dataset-group"
	KindDataset           ResourceKind = "dataset"
	KindDatasetImportJob  ResourceKind = "dataset-import-job"
	KindSolution          ResourceKind = "solution"
	KindSolutionVersion   ResourceKind = "solution-version"
	KindCampaign          ResourceKind = "campaign"
	KindFilter            ResourceKind = "filter"
	KindEventTracker      ResourceKind = "event-tracker"
	KindRecommender       ResourceKind = "recommender"
	KindBatchInferenceJob ResourceKind = "batch-inference-job"
	KindBucket            ResourceKind = "bucket"
	KindOpenAIBatch       ResourceKind = "openai-batch"
)

// AllKinds lists every supported kind in display order.
var AllKinds = []ResourceKind{
	KindDatasetGroup,
	KindDataset,
	KindDatasetImportJob,
	KindSolution,
	KindSolutionVersion,
	KindCampaign,
	KindFilter,
	KindEventTracker,
	KindRecommender,
	KindBatchInferenceJob,
	KindBucket,
	KindOpenAIBatch,
}

// ParseKind validates a kind name.
func ParseKind(s string) (ResourceKind, error) {
	k := ResourceKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

// ResourceRef points at one remote resource. ID is an ARN for the
// recommendation service, a bucket name, or a batch job id.
type ResourceRef struct {
	Kind ResourceKind `json:"kind"`
	ID   string       `json:"id"`
}

func (r ResourceRef) String() string { return string(r.Kind) + " " + r.ID }

// Validate checks that the ref names a known kind and a non-empty id.
func (r ResourceRef) Validate() error {
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return err
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: resource id is required for %s", ErrValidation, r.Kind)
	}
	return nil
}

// Status is one snapshot of a remote resource, produced fresh on every poll.
type Status struct {
	Ref           ResourceRef `json:"ref"`
	Raw           string      `json:"raw"`
	Phase         Phase       `json:"phase"`
	FailureReason string      `json:"failure_reason,omitempty"`
	Detail        string      `json:"detail,omitempty"` // e.g. request counts for batch jobs
	ObservedAt    time.Time   `json:"observed_at"`
}

// NewStatus builds a snapshot, deriving Phase from raw.
func NewStatus(ref ResourceRef, raw string) Status {
	return Status{
		Ref:        ref,
		Raw:        raw,
		Phase:      ParsePhase(raw),
		ObservedAt: time.Now(),
	}
}

// String renders the snapshot for progress output.
func (s Status) String() string {
	var b strings.Builder
	b.WriteString(s.Raw)
	if s.Detail != "" {
		b.WriteString(" (")
		b.WriteString(s.Detail)
		b.WriteString(")")
	}
	if s.FailureReason != "" {
		b.WriteString(" - ")
		b.WriteString(s.FailureReason)
	}
	return b.String()
}

// Wait mirrors the waits table schema.
type Wait struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	Kind          ResourceKind `db:"kind" json:"kind"`
	ResourceID    string       `db:"resource_id" json:"resource_id"`
	Target        Target       `db:"target" json:"target"`
	Outcome       string       `db:"outcome" json:"outcome"`
	LastStatus    string       `db:"last_status" json:"last_status,omitempty"`
	FailureReason string       `db:"failure_reason" json:"failure_reason,omitempty"`
	Error         string       `db:"error" json:"error,omitempty"`
	Polls         int          `db:"polls" json:"polls"`
	TaskID        string       `db:"task_id" json:"task_id,omitempty"`
	StartedAt     *time.Time   `db:"started_at" json:"started_at,omitempty"`
	FinishedAt    *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// Ref returns the resource the wait targets.
func (w *Wait) Ref() ResourceRef { return ResourceRef{Kind: w.Kind, ID: w.ResourceID} }

// Duration is the time between start and finish, or zero if either is unset.
func (w *Wait) Duration() time.Duration {
	if w.StartedAt == nil || w.FinishedAt == nil {
		return 0
	}
	return w.FinishedAt.Sub(*w.StartedAt)
}
