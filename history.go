package linkfeed

import (
	"context"
	"time"
)

// SeenLink is an item URL recorded the first time a source produced it.
type SeenLink struct {
	SourceID    string    `json:"sourceId"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
}

// SeenLinkService records the links each source has produced. Recording never
// affects feed output.
type SeenLinkService interface {
	// RecordLinks stores items not yet known for the source and returns how
	// many of them were new.
	RecordLinks(ctx context.Context, sourceID string, items []Item, seenAt time.Time) (int, error)

	// FindSeenLinks retrieves recorded links matching the filter, newest first.
	FindSeenLinks(ctx context.Context, filter SeenLinkFilter) ([]*SeenLink, error)
}

// SeenLinkFilter represents a filter for FindSeenLinks.
type SeenLinkFilter struct {
	SourceID *string `json:"sourceId"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RunStatus is the outcome of processing one source.
type RunStatus string

// RunStatus constants.
const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is the recorded outcome of processing one source in one build.
type Run struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"sourceId"`
	StartedAt time.Time `json:"startedAt"`
	Status    RunStatus `json:"status"`
	ItemCount int       `json:"itemCount"`
	NewCount  int       `json:"newCount"`
	Digest    string    `json:"digest"`
	Changed   bool      `json:"changed"`
	Error     string    `json:"error"`
}

// Validate returns an error if the run contains invalid fields.
func (r *Run) Validate() error {
	if r.SourceID == "" {
		return Errorf(EINVALID, "run source ID required")
	}
	switch r.Status {
	case RunSucceeded, RunFailed:
	default:
		return Errorf(EINVALID, "run status %q invalid", r.Status)
	}
	return nil
}

// RunService represents a service for managing run history.
type RunService interface {
	// CreateRun records a run and assigns its ID.
	CreateRun(ctx context.Context, run *Run) error

	// FindLastRun returns the latest successful run of the source.
	// Returns ENOTFOUND if the source has no successful run.
	FindLastRun(ctx context.Context, sourceID string) (*Run, error)

	// FindRuns retrieves runs matching the filter, newest first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	SourceID *string    `json:"sourceId"`
	Status   *RunStatus `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
