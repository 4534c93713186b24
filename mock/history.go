package mock

import (
	"context"
	"time"

	"github.com/fwojciec/linkfeed"
)

var _ linkfeed.SeenLinkService = (*SeenLinkService)(nil)

// SeenLinkService is a mock implementation of linkfeed.SeenLinkService.
type SeenLinkService struct {
	RecordLinksFn   func(ctx context.Context, sourceID string, items []linkfeed.Item, seenAt time.Time) (int, error)
	FindSeenLinksFn func(ctx context.Context, filter linkfeed.SeenLinkFilter) ([]*linkfeed.SeenLink, error)
}

func (s *SeenLinkService) RecordLinks(ctx context.Context, sourceID string, items []linkfeed.Item, seenAt time.Time) (int, error) {
	return s.RecordLinksFn(ctx, sourceID, items, seenAt)
}

func (s *SeenLinkService) FindSeenLinks(ctx context.Context, filter linkfeed.SeenLinkFilter) ([]*linkfeed.SeenLink, error) {
	return s.FindSeenLinksFn(ctx, filter)
}

var _ linkfeed.RunService = (*RunService)(nil)

// RunService is a mock implementation of linkfeed.RunService.
type RunService struct {
	CreateRunFn   func(ctx context.Context, run *linkfeed.Run) error
	FindLastRunFn func(ctx context.Context, sourceID string) (*linkfeed.Run, error)
	FindRunsFn    func(ctx context.Context, filter linkfeed.RunFilter) ([]*linkfeed.Run, error)
}

func (s *RunService) CreateRun(ctx context.Context, run *linkfeed.Run) error {
	return s.CreateRunFn(ctx, run)
}

func (s *RunService) FindLastRun(ctx context.Context, sourceID string) (*linkfeed.Run, error) {
	return s.FindLastRunFn(ctx, sourceID)
}

func (s *RunService) FindRuns(ctx context.Context, filter linkfeed.RunFilter) ([]*linkfeed.Run, error) {
	return s.FindRunsFn(ctx, filter)
}
