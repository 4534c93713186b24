package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fwojciec/linkfeed"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ linkfeed.RunService = (*RunService)(nil)

// RunService implements linkfeed.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

const runColumns = "id, source_id, started_at, status, item_count, new_count, digest, changed, error"

// CreateRun records a run and assigns its ID.
func (s *RunService) CreateRun(ctx context.Context, run *linkfeed.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	run.ID = uuid.New().String()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.SourceID, formatTime(run.StartedAt), string(run.Status),
		run.ItemCount, run.NewCount, run.Digest, run.Changed, run.Error)

	return err
}

// FindLastRun returns the latest successful run of the source.
func (s *RunService) FindLastRun(ctx context.Context, sourceID string) (*linkfeed.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE source_id = ? AND status = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1
	`, sourceID, string(linkfeed.RunSucceeded))

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, linkfeed.Errorf(linkfeed.ENOTFOUND, "no successful run for source %q", sourceID)
	}
	return run, err
}

// FindRuns retrieves runs matching the filter, newest first.
func (s *RunService) FindRuns(ctx context.Context, filter linkfeed.RunFilter) ([]*linkfeed.Run, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + runColumns + " FROM runs WHERE 1=1")

	if filter.SourceID != nil {
		query.WriteString(" AND source_id = ?")
		args = append(args, *filter.SourceID)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}

	query.WriteString(" ORDER BY started_at DESC, rowid DESC")

	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*linkfeed.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*linkfeed.Run, error) {
	var run linkfeed.Run
	var startedAt, status string

	if err := row.Scan(&run.ID, &run.SourceID, &startedAt, &status,
		&run.ItemCount, &run.NewCount, &run.Digest, &run.Changed, &run.Error); err != nil {
		return nil, err
	}

	var err error
	run.StartedAt, err = parseRFC3339(startedAt, "started_at")
	if err != nil {
		return nil, err
	}
	run.Status = linkfeed.RunStatus(status)

	return &run, nil
}
