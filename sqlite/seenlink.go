package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fwojciec/linkfeed"
	"github.com/fwojciec/linkfeed/bloom"
)

// Bloom filter sizing for known links.
const (
	DefaultExpectedLinks = 100_000
	DefaultFalsePositive = 0.01
)

// Compile-time interface verification.
var _ linkfeed.SeenLinkService = (*SeenLinkService)(nil)

// SeenLinkService implements linkfeed.SeenLinkService using SQLite.
//
// Once warmed, its Bloom filter holds every stored link, so a link the
// filter has never seen is counted as new without touching the table. Only
// links the filter may have seen are looked up. This assumes the service is
// the only writer to the database while it is in use.
type SeenLinkService struct {
	db     *DB
	filter *bloom.Filter
	warmed atomic.Bool
}

// NewSeenLinkService creates a new SeenLinkService. Until Warm is called
// every recorded link is looked up in the table.
func NewSeenLinkService(db *DB) *SeenLinkService {
	return &SeenLinkService{
		db:     db,
		filter: bloom.NewFilter(DefaultExpectedLinks, DefaultFalsePositive),
	}
}

// Warm loads every stored link into the Bloom filter.
func (s *SeenLinkService) Warm(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT source_id, url FROM seen_links")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sourceID, url string
		if err := rows.Scan(&sourceID, &url); err != nil {
			return err
		}
		s.filter.Add(sourceID, url)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	s.warmed.Store(true)
	return nil
}

// RecordLinks stores items not yet known for the source and returns how
// many were new. Inserts and lookups are batched.
func (s *SeenLinkService) RecordLinks(ctx context.Context, sourceID string, items []linkfeed.Item, seenAt time.Time) (int, error) {
	if sourceID == "" {
		return 0, linkfeed.Errorf(linkfeed.EINVALID, "source ID required")
	}

	unique := make([]linkfeed.Item, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}
		unique = append(unique, item)
	}
	if len(unique) == 0 {
		return 0, nil
	}

	warmed := s.warmed.Load()
	var maybeSeen []string
	for _, item := range unique {
		if !warmed || s.filter.Test(sourceID, item.URL) {
			maybeSeen = append(maybeSeen, item.URL)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	known, err := findKnownLinks(ctx, tx, sourceID, maybeSeen)
	if err != nil {
		return 0, err
	}

	fresh := make([]linkfeed.Item, 0, len(unique))
	for _, item := range unique {
		if _, ok := known[item.URL]; !ok {
			fresh = append(fresh, item)
		}
	}

	if err := insertLinks(ctx, tx, sourceID, fresh, formatTime(seenAt)); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	for _, item := range fresh {
		s.filter.Add(sourceID, item.URL)
	}
	return len(fresh), nil
}

// FindSeenLinks retrieves recorded links matching the filter, newest first.
func (s *SeenLinkService) FindSeenLinks(ctx context.Context, filter linkfeed.SeenLinkFilter) ([]*linkfeed.SeenLink, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT source_id, url, title, first_seen_at FROM seen_links WHERE 1=1")

	if filter.SourceID != nil {
		query.WriteString(" AND source_id = ?")
		args = append(args, *filter.SourceID)
	}

	query.WriteString(" ORDER BY first_seen_at DESC, rowid ASC")

	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []*linkfeed.SeenLink{}
	for rows.Next() {
		var link linkfeed.SeenLink
		var firstSeenAt string
		if err := rows.Scan(&link.SourceID, &link.URL, &link.Title, &firstSeenAt); err != nil {
			return nil, err
		}
		link.FirstSeenAt, err = parseRFC3339(firstSeenAt, "first_seen_at")
		if err != nil {
			return nil, err
		}
		links = append(links, &link)
	}

	return links, rows.Err()
}

// linkBatchSize bounds the rows per statement so parameter counts stay
// below SQLite's limit.
const linkBatchSize = 200

// findKnownLinks returns which of urls are already stored for the source.
func findKnownLinks(ctx context.Context, tx *sql.Tx, sourceID string, urls []string) (map[string]struct{}, error) {
	known := make(map[string]struct{})
	for start := 0; start < len(urls); start += linkBatchSize {
		batch := urls[start:min(start+linkBatchSize, len(urls))]

		args := make([]any, 0, len(batch)+1)
		args = append(args, sourceID)
		for _, u := range batch {
			args = append(args, u)
		}

		query := "SELECT url FROM seen_links WHERE source_id = ? AND url IN (?" +
			strings.Repeat(", ?", len(batch)-1) + ")"
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var u string
			if err := rows.Scan(&u); err != nil {
				rows.Close()
				return nil, err
			}
			known[u] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return known, nil
}

// insertLinks stores items with multi-row inserts.
func insertLinks(ctx context.Context, tx *sql.Tx, sourceID string, items []linkfeed.Item, firstSeenAt string) error {
	for start := 0; start < len(items); start += linkBatchSize {
		batch := items[start:min(start+linkBatchSize, len(items))]

		args := make([]any, 0, len(batch)*4)
		for _, item := range batch {
			args = append(args, sourceID, item.URL, item.Title, firstSeenAt)
		}

		query := "INSERT OR IGNORE INTO seen_links (source_id, url, title, first_seen_at) VALUES (?, ?, ?, ?)" +
			strings.Repeat(", (?, ?, ?, ?)", len(batch)-1)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}
