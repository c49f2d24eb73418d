package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SnapshotRow is one periodic dump of runtime counters.
type SnapshotRow struct {
	TakenAt          time.Time
	Uptime           time.Duration
	TickCount        int64
	SystemCount      int
	EventsDispatched int64
	EventsPending    int
}

// SnapshotRepo persists runtime snapshots.
type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

func (r *SnapshotRepo) Save(ctx context.Context, row *SnapshotRow) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO runtime_snapshots
			(taken_at, uptime_ms, tick_count, system_count, events_dispatched, events_pending)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		row.TakenAt,
		row.Uptime.Milliseconds(),
		row.TickCount,
		row.SystemCount,
		row.EventsDispatched,
		row.EventsPending,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot, or nil when none exist.
func (r *SnapshotRepo) Latest(ctx context.Context) (*SnapshotRow, error) {
	var (
		row      SnapshotRow
		uptimeMs int64
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT taken_at, uptime_ms, tick_count, system_count, events_dispatched, events_pending
		FROM runtime_snapshots
		ORDER BY taken_at DESC
		LIMIT 1`).Scan(
		&row.TakenAt,
		&uptimeMs,
		&row.TickCount,
		&row.SystemCount,
		&row.EventsDispatched,
		&row.EventsPending,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	row.Uptime = time.Duration(uptimeMs) * time.Millisecond
	return &row, nil
}
