package service

import (
	"context"
	"database/sql"

	"casefile/pkg/platform/tx"
)

// SnapshotRunner runs a read-only unit of work so that every store read
// inside observes one consistent state. Summary assembly uses it: comparing
// plans, visibilities, and reviews read at different moments would let a
// concurrent save produce derived facts no single state ever had.
type SnapshotRunner interface {
	Snapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

// passthroughSnapshots runs the work directly. The memory stores copy under
// one lock acquisition per read, which is snapshot enough for tests and
// single-node development.
type passthroughSnapshots struct{}

func (passthroughSnapshots) Snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type sqlSnapshots struct {
	db *sql.DB
}

// NewSQLSnapshots groups reads into a read-only repeatable-read transaction
// carried on the context, which the SQL stores' execer pattern picks up.
func NewSQLSnapshots(db *sql.DB) SnapshotRunner {
	return sqlSnapshots{db: db}
}

func (s sqlSnapshots) Snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.ReadOnly(ctx, s.db, fn)
}
