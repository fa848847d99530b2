// Package store bridges the SQLite store to the check use case's
// Store port.
package store

import (
	"context"

	"github.com/bkyoung/covcheck/internal/adapter/store/sqlite"
	"github.com/bkyoung/covcheck/internal/domain"
	"github.com/bkyoung/covcheck/internal/usecase/check"
)

// Bridge adapts sqlite.Store to check.Store.
type Bridge struct {
	store *sqlite.Store
}

// NewBridge wraps a SQLite store.
func NewBridge(store *sqlite.Store) *Bridge {
	return &Bridge{store: store}
}

// SaveRun persists a run and its gap entries.
func (b *Bridge) SaveRun(ctx context.Context, run check.StoreRun, entries []domain.GapEntry) error {
	return b.store.SaveRun(ctx, sqlite.Run{
		RunID:          run.RunID,
		Timestamp:      run.Timestamp,
		Repository:     run.Repository,
		BaseRef:        run.BaseRef,
		HeadRef:        run.HeadRef,
		FilesWithGaps:  run.FilesWithGaps,
		UncoveredLines: run.UncoveredLines,
	}, entries)
}

// Close releases the underlying store.
func (b *Bridge) Close() error {
	return b.store.Close()
}
