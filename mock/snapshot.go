package mock

import (
	"context"

	"github.com/fwojciec/cardgap"
)

var _ cardgap.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is a mock implementation of cardgap.SnapshotStore.
type SnapshotStore struct {
	WriteBatchFn func(ctx context.Context, tag string, start, end int, records []*cardgap.ModelRecord) error
	WriteFinalFn func(ctx context.Context, tag string, records []*cardgap.ModelRecord) error
	ExistsFn     func(ctx context.Context, tag string) (bool, error)
	ResetFn      func(ctx context.Context, tag string) error
	LoadFn       func(ctx context.Context, tags []string) ([]*cardgap.ModelRecord, error)
	LockFn       func(ctx context.Context, tag string) (func() error, error)
}

func (s *SnapshotStore) WriteBatch(ctx context.Context, tag string, start, end int, records []*cardgap.ModelRecord) error {
	return s.WriteBatchFn(ctx, tag, start, end, records)
}

func (s *SnapshotStore) WriteFinal(ctx context.Context, tag string, records []*cardgap.ModelRecord) error {
	return s.WriteFinalFn(ctx, tag, records)
}

func (s *SnapshotStore) Exists(ctx context.Context, tag string) (bool, error) {
	return s.ExistsFn(ctx, tag)
}

func (s *SnapshotStore) Reset(ctx context.Context, tag string) error {
	return s.ResetFn(ctx, tag)
}

func (s *SnapshotStore) Load(ctx context.Context, tags []string) ([]*cardgap.ModelRecord, error) {
	return s.LoadFn(ctx, tags)
}

func (s *SnapshotStore) Lock(ctx context.Context, tag string) (func() error, error) {
	return s.LockFn(ctx, tag)
}

// NoLock is a LockFn that always succeeds.
func NoLock(context.Context, string) (func() error, error) {
	return func() error { return nil }, nil
}
