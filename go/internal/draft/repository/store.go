package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mcdev12/livedraft/go/internal/models"
)

// SnapshotStore is the versioned snapshot half of the draft store.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error)
	CreateSnapshot(ctx context.Context, s *models.DraftState) error
	WriteSnapshot(ctx context.Context, s *models.DraftState, expectedVersion int64) error
	FetchNextDeadline(ctx context.Context, exclude []uuid.UUID) (*NextDeadline, error)
	FetchDraftsDueForPick(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error)
}

// DraftStore is everything the draft apps read and write.
type DraftStore interface {
	SnapshotStore
	CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	SaveDraftOrder(ctx context.Context, id uuid.UUID, draftOrder []string, settings models.DraftSettings) error
	AppendPickRecord(ctx context.Context, rec models.PickRecord) error
	ListPickRecords(ctx context.Context, draftID uuid.UUID) ([]models.PickRecord, error)
}

var (
	_ SnapshotStore = (*Repository)(nil)
	_ SnapshotStore = (*KVStore)(nil)
	_ SnapshotStore = (*MemoryStore)(nil)

	_ DraftStore = (*Repository)(nil)
	_ DraftStore = (*SplitStore)(nil)
	_ DraftStore = (*MemoryStore)(nil)
)

// Open returns the Postgres store, or a SplitStore keeping snapshots in the
// JetStream KV bucket when js is not nil.
func Open(ctx context.Context, db *sql.DB, js jetstream.JetStream, kvBucket string) (DraftStore, error) {
	repo := NewRepository(db)
	if js == nil {
		return repo, nil
	}
	kv, err := NewKVStore(ctx, js, kvBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot bucket: %w", err)
	}
	return NewSplitStore(repo, kv), nil
}

// SplitStore serves drafts and pick records from Postgres and snapshots from
// another SnapshotStore.
type SplitStore struct {
	*Repository
	snapshots SnapshotStore
}

// NewSplitStore routes snapshot reads and writes to snapshots.
func NewSplitStore(repo *Repository, snapshots SnapshotStore) *SplitStore {
	return &SplitStore{Repository: repo, snapshots: snapshots}
}

func (s *SplitStore) GetSnapshot(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error) {
	return s.snapshots.GetSnapshot(ctx, draftID)
}

func (s *SplitStore) CreateSnapshot(ctx context.Context, st *models.DraftState) error {
	return s.snapshots.CreateSnapshot(ctx, st)
}

func (s *SplitStore) WriteSnapshot(ctx context.Context, st *models.DraftState, expectedVersion int64) error {
	return s.snapshots.WriteSnapshot(ctx, st, expectedVersion)
}

func (s *SplitStore) FetchNextDeadline(ctx context.Context, exclude []uuid.UUID) (*NextDeadline, error) {
	return s.snapshots.FetchNextDeadline(ctx, exclude)
}

func (s *SplitStore) FetchDraftsDueForPick(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error) {
	return s.snapshots.FetchDraftsDueForPick(ctx, now, limit)
}
