package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/livedraft/go/internal/models"
)

const DefaultKVBucket = "DRAFT_STATES"

// KVStore keeps draft snapshots in a JetStream key-value bucket. The bucket
// revision is the compare-and-swap token; the snapshot version is checked on
// top of it so callers see the same VersionConflict as with Postgres.
type KVStore struct {
	kv jetstream.KeyValue
}

// NewKVStore opens (or creates) the snapshot bucket.
func NewKVStore(ctx context.Context, js jetstream.JetStream, bucket string) (*KVStore, error) {
	if bucket == "" {
		bucket = DefaultKVBucket
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Live draft state snapshots",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open key value bucket %s: %w", bucket, err)
	}
	return &KVStore{kv: kv}, nil
}

func (k *KVStore) GetSnapshot(ctx context.Context, draftID uuid.UUID) (*models.DraftState, error) {
	s, _, err := k.get(ctx, draftID)
	return s, err
}

func (k *KVStore) CreateSnapshot(ctx context.Context, s *models.DraftState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if _, err := k.kv.Create(ctx, s.DraftID.String(), data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("draft %s: %w", s.DraftID, drafterr.ErrSnapshotExists)
		}
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	return nil
}

func (k *KVStore) WriteSnapshot(ctx context.Context, s *models.DraftState, expectedVersion int64) error {
	cur, rev, err := k.get(ctx, s.DraftID)
	if err != nil {
		return err
	}
	if cur.Version != expectedVersion {
		return fmt.Errorf("draft %s expected version %d, have %d: %w", s.DraftID, expectedVersion, cur.Version, drafterr.ErrVersionConflict)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if _, err := k.kv.Update(ctx, s.DraftID.String(), data, rev); err != nil {
		// A wrong last sequence means someone else wrote between our read and
		// update. Confirm by re-reading before reporting a conflict.
		if latest, latestRev, rerr := k.get(ctx, s.DraftID); rerr == nil && (latestRev != rev || latest.Version != expectedVersion) {
			return fmt.Errorf("draft %s revision moved: %w", s.DraftID, drafterr.ErrVersionConflict)
		}
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (k *KVStore) FetchNextDeadline(ctx context.Context, exclude []uuid.UUID) (*NextDeadline, error) {
	states, err := k.drafting(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range states {
		if slices.Contains(exclude, s.DraftID) {
			continue
		}
		d := s.DeadlineAt
		return &NextDeadline{DraftID: s.DraftID, Deadline: &d}, nil
	}
	return &NextDeadline{}, nil
}

func (k *KVStore) FetchDraftsDueForPick(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error) {
	states, err := k.drafting(ctx)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, s := range states {
		if s.DeadlineAt.After(now) || (limit > 0 && int32(len(ids)) >= limit) {
			break
		}
		ids = append(ids, s.DraftID)
	}
	return ids, nil
}

// drafting returns drafting snapshots ordered by deadline.
func (k *KVStore) drafting(ctx context.Context) ([]models.DraftState, error) {
	lister, err := k.kv.ListKeys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot keys: %w", err)
	}
	defer lister.Stop()

	var states []models.DraftState
	for key := range lister.Keys() {
		id, err := uuid.Parse(key)
		if err != nil {
			log.Warn().Str("key", key).Msg("skipping unexpected key in snapshot bucket")
			continue
		}
		s, _, err := k.get(ctx, id)
		if errors.Is(err, drafterr.ErrSnapshotNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if s.Phase == models.DraftPhaseDrafting {
			states = append(states, *s)
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i].DeadlineAt.Before(states[j].DeadlineAt) })
	return states, nil
}

func (k *KVStore) get(ctx context.Context, draftID uuid.UUID) (*models.DraftState, uint64, error) {
	entry, err := k.kv.Get(ctx, draftID.String())
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, 0, fmt.Errorf("draft %s: %w", draftID, drafterr.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get snapshot: %w", err)
	}
	var s models.DraftState
	if err := json.Unmarshal(entry.Value(), &s); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &s, entry.Revision(), nil
}
