package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/sale"
)

// SessionSnapshotRepo keeps sale session snapshots in Redis so a restarted
// instance can resume the sales that were in progress.  Keys expire after
// ttl; every save refreshes it.
type SessionSnapshotRepo struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSessionSnapshotRepo returns a repo writing keys as "<prefix>:<id>".
func NewSessionSnapshotRepo(rdb *redis.Client, prefix string, ttl time.Duration) *SessionSnapshotRepo {
	return &SessionSnapshotRepo{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *SessionSnapshotRepo) key(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

// SaveSnapshot writes the snapshot as JSON.
func (r *SessionSnapshotRepo) SaveSnapshot(ctx context.Context, snap sale.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.ID, err)
	}
	return r.rdb.Set(ctx, r.key(snap.ID), b, r.ttl).Err()
}

// LoadSnapshot reads a snapshot; a missing key yields nil, nil.
func (r *SessionSnapshotRepo) LoadSnapshot(ctx context.Context, id string) (*sale.Snapshot, error) {
	b, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap sale.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// DeleteSnapshot removes the snapshot.
func (r *SessionSnapshotRepo) DeleteSnapshot(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, r.key(id)).Err()
}
