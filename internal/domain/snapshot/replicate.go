package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/virtuoslabs/virtuos/backend/internal/infrastructure/resilience"
)

// Replicator ships named snapshots to a remote peer and fetches them
// back. Pushes retry with backoff behind a circuit breaker so a dead
// peer fails fast instead of stalling callers.
type Replicator struct {
	base    string
	push    *retryablehttp.Client
	pull    *resty.Client
	breaker *resilience.Breaker
	log     *zap.Logger
}

// NewReplicator creates a replicator for the peer base URL.
func NewReplicator(base string, log *zap.Logger) *Replicator {
	if log == nil {
		log = zap.NewNop()
	}

	push := retryablehttp.NewClient()
	push.RetryMax = 3
	push.RetryWaitMin = 200 * time.Millisecond
	push.RetryWaitMax = 2 * time.Second
	push.Logger = nil

	pull := resty.New().
		SetBaseURL(base).
		SetTimeout(10 * time.Second)

	return &Replicator{
		base:    base,
		push:    push,
		pull:    pull,
		breaker: resilience.New("snapshot-replicator", resilience.Settings{}),
		log:     log,
	}
}

// Push uploads a snapshot to the peer.
func (r *Replicator) Push(ctx context.Context, snap *Snapshot) error {
	data, err := sonic.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = r.breaker.Execute(func() (interface{}, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, r.base+"/snapshots", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.push.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("peer rejected snapshot: %s", resp.Status)
		}
		return nil, nil
	})
	if err != nil {
		r.log.Warn("snapshot push failed",
			zap.String("snapshot_id", snap.ID),
			zap.Error(err))
		return fmt.Errorf("push snapshot %s: %w", snap.ID, err)
	}

	r.log.Info("snapshot pushed",
		zap.String("snapshot_id", snap.ID),
		zap.Int("bytes", len(data)))
	return nil
}

// Pull fetches a snapshot from the peer by ID.
func (r *Replicator) Pull(ctx context.Context, snapID string) (*Snapshot, error) {
	var snap Snapshot
	resp, err := r.pull.R().
		SetContext(ctx).
		SetResult(&snap).
		Get("/snapshots/" + snapID)
	if err != nil {
		return nil, fmt.Errorf("pull snapshot %s: %w", snapID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pull snapshot %s: peer returned %s", snapID, resp.Status())
	}
	if snap.State == nil || snap.State.Root == nil {
		return nil, fmt.Errorf("pull snapshot %s: empty snapshot", snapID)
	}
	return &snap, nil
}
