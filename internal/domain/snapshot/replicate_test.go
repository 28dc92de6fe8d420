package snapshot

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtuoslabs/virtuos/backend/internal/infrastructure/resilience"
)

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()

	return &Snapshot{
		ID:        "snap_replicated",
		Name:      "nightly",
		CreatedAt: time.Now().UTC(),
		State:     testState(t),
	}
}

// TestReplicatorPush verifies that pushing posts the snapshot JSON to
// the peer's snapshots endpoint.
func TestReplicatorPush(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	r := NewReplicator(srv.URL, nil)
	snap := testSnapshot(t)
	require.NoError(t, r.Push(context.Background(), snap))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/snapshots", gotPath)

	var sent Snapshot
	require.NoError(t, sonic.Unmarshal(gotBody, &sent))
	assert.Equal(t, snap.ID, sent.ID)
	assert.Equal(t, snap.State.Root, sent.State.Root)
}

// TestReplicatorPushRejected verifies that a peer rejection surfaces as
// an error naming the snapshot.
func TestReplicatorPushRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	r := NewReplicator(srv.URL, nil)
	err := r.Push(context.Background(), testSnapshot(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snap_replicated")
}

// TestReplicatorPushBreakerOpens verifies that repeated peer failures
// trip the circuit so later pushes fail fast without hitting the wire.
func TestReplicatorPushBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	r := NewReplicator(srv.URL, nil)
	snap := testSnapshot(t)
	for i := 0; i < 6; i++ {
		assert.Error(t, r.Push(context.Background(), snap))
	}
	before := hits.Load()

	err := r.Push(context.Background(), snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, before, hits.Load(), "open circuit should not reach the peer")
}

// TestReplicatorPull verifies the fetch and decode of a remote snapshot.
func TestReplicatorPull(t *testing.T) {
	snap := testSnapshot(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/snapshots/"+snap.ID, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		data, err := sonic.Marshal(snap)
		require.NoError(t, err)
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	r := NewReplicator(srv.URL, nil)
	got, err := r.Pull(context.Background(), snap.ID)
	require.NoError(t, err)

	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, snap.Name, got.Name)
	assert.Equal(t, snap.State.Root, got.State.Root)
}

// TestReplicatorPullMissing verifies that a 404 from the peer is an
// error, not an empty snapshot.
func TestReplicatorPullMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewReplicator(srv.URL, nil)
	_, err := r.Pull(context.Background(), "snap_gone")
	assert.Error(t, err)
}

// TestReplicatorPullEmptyBody verifies that a response without a tree is
// rejected.
func TestReplicatorPullEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	r := NewReplicator(srv.URL, nil)
	_, err := r.Pull(context.Background(), "snap_empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty snapshot")
}
