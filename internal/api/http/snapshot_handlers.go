package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/snapshot"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/utils"
)

// SaveSnapshot captures the current tree as a named snapshot
func (h *Handlers) SaveSnapshot(c *gin.Context) {
	var req types.SnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		req.Name = "unnamed"
	}

	done := h.tracker.TrackSnapshotOperation("save")
	snap, err := h.snapshots.Save(req.Name, req.Description)
	done()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.metrics.IncSnapshotsSaved()

	c.JSON(http.StatusCreated, gin.H{"snapshot": snap.ToMetadata()})
}

// ListSnapshots lists snapshot metadata, newest first
func (h *Handlers) ListSnapshots(c *gin.Context) {
	metadata, err := h.snapshots.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": metadata,
		"count":     len(metadata),
	})
}

// GetSnapshot returns one full snapshot including its tree. Peers use
// this endpoint to pull, so the snapshot is the entire response body.
func (h *Handlers) GetSnapshot(c *gin.Context) {
	snapID := c.Param("id")
	if err := utils.ValidateID(snapID, "snapshot_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.snapshots.Get(snapID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// RestoreSnapshot replaces the tree with a saved snapshot
func (h *Handlers) RestoreSnapshot(c *gin.Context) {
	snapID := c.Param("id")
	if err := utils.ValidateID(snapID, "snapshot_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	done := h.tracker.TrackSnapshotOperation("restore")
	err := h.snapshots.Restore(snapID)
	done()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.metrics.IncSnapshotsRestored()

	c.JSON(http.StatusOK, gin.H{"restored": true, "snapshot_id": snapID})
}

// DeleteSnapshot removes a snapshot
func (h *Handlers) DeleteSnapshot(c *gin.Context) {
	snapID := c.Param("id")
	if err := utils.ValidateID(snapID, "snapshot_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.snapshots.Get(snapID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err := h.snapshots.Delete(snapID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "snapshot_id": snapID})
}

// ReceiveSnapshot accepts a full snapshot from a replication peer
func (h *Handlers) ReceiveSnapshot(c *gin.Context) {
	var snap snapshot.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.snapshots.Import(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("snapshot received from peer",
		zap.String("snapshot_id", snap.ID),
		zap.String("name", snap.Name))

	c.JSON(http.StatusCreated, gin.H{"imported": true, "snapshot_id": snap.ID})
}

// PushSnapshot ships a saved snapshot to the configured peer
func (h *Handlers) PushSnapshot(c *gin.Context) {
	if h.replicator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no replication peer configured"})
		return
	}

	var req types.ReplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.snapshots.Get(req.SnapshotID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if err := h.replicator.Push(c.Request.Context(), snap); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pushed": true, "snapshot_id": req.SnapshotID})
}

// PullSnapshot fetches a snapshot from the configured peer, imports
// it, and optionally restores it immediately.
func (h *Handlers) PullSnapshot(c *gin.Context) {
	if h.replicator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no replication peer configured"})
		return
	}

	var req types.ReplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.replicator.Pull(c.Request.Context(), req.SnapshotID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if err := h.snapshots.Import(snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	restored := false
	if req.Restore {
		if err := h.snapshots.Restore(snap.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		h.metrics.IncSnapshotsRestored()
		restored = true
	}

	c.JSON(http.StatusOK, gin.H{
		"pulled":      true,
		"snapshot_id": snap.ID,
		"restored":    restored,
	})
}
