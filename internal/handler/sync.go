package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/madio-cloud/signalement-service/internal/errs"
	"github.com/madio-cloud/signalement-service/internal/sync"
)

type SyncHandler struct {
	syncer *sync.Syncer
}

func NewSyncHandler(syncer *sync.Syncer) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

// IngestSignalements triggers one ingestion run. Per-record failures are
// part of the summary; only a failed listing is an error response.
func (h *SyncHandler) IngestSignalements(c *gin.Context) {
	res, err := h.syncer.IngestSignalements(c.Request.Context())
	if err != nil {
		if errors.Is(err, errs.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SyncHandler) MirrorUsers(c *gin.Context) {
	res, err := h.syncer.MirrorUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}
