package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/madio-cloud/signalement-service/internal/errs"
	"github.com/madio-cloud/signalement-service/internal/kafka"
	"github.com/madio-cloud/signalement-service/internal/model"
	"github.com/madio-cloud/signalement-service/internal/service"
	"github.com/madio-cloud/signalement-service/internal/sync"
)

type SignalementHandler struct {
	svc      service.SignalementServicer
	syncer   *sync.Syncer
	producer kafka.SignalementEventProducer
}

func NewSignalementHandler(svc service.SignalementServicer, syncer *sync.Syncer, producer kafka.SignalementEventProducer) *SignalementHandler {
	return &SignalementHandler{svc: svc, syncer: syncer, producer: producer}
}

type createSignalementRequest struct {
	Description  string   `json:"description"`
	Latitude     *float64 `json:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	SurfaceM2    *float64 `json:"surface_m2"`
	Budget       *float64 `json:"budget"`
	EntrepriseID *uint64  `json:"entreprise_id"`
	UserID       *uint64  `json:"user_id"`
}

func (h *SignalementHandler) Create(c *gin.Context) {
	var req createSignalementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: latitude and longitude are required"})
		return
	}
	sig := &model.Signalement{
		Description:  req.Description,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		SurfaceM2:    req.SurfaceM2,
		Budget:       req.Budget,
		EntrepriseID: req.EntrepriseID,
		UserID:       req.UserID,
	}
	if err := h.svc.Create(c.Request.Context(), sig); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create signalement"})
		return
	}
	h.produceAsync("signalement.created", sig)
	c.JSON(http.StatusCreated, sig)
}

func (h *SignalementHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	sig, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrSignalementNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "signalement not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sig)
}

func (h *SignalementHandler) List(c *gin.Context) {
	filter := make(map[string]interface{})
	if v := c.Query("status"); v != "" {
		filter["status = ?"] = v
	}
	if v := c.Query("user_id"); v != "" {
		filter["user_id = ?"] = v
	}
	if v := c.Query("entreprise_id"); v != "" {
		filter["entreprise_id = ?"] = v
	}

	limit := 0
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	items, total, err := h.svc.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list signalements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"signalements": items,
		"total":        total,
	})
}

func (h *SignalementHandler) ListByStatus(c *gin.Context) {
	status := model.Status(c.Param("status"))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	items, total, err := h.svc.List(c.Request.Context(), map[string]interface{}{"status = ?": status}, 0, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list signalements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signalements": items, "total": total})
}

func (h *SignalementHandler) ListByUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	items, total, err := h.svc.List(c.Request.Context(), map[string]interface{}{"user_id = ?": userID}, 0, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list signalements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signalements": items, "total": total})
}

type statusUpdateRequest struct {
	Status string  `json:"status" binding:"required"`
	UserID *uint64 `json:"user_id"`
}

// UpdateStatus runs the transition workflow and then pushes the change to
// the document store. A failed push is reported as a partial failure in the
// sync block, never masked as full success. Requesting the current status is
// a no-op end to end: no propagation, no event, no sync block.
func (h *SignalementHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: status is required"})
		return
	}

	sig, changed, err := h.svc.ChangeStatus(c.Request.Context(), id, model.Status(req.Status), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrSignalementNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "signalement not found"})
		case errors.Is(err, errs.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: must be NEW, IN_PROGRESS or DONE"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	if !changed {
		c.JSON(http.StatusOK, gin.H{"signalement": sig})
		return
	}

	h.produceAsync("signalement.status_changed", sig)
	c.JSON(http.StatusOK, gin.H{
		"signalement": sig,
		"sync":        h.propagate(c.Request.Context(), sig.ID),
	})
}

type updateSignalementRequest struct {
	Description  *string  `json:"description,omitempty"`
	Status       *string  `json:"status,omitempty"`
	SurfaceM2    *float64 `json:"surface_m2,omitempty"`
	Budget       *float64 `json:"budget,omitempty"`
	EntrepriseID *uint64  `json:"entreprise_id,omitempty"`
	UserID       *uint64  `json:"acting_user_id,omitempty"`
}

func (h *SignalementHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateSignalementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	changes := make(map[string]interface{})
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.Status != nil {
		changes["status"] = *req.Status
	}
	if req.SurfaceM2 != nil {
		changes["surface_m2"] = *req.SurfaceM2
	}
	if req.Budget != nil {
		changes["budget"] = *req.Budget
	}
	if req.EntrepriseID != nil {
		changes["entreprise_id"] = *req.EntrepriseID
	}
	if len(changes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no changes"})
		return
	}

	sig, err := h.svc.Update(c.Request.Context(), id, changes, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrSignalementNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "signalement not found"})
		case errors.Is(err, errs.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: must be NEW, IN_PROGRESS or DONE"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	h.produceAsync("signalement.updated", sig)
	c.JSON(http.StatusOK, gin.H{
		"signalement": sig,
		"sync":        h.propagate(c.Request.Context(), sig.ID),
	})
}

type syncStatus struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"document_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (h *SignalementHandler) propagate(ctx context.Context, id uint64) syncStatus {
	res, err := h.syncer.PropagateSignalement(ctx, id)
	if err != nil {
		// The relational transition committed; only the push failed. The
		// merge is idempotent, so retrying the endpoint is safe.
		return syncStatus{Success: false, Error: errs.ErrPartialFailure.Error() + ": " + err.Error()}
	}
	return syncStatus{Success: true, DocumentID: res.DocumentID}
}

func (h *SignalementHandler) produceAsync(event string, sig *model.Signalement) {
	if h.producer == nil {
		return
	}
	payload := map[string]interface{}{
		"signalement_id": int64(sig.ID),
		"status":         string(sig.Status),
		"avancement":     sig.Avancement,
		"latitude":       sig.Latitude,
		"longitude":      sig.Longitude,
	}
	if sig.UserID != nil {
		payload["user_id"] = int64(*sig.UserID)
	}
	if sig.EntrepriseID != nil {
		payload["entreprise_id"] = int64(*sig.EntrepriseID)
	}
	// Fire-and-forget: the event should survive request cancellation, but
	// with a bound.
	eventCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		defer cancel()
		h.producer.ProduceSignalementEvent(eventCtx, event, payload)
	}()
}
