package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/madio-cloud/signalement-service/internal/errs"
	"github.com/madio-cloud/signalement-service/internal/model"
	"github.com/madio-cloud/signalement-service/internal/service"
)

type EntrepriseHandler struct {
	svc *service.EntrepriseService
}

func NewEntrepriseHandler(svc *service.EntrepriseService) *EntrepriseHandler {
	return &EntrepriseHandler{svc: svc}
}

type createEntrepriseRequest struct {
	Nom       string `json:"nom" binding:"required"`
	Adresse   string `json:"adresse"`
	Telephone string `json:"telephone"`
	Email     string `json:"email"`
}

func (h *EntrepriseHandler) Create(c *gin.Context) {
	var req createEntrepriseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: nom is required"})
		return
	}
	e := &model.Entreprise{
		Nom:       req.Nom,
		Adresse:   req.Adresse,
		Telephone: req.Telephone,
		Email:     req.Email,
	}
	if err := h.svc.Create(c.Request.Context(), e); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create entreprise"})
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *EntrepriseHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	e, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrEntrepriseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entreprise not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *EntrepriseHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list entreprises"})
		return
	}
	c.JSON(http.StatusOK, items)
}
