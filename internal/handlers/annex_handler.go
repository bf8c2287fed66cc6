package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/middleware"
	"github.com/rentora/rentora-api/internal/services"
)

type AnnexHandler struct {
	annexService *services.AnnexService
}

func NewAnnexHandler(annexService *services.AnnexService) *AnnexHandler {
	return &AnnexHandler{annexService: annexService}
}

// @Summary List Lease Annexes
// @Description Get a lease's annex documents with their signatures
// @Tags Annexes
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /leases/{lease_id}/annexes [get]
func (h *AnnexHandler) Index(c *gin.Context) {
	leaseID, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	annexes, err := h.annexService.ListForLease(c.Request.Context(), uint(leaseID), middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range annexes {
		responses = append(responses, annexes[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"annexes": responses})
}

// @Summary Generate Lease Annexes
// @Description Creates the fixed annex set for a lease. Idempotent.
// @Tags Annexes
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /leases/{lease_id}/annexes [post]
func (h *AnnexHandler) Create(c *gin.Context) {
	leaseID, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	annexes, err := h.annexService.CreateForLease(c.Request.Context(), uint(leaseID), middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range annexes {
		responses = append(responses, annexes[i].ToResponse())
	}
	c.JSON(http.StatusCreated, gin.H{"annexes": responses})
}

// @Summary Sign Annex
// @Description Records the current user's signature on an annex document
// @Tags Annexes
// @Accept json
// @Produce json
// @Param annex_id path int true "Annex ID"
// @Param request body services.SignatureRequest true "Signature Data"
// @Success 200 {object} models.AnnexResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /annexes/{annex_id}/sign [post]
func (h *AnnexHandler) Sign(c *gin.Context) {
	annexID, _ := strconv.ParseUint(c.Param("annex_id"), 10, 32)

	var req services.SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	annex, err := h.annexService.Sign(c.Request.Context(), uint(annexID), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"annex": annex.ToResponse()})
}
