package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/middleware"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/services"
)

type LeaseHandler struct {
	leaseService    *services.LeaseService
	scheduleService *services.PaymentScheduleService
}

func NewLeaseHandler(leaseService *services.LeaseService, scheduleService *services.PaymentScheduleService) *LeaseHandler {
	return &LeaseHandler{leaseService: leaseService, scheduleService: scheduleService}
}

// @Summary List Leases
// @Description Get a paginated list of leases visible to the current user
// @Tags Leases
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /leases [get]
func (h *LeaseHandler) Index(c *gin.Context) {
	query := &repository.LeaseQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Status = c.Query("status")
	query.UserID = middleware.GetUserID(c)
	query.IsAdmin = middleware.IsAdmin(c)

	leases, total, err := h.leaseService.ListLeases(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for _, lease := range leases {
		responses = append(responses, lease.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"leases": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Lease
// @Description Get a lease with its parties, signatures and annexes
// @Tags Leases
// @Accept json
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 200 {object} models.LeaseResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /leases/{lease_id} [get]
func (h *LeaseHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	lease, err := h.leaseService.GetLease(c.Request.Context(), uint(id), middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lease": lease.ToResponse()})
}

// @Summary Create Lease
// @Description Create a lease manually, without an application behind it
// @Tags Leases
// @Accept json
// @Produce json
// @Param request body services.CreateLeaseRequest true "Lease Data"
// @Success 201 {object} models.LeaseResponse
// @Security BearerAuth
// @Router /leases [post]
func (h *LeaseHandler) Create(c *gin.Context) {
	var req services.CreateLeaseRequest
	if err := BindNestedOrFlat(c, "lease", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lease, err := h.leaseService.CreateManual(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"lease": lease.ToResponse()})
}

// @Summary Sign Lease as Tenant
// @Description Records the tenant's signature on the lease
// @Tags Leases
// @Accept json
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Param request body services.SignatureRequest true "Signature Data"
// @Success 200 {object} models.LeaseResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /leases/{lease_id}/sign_tenant [post]
func (h *LeaseHandler) SignTenant(c *gin.Context) {
	h.sign(c, h.leaseService.SubmitTenantSignature)
}

// @Summary Sign Lease as Landlord
// @Description Records the landlord's signature on the lease
// @Tags Leases
// @Accept json
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Param request body services.SignatureRequest true "Signature Data"
// @Success 200 {object} models.LeaseResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /leases/{lease_id}/sign_owner [post]
func (h *LeaseHandler) SignOwner(c *gin.Context) {
	h.sign(c, h.leaseService.SubmitOwnerSignature)
}

func (h *LeaseHandler) sign(c *gin.Context, submit func(ctx context.Context, leaseID, userID uint, req *services.SignatureRequest) (*models.Lease, error)) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)

	var req services.SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	lease, err := submit(c.Request.Context(), uint(id), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lease": lease.ToResponse()})
}

// @Summary Finalize Lease
// @Description Renders, hashes and stores the sealed lease document. Idempotent.
// @Tags Leases
// @Accept json
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 200 {object} models.LeaseResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /leases/{lease_id}/finalize [post]
func (h *LeaseHandler) Finalize(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	userID := middleware.GetUserID(c)

	// Only a party or an admin may trigger finalization explicitly
	lease, err := h.leaseService.GetLease(c.Request.Context(), uint(id), userID, middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}

	lease, err = h.leaseService.Finalize(c.Request.Context(), lease.ID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lease": lease.ToResponse()})
}

// @Summary Cancel Lease
// @Description Voids a lease that has not been finalized
// @Tags Leases
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 200 {object} models.LeaseResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /leases/{lease_id}/cancel [post]
func (h *LeaseHandler) Cancel(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	lease, err := h.leaseService.Cancel(c.Request.Context(), uint(id), middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lease": lease.ToResponse()})
}

// @Summary Download Lease Document
// @Description Streams the sealed lease PDF. Pass download=1 for an attachment disposition.
// @Tags Leases
// @Produce application/pdf
// @Param lease_id path int true "Lease ID"
// @Param download query int false "Force download"
// @Success 200 {file} binary
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /leases/{lease_id}/document [get]
func (h *LeaseHandler) Document(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	download := c.Query("download") == "1"

	data, fileName, err := h.leaseService.GetDocument(c.Request.Context(), uint(id), middleware.GetUserID(c), middleware.IsAdmin(c), download)
	if err != nil {
		respondError(c, err)
		return
	}

	disposition := "inline"
	if download {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%s", disposition, fileName))
	c.Data(http.StatusOK, "application/pdf", data)
}

// @Summary Verify Lease Document
// @Description Re-hashes the stored artifact against the sealed digest
// @Tags Leases
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /leases/{lease_id}/verify [get]
func (h *LeaseHandler) Verify(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	if err := h.leaseService.VerifyDocument(c.Request.Context(), uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}

// @Summary Lease Payment Schedule
// @Description Projects the payment calendar implied by the lease terms
// @Tags Leases
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /leases/{lease_id}/payment_schedule [get]
func (h *LeaseHandler) PaymentSchedule(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	lease, err := h.leaseService.GetLease(c.Request.Context(), uint(id), middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}

	entries := h.scheduleService.GenerateForLease(lease)
	c.JSON(http.StatusOK, gin.H{
		"schedule":    entries,
		"total_value": h.scheduleService.TotalValue(entries),
	})
}
