package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/middleware"
	"github.com/rentora/rentora-api/internal/services"
	"github.com/rentora/rentora-api/pkg/logger"
)

type ApplicationHandler struct {
	applicationService  *services.ApplicationService
	notificationService *services.NotificationService
}

func NewApplicationHandler(applicationService *services.ApplicationService, notificationService *services.NotificationService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService:  applicationService,
		notificationService: notificationService,
	}
}

// @Summary Submit Application
// @Description Files the current tenant's application for a listing
// @Tags Applications
// @Accept json
// @Produce json
// @Param request body services.SubmitApplicationRequest true "Application Data"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /applications [post]
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req services.SubmitApplicationRequest
	if err := BindNestedOrFlat(c, "application", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	application, err := h.applicationService.Submit(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"application": application})
}

// @Summary Get Application
// @Description Get one application, visible to its tenant and the listing's landlord
// @Tags Applications
// @Produce json
// @Param application_id path int true "Application ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /applications/{application_id} [get]
func (h *ApplicationHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("application_id"), 10, 32)
	application, err := h.applicationService.GetApplication(c.Request.Context(), uint(id), middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": application})
}

// @Summary List My Applications
// @Description Get the current tenant's applications
// @Tags Applications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /applications [get]
func (h *ApplicationHandler) Index(c *gin.Context) {
	applications, err := h.applicationService.ListForTenant(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": applications})
}

// @Summary List Listing Applications
// @Description Get a listing's applications, landlord only
// @Tags Applications
// @Produce json
// @Param listing_id path int true "Listing ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /listings/{listing_id}/applications [get]
func (h *ApplicationHandler) IndexByListing(c *gin.Context) {
	listingID, _ := strconv.ParseUint(c.Param("listing_id"), 10, 32)
	applications, err := h.applicationService.ListForListing(c.Request.Context(), uint(listingID), middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": applications})
}

// @Summary Accept Application
// @Description Accepts a pending application, creating the draft lease and its annex set
// @Tags Applications
// @Produce json
// @Param application_id path int true "Application ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /applications/{application_id}/accept [post]
func (h *ApplicationHandler) Accept(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("application_id"), 10, 32)
	application, err := h.applicationService.Accept(c.Request.Context(), uint(id), middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.notificationService.NotifyApplicationDecision(c.Request.Context(), application); err != nil {
		logger.Error("Failed to notify applicant", "application_id", application.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"application": application})
}

type RejectApplicationRequest struct {
	Reason *string `json:"reason"`
}

// @Summary Reject Application
// @Description Rejects a pending application
// @Tags Applications
// @Accept json
// @Produce json
// @Param application_id path int true "Application ID"
// @Param request body RejectApplicationRequest false "Rejection Reason"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /applications/{application_id}/reject [post]
func (h *ApplicationHandler) Reject(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("application_id"), 10, 32)

	var req RejectApplicationRequest
	_ = c.ShouldBindJSON(&req)

	application, err := h.applicationService.Reject(c.Request.Context(), uint(id), middleware.GetUserID(c), middleware.IsAdmin(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.notificationService.NotifyApplicationDecision(c.Request.Context(), application); err != nil {
		logger.Error("Failed to notify applicant", "application_id", application.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"application": application})
}

// @Summary Withdraw Application
// @Description Withdraws the current tenant's pending application
// @Tags Applications
// @Produce json
// @Param application_id path int true "Application ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /applications/{application_id}/withdraw [post]
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("application_id"), 10, 32)
	application, err := h.applicationService.Withdraw(c.Request.Context(), uint(id), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": application})
}
