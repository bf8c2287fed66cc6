package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/services"
)

type AuditHandler struct {
	auditService  *services.AuditService
	exportService *services.ExportService
}

func NewAuditHandler(auditService *services.AuditService, exportService *services.ExportService) *AuditHandler {
	return &AuditHandler{auditService: auditService, exportService: exportService}
}

// @Summary List Audit Entries
// @Description Get audit trail entries, newest first, optionally scoped to one lease
// @Tags Audits
// @Produce json
// @Param lease_id query int false "Scope to one lease"
// @Param limit query int false "Limit" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audits [get]
func (h *AuditHandler) Index(c *gin.Context) {
	leaseID, _ := strconv.ParseUint(c.Query("lease_id"), 10, 32)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, total, err := h.auditService.List(c.Request.Context(), uint(leaseID), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audits": logs, "total": total})
}

// @Summary Export Audit Trail
// @Description Download the audit trail as CSV or XLSX
// @Tags Audits
// @Produce application/octet-stream
// @Param lease_id query int false "Scope to one lease"
// @Param format query string false "csv or xlsx" default(xlsx)
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /audits/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	leaseID, _ := strconv.ParseUint(c.Query("lease_id"), 10, 32)

	var data []byte
	var fileName string
	var contentType string
	var err error

	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		data, fileName, err = h.exportService.ExportAuditCSV(c.Request.Context(), uint(leaseID))
		contentType = "text/csv"
	default:
		data, fileName, err = h.exportService.ExportAuditXLSX(c.Request.Context(), uint(leaseID))
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))
	c.Data(http.StatusOK, contentType, data)
}
