package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jrmendez/caja-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// @Summary Ledger Summary
// @Description Headline totals over a date range. Admin only.
// @Tags Reports
// @Produce json
// @Param start_date query string false "From date (YYYY-MM-DD)"
// @Param end_date query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} services.LedgerSummary
// @Security BearerAuth
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.reportService.Summary(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Daily Reconciliation
// @Description Per-collector reported vs accounted totals for one day. Admin only.
// @Tags Reports
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /reports/reconciliation [get]
func (h *ReportHandler) Reconciliation(c *gin.Context) {
	rows, err := h.reportService.Reconciliation(c.Request.Context(), c.Query("date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// @Summary Export Collections
// @Description Download collections in a date range as CSV or XLSX. Admin only.
// @Tags Reports
// @Produce octet-stream
// @Param start_date query string false "From date (YYYY-MM-DD)"
// @Param end_date query string false "To date (YYYY-MM-DD)"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/collections/export [get]
func (h *ReportHandler) ExportCollections(c *gin.Context) {
	from := c.Query("start_date")
	to := c.Query("end_date")

	var data []byte
	var filename, contentType string
	var err error

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		data, filename, err = h.reportService.ExportCollectionsXLSX(c.Request.Context(), from, to)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		data, filename, err = h.reportService.ExportCollectionsCSV(c.Request.Context(), from, to)
		contentType = "text/csv"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, contentType, data)
}

// @Summary Summary PDF
// @Description Download the ledger summary as PDF. Admin only.
// @Tags Reports
// @Produce octet-stream
// @Param start_date query string false "From date (YYYY-MM-DD)"
// @Param end_date query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/summary/pdf [get]
func (h *ReportHandler) SummaryPDF(c *gin.Context) {
	data, filename, err := h.reportService.ExportSummaryPDF(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
