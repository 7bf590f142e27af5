package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jrmendez/caja-api/internal/jobs"
	"github.com/jrmendez/caja-api/internal/repository"
	"github.com/jrmendez/caja-api/internal/services"
	"github.com/jrmendez/caja-api/internal/storage"
)

// Handlers holds all handler instances
type Handlers struct {
	Health     *HealthHandler
	Auth       *AuthHandler
	User       *UserHandler
	Customer   *CustomerHandler
	Market     *MarketHandler
	Collection *CollectionHandler
	Loan       *LoanHandler
	Expense    *ExpenseHandler
	Report     *ReportHandler
	Audit      *AuditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, storage *storage.LocalStorage, worker *jobs.Worker) *Handlers {
	return &Handlers{
		Health:     NewHealthHandler(worker),
		Auth:       NewAuthHandler(svcs.Auth),
		User:       NewUserHandler(svcs.User),
		Customer:   NewCustomerHandler(svcs.Customer, svcs.Report),
		Market:     NewMarketHandler(svcs.Market),
		Collection: NewCollectionHandler(svcs.Collection),
		Loan:       NewLoanHandler(svcs.Loan),
		Expense:    NewExpenseHandler(svcs.Expense, storage),
		Report:     NewReportHandler(svcs.Report),
		Audit:      NewAuditHandler(svcs.Audit),
	}
}

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// parseListQuery reads pagination, search and sort parameters shared by every
// index endpoint. Sort format is "field-direction", e.g. "created_at-desc".
func parseListQuery(c *gin.Context) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search")

	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}
	return query
}

// paginationResponse builds the standard pagination envelope
func paginationResponse(query *repository.ListQuery, total int64) gin.H {
	totalPages := int64(0)
	if query.PerPage > 0 {
		totalPages = (total + int64(query.PerPage) - 1) / int64(query.PerPage)
	}
	return gin.H{
		"page":        query.Page,
		"per_page":    query.PerPage,
		"total":       total,
		"total_pages": totalPages,
	}
}

// parseIDParam reads a numeric path parameter
func parseIDParam(c *gin.Context, name string) uint {
	id, _ := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(id)
}
