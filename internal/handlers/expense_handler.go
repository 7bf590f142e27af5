package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jrmendez/caja-api/internal/middleware"
	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/services"
	"github.com/jrmendez/caja-api/internal/storage"
)

type ExpenseHandler struct {
	expenseService *services.ExpenseService
	storage        *storage.LocalStorage
}

func NewExpenseHandler(expenseService *services.ExpenseService, storage *storage.LocalStorage) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, storage: storage}
}

// @Summary List Expenses
// @Description Get a paginated list of expenses
// @Tags Expenses
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param category query string false "Filter by category"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /expenses [get]
func (h *ExpenseHandler) Index(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["category"] = c.Query("category")
	query.Filters["user_id"] = c.Query("user_id")
	query.Filters["start_date"] = c.Query("start_date")
	query.Filters["end_date"] = c.Query("end_date")

	expenses, total, err := h.expenseService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, e := range expenses {
		responses = append(responses, e.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"expenses":   responses,
		"pagination": paginationResponse(query, total),
	})
}

// @Summary Get Expense
// @Description Get an expense by ID
// @Tags Expenses
// @Produce json
// @Param expense_id path int true "Expense ID"
// @Success 200 {object} models.ExpenseResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /expenses/{expense_id} [get]
func (h *ExpenseHandler) Show(c *gin.Context) {
	id := parseIDParam(c, "expense_id")
	expense, err := h.expenseService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": expense.ToResponse()})
}

type CreateExpenseRequest struct {
	Amount   float64 `json:"amount" binding:"required"`
	Category string  `json:"category" binding:"required"`
	Notes    *string `json:"notes"`
	SpentAt  string  `json:"spent_at"`
}

// @Summary Create Expense
// @Description Record a business expense
// @Tags Expenses
// @Accept json
// @Produce json
// @Param request body CreateExpenseRequest true "Expense"
// @Success 201 {object} models.ExpenseResponse
// @Security BearerAuth
// @Router /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req CreateExpenseRequest
	if err := BindNestedOrFlat(c, "expense", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	expense := &models.Expense{
		Amount:   req.Amount,
		Category: req.Category,
		Notes:    req.Notes,
	}
	if req.SpentAt != "" {
		spentAt, err := time.Parse("2006-01-02", req.SpentAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "spent_at must be YYYY-MM-DD"})
			return
		}
		expense.SpentAt = spentAt
	}

	actor := middleware.CurrentUser(c)
	if err := h.expenseService.Create(c.Request.Context(), expense, actor, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expense": expense.ToResponse()})
}

type UpdateExpenseRequest struct {
	Amount   *float64 `json:"amount"`
	Category *string  `json:"category"`
	Notes    *string  `json:"notes"`
}

// @Summary Update Expense
// @Description Update an expense. Owner or admin.
// @Tags Expenses
// @Accept json
// @Produce json
// @Param expense_id path int true "Expense ID"
// @Param request body UpdateExpenseRequest true "Fields"
// @Success 200 {object} models.ExpenseResponse
// @Security BearerAuth
// @Router /expenses/{expense_id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	id := parseIDParam(c, "expense_id")

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actor := middleware.CurrentUser(c)
	expense, err := h.expenseService.Update(c.Request.Context(), id, req.Amount, req.Category, req.Notes, actor, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense.ToResponse()})
}

// @Summary Delete Expense
// @Description Remove an expense. Owner or admin.
// @Tags Expenses
// @Produce json
// @Param expense_id path int true "Expense ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /expenses/{expense_id} [delete]
func (h *ExpenseHandler) Destroy(c *gin.Context) {
	id := parseIDParam(c, "expense_id")
	actor := middleware.CurrentUser(c)
	if err := h.expenseService.Delete(c.Request.Context(), id, actor, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense removed"})
}

// @Summary Attach Receipt
// @Description Upload a receipt file (PDF/JPG/PNG) for an expense
// @Tags Expenses
// @Accept multipart/form-data
// @Produce json
// @Param expense_id path int true "Expense ID"
// @Param receipt formData file true "Receipt file"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /expenses/{expense_id}/receipt [post]
func (h *ExpenseHandler) AttachReceipt(c *gin.Context) {
	id := parseIDParam(c, "expense_id")

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A receipt file is required"})
		return
	}
	defer file.Close()

	if header.Size > storage.MaxFileSize() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the 10MB limit"})
		return
	}
	if !storage.IsValidContentType(header.Header.Get("Content-Type")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF, JPG and PNG files are accepted"})
		return
	}

	expense, err := h.expenseService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	oldPath := expense.ReceiptPath

	path, err := h.storage.Upload(file, header, "receipts")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.CurrentUser(c)
	if err := h.expenseService.AttachReceipt(c.Request.Context(), id, path, actor, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}

	// The replaced file is orphaned once the new path is persisted
	if oldPath != nil && *oldPath != "" {
		_ = h.storage.Delete(*oldPath)
	}

	c.JSON(http.StatusOK, gin.H{"receipt_path": path})
}

// @Summary Download Receipt
// @Description Download the receipt file attached to an expense
// @Tags Expenses
// @Produce octet-stream
// @Param expense_id path int true "Expense ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /expenses/{expense_id}/receipt [get]
func (h *ExpenseHandler) DownloadReceipt(c *gin.Context) {
	id := parseIDParam(c, "expense_id")
	expense, err := h.expenseService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if expense.ReceiptPath == nil || !h.storage.Exists(*expense.ReceiptPath) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No receipt on file for this expense"})
		return
	}

	c.File(h.storage.GetFullPath(*expense.ReceiptPath))
}
