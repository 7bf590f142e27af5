package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jrmendez/caja-api/internal/middleware"
	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/services"
)

type LoanHandler struct {
	loanService *services.LoanService
}

func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// @Summary List Loans
// @Description Get a paginated list of loans
// @Tags Loans
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query int false "Filter by status (1 active, 0 closed)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans [get]
func (h *LoanHandler) Index(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["customer_id"] = c.Query("customer_id")
	query.Filters["status"] = c.Query("status")

	loans, total, err := h.loanService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, l := range loans {
		responses = append(responses, l.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"loans":      responses,
		"pagination": paginationResponse(query, total),
	})
}

// @Summary Get Loan
// @Description Get a loan by ID
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} models.LoanResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id} [get]
func (h *LoanHandler) Show(c *gin.Context) {
	id := parseIDParam(c, "loan_id")
	loan, err := h.loanService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

// @Summary Delinquent Loans
// @Description List active loans past their agreed end date
// @Tags Loans
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans/delinquent [get]
func (h *LoanHandler) Delinquent(c *gin.Context) {
	loans, err := h.loanService.FindDelinquent(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, l := range loans {
		responses = append(responses, l.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"loans": responses})
}

type CreateLoanRequest struct {
	CustomerID uint    `json:"customer_id" binding:"required"`
	Total      float64 `json:"total" binding:"required"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Notes      *string `json:"notes"`
}

// @Summary Create Loan
// @Description Open a new loan. A customer can hold at most one active loan.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body CreateLoanRequest true "Loan"
// @Success 201 {object} models.LoanResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	var req CreateLoanRequest
	if err := BindNestedOrFlat(c, "loan", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	loan := &models.Loan{
		CustomerID: req.CustomerID,
		Total:      req.Total,
		Notes:      req.Notes,
	}
	if req.StartDate != "" {
		startDate, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		loan.StartDate = startDate
	}
	if req.EndDate != "" {
		endDate, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		loan.EndDate = &endDate
	}

	actor := middleware.CurrentUser(c)
	if err := h.loanService.Create(c.Request.Context(), loan, actor, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"loan": loan.ToResponse()})
}

type UpdateLoanRequest struct {
	Total   *float64 `json:"total"`
	EndDate string   `json:"end_date"`
	Notes   *string  `json:"notes"`
}

// @Summary Update Loan
// @Description Update loan terms. Admin only; paid_total cannot be edited.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param request body UpdateLoanRequest true "Fields"
// @Success 200 {object} models.LoanResponse
// @Security BearerAuth
// @Router /loans/{loan_id} [put]
func (h *LoanHandler) Update(c *gin.Context) {
	id := parseIDParam(c, "loan_id")

	var req UpdateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		endDate = &parsed
	}

	actor := middleware.CurrentUser(c)
	loan, err := h.loanService.Update(c.Request.Context(), id, req.Total, endDate, req.Notes, actor, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

// @Summary Close Loan
// @Description Mark a loan as closed. Admin only.
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} models.LoanResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/close [post]
func (h *LoanHandler) Close(c *gin.Context) {
	id := parseIDParam(c, "loan_id")
	actor := middleware.CurrentUser(c)

	loan, err := h.loanService.Close(c.Request.Context(), id, actor, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

// @Summary Reopen Loan
// @Description Undo a loan closure. Admin only; fails if the customer already has another active loan.
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} models.LoanResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/reopen [post]
func (h *LoanHandler) Reopen(c *gin.Context) {
	id := parseIDParam(c, "loan_id")
	actor := middleware.CurrentUser(c)

	loan, err := h.loanService.Reopen(c.Request.Context(), id, actor, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}
