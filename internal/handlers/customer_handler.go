package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jrmendez/caja-api/internal/middleware"
	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/services"
)

type CustomerHandler struct {
	customerService *services.CustomerService
	reportService   *services.ReportService
}

func NewCustomerHandler(customerService *services.CustomerService, reportService *services.ReportService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, reportService: reportService}
}

// @Summary List Customers
// @Description Get a paginated list of customers
// @Tags Customers
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param market_id query int false "Filter by market"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /customers [get]
func (h *CustomerHandler) Index(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["market_id"] = c.Query("market_id")
	query.Filters["status"] = c.Query("status")

	customers, total, err := h.customerService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, cust := range customers {
		responses = append(responses, cust.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"customers":  responses,
		"pagination": paginationResponse(query, total),
	})
}

// @Summary Get Customer
// @Description Get a customer with their loans by ID
// @Tags Customers
// @Produce json
// @Param customer_id path int true "Customer ID"
// @Success 200 {object} models.CustomerResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /customers/{customer_id} [get]
func (h *CustomerHandler) Show(c *gin.Context) {
	id := parseIDParam(c, "customer_id")
	customer, err := h.customerService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var loans []models.LoanResponse
	for _, l := range customer.Loans {
		loans = append(loans, l.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"customer": customer.ToResponse(),
		"loans":    loans,
	})
}

type CustomerRequest struct {
	FullName string  `json:"full_name" binding:"required"`
	Phone    string  `json:"phone"`
	Address  *string `json:"address"`
	MarketID *uint   `json:"market_id"`
	Notes    *string `json:"notes"`
	Status   string  `json:"status"`
}

// @Summary Create Customer
// @Description Create a new customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body CustomerRequest true "Customer"
// @Success 201 {object} models.CustomerResponse
// @Security BearerAuth
// @Router /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CustomerRequest
	if err := BindNestedOrFlat(c, "customer", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	customer := &models.Customer{
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
		MarketID: req.MarketID,
		Notes:    req.Notes,
		Status:   req.Status,
	}

	actor := middleware.CurrentUser(c)
	if err := h.customerService.Create(c.Request.Context(), customer, actor, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"customer": customer.ToResponse()})
}

// @Summary Update Customer
// @Description Update customer fields
// @Tags Customers
// @Accept json
// @Produce json
// @Param customer_id path int true "Customer ID"
// @Param request body CustomerRequest true "Fields"
// @Success 200 {object} models.CustomerResponse
// @Security BearerAuth
// @Router /customers/{customer_id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id := parseIDParam(c, "customer_id")

	customer, err := h.customerService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var req CustomerRequest
	if err := BindNestedOrFlat(c, "customer", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	customer.FullName = req.FullName
	customer.Phone = req.Phone
	customer.Address = req.Address
	customer.MarketID = req.MarketID
	customer.Notes = req.Notes
	if req.Status != "" {
		customer.Status = req.Status
	}

	actor := middleware.CurrentUser(c)
	if err := h.customerService.Update(c.Request.Context(), customer, actor, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer.ToResponse()})
}

// @Summary Delete Customer
// @Description Remove a customer. Admin only; blocked while an active loan exists.
// @Tags Customers
// @Produce json
// @Param customer_id path int true "Customer ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /customers/{customer_id} [delete]
func (h *CustomerHandler) Destroy(c *gin.Context) {
	id := parseIDParam(c, "customer_id")
	actor := middleware.CurrentUser(c)
	if err := h.customerService.Delete(c.Request.Context(), id, actor, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer removed"})
}

// @Summary Customer Statement
// @Description Get a customer's payment history, or download it as PDF with format=pdf
// @Tags Customers
// @Produce json
// @Param customer_id path int true "Customer ID"
// @Param format query string false "Set to pdf for a PDF download"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /customers/{customer_id}/statement [get]
func (h *CustomerHandler) Statement(c *gin.Context) {
	id := parseIDParam(c, "customer_id")

	if c.Query("format") == "pdf" {
		buf, err := h.reportService.CustomerStatementPDF(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		filename := fmt.Sprintf("statement_%d_%s.pdf", id, time.Now().Format("2006-01-02"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
		return
	}

	customer, details, err := h.customerService.Statement(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var loans []models.LoanResponse
	for _, l := range customer.Loans {
		loans = append(loans, l.ToResponse())
	}
	var payments []models.CollectionDetailResponse
	for _, d := range details {
		payments = append(payments, d.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"customer": customer.ToResponse(),
		"loans":    loans,
		"payments": payments,
	})
}
