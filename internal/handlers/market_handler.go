package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jrmendez/caja-api/internal/middleware"
	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/services"
)

type MarketHandler struct {
	marketService *services.MarketService
}

func NewMarketHandler(marketService *services.MarketService) *MarketHandler {
	return &MarketHandler{marketService: marketService}
}

// @Summary List Markets
// @Description Get a paginated list of markets
// @Tags Markets
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /markets [get]
func (h *MarketHandler) Index(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["schedule_day"] = c.Query("schedule_day")

	markets, total, err := h.marketService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"markets":    markets,
		"pagination": paginationResponse(query, total),
	})
}

// @Summary Get Market
// @Description Get a market by ID
// @Tags Markets
// @Produce json
// @Param market_id path int true "Market ID"
// @Success 200 {object} models.Market
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /markets/{market_id} [get]
func (h *MarketHandler) Show(c *gin.Context) {
	id := parseIDParam(c, "market_id")
	market, err := h.marketService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"market": market})
}

type MarketRequest struct {
	Name        string  `json:"name" binding:"required"`
	Address     *string `json:"address"`
	ScheduleDay *string `json:"schedule_day"`
	Notes       *string `json:"notes"`
}

// @Summary Create Market
// @Description Create a new market. Admin only.
// @Tags Markets
// @Accept json
// @Produce json
// @Param request body MarketRequest true "Market"
// @Success 201 {object} models.Market
// @Security BearerAuth
// @Router /markets [post]
func (h *MarketHandler) Create(c *gin.Context) {
	var req MarketRequest
	if err := BindNestedOrFlat(c, "market", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	market := &models.Market{
		Name:        req.Name,
		Address:     req.Address,
		ScheduleDay: req.ScheduleDay,
		Notes:       req.Notes,
	}

	if err := h.marketService.Create(c.Request.Context(), market, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"market": market})
}

// @Summary Update Market
// @Description Update market fields. Admin only.
// @Tags Markets
// @Accept json
// @Produce json
// @Param market_id path int true "Market ID"
// @Param request body MarketRequest true "Fields"
// @Success 200 {object} models.Market
// @Security BearerAuth
// @Router /markets/{market_id} [put]
func (h *MarketHandler) Update(c *gin.Context) {
	id := parseIDParam(c, "market_id")

	market, err := h.marketService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var req MarketRequest
	if err := BindNestedOrFlat(c, "market", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	market.Name = req.Name
	market.Address = req.Address
	market.ScheduleDay = req.ScheduleDay
	market.Notes = req.Notes

	if err := h.marketService.Update(c.Request.Context(), market, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"market": market})
}

// @Summary Delete Market
// @Description Remove a market. Admin only.
// @Tags Markets
// @Produce json
// @Param market_id path int true "Market ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /markets/{market_id} [delete]
func (h *MarketHandler) Destroy(c *gin.Context) {
	id := parseIDParam(c, "market_id")
	if err := h.marketService.Delete(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Market removed"})
}
