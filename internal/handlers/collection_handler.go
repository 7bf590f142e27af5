package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jrmendez/caja-api/internal/middleware"
	"github.com/jrmendez/caja-api/internal/services"
)

type CollectionHandler struct {
	collectionService *services.CollectionService
}

func NewCollectionHandler(collectionService *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

// @Summary Post Collection
// @Description Records a collection event: header, per-customer details and loan repayments in one transaction
// @Tags Collections
// @Accept json
// @Produce json
// @Param request body services.PostCollectionInput true "Collection"
// @Success 201 {object} models.CollectionResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /collections [post]
func (h *CollectionHandler) Create(c *gin.Context) {
	var input services.PostCollectionInput
	if err := BindNestedOrFlat(c, "collection", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actor := middleware.CurrentUser(c)
	collection, err := h.collectionService.Post(c.Request.Context(), &input, actor, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"collection": collection.ToResponse()})
}

// @Summary List Collections
// @Description Get a paginated list of collections. Collectors only see their own.
// @Tags Collections
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param market_id query int false "Filter by market"
// @Param start_date query string false "Filter from date (YYYY-MM-DD)"
// @Param end_date query string false "Filter to date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /collections [get]
func (h *CollectionHandler) Index(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["collector_id"] = c.Query("collector_id")
	query.Filters["customer_id"] = c.Query("customer_id")
	query.Filters["market_id"] = c.Query("market_id")
	query.Filters["payment_method"] = c.Query("payment_method")
	query.Filters["start_date"] = c.Query("start_date")
	query.Filters["end_date"] = c.Query("end_date")

	actor := middleware.CurrentUser(c)
	collections, total, err := h.collectionService.List(c.Request.Context(), query, actor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, col := range collections {
		responses = append(responses, col.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"collections": responses,
		"pagination":  paginationResponse(query, total),
	})
}

// @Summary Get Collection
// @Description Get a collection with its details by ID
// @Tags Collections
// @Produce json
// @Param collection_id path int true "Collection ID"
// @Success 200 {object} models.CollectionResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /collections/{collection_id} [get]
func (h *CollectionHandler) Show(c *gin.Context) {
	id := parseIDParam(c, "collection_id")
	actor := middleware.CurrentUser(c)

	collection, err := h.collectionService.FindByID(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"collection": collection.ToResponse()})
}

type UpdateCollectionRequest struct {
	Total         *float64 `json:"total"`
	Notes         *string  `json:"notes"`
	Category      *string  `json:"category"`
	PaymentMethod string   `json:"payment_method"`
}

// @Summary Update Collection
// @Description Correct a collection header (total, notes, category, payment method). Owner or admin.
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection_id path int true "Collection ID"
// @Param request body UpdateCollectionRequest true "Fields"
// @Success 200 {object} models.CollectionResponse
// @Security BearerAuth
// @Router /collections/{collection_id} [put]
func (h *CollectionHandler) Update(c *gin.Context) {
	id := parseIDParam(c, "collection_id")

	var req UpdateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actor := middleware.CurrentUser(c)
	collection, err := h.collectionService.UpdateHeader(c.Request.Context(), id, req.Total, req.Notes, req.Category, req.PaymentMethod, actor, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"collection": collection.ToResponse()})
}

type DeleteCollectionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// @Summary Delete Collection
// @Description Remove a collection and its details. Admin only; requires a reason.
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection_id path int true "Collection ID"
// @Param request body DeleteCollectionRequest true "Reason"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /collections/{collection_id} [delete]
func (h *CollectionHandler) Destroy(c *gin.Context) {
	id := parseIDParam(c, "collection_id")

	var req DeleteCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A reason is required"})
		return
	}

	actor := middleware.CurrentUser(c)
	if err := h.collectionService.Delete(c.Request.Context(), id, req.Reason, actor, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Collection removed"})
}

type UpdateDetailRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes"`
	Reason string  `json:"reason" binding:"required"`
}

// @Summary Update Collection Detail
// @Description Flip one member's detail between PAID and NOT_PAID, optionally correcting its notes. Never reverses loan repayments.
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection_id path int true "Collection ID"
// @Param customer_id path int true "Customer ID"
// @Param request body UpdateDetailRequest true "Status and reason"
// @Success 200 {object} models.CollectionDetailResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /collections/{collection_id}/details/member/{customer_id} [put]
func (h *CollectionHandler) UpdateDetail(c *gin.Context) {
	collectionID := parseIDParam(c, "collection_id")
	customerID := parseIDParam(c, "customer_id")

	var req UpdateDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status and reason are required"})
		return
	}

	actor := middleware.CurrentUser(c)
	detail, err := h.collectionService.UpdateDetailStatus(c.Request.Context(), collectionID, customerID, req.Status, req.Notes, req.Reason, actor, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": detail.ToResponse()})
}

type DeleteDetailRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// @Summary Delete Collection Detail
// @Description Remove one member's detail row. Never reverses loan repayments.
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection_id path int true "Collection ID"
// @Param customer_id path int true "Customer ID"
// @Param request body DeleteDetailRequest true "Reason"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /collections/{collection_id}/details/member/{customer_id} [delete]
func (h *CollectionHandler) DeleteDetail(c *gin.Context) {
	collectionID := parseIDParam(c, "collection_id")
	customerID := parseIDParam(c, "customer_id")

	var req DeleteDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A reason is required"})
		return
	}

	actor := middleware.CurrentUser(c)
	if err := h.collectionService.DeleteDetail(c.Request.Context(), collectionID, customerID, req.Reason, actor, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Detail removed"})
}

// @Summary Attach Photo
// @Description Attach a receipt photo to a collection
// @Tags Collections
// @Accept multipart/form-data
// @Produce json
// @Param collection_id path int true "Collection ID"
// @Param photo formData file true "Photo (JPG/PNG)"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /collections/{collection_id}/photo [post]
func (h *CollectionHandler) AttachPhoto(c *gin.Context) {
	id := parseIDParam(c, "collection_id")

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A photo file is required"})
		return
	}
	defer file.Close()

	actor := middleware.CurrentUser(c)
	path, err := h.collectionService.AttachPhoto(c.Request.Context(), id, file, header, actor, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"photo_path": path})
}
