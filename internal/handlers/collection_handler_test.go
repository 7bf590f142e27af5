package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/repository"
	"github.com/jrmendez/caja-api/internal/services"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type mockCollectionRepo struct {
	mockPostCollection func(ctx context.Context, header *models.Collection, details []models.CollectionDetail, singleLoanID *uint) error
	mockFindByID       func(ctx context.Context, id uint) (*models.Collection, error)
	mockFindDetail     func(ctx context.Context, collectionID, customerID uint) (*models.CollectionDetail, error)
}

func (m *mockCollectionRepo) PostCollection(ctx context.Context, header *models.Collection, details []models.CollectionDetail, singleLoanID *uint) error {
	if m.mockPostCollection != nil {
		return m.mockPostCollection(ctx, header, details, singleLoanID)
	}
	return nil
}
func (m *mockCollectionRepo) FindByID(ctx context.Context, id uint) (*models.Collection, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockCollectionRepo) List(ctx context.Context, query *repository.CollectionQuery) ([]models.Collection, int64, error) {
	return nil, 0, nil
}
func (m *mockCollectionRepo) UpdateHeader(ctx context.Context, collection *models.Collection) error {
	return nil
}
func (m *mockCollectionRepo) Delete(ctx context.Context, id uint) error { return nil }
func (m *mockCollectionRepo) FindDetail(ctx context.Context, collectionID, customerID uint) (*models.CollectionDetail, error) {
	if m.mockFindDetail != nil {
		return m.mockFindDetail(ctx, collectionID, customerID)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockCollectionRepo) UpdateDetail(ctx context.Context, detail *models.CollectionDetail) error {
	return nil
}
func (m *mockCollectionRepo) DeleteDetail(ctx context.Context, collectionID, customerID uint) error {
	return nil
}
func (m *mockCollectionRepo) SetPhotoPath(ctx context.Context, id uint, path string) error {
	return nil
}

type mockCustomerRepo struct {
	repository.CustomerRepository
}

func (m *mockCustomerRepo) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	return &models.Customer{ID: id, FullName: "Test Customer"}, nil
}

type mockAuditRepo struct{}

func (m *mockAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error { return nil }
func (m *mockAuditRepo) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	return nil, 0, nil
}

func newCollectionHandlerForTest(repo *mockCollectionRepo) *CollectionHandler {
	svc := services.NewCollectionService(repo, &mockCustomerRepo{}, services.NewAuditService(&mockAuditRepo{}), nil)
	return NewCollectionHandler(svc)
}

func authedContext(t *testing.T, w *httptest.ResponseRecorder, userID uint, role string) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(w)
	c.Set("userID", userID)
	c.Set("userEmail", "test@caja.app")
	c.Set("userRole", role)
	return c
}

func TestCollectionHandler_Create(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newCollectionHandlerForTest(&mockCollectionRepo{
		mockPostCollection: func(ctx context.Context, header *models.Collection, details []models.CollectionDetail, singleLoanID *uint) error {
			header.ID = 1
			return nil
		},
	})

	// nested payload, the Rails-client format
	payload := map[string]interface{}{
		"collection": map[string]interface{}{
			"customer_id": 1,
			"total":       150.0,
			"details": []map[string]interface{}{
				{"customer_id": 2, "amount": 150.0},
			},
		},
	}

	w := httptest.NewRecorder()
	c := authedContext(t, w, 5, models.RoleCollector)
	body, _ := json.Marshal(payload)
	c.Request, _ = http.NewRequest("POST", "/collections", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "collection")
}

func TestCollectionHandler_Create_InvalidTotal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCollectionHandlerForTest(&mockCollectionRepo{})

	payload := map[string]interface{}{
		"customer_id": 1,
		"total":       -20.0,
	}

	w := httptest.NewRecorder()
	c := authedContext(t, w, 5, models.RoleCollector)
	body, _ := json.Marshal(payload)
	c.Request, _ = http.NewRequest("POST", "/collections", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollectionHandler_Show_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCollectionHandlerForTest(&mockCollectionRepo{})

	w := httptest.NewRecorder()
	c := authedContext(t, w, 5, models.RoleCollector)
	c.Params = gin.Params{{Key: "collection_id", Value: "99"}}
	c.Request, _ = http.NewRequest("GET", "/collections/99", nil)

	handler.Show(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCollectionHandler_Show_ForbiddenForOtherCollector(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCollectionHandlerForTest(&mockCollectionRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Collection, error) {
			return &models.Collection{ID: id, CollectorID: 1}, nil
		},
	})

	w := httptest.NewRecorder()
	c := authedContext(t, w, 2, models.RoleCollector)
	c.Params = gin.Params{{Key: "collection_id", Value: "7"}}
	c.Request, _ = http.NewRequest("GET", "/collections/7", nil)

	handler.Show(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCollectionHandler_UpdateDetail_ReasonRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCollectionHandlerForTest(&mockCollectionRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Collection, error) {
			return &models.Collection{ID: id, CollectorID: 5}, nil
		},
		mockFindDetail: func(ctx context.Context, collectionID, customerID uint) (*models.CollectionDetail, error) {
			return &models.CollectionDetail{ID: 1, Status: models.DetailStatusPaid}, nil
		},
	})

	// missing reason fails binding
	w := httptest.NewRecorder()
	c := authedContext(t, w, 5, models.RoleCollector)
	c.Params = gin.Params{{Key: "collection_id", Value: "7"}, {Key: "customer_id", Value: "2"}}
	body, _ := json.Marshal(map[string]string{"status": models.DetailStatusNotPaid})
	c.Request, _ = http.NewRequest("PUT", "/collections/7/details/member/2", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.UpdateDetail(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// with a reason it goes through
	w = httptest.NewRecorder()
	c = authedContext(t, w, 5, models.RoleCollector)
	c.Params = gin.Params{{Key: "collection_id", Value: "7"}, {Key: "customer_id", Value: "2"}}
	body, _ = json.Marshal(map[string]string{"status": models.DetailStatusNotPaid, "reason": "customer disputed"})
	c.Request, _ = http.NewRequest("PUT", "/collections/7/details/member/2", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.UpdateDetail(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCollectionHandler_DeleteDetail_ReasonRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCollectionHandlerForTest(&mockCollectionRepo{})

	w := httptest.NewRecorder()
	c := authedContext(t, w, 5, models.RoleCollector)
	c.Params = gin.Params{{Key: "collection_id", Value: "7"}, {Key: "customer_id", Value: "2"}}
	c.Request, _ = http.NewRequest("DELETE", "/collections/7/details/member/2", bytes.NewBuffer([]byte(`{}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.DeleteDetail(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollectionHandler_Destroy_AdminOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCollectionHandlerForTest(&mockCollectionRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Collection, error) {
			return &models.Collection{ID: id, CollectorID: 5}, nil
		},
	})

	w := httptest.NewRecorder()
	c := authedContext(t, w, 5, models.RoleCollector)
	c.Params = gin.Params{{Key: "collection_id", Value: "7"}}
	body, _ := json.Marshal(map[string]string{"reason": "posted twice"})
	c.Request, _ = http.NewRequest("DELETE", "/collections/7", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Destroy(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	c = authedContext(t, w, 1, models.RoleAdmin)
	c.Params = gin.Params{{Key: "collection_id", Value: "7"}}
	body, _ = json.Marshal(map[string]string{"reason": "posted twice"})
	c.Request, _ = http.NewRequest("DELETE", "/collections/7", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Destroy(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
