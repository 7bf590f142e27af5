package services

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/repository"
	"github.com/jrmendez/caja-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Setup("test")
	os.Exit(m.Run())
}

// Mock CollectionRepository
type mockCollectionRepository struct {
	mockPostCollection func(ctx context.Context, header *models.Collection, details []models.CollectionDetail, singleLoanID *uint) error
	mockFindByID       func(ctx context.Context, id uint) (*models.Collection, error)
	mockFindDetail     func(ctx context.Context, collectionID, customerID uint) (*models.CollectionDetail, error)
	mockUpdateDetail   func(ctx context.Context, detail *models.CollectionDetail) error
	mockDeleteDetail   func(ctx context.Context, collectionID, customerID uint) error
	mockDelete         func(ctx context.Context, id uint) error
}

func (m *mockCollectionRepository) PostCollection(ctx context.Context, header *models.Collection, details []models.CollectionDetail, singleLoanID *uint) error {
	if m.mockPostCollection != nil {
		return m.mockPostCollection(ctx, header, details, singleLoanID)
	}
	return nil
}
func (m *mockCollectionRepository) FindByID(ctx context.Context, id uint) (*models.Collection, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockCollectionRepository) List(ctx context.Context, query *repository.CollectionQuery) ([]models.Collection, int64, error) {
	return nil, 0, nil
}
func (m *mockCollectionRepository) UpdateHeader(ctx context.Context, collection *models.Collection) error {
	return nil
}
func (m *mockCollectionRepository) Delete(ctx context.Context, id uint) error {
	if m.mockDelete != nil {
		return m.mockDelete(ctx, id)
	}
	return nil
}
func (m *mockCollectionRepository) FindDetail(ctx context.Context, collectionID, customerID uint) (*models.CollectionDetail, error) {
	if m.mockFindDetail != nil {
		return m.mockFindDetail(ctx, collectionID, customerID)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockCollectionRepository) UpdateDetail(ctx context.Context, detail *models.CollectionDetail) error {
	if m.mockUpdateDetail != nil {
		return m.mockUpdateDetail(ctx, detail)
	}
	return nil
}
func (m *mockCollectionRepository) DeleteDetail(ctx context.Context, collectionID, customerID uint) error {
	if m.mockDeleteDetail != nil {
		return m.mockDeleteDetail(ctx, collectionID, customerID)
	}
	return nil
}
func (m *mockCollectionRepository) SetPhotoPath(ctx context.Context, id uint, path string) error {
	return nil
}

// Mock CustomerRepository (embedding to avoid implementing all methods)
type mockCustomerRepository struct {
	repository.CustomerRepository
	mockFindByID func(ctx context.Context, id uint) (*models.Customer, error)
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return &models.Customer{ID: id, FullName: "Maria Lopez"}, nil
}

// Mock AuditRepository
type mockAuditRepository struct {
	mockCreate func(ctx context.Context, entry *models.AuditLog) error
	entries    []*models.AuditLog
}

func (m *mockAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, entry)
	}
	m.entries = append(m.entries, entry)
	return nil
}
func (m *mockAuditRepository) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	return nil, 0, nil
}

func newCollectionServiceForTest(repo *mockCollectionRepository, customerRepo *mockCustomerRepository, auditRepo *mockAuditRepository) *CollectionService {
	return NewCollectionService(repo, customerRepo, NewAuditService(auditRepo), nil)
}

func collector(id uint) *models.User {
	return &models.User{ID: id, Role: models.RoleCollector}
}

func admin(id uint) *models.User {
	return &models.User{ID: id, Role: models.RoleAdmin}
}

func TestPostCollection_RejectsInvalidInputBeforeTransaction(t *testing.T) {
	posted := false
	repo := &mockCollectionRepository{
		mockPostCollection: func(ctx context.Context, header *models.Collection, details []models.CollectionDetail, singleLoanID *uint) error {
			posted = true
			return nil
		},
	}
	svc := newCollectionServiceForTest(repo, &mockCustomerRepository{}, &mockAuditRepository{})

	loanID := uint(7)
	cases := []struct {
		name  string
		input PostCollectionInput
	}{
		{"zero total", PostCollectionInput{CustomerID: 1, Total: 0}},
		{"negative total", PostCollectionInput{CustomerID: 1, Total: -50}},
		{"missing customer", PostCollectionInput{Total: 100}},
		{"unknown payment method", PostCollectionInput{CustomerID: 1, Total: 100, PaymentMethod: "check"}},
		{"detail missing customer", PostCollectionInput{CustomerID: 1, Total: 100, Details: []CollectionDetailInput{{Amount: 50}}}},
		{"negative detail amount", PostCollectionInput{CustomerID: 1, Total: 100, Details: []CollectionDetailInput{{CustomerID: 2, Amount: -10}}}},
		{"unknown detail status", PostCollectionInput{CustomerID: 1, Total: 100, Details: []CollectionDetailInput{{CustomerID: 2, Amount: 10, Status: "PENDING"}}}},
		{"details and single loan together", PostCollectionInput{CustomerID: 1, Total: 100, SingleLoanID: &loanID, Details: []CollectionDetailInput{{CustomerID: 2, Amount: 10}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Post(context.Background(), &tc.input, collector(3), "1.2.3.4", "test")
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.False(t, posted, "invalid input must never reach the repository")
}

func TestPostCollection_Success(t *testing.T) {
	var gotHeader *models.Collection
	var gotDetails []models.CollectionDetail
	repo := &mockCollectionRepository{
		mockPostCollection: func(ctx context.Context, header *models.Collection, details []models.CollectionDetail, singleLoanID *uint) error {
			header.ID = 42
			gotHeader = header
			gotDetails = details
			return nil
		},
	}
	auditRepo := &mockAuditRepository{}
	svc := newCollectionServiceForTest(repo, &mockCustomerRepository{}, auditRepo)

	input := &PostCollectionInput{
		CustomerID: 1,
		Total:      250,
		Details: []CollectionDetailInput{
			{CustomerID: 2, Amount: 100},
			{CustomerID: 3, Amount: 150, Status: models.DetailStatusNotPaid},
		},
	}

	collection, err := svc.Post(context.Background(), input, collector(9), "1.2.3.4", "test")
	assert.NoError(t, err)
	assert.Equal(t, uint(42), collection.ID)
	assert.Equal(t, uint(9), gotHeader.CollectorID)
	assert.NotEmpty(t, gotHeader.ReferenceCode)
	assert.Equal(t, models.PaymentMethodCash, gotHeader.PaymentMethod, "payment method defaults to cash")

	// Status defaults to PAID; NOT_PAID rows are kept as given
	assert.Len(t, gotDetails, 2)
	assert.Equal(t, models.DetailStatusPaid, gotDetails[0].Status)
	assert.Equal(t, models.DetailStatusNotPaid, gotDetails[1].Status)

	assert.Len(t, auditRepo.entries, 1)
	assert.Equal(t, "POST", auditRepo.entries[0].Action)
}

func TestPostCollection_CustomerNotFound(t *testing.T) {
	customerRepo := &mockCustomerRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Customer, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newCollectionServiceForTest(&mockCollectionRepository{}, customerRepo, &mockAuditRepository{})

	_, err := svc.Post(context.Background(), &PostCollectionInput{CustomerID: 99, Total: 100}, collector(1), "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostCollection_SingleLoanNotFound(t *testing.T) {
	repo := &mockCollectionRepository{
		mockPostCollection: func(ctx context.Context, header *models.Collection, details []models.CollectionDetail, singleLoanID *uint) error {
			return gorm.ErrRecordNotFound
		},
	}
	svc := newCollectionServiceForTest(repo, &mockCustomerRepository{}, &mockAuditRepository{})

	loanID := uint(404)
	_, err := svc.Post(context.Background(), &PostCollectionInput{CustomerID: 1, Total: 100, SingleLoanID: &loanID}, collector(1), "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostCollection_RepositoryErrorPropagates(t *testing.T) {
	boom := errors.New("deadlock detected")
	repo := &mockCollectionRepository{
		mockPostCollection: func(ctx context.Context, header *models.Collection, details []models.CollectionDetail, singleLoanID *uint) error {
			return boom
		},
	}
	auditRepo := &mockAuditRepository{}
	svc := newCollectionServiceForTest(repo, &mockCustomerRepository{}, auditRepo)

	_, err := svc.Post(context.Background(), &PostCollectionInput{CustomerID: 1, Total: 100}, collector(1), "", "")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, auditRepo.entries, "a failed posting must not be audited")
}

func TestPostCollection_AuditFailureDoesNotFailPosting(t *testing.T) {
	auditRepo := &mockAuditRepository{
		mockCreate: func(ctx context.Context, entry *models.AuditLog) error {
			return errors.New("audit table unavailable")
		},
	}
	svc := newCollectionServiceForTest(&mockCollectionRepository{}, &mockCustomerRepository{}, auditRepo)

	collection, err := svc.Post(context.Background(), &PostCollectionInput{CustomerID: 1, Total: 100}, collector(1), "", "")
	assert.NoError(t, err)
	assert.NotNil(t, collection)
}

func TestUpdateDetailStatus_RequiresReason(t *testing.T) {
	svc := newCollectionServiceForTest(&mockCollectionRepository{}, &mockCustomerRepository{}, &mockAuditRepository{})

	_, err := svc.UpdateDetailStatus(context.Background(), 1, 2, models.DetailStatusNotPaid, nil, "   ", admin(1), "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateDetailStatus_OwnershipChecks(t *testing.T) {
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Collection, error) {
			return &models.Collection{ID: id, CollectorID: 5}, nil
		},
		mockFindDetail: func(ctx context.Context, collectionID, customerID uint) (*models.CollectionDetail, error) {
			return &models.CollectionDetail{ID: 10, CollectionID: collectionID, CustomerID: customerID, Status: models.DetailStatusPaid}, nil
		},
	}
	svc := newCollectionServiceForTest(repo, &mockCustomerRepository{}, &mockAuditRepository{})

	// another collector cannot touch it
	_, err := svc.UpdateDetailStatus(context.Background(), 1, 2, models.DetailStatusNotPaid, nil, "customer disputed", collector(6), "", "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// the owner can
	detail, err := svc.UpdateDetailStatus(context.Background(), 1, 2, models.DetailStatusNotPaid, nil, "customer disputed", collector(5), "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DetailStatusNotPaid, detail.Status)

	// so can an admin
	_, err = svc.UpdateDetailStatus(context.Background(), 1, 2, models.DetailStatusPaid, nil, "dispute resolved", admin(99), "", "")
	assert.NoError(t, err)
}

func TestUpdateDetailStatus_AuditsTheReason(t *testing.T) {
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Collection, error) {
			return &models.Collection{ID: id, CollectorID: 5}, nil
		},
		mockFindDetail: func(ctx context.Context, collectionID, customerID uint) (*models.CollectionDetail, error) {
			return &models.CollectionDetail{ID: 10, Status: models.DetailStatusPaid}, nil
		},
	}
	auditRepo := &mockAuditRepository{}
	svc := newCollectionServiceForTest(repo, &mockCustomerRepository{}, auditRepo)

	_, err := svc.UpdateDetailStatus(context.Background(), 1, 2, models.DetailStatusNotPaid, nil, "typo at posting", collector(5), "", "")
	assert.NoError(t, err)
	assert.Len(t, auditRepo.entries, 1)
	assert.Contains(t, auditRepo.entries[0].Details, "typo at posting")
}

func TestUpdateDetailStatus_CorrectsNotes(t *testing.T) {
	var saved *models.CollectionDetail
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Collection, error) {
			return &models.Collection{ID: id, CollectorID: 5}, nil
		},
		mockFindDetail: func(ctx context.Context, collectionID, customerID uint) (*models.CollectionDetail, error) {
			old := "wrong stall"
			return &models.CollectionDetail{ID: 11, CollectionID: collectionID, CustomerID: customerID, Status: models.DetailStatusNotPaid, Notes: &old}, nil
		},
		mockUpdateDetail: func(ctx context.Context, detail *models.CollectionDetail) error {
			saved = detail
			return nil
		},
	}
	svc := newCollectionServiceForTest(repo, &mockCustomerRepository{}, &mockAuditRepository{})

	notes := "stall 14, paid in person"
	detail, err := svc.UpdateDetailStatus(context.Background(), 1, 2, models.DetailStatusPaid, &notes, "mis-entered at posting", collector(5), "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DetailStatusPaid, detail.Status)
	assert.Equal(t, "stall 14, paid in person", *saved.Notes)

	// nil notes leaves the stored notes untouched
	detail, err = svc.UpdateDetailStatus(context.Background(), 1, 2, models.DetailStatusPaid, nil, "status only", collector(5), "", "")
	assert.NoError(t, err)
	assert.Equal(t, "wrong stall", *detail.Notes)
}

func TestDeleteDetail_RequiresReason(t *testing.T) {
	svc := newCollectionServiceForTest(&mockCollectionRepository{}, &mockCustomerRepository{}, &mockAuditRepository{})

	err := svc.DeleteDetail(context.Background(), 1, 2, "", admin(1), "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteDetail_OwnerOrAdminOnly(t *testing.T) {
	deleted := false
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Collection, error) {
			return &models.Collection{ID: id, CollectorID: 5}, nil
		},
		mockFindDetail: func(ctx context.Context, collectionID, customerID uint) (*models.CollectionDetail, error) {
			return &models.CollectionDetail{ID: 10, Amount: 30}, nil
		},
		mockDeleteDetail: func(ctx context.Context, collectionID, customerID uint) error {
			deleted = true
			return nil
		},
	}
	svc := newCollectionServiceForTest(repo, &mockCustomerRepository{}, &mockAuditRepository{})

	err := svc.DeleteDetail(context.Background(), 1, 2, "duplicate row", collector(6), "", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, deleted)

	err = svc.DeleteDetail(context.Background(), 1, 2, "duplicate row", collector(5), "", "")
	assert.NoError(t, err)
	assert.True(t, deleted)
}

func TestDeleteCollection_AdminOnly(t *testing.T) {
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Collection, error) {
			return &models.Collection{ID: id, CollectorID: 5, Total: 100}, nil
		},
	}
	svc := newCollectionServiceForTest(repo, &mockCustomerRepository{}, &mockAuditRepository{})

	// even the owner cannot remove a posted collection
	err := svc.Delete(context.Background(), 1, "posted twice", collector(5), "", "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = svc.Delete(context.Background(), 1, "posted twice", admin(1), "", "")
	assert.NoError(t, err)
}

func TestDeleteCollection_AdminStillNeedsReason(t *testing.T) {
	svc := newCollectionServiceForTest(&mockCollectionRepository{}, &mockCustomerRepository{}, &mockAuditRepository{})

	err := svc.Delete(context.Background(), 1, "", admin(1), "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateHeader_ValidatesPaymentMethod(t *testing.T) {
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Collection, error) {
			return &models.Collection{ID: id, CollectorID: 5, PaymentMethod: models.PaymentMethodCash}, nil
		},
	}
	svc := newCollectionServiceForTest(repo, &mockCustomerRepository{}, &mockAuditRepository{})

	_, err := svc.UpdateHeader(context.Background(), 1, nil, nil, nil, "check", collector(5), "", "")
	assert.ErrorIs(t, err, ErrValidation)

	collection, err := svc.UpdateHeader(context.Background(), 1, nil, nil, nil, models.PaymentMethodTransfer, collector(5), "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentMethodTransfer, collection.PaymentMethod)
}

func TestUpdateHeader_CorrectsTotal(t *testing.T) {
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Collection, error) {
			return &models.Collection{ID: id, CollectorID: 5, Total: 100, PaymentMethod: models.PaymentMethodCash}, nil
		},
	}
	svc := newCollectionServiceForTest(repo, &mockCustomerRepository{}, &mockAuditRepository{})

	bad := -10.0
	_, err := svc.UpdateHeader(context.Background(), 1, &bad, nil, nil, "", collector(5), "", "")
	assert.ErrorIs(t, err, ErrValidation)

	corrected := 150.0
	collection, err := svc.UpdateHeader(context.Background(), 1, &corrected, nil, nil, "", collector(5), "", "")
	assert.NoError(t, err)
	assert.Equal(t, 150.0, collection.Total)
}

func TestFindByID_ScopedToOwnerOrAdmin(t *testing.T) {
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Collection, error) {
			return &models.Collection{ID: id, CollectorID: 5}, nil
		},
	}
	svc := newCollectionServiceForTest(repo, &mockCustomerRepository{}, &mockAuditRepository{})

	_, err := svc.FindByID(context.Background(), 1, collector(6))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.FindByID(context.Background(), 1, collector(5))
	assert.NoError(t, err)

	_, err = svc.FindByID(context.Background(), 1, admin(9))
	assert.NoError(t, err)
}
