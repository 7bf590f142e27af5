package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/repository"
	"gorm.io/gorm"
)

// CollectionDetailInput is one customer's line within a posting request
type CollectionDetailInput struct {
	CustomerID uint    `json:"customer_id" binding:"required"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
	Notes      *string `json:"notes"`
}

// PostCollectionInput is the full posting request: one header plus an optional
// per-customer breakdown, or a single loan to apply the whole total against.
type PostCollectionInput struct {
	CustomerID    uint                    `json:"customer_id" binding:"required"`
	MarketID      *uint                   `json:"market_id"`
	Total         float64                 `json:"total" binding:"required"`
	PaymentMethod string                  `json:"payment_method"`
	Type          *string                 `json:"type"`
	Category      *string                 `json:"category"`
	Notes         *string                 `json:"notes"`
	Details       []CollectionDetailInput `json:"details"`
	SingleLoanID  *uint                   `json:"single_loan_id"`
}

// CollectionService handles collection posting and detail maintenance
type CollectionService struct {
	repo         repository.CollectionRepository
	customerRepo repository.CustomerRepository
	auditSvc     *AuditService
	imageSvc     *ImageService
}

func NewCollectionService(
	repo repository.CollectionRepository,
	customerRepo repository.CustomerRepository,
	auditSvc *AuditService,
	imageSvc *ImageService,
) *CollectionService {
	return &CollectionService{
		repo:         repo,
		customerRepo: customerRepo,
		auditSvc:     auditSvc,
		imageSvc:     imageSvc,
	}
}

// validatePosting rejects malformed input before any transaction is opened
func (s *CollectionService) validatePosting(input *PostCollectionInput) error {
	if input.Total <= 0 {
		return fmt.Errorf("%w: total must be greater than zero", ErrValidation)
	}
	if input.CustomerID == 0 {
		return fmt.Errorf("%w: customer_id is required", ErrValidation)
	}
	if input.PaymentMethod != "" &&
		input.PaymentMethod != models.PaymentMethodCash &&
		input.PaymentMethod != models.PaymentMethodTransfer &&
		input.PaymentMethod != models.PaymentMethodWallet {
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, input.PaymentMethod)
	}
	for i := range input.Details {
		d := &input.Details[i]
		if d.CustomerID == 0 {
			return fmt.Errorf("%w: detail %d is missing customer_id", ErrValidation, i)
		}
		if d.Amount < 0 {
			return fmt.Errorf("%w: detail %d has a negative amount", ErrValidation, i)
		}
		if d.Status != "" && !models.ValidDetailStatus(d.Status) {
			return fmt.Errorf("%w: detail %d has unknown status %q", ErrValidation, i, d.Status)
		}
	}
	if len(input.Details) > 0 && input.SingleLoanID != nil {
		return fmt.Errorf("%w: single_loan_id and details are mutually exclusive", ErrValidation)
	}
	return nil
}

// Post records a collection event. The header, its details and any loan
// repayment increments land in one transaction; validation happens first so a
// bad request never opens one. The audit entry afterwards is best-effort.
func (s *CollectionService) Post(ctx context.Context, input *PostCollectionInput, actor *models.User, ip, userAgent string) (*models.Collection, error) {
	if err := s.validatePosting(input); err != nil {
		return nil, err
	}

	if _, err := s.customerRepo.FindByID(ctx, input.CustomerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %d", ErrNotFound, input.CustomerID)
		}
		return nil, err
	}

	method := input.PaymentMethod
	if method == "" {
		method = models.PaymentMethodCash
	}

	header := &models.Collection{
		ReferenceCode: uuid.New().String(),
		CollectorID:   actor.ID,
		CustomerID:    input.CustomerID,
		MarketID:      input.MarketID,
		Total:         input.Total,
		PaymentMethod: method,
		Type:          input.Type,
		Category:      input.Category,
		Notes:         input.Notes,
	}

	details := make([]models.CollectionDetail, 0, len(input.Details))
	for _, d := range input.Details {
		status := d.Status
		if status == "" {
			status = models.DetailStatusPaid
		}
		details = append(details, models.CollectionDetail{
			CustomerID: d.CustomerID,
			Amount:     d.Amount,
			Status:     status,
			Notes:      d.Notes,
		})
	}

	if err := s.repo.PostCollection(ctx, header, details, input.SingleLoanID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: loan %d", ErrNotFound, *input.SingleLoanID)
		}
		return nil, err
	}

	s.auditSvc.Log(ctx, actor.ID, "POST", "Collection", header.ID,
		fmt.Sprintf("Collection posted: ref %s, total %.2f, %d details", header.ReferenceCode, header.Total, len(details)),
		ip, userAgent)

	return header, nil
}

func (s *CollectionService) FindByID(ctx context.Context, id uint, actor *models.User) (*models.Collection, error) {
	collection, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !s.canManage(collection, actor) {
		return nil, ErrUnauthorized
	}
	return collection, nil
}

func (s *CollectionService) List(ctx context.Context, query *repository.ListQuery, actor *models.User) ([]models.Collection, int64, error) {
	return s.repo.List(ctx, &repository.CollectionQuery{
		ListQuery:   query,
		CollectorID: actor.ID,
		IsAdmin:     actor.IsAdmin(),
	})
}

// canManage reports whether the actor owns the collection or is an admin
func (s *CollectionService) canManage(collection *models.Collection, actor *models.User) bool {
	return actor.IsAdmin() || collection.CollectorID == actor.ID
}

// UpdateDetailStatus flips one detail between PAID and NOT_PAID and can
// correct its notes. The loan increments applied at posting time are never
// reversed here; a correction is a bookkeeping change, the money already
// moved. A reason is mandatory.
func (s *CollectionService) UpdateDetailStatus(ctx context.Context, collectionID, customerID uint, status string, notes *string, reason string, actor *models.User, ip, userAgent string) (*models.CollectionDetail, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: a reason is required", ErrValidation)
	}
	if !models.ValidDetailStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	collection, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !s.canManage(collection, actor) {
		return nil, ErrUnauthorized
	}

	detail, err := s.repo.FindDetail(ctx, collectionID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	previous := detail.Status
	detail.Status = status
	if notes != nil {
		detail.Notes = notes
	}
	if err := s.repo.UpdateDetail(ctx, detail); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor.ID, "UPDATE_DETAIL", "CollectionDetail", detail.ID,
		fmt.Sprintf("Detail status %s -> %s (collection %d, customer %d). Reason: %s", previous, status, collectionID, customerID, reason),
		ip, userAgent)

	return detail, nil
}

// DeleteDetail removes one detail row. Like status updates, this never touches
// loan balances. A reason is mandatory.
func (s *CollectionService) DeleteDetail(ctx context.Context, collectionID, customerID uint, reason string, actor *models.User, ip, userAgent string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: a reason is required", ErrValidation)
	}

	collection, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !s.canManage(collection, actor) {
		return ErrUnauthorized
	}

	detail, err := s.repo.FindDetail(ctx, collectionID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.repo.DeleteDetail(ctx, collectionID, customerID); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor.ID, "DELETE_DETAIL", "CollectionDetail", detail.ID,
		fmt.Sprintf("Detail removed (collection %d, customer %d, amount %.2f). Reason: %s", collectionID, customerID, detail.Amount, reason),
		ip, userAgent)

	return nil
}

// UpdateHeader corrects a posted collection's total and descriptive fields.
// Correcting the total never touches loans; the increments applied at posting
// time stand.
func (s *CollectionService) UpdateHeader(ctx context.Context, id uint, total *float64, notes, category *string, paymentMethod string, actor *models.User, ip, userAgent string) (*models.Collection, error) {
	collection, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !s.canManage(collection, actor) {
		return nil, ErrUnauthorized
	}

	if total != nil {
		if *total <= 0 {
			return nil, fmt.Errorf("%w: total must be greater than zero", ErrValidation)
		}
		collection.Total = *total
	}
	if notes != nil {
		collection.Notes = notes
	}
	if category != nil {
		collection.Category = category
	}
	if paymentMethod != "" {
		if paymentMethod != models.PaymentMethodCash &&
			paymentMethod != models.PaymentMethodTransfer &&
			paymentMethod != models.PaymentMethodWallet {
			return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, paymentMethod)
		}
		collection.PaymentMethod = paymentMethod
	}

	if err := s.repo.UpdateHeader(ctx, collection); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor.ID, "UPDATE", "Collection", collection.ID,
		fmt.Sprintf("Collection header updated: ref %s", collection.ReferenceCode), ip, userAgent)

	return collection, nil
}

// Delete removes a collection and its details. Admin only; loan increments
// applied at posting time remain in place.
func (s *CollectionService) Delete(ctx context.Context, id uint, reason string, actor *models.User, ip, userAgent string) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: a reason is required", ErrValidation)
	}

	collection, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor.ID, "DELETE", "Collection", id,
		fmt.Sprintf("Collection removed: ref %s, total %.2f. Reason: %s", collection.ReferenceCode, collection.Total, reason),
		ip, userAgent)

	return nil
}

// AttachPhoto stores a receipt photo for the collection and remembers its path
func (s *CollectionService) AttachPhoto(ctx context.Context, id uint, file multipart.File, header *multipart.FileHeader, actor *models.User, ip, userAgent string) (string, error) {
	collection, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if !s.canManage(collection, actor) {
		return "", ErrUnauthorized
	}

	path, _, err := s.imageSvc.ProcessAndSave(file, header)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.repo.SetPhotoPath(ctx, id, path); err != nil {
		return "", err
	}

	s.auditSvc.Log(ctx, actor.ID, "ATTACH_PHOTO", "Collection", id, "Receipt photo attached", ip, userAgent)

	return path, nil
}
