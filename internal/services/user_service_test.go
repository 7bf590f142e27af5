package services

import (
	"context"
	"testing"

	"github.com/jrmendez/caja-api/internal/config"
	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type mockUserRepoCRUD struct {
	repository.UserRepository
	mockCreate     func(ctx context.Context, user *models.User) error
	mockUpdate     func(ctx context.Context, user *models.User) error
	mockFindByID   func(ctx context.Context, id uint) (*models.User, error)
	mockSoftDelete func(ctx context.Context, id uint) error
}

func (m *mockUserRepoCRUD) Create(ctx context.Context, user *models.User) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, user)
	}
	return nil
}
func (m *mockUserRepoCRUD) Update(ctx context.Context, user *models.User) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, user)
	}
	return nil
}
func (m *mockUserRepoCRUD) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return &models.User{ID: id, Status: models.StatusActive}, nil
}
func (m *mockUserRepoCRUD) SoftDelete(ctx context.Context, id uint) error {
	if m.mockSoftDelete != nil {
		return m.mockSoftDelete(ctx, id)
	}
	return nil
}

func newUserServiceForTest(repo *mockUserRepoCRUD) *UserService {
	return NewUserService(repo, NewEmailService(&config.Config{}), NewAuditService(&mockAuditRepository{}))
}

func TestUserService_Create_PasswordTooShort(t *testing.T) {
	svc := newUserServiceForTest(&mockUserRepoCRUD{})

	err := svc.Create(context.Background(), &models.User{Email: "a@caja.app"}, "short", 1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_Create_UnknownRole(t *testing.T) {
	svc := newUserServiceForTest(&mockUserRepoCRUD{})

	err := svc.Create(context.Background(), &models.User{Email: "a@caja.app", Role: "superuser"}, "password123", 1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_Create_NormalizesEmailAndHashes(t *testing.T) {
	var created *models.User
	repo := &mockUserRepoCRUD{
		mockCreate: func(ctx context.Context, user *models.User) error {
			created = user
			return nil
		},
	}
	svc := newUserServiceForTest(repo)

	err := svc.Create(context.Background(), &models.User{Email: "Juan@Caja.App", FullName: "Juan"}, "password123", 1)
	assert.NoError(t, err)
	assert.Equal(t, "juan@caja.app", created.Email)
	assert.NotEqual(t, "password123", created.EncryptedPassword)
	assert.True(t, VerifyPassword("password123", created.EncryptedPassword))
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepoCRUD{
		mockCreate: func(ctx context.Context, user *models.User) error {
			return repository.ErrDuplicateEmail
		},
	}
	svc := newUserServiceForTest(repo)

	err := svc.Create(context.Background(), &models.User{Email: "a@caja.app"}, "password123", 1)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserService_Delete_OwnAccount(t *testing.T) {
	svc := newUserServiceForTest(&mockUserRepoCRUD{})

	err := svc.Delete(context.Background(), 4, 4)
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.Delete(context.Background(), 4, 1)
	assert.NoError(t, err)
}

func TestUserService_ChangePassword(t *testing.T) {
	hash, _ := HashPassword("old-password")
	repo := &mockUserRepoCRUD{
		mockFindByID: func(ctx context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, EncryptedPassword: hash, Status: models.StatusActive}, nil
		},
	}
	svc := newUserServiceForTest(repo)

	err := svc.ChangePassword(context.Background(), 1, "wrong", "new-password-1")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	err = svc.ChangePassword(context.Background(), 1, "old-password", "short")
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.ChangePassword(context.Background(), 1, "old-password", "new-password-1")
	assert.NoError(t, err)
}

func TestUserService_ToggleStatus(t *testing.T) {
	repo := &mockUserRepoCRUD{
		mockFindByID: func(ctx context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Status: models.StatusActive}, nil
		},
	}
	svc := newUserServiceForTest(repo)

	user, err := svc.ToggleStatus(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusInactive, user.Status)
}
