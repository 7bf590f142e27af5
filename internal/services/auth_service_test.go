package services

import (
	"context"
	"testing"
	"time"

	"github.com/jrmendez/caja-api/internal/config"
	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type mockUserRepo struct {
	repository.UserRepository
	mockFindByEmail func(ctx context.Context, email string) (*models.User, error)
	mockFindByID    func(ctx context.Context, id uint) (*models.User, error)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.mockFindByEmail(ctx, email)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return m.mockFindByID(ctx, id)
}

type mockRefreshTokenRepo struct {
	repository.RefreshTokenRepository
	mockFindByToken   func(ctx context.Context, token string) (*models.RefreshToken, error)
	mockDeleteByToken func(ctx context.Context, token string) error
	created           []*models.RefreshToken
	deleted           []string
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, rt *models.RefreshToken) error {
	m.created = append(m.created, rt)
	return nil
}

func (m *mockRefreshTokenRepo) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if m.mockFindByToken != nil {
		return m.mockFindByToken(ctx, token)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRefreshTokenRepo) DeleteByToken(ctx context.Context, token string) error {
	m.deleted = append(m.deleted, token)
	if m.mockDeleteByToken != nil {
		return m.mockDeleteByToken(ctx, token)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 24,
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	hash, _ := HashPassword("correct-horse")
	mockRepo := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 1, Email: email, EncryptedPassword: hash, Status: models.StatusActive}, nil
		},
	}
	service := NewAuthService(mockRepo, &mockRefreshTokenRepo{}, testConfig())

	result, err := service.Login(context.Background(), "user@caja.app", "wrong-password")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	mockRepo := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{Email: email, Status: models.StatusInactive}, nil
		},
	}
	service := NewAuthService(mockRepo, &mockRefreshTokenRepo{}, testConfig())

	result, err := service.Login(context.Background(), "inactive@caja.app", "password")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Login_Success(t *testing.T) {
	hash, _ := HashPassword("correct-horse")
	mockRepo := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 1, Email: email, EncryptedPassword: hash, Role: models.RoleCollector, Status: models.StatusActive}, nil
		},
	}
	rtRepo := &mockRefreshTokenRepo{}
	service := NewAuthService(mockRepo, rtRepo, testConfig())

	result, err := service.Login(context.Background(), "user@caja.app", "correct-horse")
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, uint(1), result.User.ID)
	assert.Len(t, rtRepo.created, 1)
}

func TestAuthService_RefreshToken_RotatesToken(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	mockRepo := &mockUserRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Email: "user@caja.app", Status: models.StatusActive}, nil
		},
	}
	rtRepo := &mockRefreshTokenRepo{
		mockFindByToken: func(ctx context.Context, token string) (*models.RefreshToken, error) {
			return &models.RefreshToken{UserID: 1, Token: token, ExpiresAt: &expires}, nil
		},
	}
	service := NewAuthService(mockRepo, rtRepo, testConfig())

	result, err := service.RefreshToken(context.Background(), "old-token")
	assert.NoError(t, err)
	assert.NotEqual(t, "old-token", result.RefreshToken)
	assert.Contains(t, rtRepo.deleted, "old-token", "the used token must be revoked")
	assert.Len(t, rtRepo.created, 1)
}

func TestAuthService_RefreshToken_Expired(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	rtRepo := &mockRefreshTokenRepo{
		mockFindByToken: func(ctx context.Context, token string) (*models.RefreshToken, error) {
			return &models.RefreshToken{UserID: 1, Token: token, ExpiresAt: &expired}, nil
		},
	}
	service := NewAuthService(&mockUserRepo{}, rtRepo, testConfig())

	result, err := service.RefreshToken(context.Background(), "stale-token")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, rtRepo.deleted, "stale-token")
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-passw0rd")
	assert.NoError(t, err)
	assert.NotEqual(t, "s3cret-passw0rd", hash)
	assert.True(t, VerifyPassword("s3cret-passw0rd", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}
