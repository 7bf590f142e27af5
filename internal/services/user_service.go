package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/repository"
	"gorm.io/gorm"
)

// UserService handles user account management
type UserService struct {
	repo     repository.UserRepository
	emailSvc *EmailService
	auditSvc *AuditService
}

func NewUserService(repo repository.UserRepository, emailSvc *EmailService, auditSvc *AuditService) *UserService {
	return &UserService{
		repo:     repo,
		emailSvc: emailSvc,
		auditSvc: auditSvc,
	}
}

func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *UserService) Create(ctx context.Context, user *models.User, password string, actorID uint) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if user.Role != models.RoleAdmin && user.Role != models.RoleCollector && user.Role != "" {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, user.Role)
	}

	user.Email = strings.ToLower(user.Email)
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	user.EncryptedPassword = hashedPassword
	user.CreatedBy = &actorID

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return fmt.Errorf("%w: email already in use", ErrConflict)
		}
		return err
	}

	// Welcome email is best-effort; account creation already succeeded
	_ = s.emailSvc.SendAccountCreated(ctx, user)

	s.auditSvc.Log(ctx, actorID, "CREATE", "User", user.ID,
		fmt.Sprintf("User created: %s (%s), role %s", user.FullName, user.Email, user.Role), "", "")
	return nil
}

func (s *UserService) Update(ctx context.Context, user *models.User, actorID uint) error {
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actorID, "UPDATE", "User", user.ID,
		fmt.Sprintf("User updated: %s", user.Email), "", "")
	return nil
}

func (s *UserService) Delete(ctx context.Context, id uint, actorID uint) error {
	if id == actorID {
		return fmt.Errorf("%w: cannot delete your own account", ErrValidation)
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actorID, "DELETE", "User", id, "User deactivated (soft delete)", "", "")
	return nil
}

func (s *UserService) Restore(ctx context.Context, id uint, actorID uint) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actorID, "RESTORE", "User", id, "User restored", "", "")
	return nil
}

func (s *UserService) ToggleStatus(ctx context.Context, id uint, actorID uint) (*models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status == models.StatusActive {
		user.Status = models.StatusInactive
	} else {
		user.Status = models.StatusActive
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actorID, "TOGGLE_STATUS", "User", id,
		fmt.Sprintf("Status changed to %s", user.Status), "", "")
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !VerifyPassword(currentPassword, user.EncryptedPassword) {
		return ErrInvalidPassword
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	hashedPassword, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.EncryptedPassword = hashedPassword
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, userID, "CHANGE_PASSWORD", "User", userID, "Password changed by the user", "", "")
	return nil
}

// ForceChangePassword resets a password without the current one. Admin only.
func (s *UserService) ForceChangePassword(ctx context.Context, userID uint, newPassword string, actorID uint) error {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	hashedPassword, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.EncryptedPassword = hashedPassword
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actorID, "FORCE_CHANGE_PASSWORD", "User", userID, "Password reset by administrator", "", "")
	return nil
}
