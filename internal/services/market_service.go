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

// MarketService handles market management
type MarketService struct {
	repo     repository.MarketRepository
	auditSvc *AuditService
}

func NewMarketService(repo repository.MarketRepository, auditSvc *AuditService) *MarketService {
	return &MarketService{repo: repo, auditSvc: auditSvc}
}

func (s *MarketService) FindByID(ctx context.Context, id uint) (*models.Market, error) {
	market, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return market, nil
}

func (s *MarketService) List(ctx context.Context, query *repository.ListQuery) ([]models.Market, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *MarketService) Create(ctx context.Context, market *models.Market, actorID uint) error {
	if strings.TrimSpace(market.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := s.repo.Create(ctx, market); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actorID, "CREATE", "Market", market.ID,
		fmt.Sprintf("Market created: %s", market.Name), "", "")
	return nil
}

func (s *MarketService) Update(ctx context.Context, market *models.Market, actorID uint) error {
	if strings.TrimSpace(market.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := s.repo.Update(ctx, market); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actorID, "UPDATE", "Market", market.ID,
		fmt.Sprintf("Market updated: %s", market.Name), "", "")
	return nil
}

func (s *MarketService) Delete(ctx context.Context, id uint, actorID uint) error {
	market, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actorID, "DELETE", "Market", id,
		fmt.Sprintf("Market removed: %s", market.Name), "", "")
	return nil
}
