package tiers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailsignals/pricewise-backend/pkg/db"
	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
)

// Repository exposes loyalty tier persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, tenantID, tierID uuid.UUID) (*models.LoyaltyTier, error) {
	var tier models.LoyaltyTier
	err := r.db.WithContext(ctx).First(&tier, "tenant_id = ? AND id = ?", tenantID, tierID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "loyalty tier not found")
		}
		return nil, err
	}
	return &tier, nil
}

func (r *Repository) Create(ctx context.Context, tier *models.LoyaltyTier) (*models.LoyaltyTier, error) {
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(tier).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "loyalty tier code already exists for tenant")
		}
		return nil, err
	}
	return tier, nil
}

func (r *Repository) Update(ctx context.Context, tier *models.LoyaltyTier) (*models.LoyaltyTier, error) {
	if err := r.db.WithContext(ctx).Save(tier).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "loyalty tier code already exists for tenant")
		}
		return nil, err
	}
	return tier, nil
}

func (r *Repository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.LoyaltyTier, error) {
	var rows []models.LoyaltyTier
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("code ASC").
		Find(&rows).
		Error
	return rows, err
}

// Service exposes loyalty tier management.
type Service interface {
	CreateTier(ctx context.Context, tenantID uuid.UUID, input TierInput) (*TierDTO, error)
	UpdateTier(ctx context.Context, tenantID, tierID uuid.UUID, input TierUpdate) (*TierDTO, error)
	GetTier(ctx context.Context, tenantID, tierID uuid.UUID) (*TierDTO, error)
	ListTiers(ctx context.Context, tenantID uuid.UUID) ([]TierDTO, error)
}

// TierInput holds the validated payload to create a loyalty tier.
type TierInput struct {
	Code       string
	Name       string
	PriceClass enums.PriceType
	IsActive   bool
}

// TierUpdate holds optional mutation values for a loyalty tier.
type TierUpdate struct {
	Code       *string
	Name       *string
	PriceClass *enums.PriceType
	IsActive   *bool
}

// TierDTO is the API shape of a loyalty tier.
type TierDTO struct {
	ID         uuid.UUID       `json:"id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	PriceClass enums.PriceType `json:"priceClass"`
	IsActive   bool            `json:"isActive"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func newTierDTO(tier *models.LoyaltyTier) *TierDTO {
	return &TierDTO{
		ID:         tier.ID,
		Code:       tier.Code,
		Name:       tier.Name,
		PriceClass: tier.PriceClass,
		IsActive:   tier.IsActive,
		CreatedAt:  tier.CreatedAt,
		UpdatedAt:  tier.UpdatedAt,
	}
}

type service struct {
	repo *Repository
}

// NewService constructs a loyalty tier service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty tier repository required")
	}
	return &service{repo: repo}, nil
}

// validatePriceClass: a loyalty tier always narrows to a non-regular class.
func validatePriceClass(class enums.PriceType) error {
	if !class.IsValid() || !class.IsNarrow() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price_class must be member or a loyalty tier class")
	}
	return nil
}

func (s *service) CreateTier(ctx context.Context, tenantID uuid.UUID, input TierInput) (*TierDTO, error) {
	if err := validatePriceClass(input.PriceClass); err != nil {
		return nil, err
	}
	tier, err := s.repo.Create(ctx, &models.LoyaltyTier{
		TenantID:   tenantID,
		Code:       input.Code,
		Name:       input.Name,
		PriceClass: input.PriceClass,
		IsActive:   input.IsActive,
	})
	if err != nil {
		return nil, err
	}
	return newTierDTO(tier), nil
}

func (s *service) UpdateTier(ctx context.Context, tenantID, tierID uuid.UUID, input TierUpdate) (*TierDTO, error) {
	tier, err := s.repo.FindByID(ctx, tenantID, tierID)
	if err != nil {
		return nil, err
	}
	if input.Code != nil {
		tier.Code = *input.Code
	}
	if input.Name != nil {
		tier.Name = *input.Name
	}
	if input.PriceClass != nil {
		if err := validatePriceClass(*input.PriceClass); err != nil {
			return nil, err
		}
		tier.PriceClass = *input.PriceClass
	}
	if input.IsActive != nil {
		tier.IsActive = *input.IsActive
	}
	updated, err := s.repo.Update(ctx, tier)
	if err != nil {
		return nil, err
	}
	return newTierDTO(updated), nil
}

func (s *service) GetTier(ctx context.Context, tenantID, tierID uuid.UUID) (*TierDTO, error) {
	tier, err := s.repo.FindByID(ctx, tenantID, tierID)
	if err != nil {
		return nil, err
	}
	return newTierDTO(tier), nil
}

func (s *service) ListTiers(ctx context.Context, tenantID uuid.UUID) ([]TierDTO, error) {
	rows, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	dtos := make([]TierDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newTierDTO(&rows[i]))
	}
	return dtos, nil
}
