package pricetiers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailsignals/pricewise-backend/pkg/db"
	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
)

// Repository exposes regional price tier persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, tenantID, priceTierID uuid.UUID) (*models.PriceTier, error) {
	var tier models.PriceTier
	err := r.db.WithContext(ctx).First(&tier, "tenant_id = ? AND id = ?", tenantID, priceTierID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "price tier not found")
		}
		return nil, err
	}
	return &tier, nil
}

func (r *Repository) Create(ctx context.Context, tier *models.PriceTier) (*models.PriceTier, error) {
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(tier).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "price tier code already exists for tenant")
		}
		return nil, err
	}
	return tier, nil
}

func (r *Repository) Update(ctx context.Context, tier *models.PriceTier) (*models.PriceTier, error) {
	if err := r.db.WithContext(ctx).Save(tier).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "price tier code already exists for tenant")
		}
		return nil, err
	}
	return tier, nil
}

func (r *Repository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.PriceTier, error) {
	var rows []models.PriceTier
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("code ASC").
		Find(&rows).
		Error
	return rows, err
}

// Service exposes regional price tier management.
type Service interface {
	CreatePriceTier(ctx context.Context, tenantID uuid.UUID, input PriceTierInput) (*PriceTierDTO, error)
	UpdatePriceTier(ctx context.Context, tenantID, priceTierID uuid.UUID, input PriceTierUpdate) (*PriceTierDTO, error)
	GetPriceTier(ctx context.Context, tenantID, priceTierID uuid.UUID) (*PriceTierDTO, error)
	ListPriceTiers(ctx context.Context, tenantID uuid.UUID) ([]PriceTierDTO, error)
}

// PriceTierInput holds the validated payload to create a price tier.
type PriceTierInput struct {
	Code             string
	Name             string
	Multiplier       decimal.Decimal
	MarkupAmount     *decimal.Decimal
	MarkupPercentage *decimal.Decimal
	IsActive         bool
}

// PriceTierUpdate holds optional mutation values for a price tier.
type PriceTierUpdate struct {
	Code             *string
	Name             *string
	Multiplier       *decimal.Decimal
	MarkupAmount     *decimal.Decimal
	MarkupPercentage *decimal.Decimal
	IsActive         *bool
}

// PriceTierDTO is the API shape of a regional price tier.
type PriceTierDTO struct {
	ID               uuid.UUID        `json:"id"`
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	Multiplier       decimal.Decimal  `json:"multiplier"`
	MarkupAmount     *decimal.Decimal `json:"markupAmount,omitempty"`
	MarkupPercentage *decimal.Decimal `json:"markupPercentage,omitempty"`
	IsActive         bool             `json:"isActive"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func newPriceTierDTO(tier *models.PriceTier) *PriceTierDTO {
	return &PriceTierDTO{
		ID:               tier.ID,
		Code:             tier.Code,
		Name:             tier.Name,
		Multiplier:       tier.Multiplier,
		MarkupAmount:     tier.MarkupAmount,
		MarkupPercentage: tier.MarkupPercentage,
		IsActive:         tier.IsActive,
		CreatedAt:        tier.CreatedAt,
		UpdatedAt:        tier.UpdatedAt,
	}
}

type service struct {
	repo *Repository
}

// NewService constructs a price tier service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("price tier repository required")
	}
	return &service{repo: repo}, nil
}

func validateMultiplier(multiplier decimal.Decimal) error {
	if multiplier.IsZero() || multiplier.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "multiplier must be positive")
	}
	return nil
}

func (s *service) CreatePriceTier(ctx context.Context, tenantID uuid.UUID, input PriceTierInput) (*PriceTierDTO, error) {
	if err := validateMultiplier(input.Multiplier); err != nil {
		return nil, err
	}
	tier, err := s.repo.Create(ctx, &models.PriceTier{
		TenantID:         tenantID,
		Code:             input.Code,
		Name:             input.Name,
		Multiplier:       input.Multiplier,
		MarkupAmount:     input.MarkupAmount,
		MarkupPercentage: input.MarkupPercentage,
		IsActive:         input.IsActive,
	})
	if err != nil {
		return nil, err
	}
	return newPriceTierDTO(tier), nil
}

func (s *service) UpdatePriceTier(ctx context.Context, tenantID, priceTierID uuid.UUID, input PriceTierUpdate) (*PriceTierDTO, error) {
	tier, err := s.repo.FindByID(ctx, tenantID, priceTierID)
	if err != nil {
		return nil, err
	}
	if input.Code != nil {
		tier.Code = *input.Code
	}
	if input.Name != nil {
		tier.Name = *input.Name
	}
	if input.Multiplier != nil {
		if err := validateMultiplier(*input.Multiplier); err != nil {
			return nil, err
		}
		tier.Multiplier = *input.Multiplier
	}
	if input.MarkupAmount != nil {
		tier.MarkupAmount = input.MarkupAmount
	}
	if input.MarkupPercentage != nil {
		tier.MarkupPercentage = input.MarkupPercentage
	}
	if input.IsActive != nil {
		tier.IsActive = *input.IsActive
	}
	updated, err := s.repo.Update(ctx, tier)
	if err != nil {
		return nil, err
	}
	return newPriceTierDTO(updated), nil
}

func (s *service) GetPriceTier(ctx context.Context, tenantID, priceTierID uuid.UUID) (*PriceTierDTO, error) {
	tier, err := s.repo.FindByID(ctx, tenantID, priceTierID)
	if err != nil {
		return nil, err
	}
	return newPriceTierDTO(tier), nil
}

func (s *service) ListPriceTiers(ctx context.Context, tenantID uuid.UUID) ([]PriceTierDTO, error) {
	rows, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	dtos := make([]PriceTierDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newPriceTierDTO(&rows[i]))
	}
	return dtos, nil
}
