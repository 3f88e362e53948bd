package branches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailsignals/pricewise-backend/pkg/db"
	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
)

// Repository exposes branch persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, tenantID, branchID uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	err := r.db.WithContext(ctx).First(&branch, "tenant_id = ? AND id = ?", tenantID, branchID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, err
	}
	return &branch, nil
}

func (r *Repository) Create(ctx context.Context, branch *models.Branch) (*models.Branch, error) {
	if branch.ID == uuid.Nil {
		branch.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(branch).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "branch code already exists for tenant")
		}
		return nil, err
	}
	return branch, nil
}

func (r *Repository) Update(ctx context.Context, branch *models.Branch) (*models.Branch, error) {
	if err := r.db.WithContext(ctx).Save(branch).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "branch code already exists for tenant")
		}
		return nil, err
	}
	return branch, nil
}

func (r *Repository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Branch, error) {
	var rows []models.Branch
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("code ASC").
		Find(&rows).
		Error
	return rows, err
}

// Service exposes branch management.
type Service interface {
	CreateBranch(ctx context.Context, tenantID uuid.UUID, input BranchInput) (*BranchDTO, error)
	UpdateBranch(ctx context.Context, tenantID, branchID uuid.UUID, input BranchUpdate) (*BranchDTO, error)
	GetBranch(ctx context.Context, tenantID, branchID uuid.UUID) (*BranchDTO, error)
	ListBranches(ctx context.Context, tenantID uuid.UUID) ([]BranchDTO, error)
}

// BranchInput holds the validated payload to create a branch.
type BranchInput struct {
	Code               string
	Name               string
	DefaultPriceTierID *uuid.UUID
	IsActive           bool
}

// BranchUpdate holds optional mutation values for a branch.
type BranchUpdate struct {
	Code               *string
	Name               *string
	DefaultPriceTierID *uuid.UUID
	ClearDefaultTier   bool
	IsActive           *bool
}

// BranchDTO is the API shape of a branch.
type BranchDTO struct {
	ID                 uuid.UUID  `json:"id"`
	Code               string     `json:"code"`
	Name               string     `json:"name"`
	DefaultPriceTierID *uuid.UUID `json:"defaultPriceTierId,omitempty"`
	IsActive           bool       `json:"isActive"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func newBranchDTO(branch *models.Branch) *BranchDTO {
	return &BranchDTO{
		ID:                 branch.ID,
		Code:               branch.Code,
		Name:               branch.Name,
		DefaultPriceTierID: branch.DefaultPriceTierID,
		IsActive:           branch.IsActive,
		CreatedAt:          branch.CreatedAt,
		UpdatedAt:          branch.UpdatedAt,
	}
}

type priceTierReader interface {
	FindByID(ctx context.Context, tenantID, priceTierID uuid.UUID) (*models.PriceTier, error)
}

type service struct {
	repo       *Repository
	priceTiers priceTierReader
}

// NewService constructs a branch service instance.
func NewService(repo *Repository, priceTiers priceTierReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("branch repository required")
	}
	if priceTiers == nil {
		return nil, fmt.Errorf("price tier reader required")
	}
	return &service{repo: repo, priceTiers: priceTiers}, nil
}

func (s *service) CreateBranch(ctx context.Context, tenantID uuid.UUID, input BranchInput) (*BranchDTO, error) {
	if input.DefaultPriceTierID != nil {
		if _, err := s.priceTiers.FindByID(ctx, tenantID, *input.DefaultPriceTierID); err != nil {
			return nil, err
		}
	}
	branch, err := s.repo.Create(ctx, &models.Branch{
		TenantID:           tenantID,
		Code:               input.Code,
		Name:               input.Name,
		DefaultPriceTierID: input.DefaultPriceTierID,
		IsActive:           input.IsActive,
	})
	if err != nil {
		return nil, err
	}
	return newBranchDTO(branch), nil
}

func (s *service) UpdateBranch(ctx context.Context, tenantID, branchID uuid.UUID, input BranchUpdate) (*BranchDTO, error) {
	branch, err := s.repo.FindByID(ctx, tenantID, branchID)
	if err != nil {
		return nil, err
	}
	if input.Code != nil {
		branch.Code = *input.Code
	}
	if input.Name != nil {
		branch.Name = *input.Name
	}
	if input.ClearDefaultTier {
		branch.DefaultPriceTierID = nil
	} else if input.DefaultPriceTierID != nil {
		if _, err := s.priceTiers.FindByID(ctx, tenantID, *input.DefaultPriceTierID); err != nil {
			return nil, err
		}
		branch.DefaultPriceTierID = input.DefaultPriceTierID
	}
	if input.IsActive != nil {
		branch.IsActive = *input.IsActive
	}
	updated, err := s.repo.Update(ctx, branch)
	if err != nil {
		return nil, err
	}
	return newBranchDTO(updated), nil
}

func (s *service) GetBranch(ctx context.Context, tenantID, branchID uuid.UUID) (*BranchDTO, error) {
	branch, err := s.repo.FindByID(ctx, tenantID, branchID)
	if err != nil {
		return nil, err
	}
	return newBranchDTO(branch), nil
}

func (s *service) ListBranches(ctx context.Context, tenantID uuid.UUID) ([]BranchDTO, error) {
	rows, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	dtos := make([]BranchDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newBranchDTO(&rows[i]))
	}
	return dtos, nil
}
