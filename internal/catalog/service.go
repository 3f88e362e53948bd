package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	pkgerrors "github.com/retailsignals/pricewise-backend/pkg/errors"
	"github.com/retailsignals/pricewise-backend/pkg/pagination"
)

// Service exposes tenant product management.
type Service interface {
	CreateProduct(ctx context.Context, tenantID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID, params pagination.Params) (*ProductListResult, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU       string
	Name      string
	ListPrice decimal.Decimal
	IsActive  bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	SKU       *string
	Name      *string
	ListPrice *decimal.Decimal
	IsActive  *bool
}

// ProductDTO is the API shape of a product.
type ProductDTO struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	ListPrice decimal.Decimal `json:"listPrice"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ProductListResult is one page of products.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

func newProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:        product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		ListPrice: product.ListPrice,
		IsActive:  product.IsActive,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}

type service struct {
	repo *Repository
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateProduct(ctx context.Context, tenantID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if input.ListPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "list_price cannot be negative")
	}
	product, err := s.repo.Create(ctx, &models.Product{
		TenantID:  tenantID,
		SKU:       input.SKU,
		Name:      input.Name,
		ListPrice: input.ListPrice,
		IsActive:  input.IsActive,
	})
	if err != nil {
		return nil, err
	}
	return newProductDTO(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if input.SKU != nil {
		product.SKU = *input.SKU
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.ListPrice != nil {
		if input.ListPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "list_price cannot be negative")
		}
		product.ListPrice = *input.ListPrice
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, err
	}
	return newProductDTO(updated), nil
}

func (s *service) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return newProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, tenantID uuid.UUID, params pagination.Params) (*ProductListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, tenantID, params)
	if err != nil {
		return nil, err
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newProductDTO(&rows[i]))
	}
	return &ProductListResult{Products: dtos, NextCursor: nextCursor}, nil
}
