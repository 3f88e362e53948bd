package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsignals/pricewise-backend/pkg/db/models"
	"github.com/retailsignals/pricewise-backend/pkg/enums"
)

// RuleDTO is the API shape of a pricing rule.
type RuleDTO struct {
	ID                 uuid.UUID             `json:"id"`
	ProductID          uuid.UUID             `json:"productId"`
	PriceType          enums.PriceType       `json:"priceType"`
	TierID             *uuid.UUID            `json:"tierId,omitempty"`
	BranchID           *uuid.UUID            `json:"branchId,omitempty"`
	PriceTierID        *uuid.UUID            `json:"priceTierId,omitempty"`
	Price              decimal.Decimal       `json:"price"`
	DiscountAmount     *decimal.Decimal      `json:"discountAmount,omitempty"`
	DiscountPercentage *decimal.Decimal      `json:"discountPercentage,omitempty"`
	MinQuantity        int                   `json:"minQuantity"`
	MaxQuantity        *int                  `json:"maxQuantity,omitempty"`
	StartDate          *time.Time            `json:"startDate,omitempty"`
	EndDate            *time.Time            `json:"endDate,omitempty"`
	IsActive           bool                  `json:"isActive"`
	Priority           int                   `json:"priority"`
	IsStandard         bool                  `json:"isStandard"`
	RequiresApproval   bool                  `json:"requiresApproval"`
	ApprovalStatus     *enums.ApprovalStatus `json:"approvalStatus,omitempty"`
	LockedBy           *uuid.UUID            `json:"lockedBy,omitempty"`
	LockedAt           *time.Time            `json:"lockedAt,omitempty"`
	ApprovedBy         *uuid.UUID            `json:"approvedBy,omitempty"`
	ApprovedAt         *time.Time            `json:"approvedAt,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// NewRuleDTO maps a rule row to its API shape.
func NewRuleDTO(rule *models.PricingRule) *RuleDTO {
	if rule == nil {
		return nil
	}
	return &RuleDTO{
		ID:                 rule.ID,
		ProductID:          rule.ProductID,
		PriceType:          rule.PriceType,
		TierID:             rule.TierID,
		BranchID:           rule.BranchID,
		PriceTierID:        rule.PriceTierID,
		Price:              rule.Price,
		DiscountAmount:     rule.DiscountAmount,
		DiscountPercentage: rule.DiscountPercentage,
		MinQuantity:        rule.MinQuantity,
		MaxQuantity:        rule.MaxQuantity,
		StartDate:          rule.StartDate,
		EndDate:            rule.EndDate,
		IsActive:           rule.IsActive,
		Priority:           rule.Priority,
		IsStandard:         rule.IsStandard,
		RequiresApproval:   rule.RequiresApproval,
		ApprovalStatus:     rule.ApprovalStatus,
		LockedBy:           rule.LockedBy,
		LockedAt:           rule.LockedAt,
		ApprovedBy:         rule.ApprovedBy,
		ApprovedAt:         rule.ApprovedAt,
		CreatedAt:          rule.CreatedAt,
		UpdatedAt:          rule.UpdatedAt,
	}
}

// RevisionDTO is the API shape of a staged rule change.
type RevisionDTO struct {
	ID                 uuid.UUID            `json:"id"`
	RuleID             uuid.UUID            `json:"ruleId"`
	Status             enums.ApprovalStatus `json:"status"`
	Price              *decimal.Decimal     `json:"price,omitempty"`
	DiscountAmount     *decimal.Decimal     `json:"discountAmount,omitempty"`
	DiscountPercentage *decimal.Decimal     `json:"discountPercentage,omitempty"`
	MinQuantity        *int                 `json:"minQuantity,omitempty"`
	MaxQuantity        *int                 `json:"maxQuantity,omitempty"`
	StartDate          *time.Time           `json:"startDate,omitempty"`
	EndDate            *time.Time           `json:"endDate,omitempty"`
	Priority           *int                 `json:"priority,omitempty"`
	IsActive           *bool                `json:"isActive,omitempty"`
	ProposedBy         uuid.UUID            `json:"proposedBy"`
	ProposedAt         time.Time            `json:"proposedAt"`
	DecidedBy          *uuid.UUID           `json:"decidedBy,omitempty"`
	DecidedAt          *time.Time           `json:"decidedAt,omitempty"`
	Reason             *string              `json:"reason,omitempty"`
}

// NewRevisionDTO maps a revision row to its API shape.
func NewRevisionDTO(revision *models.PricingRuleRevision) *RevisionDTO {
	if revision == nil {
		return nil
	}
	return &RevisionDTO{
		ID:                 revision.ID,
		RuleID:             revision.RuleID,
		Status:             revision.Status,
		Price:              revision.Price,
		DiscountAmount:     revision.DiscountAmount,
		DiscountPercentage: revision.DiscountPercentage,
		MinQuantity:        revision.MinQuantity,
		MaxQuantity:        revision.MaxQuantity,
		StartDate:          revision.StartDate,
		EndDate:            revision.EndDate,
		Priority:           revision.Priority,
		IsActive:           revision.IsActive,
		ProposedBy:         revision.ProposedBy,
		ProposedAt:         revision.ProposedAt,
		DecidedBy:          revision.DecidedBy,
		DecidedAt:          revision.DecidedAt,
		Reason:             revision.Reason,
	}
}

// QuoteDTO is the API shape of a resolved quote.
type QuoteDTO struct {
	ProductID uuid.UUID         `json:"productId"`
	Quantity  int               `json:"quantity"`
	UnitPrice decimal.Decimal   `json:"unitPrice"`
	Total     decimal.Decimal   `json:"total"`
	Source    enums.QuoteSource `json:"source"`
	RuleID    *uuid.UUID        `json:"ruleId,omitempty"`
	Clamped   bool              `json:"clamped"`
}
