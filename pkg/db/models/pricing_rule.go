package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsignals/pricewise-backend/pkg/enums"
)

// PricingRule is one persisted pricing record for a product. Nullable scope
// columns mean "applies everywhere" on that dimension; the resolver scores
// populated scopes as more specific.
type PricingRule struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	PriceType enums.PriceType `gorm:"column:price_type;type:price_type;not null;default:'regular'"`

	TierID      *uuid.UUID `gorm:"column:tier_id;type:uuid"`
	BranchID    *uuid.UUID `gorm:"column:branch_id;type:uuid"`
	PriceTierID *uuid.UUID `gorm:"column:price_tier_id;type:uuid"`

	Price              decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountAmount     *decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2)"`
	DiscountPercentage *decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2)"`

	MinQuantity int  `gorm:"column:min_quantity;not null;default:1"`
	MaxQuantity *int `gorm:"column:max_quantity"`

	StartDate *time.Time `gorm:"column:start_date"`
	EndDate   *time.Time `gorm:"column:end_date"`

	IsActive bool `gorm:"column:is_active;not null;default:true"`
	Priority int  `gorm:"column:priority;not null;default:0"`

	IsStandard       bool                  `gorm:"column:is_standard;not null;default:false"`
	RequiresApproval bool                  `gorm:"column:requires_approval;not null;default:false"`
	ApprovalStatus   *enums.ApprovalStatus `gorm:"column:approval_status;type:approval_status"`

	LockedBy   *uuid.UUID `gorm:"column:locked_by;type:uuid"`
	LockedAt   *time.Time `gorm:"column:locked_at"`
	ApprovedBy *uuid.UUID `gorm:"column:approved_by;type:uuid"`
	ApprovedAt *time.Time `gorm:"column:approved_at"`

	PriceTier *PriceTier `gorm:"foreignKey:PriceTierID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IsPending reports whether the rule record itself awaits approval. An
// established rule with a staged revision stays out of this state so it keeps
// resolving at its live values.
func (r *PricingRule) IsPending() bool {
	return r.ApprovalStatus != nil && *r.ApprovalStatus == enums.ApprovalStatusPending
}
