package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsignals/pricewise-backend/pkg/enums"
)

// PricingRuleRevision is the shadow row holding a staged change to a locked
// rule. Nil columns mean "leave the live value alone"; the live rule is only
// touched when the revision is approved.
type PricingRuleRevision struct {
	ID       uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID uuid.UUID            `gorm:"column:tenant_id;type:uuid;not null"`
	RuleID   uuid.UUID            `gorm:"column:rule_id;type:uuid;not null"`
	Status   enums.ApprovalStatus `gorm:"column:status;type:approval_status;not null;default:'pending'"`

	Price              *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	DiscountAmount     *decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2)"`
	DiscountPercentage *decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2)"`
	MinQuantity        *int             `gorm:"column:min_quantity"`
	MaxQuantity        *int             `gorm:"column:max_quantity"`
	StartDate          *time.Time       `gorm:"column:start_date"`
	EndDate            *time.Time       `gorm:"column:end_date"`
	Priority           *int             `gorm:"column:priority"`
	IsActive           *bool            `gorm:"column:is_active"`

	ProposedBy uuid.UUID  `gorm:"column:proposed_by;type:uuid;not null"`
	ProposedAt time.Time  `gorm:"column:proposed_at;not null"`
	DecidedBy  *uuid.UUID `gorm:"column:decided_by;type:uuid"`
	DecidedAt  *time.Time `gorm:"column:decided_at"`
	Reason     *string    `gorm:"column:reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
