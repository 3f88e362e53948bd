package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceTier is a regional/location pricing zone (airport, mall, downtown).
// Its multiplier and markups adjust a rule's base price after discounts.
type PriceTier struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID         uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null"`
	Code             string           `gorm:"column:code;not null"`
	Name             string           `gorm:"column:name;not null"`
	Multiplier       decimal.Decimal  `gorm:"column:multiplier;type:numeric(8,4);not null;default:1"`
	MarkupAmount     *decimal.Decimal `gorm:"column:markup_amount;type:numeric(12,2)"`
	MarkupPercentage *decimal.Decimal `gorm:"column:markup_percentage;type:numeric(5,2)"`
	IsActive         bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
