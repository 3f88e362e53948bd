package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailsignals/pricewise-backend/pkg/enums"
)

// LoyaltyTier is a customer loyalty level. PriceClass links the tier to the
// coarse price_type selector carried on pricing rules.
type LoyaltyTier struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID   uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null"`
	Code       string          `gorm:"column:code;not null"`
	Name       string          `gorm:"column:name;not null"`
	PriceClass enums.PriceType `gorm:"column:price_class;type:price_type;not null;default:'member'"`
	IsActive   bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
