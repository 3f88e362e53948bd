package models

import (
	"time"

	"github.com/google/uuid"
)

// Branch is a single selling location belonging to a tenant.
type Branch struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID           uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null"`
	Code               string     `gorm:"column:code;not null"`
	Name               string     `gorm:"column:name;not null"`
	DefaultPriceTierID *uuid.UUID `gorm:"column:default_price_tier_id;type:uuid"`
	IsActive           bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
