package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsignals/pricewise-backend/pkg/enums"
)

// QuoteEvent records one resolved quote for the receipt/audit surface.
// Rules referenced here are never physically deleted, only deactivated.
type QuoteEvent struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID         `gorm:"column:tenant_id;type:uuid;not null"`
	ProductID uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	RuleID    *uuid.UUID        `gorm:"column:rule_id;type:uuid"`
	BranchID  *uuid.UUID        `gorm:"column:branch_id;type:uuid"`
	Quantity  int               `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal   `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Source    enums.QuoteSource `gorm:"column:source;type:quote_source;not null"`
	Clamped   bool              `gorm:"column:clamped;not null;default:false"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
