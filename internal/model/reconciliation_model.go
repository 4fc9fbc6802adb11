package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReconciliationItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Kind      string          `gorm:"type:varchar(50);not null;index"`
	BookingID uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentID *uuid.UUID      `gorm:"type:uuid"`
	RefundID  *uuid.UUID      `gorm:"type:uuid"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2)"`
	Currency  string          `gorm:"type:varchar(3)"`
	Error     string          `gorm:"type:text"`
	Resolved  bool            `gorm:"default:false;index"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (ReconciliationItem) TableName() string {
	return "reconciliation_items"
}
