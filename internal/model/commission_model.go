package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionEntry is one row of the platform commission ledger. A reversal
// carries a negative amount and points at the refund that caused it.
type CommissionEntry struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	BookingID uuid.UUID       `gorm:"type:uuid;not null"`
	RefundID  *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	Kind      string          `gorm:"type:varchar(20);not null"` // charge, reversal
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Currency  string          `gorm:"type:varchar(3);not null"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (CommissionEntry) TableName() string {
	return "commission_entries"
}
