package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Refund struct {
	ID             uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	BookingID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	Currency       string            `gorm:"type:varchar(3);not null"`
	Status         string            `gorm:"type:varchar(50);default:'pending';index"` // pending, completed, failed
	TransactionID  string            `gorm:"type:varchar(255)"`
	IdempotencyKey string            `gorm:"type:varchar(255);uniqueIndex;not null"`
	Reason         string            `gorm:"type:text"`
	ProcessedBy    uuid.UUID         `gorm:"type:uuid"`
	ProcessedAt    time.Time         `gorm:"not null"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime"`

	Payment Payment `gorm:"foreignKey:PaymentID"`
}

func (Refund) TableName() string {
	return "refunds"
}
