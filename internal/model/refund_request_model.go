package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// RefundRequest is a cancellation waiting on an operator decision.
type RefundRequest struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	PaymentID       *uuid.UUID        `gorm:"type:uuid"`
	RequestedBy     uuid.UUID         `gorm:"type:uuid;not null"`
	Amount          decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	Currency        string            `gorm:"type:varchar(3);not null"`
	Reason          string            `gorm:"type:text"`
	Notes           string            `gorm:"type:text"`
	Status          string            `gorm:"type:varchar(50);default:'pending';index"` // pending, approved, rejected, completed
	Calculation     datatypes.JSONMap `gorm:"type:jsonb"`
	ApprovedBy      *uuid.UUID        `gorm:"type:uuid"`
	ApprovedAmount  *decimal.Decimal  `gorm:"type:decimal(14,2)"`
	RejectionReason string            `gorm:"type:text"`
	RefundID        *uuid.UUID        `gorm:"type:uuid"`
	ProcessedAt     *time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`

	Booking Booking `gorm:"foreignKey:BookingID"`
}

func (RefundRequest) TableName() string {
	return "refund_requests"
}
