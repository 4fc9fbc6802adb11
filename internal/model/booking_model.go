package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Booking struct {
	ID                   uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ConfirmationNumber   string          `gorm:"type:varchar(32);uniqueIndex;not null"`
	GuestID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	GuestEmail           string          `gorm:"type:varchar(255)"`
	GuestName            string          `gorm:"type:varchar(255)"`
	HotelID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status               string          `gorm:"type:varchar(50);not null;index"` // pending, confirmed, payment_failed, cancelled
	CheckIn              time.Time       `gorm:"not null"`
	CheckOut             time.Time       `gorm:"not null"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Currency             string          `gorm:"type:varchar(3);not null"`
	IsCancellable        bool            `gorm:"default:true"`
	CancellationDeadline *time.Time
	CancellationReason   *string `gorm:"type:text"`
	CancelledAt          *time.Time
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

func (Booking) TableName() string {
	return "bookings"
}
