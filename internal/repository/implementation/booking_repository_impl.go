package implementation

import (
	"context"
	"errors"
	"time"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/model"
	"booking-settlement-be/internal/repository/contract"
	"booking-settlement-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingRepositoryImpl struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) contract.BookingRepository {
	return &bookingRepositoryImpl{db: db}
}

func (r *bookingRepositoryImpl) Create(ctx context.Context, booking *entity.Booking) error {
	m := &model.Booking{
		ID:                   booking.ID,
		ConfirmationNumber:   booking.ConfirmationNumber,
		GuestID:              booking.GuestID,
		GuestEmail:           booking.GuestEmail,
		GuestName:            booking.GuestName,
		HotelID:              booking.HotelID,
		Status:               string(booking.Status),
		CheckIn:              booking.CheckIn,
		CheckOut:             booking.CheckOut,
		TotalAmount:          booking.TotalAmount,
		Currency:             booking.Currency,
		IsCancellable:        booking.IsCancellable,
		CancellationDeadline: booking.CancellationDeadline,
		CancellationReason:   booking.CancellationReason,
		CancelledAt:          booking.CancelledAt,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	booking.ID = m.ID
	booking.CreatedAt = m.CreatedAt
	booking.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *bookingRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	var m model.Booking
	query := specification.ByID{ID: id}.Apply(r.db.WithContext(ctx))

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapToEntity(&m), nil
}

func (r *bookingRepositoryImpl) MarkCancelled(ctx context.Context, id uuid.UUID, reason *string, cancelledAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Booking{}).
		Where("id = ? AND status = ?", id, string(entity.BookingStatusConfirmed)).
		Updates(map[string]interface{}{
			"status":              string(entity.BookingStatusCancelled),
			"cancellation_reason": reason,
			"cancelled_at":        cancelledAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *bookingRepositoryImpl) mapToEntity(m *model.Booking) *entity.Booking {
	return &entity.Booking{
		ID:                   m.ID,
		ConfirmationNumber:   m.ConfirmationNumber,
		GuestID:              m.GuestID,
		GuestEmail:           m.GuestEmail,
		GuestName:            m.GuestName,
		HotelID:              m.HotelID,
		Status:               entity.BookingStatus(m.Status),
		CheckIn:              m.CheckIn,
		CheckOut:             m.CheckOut,
		TotalAmount:          m.TotalAmount,
		Currency:             m.Currency,
		IsCancellable:        m.IsCancellable,
		CancellationDeadline: m.CancellationDeadline,
		CancellationReason:   m.CancellationReason,
		CancelledAt:          m.CancelledAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
