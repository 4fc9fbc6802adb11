package implementation

import (
	"context"
	"errors"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/model"
	"booking-settlement-be/internal/repository/contract"
	"booking-settlement-be/internal/repository/scope"
	"booking-settlement-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type refundRepositoryImpl struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) contract.RefundRepository {
	return &refundRepositoryImpl{db: db}
}

func (r *refundRepositoryImpl) Create(ctx context.Context, refund *entity.Refund) error {
	modelRefund := &model.Refund{
		ID:             refund.ID,
		PaymentID:      refund.PaymentID,
		BookingID:      refund.BookingID,
		Amount:         refund.Amount,
		Currency:       refund.Currency,
		Status:         string(refund.Status),
		TransactionID:  refund.TransactionID,
		IdempotencyKey: refund.IdempotencyKey,
		Reason:         refund.Reason,
		ProcessedBy:    refund.ProcessedBy,
		ProcessedAt:    refund.ProcessedAt,
		Metadata:       datatypes.JSONMap(refund.Metadata),
	}
	if err := r.db.WithContext(ctx).Create(modelRefund).Error; err != nil {
		return err
	}
	refund.ID = modelRefund.ID
	refund.CreatedAt = modelRefund.CreatedAt
	refund.UpdatedAt = modelRefund.UpdatedAt
	return nil
}

func (r *refundRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.Refund, error) {
	return r.findOne(ctx, specification.ByID{ID: id})
}

func (r *refundRepositoryImpl) FindByIdempotencyKey(ctx context.Context, key string) (*entity.Refund, error) {
	return r.findOne(ctx, specification.ByIdempotencyKey{Key: key})
}

func (r *refundRepositoryImpl) FindAllByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Refund, error) {
	var modelRefunds []*model.Refund
	query := specification.ByBookingID{BookingID: bookingID}.Apply(r.db.WithContext(ctx)).Scopes(scope.OrderByCreatedAsc)

	if err := query.Find(&modelRefunds).Error; err != nil {
		return nil, err
	}

	refunds := make([]*entity.Refund, 0, len(modelRefunds))
	for _, mr := range modelRefunds {
		refunds = append(refunds, r.mapToEntity(mr))
	}
	return refunds, nil
}

func (r *refundRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.RefundStatus, transactionID string) (bool, error) {
	updates := map[string]interface{}{"status": string(status)}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}

	result := r.db.WithContext(ctx).Model(&model.Refund{}).
		Where("id = ? AND status = ?", id, string(entity.RefundStatusPending)).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *refundRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.Refund, error) {
	var modelRefund model.Refund
	query := r.db.WithContext(ctx)

	for _, spec := range specs {
		query = spec.Apply(query)
	}

	if err := query.First(&modelRefund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapToEntity(&modelRefund), nil
}

// mapToEntity converts model.Refund to entity.Refund
func (r *refundRepositoryImpl) mapToEntity(mr *model.Refund) *entity.Refund {
	return &entity.Refund{
		ID:             mr.ID,
		PaymentID:      mr.PaymentID,
		BookingID:      mr.BookingID,
		Amount:         mr.Amount,
		Currency:       mr.Currency,
		Status:         entity.RefundStatus(mr.Status),
		TransactionID:  mr.TransactionID,
		IdempotencyKey: mr.IdempotencyKey,
		Reason:         mr.Reason,
		ProcessedBy:    mr.ProcessedBy,
		ProcessedAt:    mr.ProcessedAt,
		Metadata:       map[string]interface{}(mr.Metadata),
		CreatedAt:      mr.CreatedAt,
		UpdatedAt:      mr.UpdatedAt,
	}
}
