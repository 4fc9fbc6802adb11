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

type refundRequestRepositoryImpl struct {
	db *gorm.DB
}

func NewRefundRequestRepository(db *gorm.DB) contract.RefundRequestRepository {
	return &refundRequestRepositoryImpl{db: db}
}

func (r *refundRequestRepositoryImpl) Create(ctx context.Context, request *entity.RefundRequest) error {
	m := r.mapToModel(request)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	request.ID = m.ID
	request.CreatedAt = m.CreatedAt
	request.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *refundRequestRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.RefundRequest, error) {
	var m model.RefundRequest
	query := specification.ByID{ID: id}.Apply(r.db.WithContext(ctx))

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapToEntity(&m), nil
}

func (r *refundRequestRepositoryImpl) FindAll(ctx context.Context, filter contract.RefundRequestFilter) ([]*entity.RefundRequest, error) {
	var specs []specification.Specification
	if filter.Status != "" {
		specs = append(specs, specification.ByStatus{Status: string(filter.Status)})
	}
	if filter.BookingID != nil {
		specs = append(specs, specification.ByBookingID{BookingID: *filter.BookingID})
	}
	specs = append(specs, specification.Pagination{Limit: filter.Limit, Offset: filter.Offset})

	query := r.db.WithContext(ctx).Scopes(scope.OrderByCreatedDesc)
	for _, spec := range specs {
		query = spec.Apply(query)
	}

	var rows []*model.RefundRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	requests := make([]*entity.RefundRequest, 0, len(rows))
	for _, m := range rows {
		requests = append(requests, r.mapToEntity(m))
	}
	return requests, nil
}

func (r *refundRequestRepositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.RefundRequestStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.RefundRequest{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *refundRequestRepositoryImpl) Update(ctx context.Context, request *entity.RefundRequest) error {
	return r.db.WithContext(ctx).Model(&model.RefundRequest{}).
		Where("id = ?", request.ID).
		Updates(map[string]interface{}{
			"status":           string(request.Status),
			"notes":            request.Notes,
			"approved_by":      request.ApprovedBy,
			"approved_amount":  request.ApprovedAmount,
			"rejection_reason": request.RejectionReason,
			"refund_id":        request.RefundID,
			"processed_at":     request.ProcessedAt,
		}).Error
}

func (r *refundRequestRepositoryImpl) mapToModel(e *entity.RefundRequest) *model.RefundRequest {
	return &model.RefundRequest{
		ID:              e.ID,
		BookingID:       e.BookingID,
		PaymentID:       e.PaymentID,
		RequestedBy:     e.RequestedBy,
		Amount:          e.Amount,
		Currency:        e.Currency,
		Reason:          e.Reason,
		Notes:           e.Notes,
		Status:          string(e.Status),
		Calculation:     datatypes.JSONMap(e.Calculation),
		ApprovedBy:      e.ApprovedBy,
		ApprovedAmount:  e.ApprovedAmount,
		RejectionReason: e.RejectionReason,
		RefundID:        e.RefundID,
		ProcessedAt:     e.ProcessedAt,
	}
}

func (r *refundRequestRepositoryImpl) mapToEntity(m *model.RefundRequest) *entity.RefundRequest {
	return &entity.RefundRequest{
		ID:              m.ID,
		BookingID:       m.BookingID,
		PaymentID:       m.PaymentID,
		RequestedBy:     m.RequestedBy,
		Amount:          m.Amount,
		Currency:        m.Currency,
		Reason:          m.Reason,
		Notes:           m.Notes,
		Status:          entity.RefundRequestStatus(m.Status),
		Calculation:     map[string]interface{}(m.Calculation),
		ApprovedBy:      m.ApprovedBy,
		ApprovedAmount:  m.ApprovedAmount,
		RejectionReason: m.RejectionReason,
		RefundID:        m.RefundID,
		ProcessedAt:     m.ProcessedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
