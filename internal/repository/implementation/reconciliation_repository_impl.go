package implementation

import (
	"context"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/model"
	"booking-settlement-be/internal/repository/contract"
	"booking-settlement-be/internal/repository/scope"
	"booking-settlement-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reconciliationRepositoryImpl struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) contract.ReconciliationRepository {
	return &reconciliationRepositoryImpl{db: db}
}

func (r *reconciliationRepositoryImpl) Create(ctx context.Context, item *entity.ReconciliationItem) error {
	m := &model.ReconciliationItem{
		ID:        item.ID,
		Kind:      string(item.Kind),
		BookingID: item.BookingID,
		PaymentID: item.PaymentID,
		RefundID:  item.RefundID,
		Amount:    item.Amount,
		Currency:  item.Currency,
		Error:     item.Error,
		Resolved:  item.Resolved,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	item.ID = m.ID
	item.CreatedAt = m.CreatedAt
	return nil
}

func (r *reconciliationRepositoryImpl) FindAll(ctx context.Context, filter contract.ReconciliationFilter) ([]*entity.ReconciliationItem, error) {
	query := r.db.WithContext(ctx).Scopes(scope.OrderByCreatedDesc)
	if filter.UnresolvedOnly {
		query = specification.Unresolved{}.Apply(query)
	}
	query = specification.Pagination{Limit: filter.Limit, Offset: filter.Offset}.Apply(query)

	var rows []*model.ReconciliationItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]*entity.ReconciliationItem, 0, len(rows))
	for _, m := range rows {
		items = append(items, &entity.ReconciliationItem{
			ID:        m.ID,
			Kind:      entity.ReconciliationKind(m.Kind),
			BookingID: m.BookingID,
			PaymentID: m.PaymentID,
			RefundID:  m.RefundID,
			Amount:    m.Amount,
			Currency:  m.Currency,
			Error:     m.Error,
			Resolved:  m.Resolved,
			CreatedAt: m.CreatedAt,
		})
	}
	return items, nil
}

func (r *reconciliationRepositoryImpl) MarkResolved(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.ReconciliationItem{}).
		Where("id = ? AND resolved = ?", id, false).
		Update("resolved", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
