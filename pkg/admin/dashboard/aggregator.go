package dashboard

import (
	"context"
	"time"

	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/repository/contract"
	"booking-settlement-be/internal/repository/unitofwork"
)

// Aggregator handles refund desk statistics and log views
type Aggregator struct {
	logger logger.ILogger
}

// NewAggregator creates a new dashboard aggregator
func NewAggregator(logger logger.ILogger) *Aggregator {
	return &Aggregator{
		logger: logger,
	}
}

// GetStats counts the work waiting on operators.
func (a *Aggregator) GetStats(ctx context.Context, uow unitofwork.UnitOfWork) (*dto.AdminDeskStats, error) {
	pending, err := uow.RefundRequestRepository().FindAll(ctx, contract.RefundRequestFilter{Status: entity.RefundRequestStatusPending})
	if err != nil {
		return nil, err
	}

	inFlight, err := uow.RefundRequestRepository().FindAll(ctx, contract.RefundRequestFilter{Status: entity.RefundRequestStatusApproved})
	if err != nil {
		return nil, err
	}

	unresolved, err := uow.ReconciliationRepository().FindAll(ctx, contract.ReconciliationFilter{UnresolvedOnly: true})
	if err != nil {
		return nil, err
	}

	byKind := make(map[string]int)
	for _, item := range unresolved {
		byKind[string(item.Kind)]++
	}

	return &dto.AdminDeskStats{
		PendingReviews:           len(pending),
		ApprovalsInFlight:        len(inFlight),
		UnresolvedReconciliation: len(unresolved),
		ReconciliationByKind:     byKind,
	}, nil
}

// GetSystemLogs retrieves log entries from the given logger
func (a *Aggregator) GetSystemLogs(ctx context.Context, loggerSvc logger.ILogger, page, limit int, level string) ([]*dto.LogListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	logs, err := loggerSvc.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LogListResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toLogListResponse(l))
	}
	return res, nil
}

// GetLogDetail retrieves a single log entry
func (a *Aggregator) GetLogDetail(ctx context.Context, loggerSvc logger.ILogger, logId string) (*dto.LogDetailResponse, error) {
	l, err := loggerSvc.GetLogById(logId)
	if err != nil {
		return nil, err
	}

	return &dto.LogDetailResponse{
		LogListResponse: *toLogListResponse(*l),
		Details:         l.Details,
	}, nil
}

func toLogListResponse(l logger.LogEntry) *dto.LogListResponse {
	ts, _ := time.Parse(time.RFC3339, l.Timestamp)
	return &dto.LogListResponse{
		Id:        l.Id,
		Level:     l.Level,
		Module:    l.Module,
		Message:   l.Message,
		CreatedAt: ts,
	}
}
