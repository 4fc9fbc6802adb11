package service

import (
	"context"

	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/repository/unitofwork"
	"booking-settlement-be/pkg/admin/dashboard"
	"booking-settlement-be/pkg/admin/mapper"
	"booking-settlement-be/pkg/admin/refund"
	settlement "booking-settlement-be/pkg/refund"

	"github.com/google/uuid"
)

type IAdminService interface {
	GetDeskStats(ctx context.Context) (*dto.AdminDeskStats, error)

	// Manual Review Queue
	GetRefundRequests(ctx context.Context, page, limit int, status string) ([]*dto.AdminRefundRequestListResponse, error)
	GetRefundRequest(ctx context.Context, requestId uuid.UUID) (*dto.AdminRefundRequestDetailResponse, error)
	ApproveRefundRequest(ctx context.Context, requestId, approvedBy uuid.UUID, req dto.AdminApproveRefundRequest) (*dto.AdminApproveRefundResponse, error)
	RejectRefundRequest(ctx context.Context, requestId, rejectedBy uuid.UUID, req dto.AdminRejectRefundRequest) (*dto.AdminRejectRefundResponse, error)

	// Reconciliation
	GetReconciliationItems(ctx context.Context, unresolvedOnly bool, page, limit int) ([]*dto.ReconciliationItemResponse, error)
	ResolveReconciliationItem(ctx context.Context, id uuid.UUID) error
	GetReconciliationJournal(ctx context.Context, page, limit int) ([]*dto.LogListResponse, error)

	// Logs
	GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogListResponse, error)
	GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error)
}

type adminService struct {
	uowFactory          unitofwork.RepositoryFactory
	logger              logger.ILogger
	journal             logger.ILogger
	dashboardAggregator *dashboard.Aggregator
	refundProcessor     *refund.Processor
	reconciler          IReconciliationService
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	logger logger.ILogger,
	journal logger.ILogger,
	refundProcessor *refund.Processor,
	reconciler IReconciliationService,
) IAdminService {
	return &adminService{
		uowFactory:          uowFactory,
		logger:              logger,
		journal:             journal,
		dashboardAggregator: dashboard.NewAggregator(logger),
		refundProcessor:     refundProcessor,
		reconciler:          reconciler,
	}
}

func (s *adminService) GetDeskStats(ctx context.Context) (*dto.AdminDeskStats, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return s.dashboardAggregator.GetStats(ctx, uow)
}

// ============================================================================
// Manual Review Queue
// ============================================================================

func (s *adminService) GetRefundRequests(ctx context.Context, page, limit int, status string) ([]*dto.AdminRefundRequestListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	requests, err := s.refundProcessor.GetAll(ctx, uow, page, limit, status)
	if err != nil {
		return nil, err
	}
	return mapper.RefundRequestsToListResponse(requests), nil
}

func (s *adminService) GetRefundRequest(ctx context.Context, requestId uuid.UUID) (*dto.AdminRefundRequestDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	request, err := s.refundProcessor.Get(ctx, uow, requestId)
	if err != nil {
		return nil, err
	}
	return mapper.RefundRequestToDetailResponse(request), nil
}

func (s *adminService) ApproveRefundRequest(ctx context.Context, requestId, approvedBy uuid.UUID, req dto.AdminApproveRefundRequest) (*dto.AdminApproveRefundResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	result, err := s.refundProcessor.Approve(ctx, uow, requestId, approvedBy, req)
	if err != nil {
		return nil, err
	}

	r := result.Refund
	return &dto.AdminApproveRefundResponse{
		RequestId:   requestId,
		RefundId:    r.ID,
		Status:      string(r.Status),
		Amount:      r.Amount.StringFixed(settlement.Exponent(r.Currency)),
		Currency:    r.Currency,
		ProcessedAt: r.ProcessedAt,
	}, nil
}

func (s *adminService) RejectRefundRequest(ctx context.Context, requestId, rejectedBy uuid.UUID, req dto.AdminRejectRefundRequest) (*dto.AdminRejectRefundResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	result, err := s.refundProcessor.Reject(ctx, uow, requestId, rejectedBy, req)
	if err != nil {
		return nil, err
	}
	return &dto.AdminRejectRefundResponse{
		RequestId:   result.RequestId,
		Status:      "rejected",
		ProcessedAt: result.ProcessedAt,
	}, nil
}

// ============================================================================
// Reconciliation
// ============================================================================

func (s *adminService) GetReconciliationItems(ctx context.Context, unresolvedOnly bool, page, limit int) ([]*dto.ReconciliationItemResponse, error) {
	items, err := s.reconciler.List(ctx, unresolvedOnly, page, limit)
	if err != nil {
		return nil, err
	}
	return mapper.ReconciliationItemsToResponse(items), nil
}

func (s *adminService) ResolveReconciliationItem(ctx context.Context, id uuid.UUID) error {
	return s.reconciler.Resolve(ctx, id)
}

func (s *adminService) GetReconciliationJournal(ctx context.Context, page, limit int) ([]*dto.LogListResponse, error) {
	return s.dashboardAggregator.GetSystemLogs(ctx, s.journal, page, limit, "")
}

// ============================================================================
// Logs
// ============================================================================

func (s *adminService) GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogListResponse, error) {
	return s.dashboardAggregator.GetSystemLogs(ctx, s.logger, page, limit, level)
}

func (s *adminService) GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error) {
	return s.dashboardAggregator.GetLogDetail(ctx, s.logger, logId)
}
