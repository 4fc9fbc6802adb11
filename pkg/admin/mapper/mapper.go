package mapper

import (
	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/entity"
	"booking-settlement-be/pkg/refund"

	"github.com/google/uuid"
)

// CalculationToBreakdown converts a refund calculation to its display form.
func CalculationToBreakdown(c refund.Calculation) dto.RefundBreakdown {
	return dto.RefundBreakdown{
		Currency:          c.Currency,
		OriginalAmount:    c.Decimal(c.OriginalAmount).StringFixed(refund.Exponent(c.Currency)),
		RefundableAmount:  c.Decimal(c.RefundableAmount).StringFixed(refund.Exponent(c.Currency)),
		CancellationFee:   c.Decimal(c.CancellationFee).StringFixed(refund.Exponent(c.Currency)),
		ProcessingFee:     c.Decimal(c.ProcessingFee).StringFixed(refund.Exponent(c.Currency)),
		FinalRefundAmount: c.Decimal(c.FinalRefundAmount).StringFixed(refund.Exponent(c.Currency)),
		IsEligible:        c.IsEligible,
		Reason:            c.Reason,
		Tier:              string(c.Tier),
		HoursUntilCheckIn: c.HoursUntilCheckIn,
		Deadline:          c.Deadline,
		CalculatedAt:      c.CalculatedAt,
	}
}

// SettlementToCancellationResponse converts either settlement outcome.
func SettlementToCancellationResponse(bookingID uuid.UUID, result refund.SettlementResult) *dto.CancellationResponse {
	calc := result.Calculation()
	res := &dto.CancellationResponse{
		BookingId: bookingID,
		Route:     string(result.Route()),
		Breakdown: CalculationToBreakdown(calc),
	}

	switch r := result.(type) {
	case *refund.AutomaticSettlement:
		id := r.Refund.ID
		res.RefundId = &id
		res.TransactionId = r.Refund.TransactionID
		res.Status = string(r.Refund.Status)
		res.RefundAmount = r.Refund.Amount.StringFixed(refund.Exponent(r.Refund.Currency))
		res.Message = "Booking cancelled and refund issued"
	case *refund.ManualReviewSettlement:
		id := r.RequestID
		res.RequestId = &id
		res.Status = r.Status
		res.RefundAmount = calc.Decimal(calc.RefundableAmount).StringFixed(refund.Exponent(calc.Currency))
		res.Message = "Cancellation submitted for review"
	}
	return res
}

// RefundRequestToListResponse converts entity to list response DTO
func RefundRequestToListResponse(r *entity.RefundRequest) *dto.AdminRefundRequestListResponse {
	if r == nil {
		return nil
	}
	return &dto.AdminRefundRequestListResponse{
		Id:          r.ID,
		BookingId:   r.BookingID,
		PaymentId:   r.PaymentID,
		RequestedBy: r.RequestedBy,
		Amount:      r.Amount.StringFixed(refund.Exponent(r.Currency)),
		Currency:    r.Currency,
		Reason:      r.Reason,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
	}
}

// RefundRequestsToListResponse converts multiple entities to list response DTOs
func RefundRequestsToListResponse(requests []*entity.RefundRequest) []*dto.AdminRefundRequestListResponse {
	res := make([]*dto.AdminRefundRequestListResponse, 0, len(requests))
	for _, r := range requests {
		res = append(res, RefundRequestToListResponse(r))
	}
	return res
}

// RefundRequestToDetailResponse converts entity to detail response DTO
func RefundRequestToDetailResponse(r *entity.RefundRequest) *dto.AdminRefundRequestDetailResponse {
	if r == nil {
		return nil
	}
	res := &dto.AdminRefundRequestDetailResponse{
		AdminRefundRequestListResponse: *RefundRequestToListResponse(r),
		Notes:                          r.Notes,
		Calculation:                    r.Calculation,
		ApprovedBy:                     r.ApprovedBy,
		RejectionReason:                r.RejectionReason,
		RefundId:                       r.RefundID,
		ProcessedAt:                    r.ProcessedAt,
	}
	if r.ApprovedAmount != nil {
		res.ApprovedAmount = r.ApprovedAmount.StringFixed(refund.Exponent(r.Currency))
	}
	return res
}

// ReconciliationItemToResponse converts entity to response DTO
func ReconciliationItemToResponse(item *entity.ReconciliationItem) *dto.ReconciliationItemResponse {
	if item == nil {
		return nil
	}
	return &dto.ReconciliationItemResponse{
		Id:        item.ID,
		Kind:      string(item.Kind),
		BookingId: item.BookingID,
		PaymentId: item.PaymentID,
		RefundId:  item.RefundID,
		Amount:    item.Amount.StringFixed(refund.Exponent(item.Currency)),
		Currency:  item.Currency,
		Error:     item.Error,
		Resolved:  item.Resolved,
		CreatedAt: item.CreatedAt,
	}
}

func ReconciliationItemsToResponse(items []*entity.ReconciliationItem) []*dto.ReconciliationItemResponse {
	res := make([]*dto.ReconciliationItemResponse, 0, len(items))
	for _, item := range items {
		res = append(res, ReconciliationItemToResponse(item))
	}
	return res
}
