package refund

import (
	"booking-settlement-be/internal/entity"

	"github.com/google/uuid"
)

const StatusPendingReview = "pending_review"

// SettlementResult is either *AutomaticSettlement or *ManualReviewSettlement.
type SettlementResult interface {
	Route() Route
	Calculation() Calculation
	isSettlementResult()
}

// AutomaticSettlement is returned once the gateway confirmed the refund and
// the booking transition was committed.
type AutomaticSettlement struct {
	Refund *entity.Refund
	Calc   Calculation
}

func (*AutomaticSettlement) Route() Route {
	return RouteAutomatic
}

func (r *AutomaticSettlement) Calculation() Calculation {
	return r.Calc
}

func (*AutomaticSettlement) isSettlementResult() {}

// ManualReviewSettlement is returned when the cancellation was parked as a
// pending RefundRequest. The booking is still confirmed.
type ManualReviewSettlement struct {
	RequestID uuid.UUID
	Calc      Calculation
	Status    string
}

func (*ManualReviewSettlement) Route() Route {
	return RouteManualReview
}

func (r *ManualReviewSettlement) Calculation() Calculation {
	return r.Calc
}

func (*ManualReviewSettlement) isSettlementResult() {}

// CancelCommand is the input of a cancellation. Override lets an operator
// push an ineligible booking into manual review instead of rejecting it.
type CancelCommand struct {
	BookingID   uuid.UUID
	Reason      string
	RequestedBy uuid.UUID
	Notes       string
	Override    bool
}
