package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/repository/contract"
	"booking-settlement-be/pkg/events"
	"booking-settlement-be/pkg/gateway"
	"booking-settlement-be/pkg/refund"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCancel_FullRefundSettlesAutomatically(t *testing.T) {
	h := newHarness(t)
	s := h.seed(t, "200", 48)

	result, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	require.NoError(t, err)

	auto, ok := result.(*refund.AutomaticSettlement)
	require.True(t, ok, "expected automatic settlement, got %T", result)
	assert.Equal(t, refund.RouteAutomatic, result.Route())
	assert.True(t, dec("194").Equal(auto.Refund.Amount), "refund amount %s", auto.Refund.Amount)
	assert.Equal(t, entity.RefundStatusCompleted, auto.Refund.Status)
	assert.Equal(t, int64(19400), auto.Calc.FinalRefundAmount)

	calls := h.gateway.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, IdempotencyKey(s.booking.ID), calls[0].IdempotencyKey)
	assert.Equal(t, s.payment.TransactionID, calls[0].TransactionID)
	assert.True(t, dec("194").Equal(calls[0].Amount))

	b := h.booking(t, s.booking.ID)
	assert.Equal(t, entity.BookingStatusCancelled, b.Status)
	require.NotNil(t, b.CancelledAt)
	assert.True(t, testNow.Equal(*b.CancelledAt))
	require.NotNil(t, b.CancellationReason)
	assert.Equal(t, "change of plans", *b.CancellationReason)

	rs := h.refunds(t, s.booking.ID)
	require.Len(t, rs, 1)
	assert.Equal(t, auto.Refund.ID, rs[0].ID)
	assert.Equal(t, "rf-"+IdempotencyKey(s.booking.ID), rs[0].TransactionID)

	reversal, err := h.factory.NewUnitOfWork(context.Background()).CommissionRepository().FindReversalByRefundID(context.Background(), auto.Refund.ID)
	require.NoError(t, err)
	require.NotNil(t, reversal)
	assert.True(t, dec("-19.40").Equal(reversal.Amount), "reversal %s", reversal.Amount)

	assert.Equal(t, []string{"completed"}, h.notifier.Kinds())
	assert.Contains(t, h.events.Types(), events.TypeRefundCompleted)
	assert.Empty(t, h.reconciliationItems(t))
}

func TestCancel_PartialRefundIsParkedForReview(t *testing.T) {
	h := newHarness(t)
	s := h.seed(t, "300", 18)

	result, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	require.NoError(t, err)

	manual, ok := result.(*refund.ManualReviewSettlement)
	require.True(t, ok, "expected manual review, got %T", result)
	assert.Equal(t, refund.StatusPendingReview, manual.Status)
	assert.Equal(t, int64(15000), manual.Calc.RefundableAmount)
	assert.Equal(t, int64(15000), manual.Calc.CancellationFee)
	assert.Equal(t, int64(450), manual.Calc.ProcessingFee)
	assert.Equal(t, int64(14550), manual.Calc.FinalRefundAmount)

	request, err := h.factory.NewUnitOfWork(context.Background()).RefundRequestRepository().FindByID(context.Background(), manual.RequestID)
	require.NoError(t, err)
	require.NotNil(t, request)
	assert.Equal(t, entity.RefundRequestStatusPending, request.Status)
	assert.True(t, dec("150").Equal(request.Amount))
	require.NotNil(t, request.PaymentID)
	assert.Equal(t, s.payment.ID, *request.PaymentID)
	assert.Equal(t, "partial", request.Calculation["tier"])

	assert.Equal(t, entity.BookingStatusConfirmed, h.booking(t, s.booking.ID).Status)
	assert.Empty(t, h.gateway.Calls())
	assert.Empty(t, h.refunds(t, s.booking.ID))
	assert.Equal(t, []string{"pending_review"}, h.notifier.Kinds())
	assert.Contains(t, h.events.Types(), events.TypeRefundPendingReview)
}

func TestCancel_RepeatedManualCancelReturnsOpenRequest(t *testing.T) {
	h := newHarness(t)
	s := h.seed(t, "300", 18)

	first, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	require.NoError(t, err)
	second, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	require.NoError(t, err)

	assert.Equal(t, first.(*refund.ManualReviewSettlement).RequestID, second.(*refund.ManualReviewSettlement).RequestID)

	id := s.booking.ID
	open, err := h.factory.NewUnitOfWork(context.Background()).RefundRequestRepository().FindAll(context.Background(), contract.RefundRequestFilter{BookingID: &id})
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestCancel_SameDayIsNotEligible(t *testing.T) {
	h := newHarness(t)
	s := h.seed(t, "100", 2)

	_, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	require.Error(t, err)
	assert.True(t, errors.Is(err, refund.ErrNotEligible))

	var se *refund.SettlementError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, refund.ReasonSameDay, se.Reason)
	require.NotNil(t, se.Calculation)
	assert.Equal(t, int64(0), se.Calculation.FinalRefundAmount)

	assert.Equal(t, entity.BookingStatusConfirmed, h.booking(t, s.booking.ID).Status)
	assert.Empty(t, h.gateway.Calls())
	assert.Empty(t, h.notifier.Kinds())
}

func TestCancel_RejectsBookingsInTheWrongState(t *testing.T) {
	tests := []struct {
		name   string
		status entity.BookingStatus
		want   *refund.SettlementError
	}{
		{"already cancelled", entity.BookingStatusCancelled, refund.ErrAlreadyCancelled},
		{"pending", entity.BookingStatusPending, refund.ErrInvalidState},
		{"payment failed", entity.BookingStatusPaymentFailed, refund.ErrInvalidState},
		{"cancelled with pending refund", entity.BookingStatusCancelledPendingRefund, refund.ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			s := h.seed(t, "200", 48, func(b *entity.Booking) { b.Status = tt.status })

			_, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, h.refunds(t, s.booking.ID))
			assert.Empty(t, h.gateway.Calls())
			assert.Equal(t, tt.status, h.booking(t, s.booking.ID).Status)
		})
	}
}

func TestCancel_UnknownBooking(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Cancel(context.Background(), cancelCommand(uuid.New()))
	assert.ErrorIs(t, err, refund.ErrNotFound)
}

func TestCancel_NoCompletedPayment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	b := &entity.Booking{
		Status:        entity.BookingStatusConfirmed,
		CheckIn:       testNow.Add(72 * time.Hour),
		TotalAmount:   dec("200"),
		Currency:      "USD",
		IsCancellable: true,
	}
	require.NoError(t, h.factory.NewUnitOfWork(ctx).BookingRepository().Create(ctx, b))
	require.NoError(t, h.factory.NewUnitOfWork(ctx).PaymentRepository().Create(ctx, &entity.Payment{
		BookingID: b.ID,
		Amount:    dec("200"),
		Currency:  "USD",
		Status:    entity.PaymentStatusPending,
	}))

	_, err := h.svc.Cancel(ctx, cancelCommand(b.ID))
	assert.ErrorIs(t, err, refund.ErrNoCompletedPayment)
	assert.Equal(t, entity.BookingStatusConfirmed, h.booking(t, b.ID).Status)
	assert.Empty(t, h.gateway.Calls())
}

func TestCancel_GatewayFailureLeavesNoTrace(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      *refund.SettlementError
		retryable bool
	}{
		{"transient", gateway.Transient("503", "service unavailable", nil), refund.ErrGatewayFailure, true},
		{"rejected", gateway.Rejected("412", "refund already issued"), refund.ErrGatewayRejected, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.gateway.err = tt.err
			s := h.seed(t, "200", 48)

			_, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.retryable, refund.IsRetryable(err))

			assert.Equal(t, entity.BookingStatusConfirmed, h.booking(t, s.booking.ID).Status)
			assert.Empty(t, h.refunds(t, s.booking.ID))
			assert.Empty(t, h.notifier.Kinds())
			assert.Empty(t, h.reconciliationItems(t))
		})
	}
}

type hangingGateway struct{}

func (hangingGateway) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	<-ctx.Done()
	return nil, gateway.Transient("timeout", "no answer", ctx.Err())
}

func TestCancel_GatewayCallIsBounded(t *testing.T) {
	h := newHarness(t, func(d *SettlementDependencies) {
		d.Gateway = hangingGateway{}
		d.GatewayTimeout = 20 * time.Millisecond
	})
	s := h.seed(t, "200", 48)

	start := time.Now()
	_, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	assert.ErrorIs(t, err, refund.ErrGatewayFailure)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, entity.BookingStatusConfirmed, h.booking(t, s.booking.ID).Status)
}

func TestCancel_RetryAfterGatewayFailureReusesKey(t *testing.T) {
	h := newHarness(t)
	s := h.seed(t, "200", 48)

	h.gateway.err = gateway.Transient("504", "gateway timeout", nil)
	_, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	require.ErrorIs(t, err, refund.ErrGatewayFailure)

	h.gateway.err = nil
	_, err = h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	require.NoError(t, err)

	calls := h.gateway.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0].IdempotencyKey, calls[1].IdempotencyKey)
	assert.Len(t, h.refunds(t, s.booking.ID), 1)
}

func TestCancel_ConcurrentRequestsRefundOnce(t *testing.T) {
	for _, tc := range []struct {
		name     string
		useLocks bool
	}{
		{"with booking lock", true},
		{"database guard only", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, func(d *SettlementDependencies) {
				if !tc.useLocks {
					d.Locker = noLock{}
				}
			})
			s := h.seed(t, "200", 48)

			const workers = 8
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				success int
				already int
			)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						success++
					case errors.Is(err, refund.ErrAlreadyCancelled):
						already++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, success)
			assert.Equal(t, workers-1, already)
			assert.Len(t, h.refunds(t, s.booking.ID), 1)
			assert.Equal(t, entity.BookingStatusCancelled, h.booking(t, s.booking.ID).Status)

			for _, call := range h.gateway.Calls() {
				assert.Equal(t, IdempotencyKey(s.booking.ID), call.IdempotencyKey)
			}
			if tc.useLocks {
				assert.Len(t, h.gateway.Calls(), 1)
			}
		})
	}
}

func TestCancel_LedgerFailureIsReconciledNotReturned(t *testing.T) {
	h := newHarness(t, func(d *SettlementDependencies) {
		d.Ledger = failingLedger{}
	})
	s := h.seed(t, "200", 48)

	result, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	require.NoError(t, err)
	auto := result.(*refund.AutomaticSettlement)

	assert.Equal(t, entity.BookingStatusCancelled, h.booking(t, s.booking.ID).Status)

	items := h.reconciliationItems(t)
	require.Len(t, items, 1)
	assert.Equal(t, entity.ReconciliationKindLedgerFailure, items[0].Kind)
	require.NotNil(t, items[0].RefundID)
	assert.Equal(t, auto.Refund.ID, *items[0].RefundID)
	assert.True(t, dec("194").Equal(items[0].Amount))
	assert.Contains(t, h.events.Types(), events.TypeReconciliationRequired)
	assert.Equal(t, []string{"completed"}, h.notifier.Kinds())
}

func TestCancel_NotificationFailureIsNotReturned(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = errors.New("queue closed")
	s := h.seed(t, "200", 48)

	_, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	require.NoError(t, err)

	items := h.reconciliationItems(t)
	require.Len(t, items, 1)
	assert.Equal(t, entity.ReconciliationKindNotificationFailure, items[0].Kind)
	assert.Contains(t, h.events.Types(), events.TypeRefundCompleted)
}

func TestCancel_UnsettledGatewayResultStaysPending(t *testing.T) {
	h := newHarness(t)
	h.gateway.pending = true
	s := h.seed(t, "200", 48)

	result, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	require.NoError(t, err)

	auto := result.(*refund.AutomaticSettlement)
	assert.Equal(t, entity.RefundStatusPending, auto.Refund.Status)
	assert.Equal(t, entity.BookingStatusCancelled, h.booking(t, s.booking.ID).Status)
}

func TestCancel_OverrideForcesManualReview(t *testing.T) {
	t.Run("ineligible booking", func(t *testing.T) {
		h := newHarness(t)
		s := h.seed(t, "100", 2)

		cmd := cancelCommand(s.booking.ID)
		cmd.Override = true
		result, err := h.svc.Cancel(context.Background(), cmd)
		require.NoError(t, err)

		manual, ok := result.(*refund.ManualReviewSettlement)
		require.True(t, ok)
		assert.False(t, manual.Calc.IsEligible)

		request, err := h.factory.NewUnitOfWork(context.Background()).RefundRequestRepository().FindByID(context.Background(), manual.RequestID)
		require.NoError(t, err)
		assert.True(t, request.Amount.IsZero())
		assert.Equal(t, true, request.Calculation["override"])
	})

	t.Run("free cancellation", func(t *testing.T) {
		h := newHarness(t)
		s := h.seed(t, "200", 48)

		cmd := cancelCommand(s.booking.ID)
		cmd.Override = true
		result, err := h.svc.Cancel(context.Background(), cmd)
		require.NoError(t, err)
		assert.Equal(t, refund.RouteManualReview, result.Route())
		assert.Empty(t, h.gateway.Calls())
	})
}

func TestQuote_DoesNotMutate(t *testing.T) {
	h := newHarness(t)
	s := h.seed(t, "300", 18)

	calc, route, err := h.svc.Quote(context.Background(), s.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, refund.RouteManualReview, route)
	assert.Equal(t, int64(14550), calc.FinalRefundAmount)

	assert.Equal(t, entity.BookingStatusConfirmed, h.booking(t, s.booking.ID).Status)
	assert.Empty(t, h.gateway.Calls())

	_, _, err = h.svc.Quote(context.Background(), uuid.New())
	assert.ErrorIs(t, err, refund.ErrNotFound)
}

func parkedRequest(t *testing.T, h *harness, s seeded) *entity.RefundRequest {
	t.Helper()
	result, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	require.NoError(t, err)
	request, err := h.factory.NewUnitOfWork(context.Background()).RefundRequestRepository().FindByID(context.Background(), result.(*refund.ManualReviewSettlement).RequestID)
	require.NoError(t, err)
	require.NotNil(t, request)
	return request
}

func TestSettleApproved_PaysApprovedAmount(t *testing.T) {
	h := newHarness(t)
	s := h.seed(t, "300", 18)
	request := parkedRequest(t, h, s)
	admin := uuid.New()

	result, err := h.svc.SettleApproved(context.Background(), request, dec("145.50"), admin)
	require.NoError(t, err)

	assert.True(t, dec("145.5").Equal(result.Refund.Amount))
	assert.Equal(t, admin, result.Refund.ProcessedBy)
	assert.Equal(t, entity.BookingStatusCancelled, h.booking(t, s.booking.ID).Status)

	stored, err := h.factory.NewUnitOfWork(context.Background()).RefundRequestRepository().FindByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RefundRequestStatusCompleted, stored.Status)
	require.NotNil(t, stored.RefundID)
	assert.Equal(t, result.Refund.ID, *stored.RefundID)

	reversal, err := h.factory.NewUnitOfWork(context.Background()).CommissionRepository().FindReversalByRefundID(context.Background(), result.Refund.ID)
	require.NoError(t, err)
	require.NotNil(t, reversal)
	assert.True(t, dec("-14.55").Equal(reversal.Amount), "reversal %s", reversal.Amount)
}

func TestSettleApproved_RevalidatesBooking(t *testing.T) {
	h := newHarness(t)
	s := h.seed(t, "300", 18)
	request := parkedRequest(t, h, s)

	ok, err := h.factory.NewUnitOfWork(context.Background()).BookingRepository().MarkCancelled(context.Background(), s.booking.ID, nil, testNow)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = h.svc.SettleApproved(context.Background(), request, dec("145.50"), uuid.New())
	assert.ErrorIs(t, err, refund.ErrAlreadyCancelled)
	assert.Empty(t, h.gateway.Calls())
}

// lostAnswerGateway lets the first call land at the provider but reports a
// timeout to the caller, as when the response is lost in transit.
type lostAnswerGateway struct {
	provider *gateway.Simulator
	calls    int
}

func (g *lostAnswerGateway) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	g.calls++
	res, err := g.provider.Refund(ctx, req)
	if err != nil {
		return nil, err
	}
	if g.calls == 1 {
		return nil, gateway.Transient("504", "gateway timeout", nil)
	}
	return res, nil
}

func TestSettleApproved_RecordsProviderAmountWhenKeyReplaysEarlierAttempt(t *testing.T) {
	gw := &lostAnswerGateway{provider: gateway.NewSimulator()}
	h := newHarness(t, func(d *SettlementDependencies) { d.Gateway = gw })
	s := h.seed(t, "300", 18)
	request := parkedRequest(t, h, s)

	_, err := h.svc.SettleApproved(context.Background(), request, dec("145.50"), uuid.New())
	require.ErrorIs(t, err, refund.ErrGatewayFailure)
	assert.Empty(t, h.refunds(t, s.booking.ID))

	result, err := h.svc.SettleApproved(context.Background(), request, dec("100"), uuid.New())
	require.NoError(t, err)

	assert.True(t, dec("145.50").Equal(result.Refund.Amount), "recorded %s", result.Refund.Amount)
	assert.Equal(t, "100", result.Refund.Metadata["requested_amount"])

	stored, err := h.factory.NewUnitOfWork(context.Background()).RefundRequestRepository().FindByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ApprovedAmount)
	assert.True(t, dec("145.50").Equal(*stored.ApprovedAmount))

	reversal, err := h.factory.NewUnitOfWork(context.Background()).CommissionRepository().FindReversalByRefundID(context.Background(), result.Refund.ID)
	require.NoError(t, err)
	require.NotNil(t, reversal)
	assert.True(t, dec("-14.55").Equal(reversal.Amount), "reversal %s", reversal.Amount)

	items := h.reconciliationItems(t)
	require.Len(t, items, 1)
	assert.Equal(t, entity.ReconciliationKindAmountMismatch, items[0].Kind)
	assert.True(t, dec("145.50").Equal(items[0].Amount))
	assert.Contains(t, h.events.Types(), events.TypeReconciliationRequired)
}
