package refund

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/repository/memory"
	"booking-settlement-be/internal/repository/unitofwork"
	adminEvents "booking-settlement-be/pkg/admin/events"
	"booking-settlement-be/pkg/events"
	settlement "booking-settlement-be/pkg/refund"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settleCall struct {
	amount       decimal.Decimal
	statusAtCall entity.RefundRequestStatus
}

type fakeSettler struct {
	uow   unitofwork.UnitOfWork
	mu    sync.Mutex
	calls []settleCall
	err   error
}

func (f *fakeSettler) SettleApproved(ctx context.Context, request *entity.RefundRequest, amount decimal.Decimal, approvedBy uuid.UUID) (*settlement.AutomaticSettlement, error) {
	stored, _ := f.uow.RefundRequestRepository().FindByID(ctx, request.ID)

	f.mu.Lock()
	f.calls = append(f.calls, settleCall{amount: amount, statusAtCall: stored.Status})
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &settlement.AutomaticSettlement{
		Refund: &entity.Refund{
			ID:        uuid.New(),
			BookingID: request.BookingID,
			Amount:    amount,
			Currency:  request.Currency,
			Status:    entity.RefundStatusCompleted,
		},
	}, nil
}

type fakeGuestNotifier struct {
	rejected []uuid.UUID
}

func (f *fakeGuestNotifier) NotifyRefundRejected(ctx context.Context, booking *entity.Booking, request *entity.RefundRequest) error {
	f.rejected = append(f.rejected, request.ID)
	return nil
}

type fixture struct {
	uow       unitofwork.UnitOfWork
	settler   *fakeSettler
	notifier  *fakeGuestNotifier
	processor *Processor
	events    *[]string
	booking   *entity.Booking
	payment   *entity.Payment
}

func newFixture(t *testing.T, requested string) (*fixture, *entity.RefundRequest) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	uow := memory.NewUnitOfWork(store)

	booking := &entity.Booking{
		Status:        entity.BookingStatusConfirmed,
		CheckIn:       time.Now().Add(18 * time.Hour),
		TotalAmount:   decimal.RequireFromString("300"),
		Currency:      "USD",
		IsCancellable: true,
		GuestEmail:    "guest@example.com",
	}
	require.NoError(t, uow.BookingRepository().Create(ctx, booking))

	payment := &entity.Payment{
		BookingID:     booking.ID,
		Amount:        decimal.RequireFromString("300"),
		Currency:      "USD",
		Status:        entity.PaymentStatusCompleted,
		TransactionID: "txn-1",
	}
	require.NoError(t, uow.PaymentRepository().Create(ctx, payment))

	paymentID := payment.ID
	request := &entity.RefundRequest{
		BookingID:   booking.ID,
		PaymentID:   &paymentID,
		RequestedBy: uuid.New(),
		Amount:      decimal.RequireFromString(requested),
		Currency:    "USD",
		Reason:      "family emergency",
		Status:      entity.RefundRequestStatusPending,
	}
	require.NoError(t, uow.RefundRequestRepository().Create(ctx, request))

	bus := events.NewChannelBus(nil)
	t.Cleanup(func() { _ = bus.Close() })
	seen := []string{}
	require.NoError(t, bus.Subscribe(ctx, events.WildcardType, func(ctx context.Context, e events.Event) error {
		seen = append(seen, e.EventType())
		return nil
	}))

	log := logger.NewNopLogger()
	settler := &fakeSettler{uow: uow}
	notifier := &fakeGuestNotifier{}
	return &fixture{
		uow:       uow,
		settler:   settler,
		notifier:  notifier,
		processor: NewProcessor(log, adminEvents.NewBusPublisher(bus, log), settler, notifier),
		events:    &seen,
		booking:   booking,
		payment:   payment,
	}, request
}

func (f *fixture) status(t *testing.T, id uuid.UUID) entity.RefundRequestStatus {
	t.Helper()
	r, err := f.uow.RefundRequestRepository().FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, r)
	return r.Status
}

func strPtr(s string) *string {
	return &s
}

func TestApprove_UsesStoredAmount(t *testing.T) {
	f, request := newFixture(t, "150")

	result, err := f.processor.Approve(context.Background(), f.uow, request.ID, uuid.New(), dto.AdminApproveRefundRequest{})
	require.NoError(t, err)
	require.NotNil(t, result.Refund)

	require.Len(t, f.settler.calls, 1)
	assert.True(t, decimal.RequireFromString("150").Equal(f.settler.calls[0].amount))
	assert.Equal(t, entity.RefundRequestStatusApproved, f.settler.calls[0].statusAtCall)
	assert.Contains(t, *f.events, events.TypeRefundApproved)
}

func TestApprove_UsesOperatorAmount(t *testing.T) {
	f, request := newFixture(t, "150")

	_, err := f.processor.Approve(context.Background(), f.uow, request.ID, uuid.New(), dto.AdminApproveRefundRequest{Amount: strPtr("145.50")})
	require.NoError(t, err)

	require.Len(t, f.settler.calls, 1)
	assert.True(t, decimal.RequireFromString("145.5").Equal(f.settler.calls[0].amount))
}

func TestApprove_InvalidAmounts(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		amount    *string
	}{
		{"above paid amount", "150", strPtr("300.01")},
		{"zero", "150", strPtr("0")},
		{"negative", "150", strPtr("-5")},
		{"not a number", "150", strPtr("abc")},
		{"sub-cent", "150", strPtr("10.005")},
		{"zero stored amount needs explicit amount", "0", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, request := newFixture(t, tt.requested)

			_, err := f.processor.Approve(context.Background(), f.uow, request.ID, uuid.New(), dto.AdminApproveRefundRequest{Amount: tt.amount})
			assert.ErrorIs(t, err, settlement.ErrInvalidAmount)
			assert.Empty(t, f.settler.calls)
			assert.Equal(t, entity.RefundRequestStatusPending, f.status(t, request.ID))
		})
	}
}

func TestApprove_FullPaidAmountIsAllowed(t *testing.T) {
	f, request := newFixture(t, "0")

	_, err := f.processor.Approve(context.Background(), f.uow, request.ID, uuid.New(), dto.AdminApproveRefundRequest{Amount: strPtr("300")})
	require.NoError(t, err)
	require.Len(t, f.settler.calls, 1)
}

func TestApprove_SettlementFailureReturnsRequestToPending(t *testing.T) {
	f, request := newFixture(t, "150")
	f.settler.err = settlement.NewError(settlement.KindGatewayFailure, "provider down")

	_, err := f.processor.Approve(context.Background(), f.uow, request.ID, uuid.New(), dto.AdminApproveRefundRequest{})
	assert.ErrorIs(t, err, settlement.ErrGatewayFailure)
	assert.Equal(t, entity.RefundRequestStatusPending, f.status(t, request.ID))
	assert.NotContains(t, *f.events, events.TypeRefundApproved)

	f.settler.err = nil
	_, err = f.processor.Approve(context.Background(), f.uow, request.ID, uuid.New(), dto.AdminApproveRefundRequest{})
	assert.NoError(t, err)
}

func TestApprove_RejectsProcessedAndMissingRequests(t *testing.T) {
	f, request := newFixture(t, "150")

	ok, err := f.uow.RefundRequestRepository().TransitionStatus(context.Background(), request.ID, entity.RefundRequestStatusPending, entity.RefundRequestStatusRejected)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.processor.Approve(context.Background(), f.uow, request.ID, uuid.New(), dto.AdminApproveRefundRequest{})
	assert.ErrorIs(t, err, settlement.ErrRequestAlreadyProcessed)

	_, err = f.processor.Approve(context.Background(), f.uow, uuid.New(), uuid.New(), dto.AdminApproveRefundRequest{})
	assert.ErrorIs(t, err, settlement.ErrRequestNotFound)
}

func TestReject_LeavesBookingUntouched(t *testing.T) {
	f, request := newFixture(t, "150")

	result, err := f.processor.Reject(context.Background(), f.uow, request.ID, uuid.New(), dto.AdminRejectRefundRequest{Reason: "outside policy"})
	require.NoError(t, err)
	assert.Equal(t, request.ID, result.RequestId)

	stored, err := f.uow.RefundRequestRepository().FindByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RefundRequestStatusRejected, stored.Status)
	assert.Equal(t, "outside policy", stored.RejectionReason)
	require.NotNil(t, stored.ProcessedAt)

	booking, err := f.uow.BookingRepository().FindByID(context.Background(), f.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)

	assert.Equal(t, []uuid.UUID{request.ID}, f.notifier.rejected)
	assert.Contains(t, *f.events, events.TypeRefundRejected)
	assert.Empty(t, f.settler.calls)

	_, err = f.processor.Reject(context.Background(), f.uow, request.ID, uuid.New(), dto.AdminRejectRefundRequest{Reason: "again"})
	assert.ErrorIs(t, err, settlement.ErrRequestAlreadyProcessed)
}

func TestGetAll_FiltersByStatus(t *testing.T) {
	f, request := newFixture(t, "150")

	pending, err := f.processor.GetAll(context.Background(), f.uow, 1, 10, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, request.ID, pending[0].ID)

	rejected, err := f.processor.GetAll(context.Background(), f.uow, 1, 10, "rejected")
	require.NoError(t, err)
	assert.Empty(t, rejected)

	_, err = f.processor.Get(context.Background(), f.uow, uuid.New())
	assert.True(t, errors.Is(err, settlement.ErrRequestNotFound))
}
