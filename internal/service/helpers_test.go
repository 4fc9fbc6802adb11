package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/repository/memory"
	"booking-settlement-be/internal/repository/unitofwork"
	adminEvents "booking-settlement-be/pkg/admin/events"
	"booking-settlement-be/pkg/events"
	"booking-settlement-be/pkg/gateway"
	"booking-settlement-be/pkg/ledger"
	"booking-settlement-be/pkg/lock"
	"booking-settlement-be/pkg/refund"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeGateway struct {
	mu    sync.Mutex
	calls []gateway.RefundRequest
	err   error
	// pending makes results unsettled, as when the provider confirms by webhook.
	pending bool
}

func (g *fakeGateway) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.RefundResult{
		RefundID:      req.IdempotencyKey,
		TransactionID: "rf-" + req.IdempotencyKey,
		Settled:       !g.pending,
	}, nil
}

func (g *fakeGateway) Calls() []gateway.RefundRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.RefundRequest(nil), g.calls...)
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []string
	err   error
}

func (n *recordingNotifier) record(kind string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	return n.err
}

func (n *recordingNotifier) NotifyRefundCompleted(ctx context.Context, booking *entity.Booking, r *entity.Refund) error {
	return n.record("completed")
}

func (n *recordingNotifier) NotifyRefundPendingReview(ctx context.Context, booking *entity.Booking, request *entity.RefundRequest) error {
	return n.record("pending_review")
}

func (n *recordingNotifier) NotifyRefundRejected(ctx context.Context, booking *entity.Booking, request *entity.RefundRequest) error {
	return n.record("rejected")
}

func (n *recordingNotifier) Kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.kinds...)
}

type failingLedger struct{}

func (failingLedger) ReverseCommission(ctx context.Context, r *entity.Refund, payment *entity.Payment) (*entity.CommissionEntry, error) {
	return nil, errors.New("ledger unavailable")
}

// noLock lets tests exercise the database compare-and-swap on its own.
type noLock struct{}

func (noLock) Acquire(ctx context.Context, key string) (lock.Release, error) {
	return func() {}, nil
}

type eventLog struct {
	mu    sync.Mutex
	types []string
}

func (l *eventLog) Types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.types...)
}

type harness struct {
	store      *memory.Store
	factory    unitofwork.RepositoryFactory
	gateway    *fakeGateway
	notifier   *recordingNotifier
	events     *eventLog
	publisher  adminEvents.Publisher
	reconciler IReconciliationService
	svc        ISettlementService
}

func newHarness(t *testing.T, configure ...func(*SettlementDependencies)) *harness {
	t.Helper()

	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)
	log := logger.NewNopLogger()

	bus := events.NewChannelBus(nil)
	t.Cleanup(func() { _ = bus.Close() })
	evLog := &eventLog{}
	require.NoError(t, bus.Subscribe(context.Background(), events.WildcardType, func(ctx context.Context, e events.Event) error {
		evLog.mu.Lock()
		defer evLog.mu.Unlock()
		evLog.types = append(evLog.types, e.EventType())
		return nil
	}))
	publisher := adminEvents.NewBusPublisher(bus, log)
	reconciler := NewReconciliationService(factory, log, log, publisher)

	h := &harness{
		store:      store,
		factory:    factory,
		gateway:    &fakeGateway{},
		notifier:   &recordingNotifier{},
		events:     evLog,
		publisher:  publisher,
		reconciler: reconciler,
	}

	deps := SettlementDependencies{
		UowFactory:     factory,
		Locker:         lock.NewKeyedLocker(),
		Calculator:     refund.NewCalculator(),
		Policy:         refund.NewPolicy(),
		Gateway:        h.gateway,
		Ledger:         ledger.NewCommissionLedger(factory),
		Notifier:       h.notifier,
		Publisher:      publisher,
		Reconciler:     reconciler,
		Logger:         log,
		GatewayTimeout: time.Second,
		Clock:          func() time.Time { return testNow },
	}
	for _, fn := range configure {
		fn(&deps)
	}
	h.svc = NewSettlementService(deps)
	return h
}

type seeded struct {
	booking *entity.Booking
	payment *entity.Payment
}

// seed stores a confirmed, cancellable booking checking in hoursAhead from
// testNow, paid in full, with a 10% commission charge.
func (h *harness) seed(t *testing.T, total string, hoursAhead float64, mutate ...func(*entity.Booking)) seeded {
	t.Helper()
	ctx := context.Background()
	uow := h.factory.NewUnitOfWork(ctx)

	amount := decimal.RequireFromString(total)
	b := &entity.Booking{
		ID:                 uuid.New(),
		ConfirmationNumber: "BK-1001",
		GuestID:            uuid.New(),
		GuestEmail:         "guest@example.com",
		GuestName:          "Ana Guest",
		HotelID:            uuid.New(),
		Status:             entity.BookingStatusConfirmed,
		CheckIn:            testNow.Add(time.Duration(hoursAhead * float64(time.Hour))),
		CheckOut:           testNow.Add(time.Duration(hoursAhead*float64(time.Hour)) + 48*time.Hour),
		TotalAmount:        amount,
		Currency:           "USD",
		IsCancellable:      true,
	}
	for _, fn := range mutate {
		fn(b)
	}
	require.NoError(t, uow.BookingRepository().Create(ctx, b))

	p := &entity.Payment{
		ID:            uuid.New(),
		BookingID:     b.ID,
		Amount:        amount,
		Currency:      b.Currency,
		Status:        entity.PaymentStatusCompleted,
		TransactionID: "txn-" + b.ID.String()[:8],
	}
	require.NoError(t, uow.PaymentRepository().Create(ctx, p))

	require.NoError(t, uow.CommissionRepository().Create(ctx, &entity.CommissionEntry{
		PaymentID: p.ID,
		BookingID: b.ID,
		Kind:      entity.CommissionKindCharge,
		Amount:    amount.Div(decimal.NewFromInt(10)),
		Currency:  b.Currency,
	}))

	return seeded{booking: b, payment: p}
}

func (h *harness) booking(t *testing.T, id uuid.UUID) *entity.Booking {
	t.Helper()
	b, err := h.factory.NewUnitOfWork(context.Background()).BookingRepository().FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func (h *harness) refunds(t *testing.T, bookingID uuid.UUID) []*entity.Refund {
	t.Helper()
	rs, err := h.factory.NewUnitOfWork(context.Background()).RefundRepository().FindAllByBookingID(context.Background(), bookingID)
	require.NoError(t, err)
	return rs
}

func (h *harness) reconciliationItems(t *testing.T) []*entity.ReconciliationItem {
	t.Helper()
	items, err := h.reconciler.List(context.Background(), true, 1, 100)
	require.NoError(t, err)
	return items
}

func cancelCommand(bookingID uuid.UUID) refund.CancelCommand {
	return refund.CancelCommand{
		BookingID:   bookingID,
		Reason:      "change of plans",
		RequestedBy: uuid.New(),
	}
}
