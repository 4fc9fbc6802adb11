package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/pkg/serverutils"
	"booking-settlement-be/internal/repository/memory"
	"booking-settlement-be/internal/repository/unitofwork"
	"booking-settlement-be/internal/service"
	adminEvents "booking-settlement-be/pkg/admin/events"
	adminRefund "booking-settlement-be/pkg/admin/refund"
	"booking-settlement-be/pkg/gateway"
	"booking-settlement-be/pkg/ledger"
	"booking-settlement-be/pkg/lock"
	"booking-settlement-be/pkg/refund"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type quietNotifier struct{}

func (quietNotifier) NotifyRefundCompleted(ctx context.Context, booking *entity.Booking, r *entity.Refund) error {
	return nil
}

func (quietNotifier) NotifyRefundPendingReview(ctx context.Context, booking *entity.Booking, request *entity.RefundRequest) error {
	return nil
}

func (quietNotifier) NotifyRefundRejected(ctx context.Context, booking *entity.Booking, request *entity.RefundRequest) error {
	return nil
}

type testApp struct {
	app     *fiber.App
	factory unitofwork.RepositoryFactory
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	factory := memory.NewRepositoryFactory(memory.NewStore())
	log := logger.NewNopLogger()
	publisher := adminEvents.NewBusPublisher(nil, log)
	reconciler := service.NewReconciliationService(factory, log, log, publisher)

	settlementService := service.NewSettlementService(service.SettlementDependencies{
		UowFactory: factory,
		Locker:     lock.NewKeyedLocker(),
		Calculator: refund.NewCalculator(),
		Policy:     refund.NewPolicy(),
		Gateway:    gateway.NewSimulator(),
		Ledger:     ledger.NewCommissionLedger(factory),
		Notifier:   quietNotifier{},
		Publisher:  publisher,
		Reconciler: reconciler,
		Logger:     log,
	})
	processor := adminRefund.NewProcessor(log, publisher, settlementService, quietNotifier{})
	adminService := service.NewAdminService(factory, log, log, processor, reconciler)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	auth := serverutils.JwtMiddleware(testSecret)

	NewBookingController(settlementService, memory.NewReplayRepository(time.Hour)).RegisterRoutes(api, auth)
	NewAdminController(adminService).RegisterRoutes(api, auth)
	NewPaymentController(service.NewRefundWebhookService(factory, "server-key", publisher, log), log).RegisterRoutes(api)

	return &testApp{app: app, factory: factory}
}

// seedBooking stores a paid, cancellable USD booking checking in hoursAhead
// from now.
func (a *testApp) seedBooking(t *testing.T, total string, hoursAhead int) *entity.Booking {
	t.Helper()
	ctx := context.Background()
	uow := a.factory.NewUnitOfWork(ctx)

	amount := decimal.RequireFromString(total)
	b := &entity.Booking{
		ConfirmationNumber: "BK-2001",
		GuestID:            uuid.New(),
		GuestEmail:         "guest@example.com",
		GuestName:          "Ana Guest",
		HotelID:            uuid.New(),
		Status:             entity.BookingStatusConfirmed,
		CheckIn:            time.Now().Add(time.Duration(hoursAhead)*time.Hour + 30*time.Minute),
		CheckOut:           time.Now().Add(time.Duration(hoursAhead+48) * time.Hour),
		TotalAmount:        amount,
		Currency:           "USD",
		IsCancellable:      true,
	}
	require.NoError(t, uow.BookingRepository().Create(ctx, b))
	require.NoError(t, uow.PaymentRepository().Create(ctx, &entity.Payment{
		BookingID:     b.ID,
		Amount:        amount,
		Currency:      "USD",
		Status:        entity.PaymentStatusCompleted,
		TransactionID: "txn-" + b.ID.String()[:8],
	}))
	return b
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := serverutils.SignToken(testSecret, uuid.New(), role)
	require.NoError(t, err)
	return tok
}

func (a *testApp) do(t *testing.T, method, path, tok string, body interface{}, headers ...string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode[T any](t *testing.T, raw []byte) serverutils.BaseResponse[T] {
	t.Helper()
	var res serverutils.BaseResponse[T]
	require.NoError(t, json.Unmarshal(raw, &res), string(raw))
	return res
}
