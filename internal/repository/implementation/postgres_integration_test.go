package implementation_test

import (
	"context"
	"os"
	"testing"
	"time"

	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/repository/unitofwork"
	"booking-settlement-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openFactory(t *testing.T) unitofwork.RepositoryFactory {
	t.Helper()
	_ = godotenv.Load("../../../.env")

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, true)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return unitofwork.NewRepositoryFactory(db)
}

func seedPaidBooking(t *testing.T, uow unitofwork.UnitOfWork) (*entity.Booking, *entity.Payment) {
	t.Helper()
	ctx := context.Background()

	b := &entity.Booking{
		ConfirmationNumber: "IT-" + uuid.NewString()[:8],
		GuestID:            uuid.New(),
		GuestEmail:         "it@example.com",
		HotelID:            uuid.New(),
		Status:             entity.BookingStatusConfirmed,
		CheckIn:            time.Now().Add(72 * time.Hour),
		CheckOut:           time.Now().Add(120 * time.Hour),
		TotalAmount:        decimal.RequireFromString("200"),
		Currency:           "USD",
		IsCancellable:      true,
	}
	require.NoError(t, uow.BookingRepository().Create(ctx, b))
	require.NotEqual(t, uuid.Nil, b.ID)

	p := &entity.Payment{
		BookingID:     b.ID,
		Amount:        b.TotalAmount,
		Currency:      "USD",
		Status:        entity.PaymentStatusCompleted,
		TransactionID: "it-" + uuid.NewString(),
	}
	require.NoError(t, uow.PaymentRepository().Create(ctx, p))
	return b, p
}

func TestPostgres_MarkCancelledOnlyOnce(t *testing.T) {
	factory := openFactory(t)
	ctx := context.Background()
	uow := factory.NewUnitOfWork(ctx)
	b, _ := seedPaidBooking(t, uow)

	reason := "integration"
	ok, err := uow.BookingRepository().MarkCancelled(ctx, b.ID, &reason, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = uow.BookingRepository().MarkCancelled(ctx, b.ID, &reason, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := uow.BookingRepository().FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, stored.Status)
}

func TestPostgres_RefundIdempotencyKeyIsUnique(t *testing.T) {
	factory := openFactory(t)
	ctx := context.Background()
	uow := factory.NewUnitOfWork(ctx)
	b, p := seedPaidBooking(t, uow)

	newRefund := func() *entity.Refund {
		return &entity.Refund{
			PaymentID:      p.ID,
			BookingID:      b.ID,
			Amount:         decimal.RequireFromString("194"),
			Currency:       "USD",
			Status:         entity.RefundStatusCompleted,
			IdempotencyKey: "bk-" + b.ID.String(),
			ProcessedAt:    time.Now(),
			Metadata:       map[string]interface{}{"tier": "full"},
		}
	}

	require.NoError(t, uow.RefundRepository().Create(ctx, newRefund()))
	err := uow.RefundRepository().Create(ctx, newRefund())
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	found, err := uow.RefundRepository().FindByIdempotencyKey(ctx, "bk-"+b.ID.String())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "full", found.Metadata["tier"])
}

func TestPostgres_RollbackDiscardsTransition(t *testing.T) {
	factory := openFactory(t)
	ctx := context.Background()
	b, _ := seedPaidBooking(t, factory.NewUnitOfWork(ctx))

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	ok, err := uow.BookingRepository().MarkCancelled(ctx, b.ID, nil, time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, uow.Rollback())

	stored, err := factory.NewUnitOfWork(ctx).BookingRepository().FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, stored.Status)
}
