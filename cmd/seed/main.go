package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"booking-settlement-be/internal/config"
	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/pkg/serverutils"
	"booking-settlement-be/internal/repository/unitofwork"
	"booking-settlement-be/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type demoBooking struct {
	label      string
	total      string
	hoursAhead int
}

// Each demo booking lands in a different refund tier relative to now.
var demoBookings = []demoBooking{
	{label: "full refund, automatic", total: "200.00", hoursAhead: 72},
	{label: "partial refund, manual review", total: "300.00", hoursAhead: 18},
	{label: "same-day, not eligible", total: "200.00", hoursAhead: 6},
}

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	factory := unitofwork.NewRepositoryFactory(db)

	log.Println("Seeding demo bookings...")
	for i, d := range demoBookings {
		b, err := seed(ctx, factory, cfg.Settlement.Currency, i+1, d)
		if err != nil {
			log.Fatalf("Error: Failed to seed %q: %v", d.label, err)
		}
		fmt.Printf("%-32s booking=%s check_in=%s\n", d.label, b.ID, b.CheckIn.Format(time.RFC3339))
	}

	if cfg.Auth.JWTSecret == "" {
		log.Println("JWT_SECRET not set, skipping dev tokens")
		return
	}
	guest, err := serverutils.SignToken(cfg.Auth.JWTSecret, uuid.New(), "guest")
	if err != nil {
		log.Fatal(err)
	}
	admin, err := serverutils.SignToken(cfg.Auth.JWTSecret, uuid.New(), serverutils.RoleAdmin)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\nguest token: %s\nadmin token: %s\n", guest, admin)
}

// seed writes the booking, its completed payment and the 10% commission
// charge in one transaction.
func seed(ctx context.Context, factory unitofwork.RepositoryFactory, currency string, n int, d demoBooking) (*entity.Booking, error) {
	uow := factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	amount := decimal.RequireFromString(d.total)
	checkIn := time.Now().Add(time.Duration(d.hoursAhead) * time.Hour).Truncate(time.Hour)

	b := &entity.Booking{
		ConfirmationNumber: fmt.Sprintf("DEMO-%d-%s", n, uuid.NewString()[:6]),
		GuestID:            uuid.New(),
		GuestEmail:         fmt.Sprintf("guest%d@example.com", n),
		GuestName:          fmt.Sprintf("Demo Guest %d", n),
		HotelID:            uuid.New(),
		Status:             entity.BookingStatusConfirmed,
		CheckIn:            checkIn,
		CheckOut:           checkIn.Add(48 * time.Hour),
		TotalAmount:        amount,
		Currency:           currency,
		IsCancellable:      true,
	}
	if err := uow.BookingRepository().Create(ctx, b); err != nil {
		return nil, err
	}

	p := &entity.Payment{
		BookingID:     b.ID,
		Amount:        amount,
		Currency:      currency,
		Status:        entity.PaymentStatusCompleted,
		TransactionID: "demo-" + uuid.NewString(),
	}
	if err := uow.PaymentRepository().Create(ctx, p); err != nil {
		return nil, err
	}

	if err := uow.CommissionRepository().Create(ctx, &entity.CommissionEntry{
		PaymentID: p.ID,
		BookingID: b.ID,
		Kind:      entity.CommissionKindCharge,
		Amount:    amount.Div(decimal.NewFromInt(10)).Round(2),
		Currency:  currency,
	}); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return b, nil
}
