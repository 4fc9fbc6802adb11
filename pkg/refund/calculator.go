package refund

import (
	"math"
	"time"

	"booking-settlement-be/internal/entity"

	"github.com/shopspring/decimal"
)

// Tier is the time band that decided the refund percentage.
type Tier string

const (
	TierFull       Tier = "full"
	TierPartial    Tier = "partial"
	TierNone       Tier = "none"
	TierIneligible Tier = "ineligible"
)

const (
	ReasonNotEligible    = "not eligible"
	ReasonDeadlinePassed = "deadline passed"
	ReasonSameDay        = "same-day, no refund"
	ReasonCheckInPassed  = "check-in passed"
	ReasonFullRefund     = "full refund, 24h or more before check-in"
	ReasonPartialRefund  = "partial refund, 50% between 12h and 24h before check-in"
)

const (
	DefaultProcessingFeeBps = 300
	DefaultDeadlineOffset   = 24 * time.Hour
)

// DefaultProcessingFeeCap is 25 in the booking's currency.
var DefaultProcessingFeeCap = decimal.NewFromInt(25)

// Calculation is the full refund breakdown for one booking at one instant.
// All amounts are integer minor units of Currency.
type Calculation struct {
	Currency          string
	OriginalAmount    int64
	RefundableAmount  int64
	CancellationFee   int64
	ProcessingFee     int64
	FinalRefundAmount int64
	IsEligible        bool
	Reason            string
	Tier              Tier
	HoursUntilCheckIn int64
	Deadline          time.Time
	CalculatedAt      time.Time
}

// Decimal converts one of the calculation's minor-unit amounts for display.
func (c Calculation) Decimal(minor int64) decimal.Decimal {
	return FromMinor(minor, c.Currency)
}

// Snapshot flattens the calculation for JSON persistence alongside a refund
// or a review request.
func (c Calculation) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"currency":            c.Currency,
		"original_amount":     c.Decimal(c.OriginalAmount).String(),
		"refundable_amount":   c.Decimal(c.RefundableAmount).String(),
		"cancellation_fee":    c.Decimal(c.CancellationFee).String(),
		"processing_fee":      c.Decimal(c.ProcessingFee).String(),
		"final_refund_amount": c.Decimal(c.FinalRefundAmount).String(),
		"is_eligible":         c.IsEligible,
		"reason":              c.Reason,
		"tier":                string(c.Tier),
		"hours_until_checkin": c.HoursUntilCheckIn,
		"deadline":            c.Deadline.UTC().Format(time.RFC3339),
		"calculated_at":       c.CalculatedAt.UTC().Format(time.RFC3339),
	}
}

// Calculator computes refund decisions. It holds configuration only and is
// safe for concurrent use.
type Calculator struct {
	ProcessingFeeBps int64
	ProcessingFeeCap decimal.Decimal
	DeadlineOffset   time.Duration
}

func NewCalculator() *Calculator {
	return &Calculator{
		ProcessingFeeBps: DefaultProcessingFeeBps,
		ProcessingFeeCap: DefaultProcessingFeeCap,
		DeadlineOffset:   DefaultDeadlineOffset,
	}
}

// Calculate is pure: the same booking and instant always give the same result.
//
// Only an explicit CancellationDeadline can close eligibility on its own. The
// derived default (check-in minus DeadlineOffset) is reported in Deadline and
// coincides with the end of the full-refund tier.
func (c *Calculator) Calculate(b entity.Booking, now time.Time) Calculation {
	calc := Calculation{
		Currency:       b.Currency,
		OriginalAmount: ToMinor(b.TotalAmount, b.Currency),
		CalculatedAt:   now,
	}

	if b.CancellationDeadline != nil {
		calc.Deadline = *b.CancellationDeadline
	} else {
		calc.Deadline = b.CheckIn.Add(-c.DeadlineOffset)
	}
	calc.HoursUntilCheckIn = int64(math.Floor(b.CheckIn.Sub(now).Hours()))

	switch {
	case !b.IsCancellable || b.Status != entity.BookingStatusConfirmed:
		c.withhold(&calc, TierIneligible, ReasonNotEligible)
	case b.CancellationDeadline != nil && now.After(*b.CancellationDeadline):
		c.withhold(&calc, TierIneligible, ReasonDeadlinePassed)
	case calc.HoursUntilCheckIn >= 24:
		calc.IsEligible = true
		calc.Tier = TierFull
		calc.Reason = ReasonFullRefund
		calc.RefundableAmount = calc.OriginalAmount
		calc.CancellationFee = 0
	case calc.HoursUntilCheckIn >= 12:
		calc.IsEligible = true
		calc.Tier = TierPartial
		calc.Reason = ReasonPartialRefund
		calc.RefundableAmount = half(calc.OriginalAmount)
		calc.CancellationFee = calc.OriginalAmount - calc.RefundableAmount
	case calc.HoursUntilCheckIn >= 0:
		c.withhold(&calc, TierNone, ReasonSameDay)
	default:
		c.withhold(&calc, TierNone, ReasonCheckInPassed)
	}

	calc.ProcessingFee = c.processingFee(calc.RefundableAmount, b.Currency)
	calc.FinalRefundAmount = calc.RefundableAmount - calc.ProcessingFee
	if calc.FinalRefundAmount < 0 {
		calc.FinalRefundAmount = 0
	}
	return calc
}

func (c *Calculator) withhold(calc *Calculation, tier Tier, reason string) {
	calc.IsEligible = false
	calc.Tier = tier
	calc.Reason = reason
	calc.RefundableAmount = 0
	calc.CancellationFee = calc.OriginalAmount
}

// processingFee is min(refundable * rate, cap), rounded once, never negative.
func (c *Calculator) processingFee(refundable int64, currency string) int64 {
	if refundable <= 0 {
		return 0
	}
	fee := applyBasisPoints(refundable, c.ProcessingFeeBps)
	if capMinor := ToMinor(c.ProcessingFeeCap, currency); fee > capMinor {
		fee = capMinor
	}
	return fee
}
