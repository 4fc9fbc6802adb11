package service

import (
	"context"
	"testing"

	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerKey = "SB-Mid-server-test"

func signedNotification(status string, refundKey string) *dto.MidtransRefundNotificationRequest {
	req := &dto.MidtransRefundNotificationRequest{
		TransactionStatus: status,
		TransactionId:     "mt-txn-9",
		OrderId:           "order-1",
		StatusCode:        "200",
		GrossAmount:       "200.00",
		Refunds:           []dto.MidtransRefundNotification{{RefundKey: refundKey, RefundAmount: "194.00"}},
	}
	req.SignatureKey = Signature(req.OrderId, req.StatusCode, req.GrossAmount, testServerKey)
	return req
}

func pendingRefund(t *testing.T, h *harness) *entity.Refund {
	t.Helper()
	h.gateway.pending = true
	s := h.seed(t, "200", 48)
	_, err := h.svc.Cancel(context.Background(), cancelCommand(s.booking.ID))
	require.NoError(t, err)
	rs := h.refunds(t, s.booking.ID)
	require.Len(t, rs, 1)
	require.Equal(t, entity.RefundStatusPending, rs[0].Status)
	return rs[0]
}

func TestRefundWebhook_CompletesPendingRefund(t *testing.T) {
	h := newHarness(t)
	r := pendingRefund(t, h)
	svc := NewRefundWebhookService(h.factory, testServerKey, h.publisher, logger.NewNopLogger())

	require.NoError(t, svc.HandleRefundNotification(context.Background(), signedNotification("refund", r.IdempotencyKey)))

	rs := h.refunds(t, r.BookingID)
	assert.Equal(t, entity.RefundStatusCompleted, rs[0].Status)
	assert.Equal(t, "mt-txn-9", rs[0].TransactionID)
	assert.Contains(t, h.events.Types(), events.TypeRefundStatusUpdated)
}

func TestRefundWebhook_FailureAndReplay(t *testing.T) {
	h := newHarness(t)
	r := pendingRefund(t, h)
	svc := NewRefundWebhookService(h.factory, testServerKey, h.publisher, logger.NewNopLogger())

	require.NoError(t, svc.HandleRefundNotification(context.Background(), signedNotification("failure", r.IdempotencyKey)))
	assert.Equal(t, entity.RefundStatusFailed, h.refunds(t, r.BookingID)[0].Status)

	// A final status is never moved again.
	require.NoError(t, svc.HandleRefundNotification(context.Background(), signedNotification("refund", r.IdempotencyKey)))
	assert.Equal(t, entity.RefundStatusFailed, h.refunds(t, r.BookingID)[0].Status)
}

func TestRefundWebhook_RejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	r := pendingRefund(t, h)
	svc := NewRefundWebhookService(h.factory, testServerKey, h.publisher, logger.NewNopLogger())

	req := signedNotification("refund", r.IdempotencyKey)
	req.GrossAmount = "1.00"
	assert.ErrorIs(t, svc.HandleRefundNotification(context.Background(), req), ErrInvalidSignature)
	assert.Equal(t, entity.RefundStatusPending, h.refunds(t, r.BookingID)[0].Status)
}

func TestRefundWebhook_IgnoresUnknownKeysAndStatuses(t *testing.T) {
	h := newHarness(t)
	svc := NewRefundWebhookService(h.factory, testServerKey, h.publisher, logger.NewNopLogger())

	assert.NoError(t, svc.HandleRefundNotification(context.Background(), signedNotification("refund", "bk-unknown")))
	assert.NoError(t, svc.HandleRefundNotification(context.Background(), signedNotification("settlement", "bk-unknown")))
}

func TestRefundWebhook_RequiresServerKey(t *testing.T) {
	h := newHarness(t)
	svc := NewRefundWebhookService(h.factory, "", h.publisher, logger.NewNopLogger())

	assert.ErrorIs(t, svc.HandleRefundNotification(context.Background(), signedNotification("refund", "k")), ErrWebhookNotConfigured)
}
