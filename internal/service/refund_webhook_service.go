package service

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"

	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/entity"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/repository/unitofwork"
	adminEvents "booking-settlement-be/pkg/admin/events"
)

var (
	ErrWebhookNotConfigured = errors.New("server configuration error")
	ErrInvalidSignature     = errors.New("invalid signature")
)

type IRefundWebhookService interface {
	HandleRefundNotification(ctx context.Context, req *dto.MidtransRefundNotificationRequest) error
}

type refundWebhookService struct {
	uowFactory unitofwork.RepositoryFactory
	serverKey  string
	publisher  adminEvents.Publisher
	logger     logger.ILogger
}

func NewRefundWebhookService(uowFactory unitofwork.RepositoryFactory, serverKey string, publisher adminEvents.Publisher, logger logger.ILogger) IRefundWebhookService {
	return &refundWebhookService{
		uowFactory: uowFactory,
		serverKey:  serverKey,
		publisher:  publisher,
		logger:     logger,
	}
}

// Signature is SHA512(order_id + status_code + gross_amount + server_key), hex encoded.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	return fmt.Sprintf("%x", sha512.Sum512([]byte(orderID+statusCode+grossAmount+serverKey)))
}

// HandleRefundNotification is the only path that moves a refund out of
// pending after it was recorded. Unknown keys and repeated notifications are
// accepted and ignored so the provider stops retrying.
func (s *refundWebhookService) HandleRefundNotification(ctx context.Context, req *dto.MidtransRefundNotificationRequest) error {
	if s.serverKey == "" {
		s.logger.Error("WEBHOOK", "MIDTRANS_SERVER_KEY not configured", nil)
		return ErrWebhookNotConfigured
	}

	expected := Signature(req.OrderId, req.StatusCode, req.GrossAmount, s.serverKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(req.SignatureKey)) != 1 {
		s.logger.Warn("WEBHOOK", "Signature mismatch", map[string]interface{}{"orderId": req.OrderId})
		return ErrInvalidSignature
	}

	status, ok := refundStatusFor(req.TransactionStatus)
	if !ok {
		s.logger.Info("WEBHOOK", "Ignoring non-refund notification", map[string]interface{}{
			"orderId":           req.OrderId,
			"transactionStatus": req.TransactionStatus,
		})
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	for _, n := range req.Refunds {
		if n.RefundKey == "" {
			continue
		}

		r, err := uow.RefundRepository().FindByIdempotencyKey(ctx, n.RefundKey)
		if err != nil {
			return err
		}
		if r == nil {
			s.logger.Warn("WEBHOOK", "Unknown refund key", map[string]interface{}{"refundKey": n.RefundKey})
			continue
		}

		moved, err := uow.RefundRepository().UpdateStatus(ctx, r.ID, status, req.TransactionId)
		if err != nil {
			return err
		}
		if !moved {
			continue
		}

		r.Status = status
		if req.TransactionId != "" {
			r.TransactionID = req.TransactionId
		}

		s.logger.Info("WEBHOOK", "Refund status updated", map[string]interface{}{
			"refundId": r.ID.String(),
			"status":   string(status),
		})
		s.publisher.PublishRefundStatusUpdated(ctx, r)
	}

	return nil
}

func refundStatusFor(transactionStatus string) (entity.RefundStatus, bool) {
	switch transactionStatus {
	case "refund", "partial_refund":
		return entity.RefundStatusCompleted, true
	case "failure", "deny":
		return entity.RefundStatusFailed, true
	}
	return "", false
}
