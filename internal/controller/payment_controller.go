package controller

import (
	"errors"

	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/pkg/serverutils"
	"booking-settlement-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPaymentController interface {
	RegisterRoutes(r fiber.Router)
	RefundWebhook(ctx *fiber.Ctx) error
}

type paymentController struct {
	service service.IRefundWebhookService
	logger  logger.ILogger
}

func NewPaymentController(service service.IRefundWebhookService, log logger.ILogger) IPaymentController {
	return &paymentController{
		service: service,
		logger:  log,
	}
}

func (c *paymentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/payment")
	h.Post("/midtrans/refund-notification", c.RefundWebhook)
}

// RefundWebhook receives Midtrans refund status notifications. A 5xx makes
// Midtrans retry delivery, so only failures worth retrying return one.
func (c *paymentController) RefundWebhook(ctx *fiber.Ctx) error {
	var req dto.MidtransRefundNotificationRequest
	if err := ctx.BodyParser(&req); err != nil {
		c.logger.Warn("WEBHOOK", "Unreadable refund notification", map[string]interface{}{"error": err.Error()})
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	err := c.service.HandleRefundNotification(ctx.UserContext(), &req)
	switch {
	case err == nil:
		return ctx.SendStatus(fiber.StatusOK)
	case errors.Is(err, service.ErrInvalidSignature):
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, err.Error()))
	case errors.Is(err, service.ErrWebhookNotConfigured):
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(503, err.Error()))
	default:
		c.logger.Error("WEBHOOK", "Refund notification handling failed", map[string]interface{}{
			"order_id": req.OrderId,
			"error":    err.Error(),
		})
		return ctx.SendStatus(fiber.StatusInternalServerError)
	}
}
