package controller

import (
	"fmt"

	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/pkg/serverutils"
	"booking-settlement-be/internal/repository/memory"
	"booking-settlement-be/internal/service"
	"booking-settlement-be/pkg/admin/mapper"
	"booking-settlement-be/pkg/refund"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

type IBookingController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Cancel(ctx *fiber.Ctx) error
	Quote(ctx *fiber.Ctx) error
}

type bookingController struct {
	service service.ISettlementService
	replays *memory.ReplayRepository
}

func NewBookingController(service service.ISettlementService, replays *memory.ReplayRepository) IBookingController {
	return &bookingController{
		service: service,
		replays: replays,
	}
}

func (c *bookingController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/bookings", auth)
	h.Post("/:id/cancel", c.Cancel)
	h.Get("/:id/refund-quote", c.Quote)
}

// Cancel runs a cancellation. With an Idempotency-Key header the first
// definitive response is stored and replayed for repeats of the same key.
// Retryable failures are not stored so the client can try again.
func (c *bookingController) Cancel(ctx *fiber.Ctx) error {
	bookingID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid Booking ID"))
	}
	userID, err := serverutils.UserID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid claims"))
	}

	replayKey := ""
	if key := ctx.Get(HeaderIdempotencyKey); key != "" {
		replayKey = fmt.Sprintf("cancel:%s:%s:%s", userID, bookingID, key)
		if replay, ok := c.replays.Get(replayKey); ok {
			ctx.Set(HeaderReplayed, "true")
			ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return ctx.Status(replay.StatusCode).Send(replay.Body)
		}
	}

	var req dto.CancelBookingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	if req.Override && !serverutils.IsAdmin(ctx) {
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(403, "Override is restricted to admins"))
	}

	result, err := c.service.Cancel(ctx.UserContext(), refund.CancelCommand{
		BookingID:   bookingID,
		Reason:      req.Reason,
		RequestedBy: userID,
		Notes:       req.Notes,
		Override:    req.Override,
	})
	if err != nil {
		if respErr := serverutils.RespondError(ctx, err); respErr != nil {
			return respErr
		}
		if replayKey != "" && !refund.IsRetryable(err) && refund.KindOf(err) != refund.KindInternal {
			c.store(ctx, replayKey)
		}
		return nil
	}

	res := mapper.SettlementToCancellationResponse(bookingID, result)
	status := fiber.StatusOK
	if result.Route() == refund.RouteManualReview {
		status = fiber.StatusAccepted
	}
	if err := ctx.Status(status).JSON(serverutils.SuccessResponse(res.Message, res)); err != nil {
		return err
	}
	if replayKey != "" {
		c.store(ctx, replayKey)
	}
	return nil
}

func (c *bookingController) store(ctx *fiber.Ctx, key string) {
	body := append([]byte(nil), ctx.Response().Body()...)
	c.replays.Save(key, &memory.Replay{
		StatusCode: ctx.Response().StatusCode(),
		Body:       body,
	})
}

func (c *bookingController) Quote(ctx *fiber.Ctx) error {
	bookingID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid Booking ID"))
	}

	calc, route, err := c.service.Quote(ctx.UserContext(), bookingID)
	if err != nil {
		return serverutils.RespondError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Refund quote", dto.RefundQuoteResponse{
		BookingId: bookingID,
		Route:     string(route),
		Breakdown: mapper.CalculationToBreakdown(calc),
	}))
}
