package serverutils

import (
	"errors"

	"booking-settlement-be/pkg/refund"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a settlement error kind to its HTTP status.
func StatusFor(kind refund.ErrorKind) int {
	switch kind {
	case refund.KindNotFound, refund.KindRequestNotFound:
		return fiber.StatusNotFound
	case refund.KindAlreadyCancelled, refund.KindRequestAlreadyProcessed:
		return fiber.StatusConflict
	case refund.KindInvalidState, refund.KindNotEligible, refund.KindNoCompletedPayment, refund.KindInvalidAmount:
		return fiber.StatusUnprocessableEntity
	case refund.KindGatewayFailure:
		return fiber.StatusServiceUnavailable
	case refund.KindGatewayRejected:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondError writes err as a JSON error body. Settlement errors keep their
// kind and reason; internal failures hide their cause.
func RespondError(ctx *fiber.Ctx, err error) error {
	var se *refund.SettlementError
	if !errors.As(err, &se) {
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(KindErrorResponse(fiber.StatusInternalServerError, string(refund.KindInternal), "", "Internal server error"))
	}

	status := StatusFor(se.Kind)
	message := se.Error()
	if se.Kind == refund.KindInternal {
		message = "Internal server error"
	}
	if se.Kind == refund.KindGatewayFailure {
		ctx.Set(fiber.HeaderRetryAfter, "5")
	}
	return ctx.Status(status).JSON(KindErrorResponse(status, string(se.Kind), se.Reason, message))
}

// ErrorHandlerMiddleware renders errors that handlers return instead of
// writing themselves.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
		}
		return RespondError(ctx, err)
	}
}
