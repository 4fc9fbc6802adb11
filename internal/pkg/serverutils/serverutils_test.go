package serverutils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"booking-settlement-be/pkg/refund"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := map[refund.ErrorKind]int{
		refund.KindNotFound:                http.StatusNotFound,
		refund.KindRequestNotFound:         http.StatusNotFound,
		refund.KindAlreadyCancelled:        http.StatusConflict,
		refund.KindRequestAlreadyProcessed: http.StatusConflict,
		refund.KindInvalidState:            http.StatusUnprocessableEntity,
		refund.KindNotEligible:             http.StatusUnprocessableEntity,
		refund.KindNoCompletedPayment:      http.StatusUnprocessableEntity,
		refund.KindInvalidAmount:           http.StatusUnprocessableEntity,
		refund.KindGatewayFailure:          http.StatusServiceUnavailable,
		refund.KindGatewayRejected:         http.StatusBadGateway,
		refund.KindInternal:                http.StatusInternalServerError,
	}
	for kind, status := range tests {
		assert.Equal(t, status, StatusFor(kind), kind)
	}
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/gateway", func(ctx *fiber.Ctx) error {
		return refund.WrapError(refund.KindGatewayFailure, "gateway unavailable", errors.New("timeout"))
	})
	app.Get("/boom", func(ctx *fiber.Ctx) error {
		return errors.New("pq: connection refused")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/gateway", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "5", resp.Header.Get(fiber.HeaderRetryAfter))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestJwtMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/me", JwtMiddleware("secret"), RequireAdmin, func(ctx *fiber.Ctx) error {
		id, err := UserID(ctx)
		if err != nil {
			return err
		}
		return ctx.SendString(id.String())
	})

	call := func(tok string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	admin, err := SignToken("secret", uuid.New(), RoleAdmin)
	require.NoError(t, err)
	guest, err := SignToken("secret", uuid.New(), "guest")
	require.NoError(t, err)
	forged, err := SignToken("other", uuid.New(), RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, call(admin).StatusCode)
	assert.Equal(t, http.StatusForbidden, call(guest).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, call(forged).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, call("").StatusCode)
}

func TestValidateRequest(t *testing.T) {
	type body struct {
		Reason string `validate:"required,min=3"`
	}

	assert.NoError(t, ValidateRequest(body{Reason: "late flight"}))

	err := ValidateRequest(body{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Reason is required")
}
