package controller

import (
	"errors"
	"strconv"

	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/pkg/serverutils"
	"booking-settlement-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	GetDeskStats(ctx *fiber.Ctx) error

	// Manual Review Queue
	GetRefundRequests(ctx *fiber.Ctx) error
	GetRefundRequest(ctx *fiber.Ctx) error
	ApproveRefundRequest(ctx *fiber.Ctx) error
	RejectRefundRequest(ctx *fiber.Ctx) error

	// Reconciliation
	GetReconciliationItems(ctx *fiber.Ctx) error
	ResolveReconciliationItem(ctx *fiber.Ctx) error
	GetReconciliationJournal(ctx *fiber.Ctx) error

	// Logs
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type adminController struct {
	service service.IAdminService
}

func NewAdminController(service service.IAdminService) IAdminController {
	return &adminController{service: service}
}

func (c *adminController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/admin", auth, serverutils.RequireAdmin)

	h.Get("/stats", c.GetDeskStats)

	// Manual Review Queue
	h.Get("/refund-requests", c.GetRefundRequests)
	h.Get("/refund-requests/:id", c.GetRefundRequest)
	h.Post("/refund-requests/:id/approve", c.ApproveRefundRequest)
	h.Post("/refund-requests/:id/reject", c.RejectRefundRequest)

	// Reconciliation
	h.Get("/reconciliation", c.GetReconciliationItems)
	h.Get("/reconciliation/journal", c.GetReconciliationJournal)
	h.Post("/reconciliation/:id/resolve", c.ResolveReconciliationItem)

	// Logs
	h.Get("/logs", c.GetLogs)
	h.Get("/logs/:id", c.GetLogDetail)
}

func (c *adminController) GetDeskStats(ctx *fiber.Ctx) error {
	stats, err := c.service.GetDeskStats(ctx.UserContext())
	if err != nil {
		return serverutils.RespondError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Desk stats", stats))
}

// ============================================================================
// Manual Review Queue
// ============================================================================

func (c *adminController) GetRefundRequests(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "10"))
	status := ctx.Query("status", "")

	requests, err := c.service.GetRefundRequests(ctx.UserContext(), page, limit, status)
	if err != nil {
		return serverutils.RespondError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Refund requests", requests))
}

func (c *adminController) GetRefundRequest(ctx *fiber.Ctx) error {
	requestId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid Request ID"))
	}

	request, err := c.service.GetRefundRequest(ctx.UserContext(), requestId)
	if err != nil {
		return serverutils.RespondError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Refund request", request))
}

func (c *adminController) ApproveRefundRequest(ctx *fiber.Ctx) error {
	requestId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid Request ID"))
	}
	adminId, err := serverutils.UserID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid claims"))
	}

	var req dto.AdminApproveRefundRequest
	// Body is optional
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	resp, err := c.service.ApproveRefundRequest(ctx.UserContext(), requestId, adminId, req)
	if err != nil {
		return serverutils.RespondError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Refund approved", resp))
}

func (c *adminController) RejectRefundRequest(ctx *fiber.Ctx) error {
	requestId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid Request ID"))
	}
	adminId, err := serverutils.UserID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid claims"))
	}

	var req dto.AdminRejectRefundRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	resp, err := c.service.RejectRefundRequest(ctx.UserContext(), requestId, adminId, req)
	if err != nil {
		return serverutils.RespondError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Refund rejected", resp))
}

// ============================================================================
// Reconciliation
// ============================================================================

func (c *adminController) GetReconciliationItems(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "20"))
	unresolvedOnly := ctx.Query("all", "false") != "true"

	items, err := c.service.GetReconciliationItems(ctx.UserContext(), unresolvedOnly, page, limit)
	if err != nil {
		return serverutils.RespondError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Reconciliation items", items))
}

func (c *adminController) ResolveReconciliationItem(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid Item ID"))
	}

	if err := c.service.ResolveReconciliationItem(ctx.UserContext(), id); err != nil {
		if errors.Is(err, service.ErrReconciliationItemNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		}
		return serverutils.RespondError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Reconciliation item resolved", nil))
}

func (c *adminController) GetReconciliationJournal(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))

	entries, err := c.service.GetReconciliationJournal(ctx.UserContext(), page, limit)
	if err != nil {
		return serverutils.RespondError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Reconciliation journal", entries))
}

// ============================================================================
// Logs
// ============================================================================

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))
	level := ctx.Query("level", "")

	logs, err := c.service.GetSystemLogs(ctx.UserContext(), page, limit, level)
	if err != nil {
		return serverutils.RespondError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	log, err := c.service.GetLogDetail(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", log))
}
