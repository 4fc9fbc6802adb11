package handler

import (
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/pkg/serverutils"
	internalWS "booking-settlement-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// DeskHandler serves the operator desk's live event feed.
type DeskHandler struct {
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewDeskHandler(hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *DeskHandler {
	return &DeskHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (h *DeskHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/admin/refunds/ws", h.ServeWs)
}

// ServeWs authenticates the handshake and attaches the socket to the hub.
// Browsers cannot set headers on a websocket handshake, so the token may
// also arrive as the "token" query parameter.
func (h *DeskHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Missing token (Query 'token' or Header 'Authorization')"))
	}

	userID, role, err := serverutils.ParseToken(h.jwtSecret, tokenStr)
	if err != nil {
		h.logger.Warn("DESK", "Invalid token in websocket handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid token"))
	}
	if role != serverutils.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(403, "Access denied: Admins only"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("DESK", "Operator connected", map[string]interface{}{"user_id": userID.String()})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("DESK", "Operator disconnected", map[string]interface{}{"user_id": userID.String()})
	})(c)
}
