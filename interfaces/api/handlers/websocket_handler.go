package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	websocketManager "taskflow/infrastructure/websocket"
	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

type WebSocketHandler struct {
	tokens *utils.TokenManager
	hub    *websocketManager.Hub
}

func NewWebSocketHandler(tokens *utils.TokenManager, hub *websocketManager.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		tokens: tokens,
		hub:    hub,
	}
}

// WebSocketUpgrade ตรวจ token ก่อน upgrade รับจาก ?token= หรือ Authorization header
// (browser ตั้ง header ตอนเปิด websocket ไม่ได้)
func (h *WebSocketHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		token = utils.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
	}
	if token == "" {
		return utils.UnauthorizedResponse(c, "Not authorized, no token")
	}

	userCtx, err := h.tokens.Verify(token)
	if err != nil {
		logger.WarnContext(c.UserContext(), "WebSocket token rejected", "error", err)
		return utils.UnauthorizedResponse(c, authFailedMessage)
	}

	c.Locals("user", userCtx)
	return c.Next()
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	user, ok := c.Locals("user").(*utils.UserContext)
	if !ok {
		_ = c.Close()
		return
	}

	// เขียนก่อน Register หลังจากนั้นทุก write ต้องผ่าน hub
	if err := c.WriteJSON(websocketManager.Message{
		Type: "connected",
		Data: map[string]string{"userId": user.ID.String()},
	}); err != nil {
		_ = c.Close()
		return
	}

	h.hub.Register(c, user.ID)
	defer h.hub.Unregister(c, user.ID)

	logger.Info("WebSocket connected", "user_id", user.ID)

	// feed เป็นทางเดียว อ่านทิ้งเพื่อรู้ตอน client ปิด
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			logger.Debug("WebSocket closed", "user_id", user.ID, "error", err)
			return
		}
	}
}
