package websocket

import (
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const localWsUser = "ws_user_id"

// ServeWs registers the connection with the hub and blocks on the read pump.
func ServeWs(hub *Hub, c *websocket.Conn, userID uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, UserID: userID, Send: make(chan []byte, 256)}
	if !hub.Register(client) {
		_ = c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

// UpgradeMiddleware authenticates the ?token= query parameter before the
// websocket upgrade. Browsers cannot set headers on a websocket handshake.
func UpgradeMiddleware(jwtSecret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}
		userID, err := serverutils.ParseToken(jwtSecret, ctx.Query("token"))
		if err != nil {
			return apperror.Unauthorized("invalid token")
		}
		uid, err := uuid.Parse(userID)
		if err != nil {
			return apperror.Unauthorized("invalid token")
		}
		ctx.Locals(localWsUser, uid)
		return ctx.Next()
	}
}

func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		uid, ok := c.Locals(localWsUser).(uuid.UUID)
		if !ok {
			_ = c.Close()
			return
		}
		ServeWs(hub, c, uid)
	})
}
