package websocket

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes exposes the event feed at /sitetree/v1/events?site_id=N.
// It must be registered before the node routes, which would take "events" for an id.
func (h *Hub) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	r.Get("/sitetree/v1/events", jwtMiddleware, upgradeOnly, websocket.New(func(c *websocket.Conn) {
		siteID, _ := c.Locals("watch_site_id").(int64)
		ServeWs(h, c, siteID)
	}))
}

func upgradeOnly(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	siteID, err := strconv.ParseInt(ctx.Query("site_id", "0"), 10, 64)
	if err != nil || siteID < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid site id")
	}
	ctx.Locals("watch_site_id", siteID)
	return ctx.Next()
}

// ServeWs registers the connection and blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, siteID int64) {
	client := &Client{Hub: hub, Conn: c, SiteID: siteID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
