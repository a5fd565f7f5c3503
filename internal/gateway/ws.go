package gateway

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Subscribe upgrades the connection and streams bus events until the client
// disconnects. The write loop blocks on the session queue — the system's one
// intentional blocking wait — and the session is removed on every exit path.
func (h *Handler) Subscribe(c echo.Context) error {
	subscriberID := c.QueryParam("subscriber_id")
	if subscriberID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "subscriber_id required"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "subscriber_id", subscriberID, "error", err)
		return nil
	}

	session := h.router.OpenSession(subscriberID)
	defer func() {
		h.router.CloseSession(session)
		conn.Close()
	}()

	// Reader exists only to notice the disconnect; closing the session
	// unblocks the write loop below.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.router.CloseSession(session)
				return
			}
		}
	}()

	for event := range session.Events() {
		if err := conn.WriteJSON(event); err != nil {
			h.log.Info("Subscriber write failed, closing stream",
				"subscriber_id", subscriberID, "error", err)
			break
		}
	}
	return nil
}
