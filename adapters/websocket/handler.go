package websocket

import (
	"github.com/labstack/echo/v4"
)

// Handler upgrades an authenticated request to a websocket chat
// connection and serves it until the peer disconnects. Auth middleware
// must have set user_id and client_id on the echo context.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	userID := c.Get("user_id").(int)
	clientID := c.Get("client_id").(string)

	client := NewClient(conn, userID, clientID)
	s.hub.Register(client)

	// Start the client goroutines
	client.Run()

	defer s.hub.Unregister(client)

	// Consume chat frames until the connection closes
	s.serveClient(client)

	return nil
}
