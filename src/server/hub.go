package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"options-observer/src/helpers"
	"options-observer/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub tracks connected clients until the server stops.
func (s *DashboardServer) runHub() {
	for {
		select {
		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = struct{}{}
			s.clientsMu.Unlock()

		case client := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientsMu.Unlock()

		case <-s.done:
			// writePumps watch done themselves; send channels stay open
			// because readPumps may still be answering.
			s.clientsMu.Lock()
			clear(s.clients)
			s.clientsMu.Unlock()
			return
		}
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		send: make(chan *models.MSocketMessage, 16),
		gone: make(chan struct{}),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	controls := s.Tables.Controls()
	client.send <- &models.MSocketMessage{Type: models.MessageControls, Controls: &controls}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage answers one control-change event with the full views.
// Messages of a client are handled in arrival order; a full send buffer
// holds back the next read instead of losing the reply.
func (s *DashboardServer) HandleClientMessage(client *Client, message []byte) {
	response := s.viewsMessage(message)

	select {
	case client.send <- response:
	case <-client.gone:
	case <-s.done:
	}
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) viewsMessage(message []byte) *models.MSocketMessage {
	var req models.MViewRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return &models.MSocketMessage{Type: models.MessageError, Error: "invalid control message: " + err.Error()}
	}

	views, err := s.Tables.Views(req)
	if err != nil {
		var verr *helpers.ValidationError
		if !errors.As(err, &verr) {
			s.Logger.Error("Failed to compute views: %v", err)
		}
		return &models.MSocketMessage{Type: models.MessageError, Error: err.Error()}
	}
	return &models.MSocketMessage{Type: models.MessageViews, Views: &views}
}
