package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/Dosada05/archery-system/brackets"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict Origin to trusted scoreboard domains before public
		// deployments.
		return true
	},
}

type WebSocketHandler struct {
	hub *brackets.Hub
}

func NewWebSocketHandler(hub *brackets.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWs subscribes a client to the live feed of one bracket. Clients
// connect to /ws/brackets/{bracketID} and receive every match, set, and
// completion event of that bracket.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	bracketID, err := getIDFromURL(r, "bracketID")
	if err != nil {
		http.Error(w, "invalid bracketID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("failed to upgrade connection for bracket %d: %v", bracketID, err)
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: fmt.Sprintf("bracket_%d", bracketID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
