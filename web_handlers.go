package main

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/elijahnyp/room_observer/state"
	. "github.com/elijahnyp/room_observer/util"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Data interface{} `json:"data"`
	Type string      `json:"type"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn *websocket.Conn
	send chan WebSocketMessage
	hub  *WSHub
}

// WSHub maintains the set of active clients and broadcasts messages
type WSHub struct {
	clients    map[*WSClient]bool
	broadcast  chan WebSocketMessage
	register   chan *WSClient
	unregister chan *WSClient
	count      atomic.Int32
}

// NewHub creates a new WebSocket hub
func NewHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WebSocketMessage, 16),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run services the hub until ctx is done, then closes every client.
func (h *WSHub) Run(ctx context.Context) {
	defer func() {
		for client := range h.clients {
			h.drop(client)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int32(len(h.clients)))
			Logger.Info().Msg("Client connected to WebSocket")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				Logger.Info().Msg("Client disconnected from WebSocket")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.drop(client)
				}
			}
		}
	}
}

func (h *WSHub) drop(client *WSClient) {
	delete(h.clients, client)
	close(client.send)
	h.count.Store(int32(len(h.clients)))
}

// ClientCount is the number of clients the hub has registered.
func (h *WSHub) ClientCount() int {
	return int(h.count.Load())
}

// BroadcastUpdate sends an update to all connected clients
func (h *WSHub) BroadcastUpdate(messageType string, data interface{}) {
	select {
	case h.broadcast <- WebSocketMessage{Type: messageType, Data: data}:
	default:
		Logger.Debug().Msgf("websocket broadcast queue full, skipping %s", messageType)
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *WSClient) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-ctx.Done():
		}
		if err := c.conn.Close(); err != nil {
			Logger.Debug().Err(err).Msg("Error closing WebSocket connection")
		}
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *WSClient) writePump() {
	defer func() {
		if err := c.conn.Close(); err != nil {
			Logger.Debug().Err(err).Msg("Error closing WebSocket connection")
		}
	}()

	for message := range c.send {
		if err := c.conn.WriteJSON(message); err != nil {
			return
		}
	}
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		Logger.Debug().Err(err).Msg("Error writing close message")
	}
}

// ServeWebSocket returns the /ws handler; clients live until ctx is done or they hang up.
func (h *WSHub) ServeWebSocket(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Logger.Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}

		client := &WSClient{
			conn: conn,
			send: make(chan WebSocketMessage, 256),
			hub:  h,
		}

		select {
		case h.register <- client:
		case <-ctx.Done():
			_ = conn.Close() //nolint:errcheck // shutting down
			return
		}

		go client.writePump()
		go client.readPump(ctx)
	}
}

// RoomBroadcaster pushes the room status to websocket clients after every notification round.
type RoomBroadcaster struct {
	hub  *WSHub
	room *state.Room
}

// NewRoomBroadcaster returns a broadcaster already registered with room.
func NewRoomBroadcaster(hub *WSHub, room *state.Room) *RoomBroadcaster {
	b := &RoomBroadcaster{hub: hub, room: room}
	room.AddObserver(b)
	return b
}

func (b *RoomBroadcaster) Update() {
	b.hub.BroadcastUpdate("room_status", statusOf(b.room))
}
