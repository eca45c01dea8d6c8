package websocket

import (
	"context"
	"log/slog"
)

// Subscriber feeds messages published for roomID into out until ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, roomID string, out chan<- *WSMessage)
}

// Hub owns every room. Rooms are only touched from the Run goroutine: the first
// client of a room opens its subscription, the last one to leave closes it.
type Hub struct {
	Rooms      map[string]*Room
	Register   chan *WSClient
	Unregister chan *WSClient
	Broadcast  chan *WSMessage
	subscriber Subscriber
}

func NewHub(subscriber Subscriber) *Hub {
	return &Hub{
		Rooms:      make(map[string]*Room),
		Register:   make(chan *WSClient),
		Unregister: make(chan *WSClient),
		Broadcast:  make(chan *WSMessage),
		subscriber: subscriber,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for id, room := range h.Rooms {
			h.closeRoom(id, room)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.Register:
			room, ok := h.Rooms[client.RoomID]
			if !ok {
				room = h.openRoom(ctx, client.RoomID)
			}
			room.Clients[client.ID] = client
			incConnections()

		case client := <-h.Unregister:
			room, ok := h.Rooms[client.RoomID]
			if !ok {
				continue
			}
			if existing, ok := room.Clients[client.ID]; ok && existing == client {
				delete(room.Clients, client.ID)
				close(client.Message)
				decConnections()
			}
			if len(room.Clients) == 0 {
				h.closeRoom(client.RoomID, room)
			}

		case message := <-h.Broadcast:
			room, ok := h.Rooms[message.RoomID]
			if !ok {
				continue
			}
			delivered := 0
			for _, client := range room.Clients {
				select {
				case client.Message <- message:
					delivered++
				default:
					// Slow consumer: drop it rather than stall the room.
					close(client.Message)
					delete(room.Clients, client.ID)
					decConnections()
				}
			}
			if delivered > 0 {
				addDelivered(delivered)
			}
		}
	}
}

func (h *Hub) openRoom(ctx context.Context, id string) *Room {
	roomCtx, cancel := context.WithCancel(ctx)
	room := &Room{
		Id:      id,
		Clients: make(map[string]*WSClient),
		cancel:  cancel,
	}
	h.Rooms[id] = room
	setRooms(len(h.Rooms))

	if h.subscriber != nil {
		go h.subscriber.Subscribe(roomCtx, id, h.Broadcast)
	}
	slog.Debug("websocket room opened", "room", id)
	return room
}

func (h *Hub) closeRoom(id string, room *Room) {
	if room.cancel != nil {
		room.cancel()
	}
	delete(h.Rooms, id)
	setRooms(len(h.Rooms))
	slog.Debug("websocket room closed", "room", id)
}
