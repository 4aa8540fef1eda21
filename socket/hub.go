package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"drafthub/internal/article/model"
	"drafthub/pkg/logger"
)

const (
	InsertType = "INSERT" // Article created
	UpdateType = "UPDATE" // Title, content or status changed
	DeleteType = "DELETE" // Article removed
	ReadyType  = "READY"  // Sent once the subscription is live
)

// Event is one change notification. Article is nil for deletes.
type Event struct {
	Type      string         `json:"type"`
	ArticleID string         `json:"article_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Article   *model.Article `json:"article,omitempty"`
	Rooms     []string       `json:"rooms,omitempty"`
}

func ArticleRoom(articleID string) string { return "article:" + articleID }

func UserRoom(userID string) string { return "user:" + userID }

// ConnectionGauge is told when feed connections open and close.
type ConnectionGauge interface {
	AddConnections(ctx context.Context, delta int64)
}

type Hub struct {
	rooms      map[string]map[*Client]bool
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	AllowedOrigins []string
	Gauge          ConnectionGauge
}

func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		rooms:          make(map[string]map[*Client]bool),
		clients:        make(map[*Client]bool),
		broadcast:      make(chan Event, 256),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		AllowedOrigins: allowedOrigins,
	}
}

// Run owns all room state until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer h.stopOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			logger.Sugar.Info("Realtime hub stopped")
			return nil

		case client := <-h.register:
			h.clients[client] = true
			for _, room := range client.rooms {
				if h.rooms[room] == nil {
					h.rooms[room] = make(map[*Client]bool)
				}
				h.rooms[room][client] = true
			}
			h.track(1)

			ready, _ := json.Marshal(Event{Type: ReadyType, UserID: client.userID, Rooms: client.rooms})
			client.send <- ready
			logger.Sugar.Debugf("User %s subscribed to %v", client.userID, client.rooms)

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
			}

		case ev := <-h.broadcast:
			payload, err := json.Marshal(ev)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling %s event for article %s: %v", ev.Type, ev.ArticleID, err)
				continue
			}

			// A client in both the user and article room gets the event once.
			targets := make(map[*Client]bool)
			for _, room := range []string{UserRoom(ev.UserID), ArticleRoom(ev.ArticleID)} {
				for client := range h.rooms[room] {
					targets[client] = true
				}
			}

			for client := range targets {
				select {
				case client.send <- payload:
				default:
					logger.Sugar.Warnf("Client %s's send buffer is full. Dropping connection.", client.userID)
					h.drop(client)
				}
			}
		}
	}
}

// drop removes a client from every room and closes its send channel. Only
// Run calls it.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	for _, room := range client.rooms {
		delete(h.rooms[room], client)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	close(client.send)
	h.track(-1)
}

func (h *Hub) track(delta int64) {
	if h.Gauge != nil {
		h.Gauge.AddConnections(context.Background(), delta)
	}
}

// PublishArticle queues a change for fan-out to the author's room and the
// article's room. It returns without delivering once the hub has stopped.
func (h *Hub) PublishArticle(eventType string, a *model.Article) {
	ev := Event{Type: eventType, ArticleID: a.ID, UserID: a.AuthorID}
	if eventType != DeleteType {
		snapshot := *a
		ev.Article = &snapshot
	}

	select {
	case h.broadcast <- ev:
	case <-h.done:
	case <-time.After(time.Second):
		logger.Sugar.Warnf("Realtime hub is not draining; dropped %s for article %s", eventType, a.ID)
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
