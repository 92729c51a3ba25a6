package config

import (
	"log"
	"sync"
	"time"

	socketio "github.com/doquangtan/socket.io/v4"
	"github.com/gofiber/fiber/v2"

	"questmatch/app/models"
)

// QueueSocketHandler pushes match-found events to connected players.
// Clients connect to the /queue namespace and subscribe with their user
// id; when the matchmaker commits a match every subscribed participant
// receives a match:found event. Delivery is best-effort only - the
// HTTP status endpoints remain the source of truth.
type QueueSocketHandler struct {
	io *socketio.Io

	mu          sync.Mutex
	subscribers map[string]map[string]*socketio.Socket // user id -> socket id -> socket
}

// NewQueueSocketHandler creates a new Socket.IO handler instance
func NewQueueSocketHandler() *QueueSocketHandler {
	handler := &QueueSocketHandler{
		io:          socketio.New(),
		subscribers: make(map[string]map[string]*socketio.Socket),
	}

	handler.setupSocketHandlers()
	return handler
}

// setupSocketHandlers configures all Socket.IO event handlers
func (h *QueueSocketHandler) setupSocketHandlers() {
	h.io.OnAuthorization(func(params map[string]string) bool {
		return true
	})

	h.io.Of("/queue").OnConnection(func(socket *socketio.Socket) {
		log.Printf("✅ Queue socket connected: %s", socket.Id)

		var subscribedUser string

		socket.Emit("connect_response", map[string]interface{}{
			"status":    "connected",
			"socket_id": socket.Id,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})

		socket.On("queue:subscribe", func(event *socketio.EventPayload) {
			if len(event.Data) == 0 {
				socket.Emit("queue:subscribe:error", map[string]interface{}{
					"status":  "error",
					"message": "No subscription data provided",
				})
				return
			}

			data, ok := event.Data[0].(map[string]interface{})
			if !ok {
				socket.Emit("queue:subscribe:error", map[string]interface{}{
					"status":  "error",
					"message": "Invalid subscription data format",
				})
				return
			}

			userID, _ := data["user_id"].(string)
			if userID == "" {
				socket.Emit("queue:subscribe:error", map[string]interface{}{
					"status":  "error",
					"message": "user_id is required",
				})
				return
			}

			if subscribedUser != "" {
				h.removeSubscriber(subscribedUser, socket.Id)
			}
			subscribedUser = userID
			h.addSubscriber(userID, socket)

			socket.Emit("queue:subscribed", map[string]interface{}{
				"status":  "success",
				"user_id": userID,
			})
		})

		socket.On("queue:unsubscribe", func(event *socketio.EventPayload) {
			if subscribedUser != "" {
				h.removeSubscriber(subscribedUser, socket.Id)
				subscribedUser = ""
			}
		})

		socket.On("disconnect", func(event *socketio.EventPayload) {
			log.Printf("🔌 Queue socket disconnected: %s", socket.Id)
			if subscribedUser != "" {
				h.removeSubscriber(subscribedUser, socket.Id)
			}
		})
	})
}

func (h *QueueSocketHandler) addSubscriber(userID string, socket *socketio.Socket) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[string]*socketio.Socket)
	}
	h.subscribers[userID][socket.Id] = socket
}

func (h *QueueSocketHandler) removeSubscriber(userID, socketID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sockets, ok := h.subscribers[userID]; ok {
		delete(sockets, socketID)
		if len(sockets) == 0 {
			delete(h.subscribers, userID)
		}
	}
}

// NotifyMatchFound pushes the committed match to every subscribed
// participant. Implements the matchmaker's notifier interface.
func (h *QueueSocketHandler) NotifyMatchFound(match models.Match) {
	h.mu.Lock()
	var targets []*socketio.Socket
	for _, playerID := range match.PlayerIDs {
		for _, socket := range h.subscribers[playerID] {
			targets = append(targets, socket)
		}
	}
	h.mu.Unlock()

	payload := map[string]interface{}{
		"status":    "success",
		"event":     "match:found",
		"match":     models.NewMatchResponse(&match),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for _, socket := range targets {
		socket.Emit("match:found", payload)
	}
}

// GetIo returns the Socket.IO instance
func (h *QueueSocketHandler) GetIo() *socketio.Io {
	return h.io
}

// SetupSocketRoutes configures Socket.IO routes for the Fiber app
func (h *QueueSocketHandler) SetupSocketRoutes(app *fiber.App) {
	app.Use("/", h.io.Middleware)
	app.Route("/socket.io", h.io.FiberRoute)
}
