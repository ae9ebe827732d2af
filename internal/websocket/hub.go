package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	WorkspaceID() int32
	Send(data []byte) error
	Close() error
}

// HubObserver is notified about connection counts and broadcasts
type HubObserver interface {
	ClientConnected()
	ClientDisconnected()
	EventPublished(eventType string)
}

// Hub manages WebSocket connections organized by workspace.
// It is safe for concurrent use.
//
// Sends to one workspace are serialized, so every client receives that
// workspace's events in seq order.
type Hub struct {
	// workspaces maps workspace ID to a map of client ID to client
	workspaces map[int32]map[string]ClientInterface
	sequences  map[int32]uint64
	sendLocks  map[int32]*sync.Mutex
	mu         sync.RWMutex
	observer   HubObserver
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		workspaces: make(map[int32]map[string]ClientInterface),
		sequences:  make(map[int32]uint64),
		sendLocks:  make(map[int32]*sync.Mutex),
	}
}

// sendLock returns the lock serializing sends to a workspace
func (h *Hub) sendLock(workspaceID int32) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock, ok := h.sendLocks[workspaceID]
	if !ok {
		lock = &sync.Mutex{}
		h.sendLocks[workspaceID] = lock
	}
	return lock
}

// SetObserver sets the observer notified of hub activity
func (h *Hub) SetObserver(observer HubObserver) {
	h.observer = observer
}

// Register adds a client to the hub under its workspace
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	workspaceID := client.WorkspaceID()
	clientID := client.ID()

	if h.workspaces[workspaceID] == nil {
		h.workspaces[workspaceID] = make(map[string]ClientInterface)
	}
	if _, exists := h.workspaces[workspaceID][clientID]; !exists && h.observer != nil {
		h.observer.ClientConnected()
	}

	h.workspaces[workspaceID][clientID] = client

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(client)
}

func (h *Hub) unregisterLocked(client ClientInterface) {
	workspaceID := client.WorkspaceID()
	clientID := client.ID()

	clients, ok := h.workspaces[workspaceID]
	if !ok {
		return
	}
	if _, exists := clients[clientID]; !exists {
		return
	}
	delete(clients, clientID)

	// Clean up empty workspace maps
	if len(clients) == 0 {
		delete(h.workspaces, workspaceID)
	}
	if h.observer != nil {
		h.observer.ClientDisconnected()
	}

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", clientID).
		Msg("WebSocket client unregistered")
}

// Broadcast assigns the workspace's next seq to event and sends it to every
// client in the workspace. Clients whose buffer is full are dropped; they
// resync with a fresh snapshot when they reconnect.
func (h *Hub) Broadcast(workspaceID int32, event Event) {
	lock := h.sendLock(workspaceID)
	lock.Lock()
	defer lock.Unlock()
	h.broadcastLocked(workspaceID, event)
}

// BroadcastBuilt calls build and broadcasts its event without letting another
// send to the workspace in between. The state read by build is therefore never
// older than anything sent with a lower seq. Nothing is sent when build fails.
func (h *Hub) BroadcastBuilt(workspaceID int32, build func() (Event, error)) error {
	lock := h.sendLock(workspaceID)
	lock.Lock()
	defer lock.Unlock()

	event, err := build()
	if err != nil {
		return err
	}
	h.broadcastLocked(workspaceID, event)
	return nil
}

func (h *Hub) broadcastLocked(workspaceID int32, event Event) {
	h.mu.Lock()
	h.sequences[workspaceID]++
	event.Seq = h.sequences[workspaceID]
	clients := make([]ClientInterface, 0, len(h.workspaces[workspaceID]))
	for _, client := range h.workspaces[workspaceID] {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	if h.observer != nil {
		h.observer.EventPublished(event.Type)
	}
	if len(clients) == 0 {
		return
	}

	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("workspace_id", workspaceID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	var stale []ClientInterface
	for _, client := range clients {
		if err := client.Send(data); err != nil {
			log.Warn().
				Err(err).
				Int32("workspace_id", workspaceID).
				Str("client_id", client.ID()).
				Msg("Failed to send to client, dropping it")
			stale = append(stale, client)
		}
	}

	if len(stale) > 0 {
		h.mu.Lock()
		for _, client := range stale {
			h.unregisterLocked(client)
		}
		h.mu.Unlock()
		for _, client := range stale {
			_ = client.Close()
		}
	}

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("event_type", event.Type).
		Uint64("seq", event.Seq).
		Int("client_count", len(clients)).
		Msg("Broadcast event")
}

// SendTo delivers event to a single client, stamped with the workspace's
// current seq without advancing it. Used to prime a new connection.
func (h *Hub) SendTo(client ClientInterface, event Event) error {
	return h.SendBuiltTo(client, func() (Event, error) { return event, nil })
}

// SendBuiltTo is SendTo with the event built while sends to the client's
// workspace are held.
func (h *Hub) SendBuiltTo(client ClientInterface, build func() (Event, error)) error {
	lock := h.sendLock(client.WorkspaceID())
	lock.Lock()
	defer lock.Unlock()

	event, err := build()
	if err != nil {
		return err
	}
	h.mu.RLock()
	event.Seq = h.sequences[client.WorkspaceID()]
	h.mu.RUnlock()

	data, err := event.ToJSON()
	if err != nil {
		return err
	}
	return client.Send(data)
}

// Sequence returns the seq of the last event broadcast to a workspace
func (h *Hub) Sequence(workspaceID int32) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sequences[workspaceID]
}

// ClientCount returns the number of clients connected to a workspace
func (h *Hub) ClientCount(workspaceID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.workspaces[workspaceID]; ok {
		return len(clients)
	}
	return 0
}

// TotalClientCount returns the total number of connected clients across all workspaces
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.workspaces {
		total += len(clients)
	}
	return total
}
