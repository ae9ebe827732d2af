package websocket

// EventPublisher is what services use to announce changes of a workspace
type EventPublisher interface {
	Publish(workspaceID int32, event Event)
}

// BuiltEventPublisher can also publish an event built from state read while
// the workspace's stream is held, so it cannot overtake a newer event.
type BuiltEventPublisher interface {
	EventPublisher
	PublishBuilt(workspaceID int32, build func() (Event, error)) error
}

var _ BuiltEventPublisher = (*Hub)(nil)

// Publish broadcasts event to the workspace's clients
func (h *Hub) Publish(workspaceID int32, event Event) {
	h.Broadcast(workspaceID, event)
}

// PublishBuilt broadcasts the event returned by build
func (h *Hub) PublishBuilt(workspaceID int32, build func() (Event, error)) error {
	return h.BroadcastBuilt(workspaceID, build)
}
