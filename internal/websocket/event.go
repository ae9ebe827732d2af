package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated      EventType = "created"
	EventTypeUpdated      EventType = "updated"
	EventTypeDeleted      EventType = "deleted"
	EventTypePaymentAdded EventType = "payment_added"
	EventTypeImported     EventType = "imported"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeJob      EntityType = "job"
	EntityTypeCustomer EntityType = "customer"
	EntityTypeNote     EntityType = "note"
	EntityTypeSnapshot EntityType = "snapshot"
	EntityTypeBackup   EntityType = "backup"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, seq, timestamp }
//
// Seq increases by one for every event broadcast to a workspace. A client that
// sees a snapshot with a lower seq than one it already applied can drop it.
type Event struct {
	Type      string      `json:"type"`
	Entity    EntityType  `json:"entity"`
	Payload   interface{} `json:"payload"`
	Seq       uint64      `json:"seq"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new event with the given type, entity, and payload.
// Seq is assigned by the hub on broadcast.
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// DeletedPayload is sent for deletions, when only the ID is left
type DeletedPayload struct {
	ID string `json:"id"`
}

func JobCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeJob, payload)
}

func JobUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeJob, payload)
}

func JobDeleted(id string) Event {
	return NewEvent(EventTypeDeleted, EntityTypeJob, DeletedPayload{ID: id})
}

// JobPaymentAdded creates a job.payment_added event carrying the updated job
func JobPaymentAdded(payload interface{}) Event {
	return NewEvent(EventTypePaymentAdded, EntityTypeJob, payload)
}

func CustomerCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeCustomer, payload)
}

func CustomerUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCustomer, payload)
}

func CustomerDeleted(id string) Event {
	return NewEvent(EventTypeDeleted, EntityTypeCustomer, DeletedPayload{ID: id})
}

func NoteCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeNote, payload)
}

func NoteUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeNote, payload)
}

func NoteDeleted(id string) Event {
	return NewEvent(EventTypeDeleted, EntityTypeNote, DeletedPayload{ID: id})
}

// SnapshotUpdated creates a snapshot.updated event with the full workspace state
func SnapshotUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeSnapshot, payload)
}

// BackupImported creates a backup.imported event with the import summary
func BackupImported(payload interface{}) Event {
	return NewEvent(EventTypeImported, EntityTypeBackup, payload)
}
