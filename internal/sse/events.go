// Package sse streams collection change events to connected browsers.
package sse

import (
	"time"

	"github.com/google/uuid"

	"github.com/gameshelf/gameshelf-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventEntryAdded is sent when a game is added to the collection.
	EventEntryAdded EventType = "collection.entry_added"
	// EventEntryRemoved is sent when a game is removed from the collection.
	EventEntryRemoved EventType = "collection.entry_removed"
	// EventEntryUpdated is sent when an entry's status or playtime changes.
	EventEntryUpdated EventType = "collection.entry_updated"
	// EventCollectionReloaded is sent after the stored snapshot was edited outside the server.
	EventCollectionReloaded EventType = "collection.reloaded"
	// EventResync tells a reconnecting client its missed events are gone and
	// it should refetch the collection.
	EventResync EventType = "collection.resync"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	ID        string    `json:"id,omitempty"` // empty for events that are never replayed
	Type      EventType `json:"type"`
}

func newEvent(t EventType, data any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// EntryEventData is the payload for added and updated entries.
type EntryEventData struct {
	Entry domain.Entry `json:"entry"`
	// Field names what changed on update: "status" or "playtime".
	Field string `json:"field,omitempty"`
}

// EntryRemovedEventData is the payload for removed entries.
type EntryRemovedEventData struct {
	RemovedAt time.Time `json:"removed_at"`
	GameID    int       `json:"game_id"`
}

// ReloadedEventData is the payload for collection reloads.
type ReloadedEventData struct {
	ReloadedAt time.Time `json:"reloaded_at"`
	Count      int       `json:"count"`
}

// ResyncEventData is the payload for resync events.
type ResyncEventData struct {
	LastEventID string `json:"last_event_id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewEntryAddedEvent creates an entry added event.
func NewEntryAddedEvent(entry domain.Entry) Event {
	return newEvent(EventEntryAdded, EntryEventData{Entry: entry})
}

// NewEntryUpdatedEvent creates an entry updated event for the changed field.
func NewEntryUpdatedEvent(entry domain.Entry, field string) Event {
	return newEvent(EventEntryUpdated, EntryEventData{Entry: entry, Field: field})
}

// NewEntryRemovedEvent creates an entry removed event.
func NewEntryRemovedEvent(gameID int, removedAt time.Time) Event {
	return newEvent(EventEntryRemoved, EntryRemovedEventData{GameID: gameID, RemovedAt: removedAt})
}

// NewCollectionReloadedEvent creates a reload event.
func NewCollectionReloadedEvent(count int, reloadedAt time.Time) Event {
	return newEvent(EventCollectionReloaded, ReloadedEventData{Count: count, ReloadedAt: reloadedAt})
}

// NewResyncEvent creates a resync event for a client that resumed from lastEventID.
// It carries no ID so the client keeps lastEventID as its resume point.
func NewResyncEvent(lastEventID string) Event {
	return Event{
		Type:      EventResync,
		Timestamp: time.Now(),
		Data:      ResyncEventData{LastEventID: lastEventID},
	}
}

// NewHeartbeatEvent creates a heartbeat event. Heartbeats are not kept for
// replay, so they carry no ID.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}
