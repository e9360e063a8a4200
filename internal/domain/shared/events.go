// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Session state changes drive navigation: the session
// manager publishes, the routing layer subscribes and decides how to react.
const (
	// Session events
	EventSessionValidating    EventType = "session.validating"
	EventSessionAuthenticated EventType = "session.authenticated"
	EventSessionCleared       EventType = "session.cleared"
	EventSessionRefreshed     EventType = "session.refreshed"

	// Profile events
	EventProfilePictureUploaded EventType = "profile.picture_uploaded"
	EventProfilePictureRemoved  EventType = "profile.picture_removed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Session Events
// ═══════════════════════════════════════════════════════════════════════════

// SessionValidatingEvent is emitted when a persisted token is being
// revalidated against the API at startup.
type SessionValidatingEvent struct {
	BaseEvent
}

// Payload implements Event interface.
func (e SessionValidatingEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// NewSessionValidatingEvent creates a new SessionValidatingEvent.
func NewSessionValidatingEvent() SessionValidatingEvent {
	return SessionValidatingEvent{
		BaseEvent: NewBaseEvent(EventSessionValidating, "session"),
	}
}

// SessionAuthenticatedEvent is emitted whenever the session reaches the
// authenticated state, whether through login, registration, or a persisted
// token surviving revalidation.
type SessionAuthenticatedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Payload implements Event interface.
func (e SessionAuthenticatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"email":   e.Email,
		"role":    e.Role,
	}
}

// NewSessionAuthenticatedEvent creates a new SessionAuthenticatedEvent.
func NewSessionAuthenticatedEvent(userID, email, role string) SessionAuthenticatedEvent {
	return SessionAuthenticatedEvent{
		BaseEvent: NewBaseEvent(EventSessionAuthenticated, userID),
		UserID:    userID,
		Email:     email,
		Role:      role,
	}
}

// SessionClearedEvent is emitted when the session becomes anonymous, either
// through an explicit logout or because a persisted token failed validation.
type SessionClearedEvent struct {
	BaseEvent
	Reason string `json:"reason"` // "logout" or "token_rejected"
}

// Payload implements Event interface.
func (e SessionClearedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"reason": e.Reason,
	}
}

// NewSessionClearedEvent creates a new SessionClearedEvent.
func NewSessionClearedEvent(reason string) SessionClearedEvent {
	return SessionClearedEvent{
		BaseEvent: NewBaseEvent(EventSessionCleared, "session"),
		Reason:    reason,
	}
}

// SessionRefreshedEvent is emitted when an out-of-band refetch replaced the
// user snapshot without changing the session status.
type SessionRefreshedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// Payload implements Event interface.
func (e SessionRefreshedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
	}
}

// NewSessionRefreshedEvent creates a new SessionRefreshedEvent.
func NewSessionRefreshedEvent(userID string) SessionRefreshedEvent {
	return SessionRefreshedEvent{
		BaseEvent: NewBaseEvent(EventSessionRefreshed, userID),
		UserID:    userID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Profile Events
// ═══════════════════════════════════════════════════════════════════════════

// ProfilePictureUploadedEvent is emitted after a profile picture upload was
// accepted by the API.
type ProfilePictureUploadedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	URL    string `json:"url"`
}

// Payload implements Event interface.
func (e ProfilePictureUploadedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"url":     e.URL,
	}
}

// NewProfilePictureUploadedEvent creates a new ProfilePictureUploadedEvent.
func NewProfilePictureUploadedEvent(userID, url string) ProfilePictureUploadedEvent {
	return ProfilePictureUploadedEvent{
		BaseEvent: NewBaseEvent(EventProfilePictureUploaded, userID),
		UserID:    userID,
		URL:       url,
	}
}

// ProfilePictureRemovedEvent is emitted after the API removed the current
// profile picture.
type ProfilePictureRemovedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// Payload implements Event interface.
func (e ProfilePictureRemovedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
	}
}

// NewProfilePictureRemovedEvent creates a new ProfilePictureRemovedEvent.
func NewProfilePictureRemovedEvent(userID string) ProfilePictureRemovedEvent {
	return ProfilePictureRemovedEvent{
		BaseEvent: NewBaseEvent(EventProfilePictureRemoved, userID),
		UserID:    userID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher publishes events.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber subscribes to events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}
