package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// Payload keys shared by publishers and handlers
const (
	KeyAuditLog     = "audit_log"
	KeyAction       = "action"
	KeyOldStatus    = "old_status"
	KeyNewStatus    = "new_status"
	KeyActorUserID  = "actor_user_id"
	KeyViaEmailLink = "via_email_link"
	KeyOptionCount  = "option_count"
)

// Event represents a domain event
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	RequestID     string                 `json:"request_id"`
	AuditLogID    int64                  `json:"audit_log_id,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with a generated ID and timestamp
func NewEvent(eventType Type, requestID string, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, requestID, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to a correlation chain,
// typically the HTTP request id that caused it
func NewEventWithCorrelation(eventType Type, requestID string, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		RequestID:     requestID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// WithPayload returns a copy of the event with an added payload entry
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	clone := *e
	clone.Payload = newPayload
	return &clone
}

// WithAuditLog returns a copy of the event carrying the audit entry.
// The entry is attached even when it was not persisted.
func (e *Event) WithAuditLog(log *entity.AuditLog) *Event {
	clone := e.WithPayload(KeyAuditLog, log)
	if log != nil {
		clone.AuditLogID = log.LogID
	}
	return clone
}

// AuditLog returns the attached audit entry, if any
func (e *Event) AuditLog() *entity.AuditLog {
	if log, ok := e.Payload[KeyAuditLog].(*entity.AuditLog); ok {
		return log
	}
	return nil
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

// GetPayloadBool retrieves a bool value from the payload
func (e *Event) GetPayloadBool(key string) bool {
	if val, ok := e.Payload[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

type correlationKey struct{}

// ContextWithCorrelationID stores the id that events raised under ctx will carry
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFrom returns the correlation id stored in ctx, or ""
func CorrelationIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	return ""
}
