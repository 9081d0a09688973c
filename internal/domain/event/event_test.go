package event

import (
	"context"
	"testing"
	"time"

	"github.com/garyjia/travel-approval/internal/domain/entity"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{name: "request created", eventType: TypeRequestCreated, want: true},
		{name: "transition recorded", eventType: TypeTransitionRecorded, want: true},
		{name: "options removed", eventType: TypeOptionsRemoved, want: true},
		{name: "audit write failed", eventType: TypeAuditWriteFailed, want: true},
		{name: "unknown type", eventType: Type("unknown.type"), want: false},
		{name: "empty string", eventType: Type(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_Notifies(t *testing.T) {
	if !TypeTransitionRecorded.Notifies() {
		t.Error("transition events should notify")
	}
	if TypeOptionsRemoved.Notifies() {
		t.Error("option removals should stay quiet")
	}
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(TypeTransitionRecorded, "1F1123456", map[string]interface{}{
		KeyAction: "ManagerApprove",
	})

	if event.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if event.Type != TypeTransitionRecorded {
		t.Errorf("Event Type = %v, want %v", event.Type, TypeTransitionRecorded)
	}
	if event.RequestID != "1F1123456" {
		t.Errorf("Event RequestID = %v, want %v", event.RequestID, "1F1123456")
	}
	if event.GetPayloadString(KeyAction) != "ManagerApprove" {
		t.Errorf("Event Payload[action] = %v", event.Payload[KeyAction])
	}
	if event.CorrelationID == "" || event.CorrelationID == event.ID {
		t.Error("Event CorrelationID should be set independently of ID")
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	event := NewEventWithCorrelation(TypeRequestCreated, "2T1000001", nil, "req-abc")

	if event.CorrelationID != "req-abc" {
		t.Errorf("Event CorrelationID = %v, want %v", event.CorrelationID, "req-abc")
	}
	if event.Payload == nil {
		t.Error("nil payload should be replaced by an empty map")
	}

	generated := NewEventWithCorrelation(TypeRequestCreated, "2T1000001", nil, "")
	if generated.CorrelationID == "" {
		t.Error("empty correlation id should be generated")
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeTransitionRecorded, "1F1123456", map[string]interface{}{"key1": "value1"})
	modified := original.WithPayload("key2", "value2")

	if _, exists := original.Payload["key2"]; exists {
		t.Error("Original event should not be modified")
	}
	if modified.Payload["key1"] != "value1" || modified.Payload["key2"] != "value2" {
		t.Errorf("Modified payload = %v", modified.Payload)
	}
	if modified.ID != original.ID || modified.CorrelationID != original.CorrelationID {
		t.Error("Modified event should keep identity fields")
	}
}

func TestEvent_WithAuditLog(t *testing.T) {
	original := NewEvent(TypeTransitionRecorded, "1F1123456", nil)
	if original.AuditLog() != nil {
		t.Fatal("AuditLog() should be nil before attaching")
	}

	log := &entity.AuditLog{LogID: 42, RequestID: "1F1123456", ActionType: "ManagerApproved"}
	attached := original.WithAuditLog(log)

	if attached.AuditLog() != log {
		t.Error("AuditLog() should return the attached entry")
	}
	if attached.AuditLogID != 42 {
		t.Errorf("AuditLogID = %d, want 42", attached.AuditLogID)
	}

	unsaved := original.WithAuditLog(&entity.AuditLog{RequestID: "1F1123456"})
	if unsaved.AuditLogID != 0 {
		t.Error("unsaved entry should leave AuditLogID unset")
	}
}

func TestEvent_GetPayloadInt(t *testing.T) {
	event := NewEvent(TypeTransitionRecorded, "x", map[string]interface{}{
		"int64":   int64(100),
		"int":     50,
		"float64": 75.5,
		"string":  "not a number",
	})

	tests := []struct {
		key  string
		want int64
	}{
		{"int64", 100},
		{"int", 50},
		{"float64", 75},
		{"string", 0},
		{"nonexistent", 0},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := event.GetPayloadInt(tt.key); got != tt.want {
				t.Errorf("GetPayloadInt(%v) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestEvent_GetPayloadBool(t *testing.T) {
	event := NewEvent(TypeTransitionRecorded, "x", map[string]interface{}{
		KeyViaEmailLink: true,
		"string":        "true",
	})

	if !event.GetPayloadBool(KeyViaEmailLink) {
		t.Error("GetPayloadBool() should read a bool")
	}
	if event.GetPayloadBool("string") {
		t.Error("GetPayloadBool() should ignore non-bool values")
	}
}

func TestCorrelationIDContext(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "req-123")
	if got := CorrelationIDFrom(ctx); got != "req-123" {
		t.Errorf("CorrelationIDFrom() = %q, want %q", got, "req-123")
	}
	if got := CorrelationIDFrom(context.Background()); got != "" {
		t.Errorf("CorrelationIDFrom() = %q, want empty", got)
	}
}
