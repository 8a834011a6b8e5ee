package observability

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestBuildAuditEventIncludesRequiredFields(t *testing.T) {
	req := httptest.NewRequest("DELETE", "/api/v1/products/abc", nil)
	req.Header.Set("X-Request-Id", "req-test-1")
	req.RemoteAddr = "127.0.0.1:12345"

	ev := BuildAuditEvent(req, AuditInput{
		EventName:  "product.delete",
		TargetType: "product",
		TargetID:   "abc",
		Action:     "delete",
		Outcome:    "success",
		Reason:     "requested",
	})

	if ev.EventVersion != 1 {
		t.Fatalf("expected event version 1, got %d", ev.EventVersion)
	}
	if ev.ActorIP != "127.0.0.1" {
		t.Fatalf("unexpected actor ip: %s", ev.ActorIP)
	}
	if ev.RequestID != "req-test-1" {
		t.Fatalf("unexpected request id: %s", ev.RequestID)
	}
	if _, err := time.Parse(time.RFC3339, ev.TS); err != nil {
		t.Fatalf("expected RFC3339 ts, got %q err=%v", ev.TS, err)
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
}

func TestBuildAuditEventPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/products", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	ev := BuildAuditEvent(req, AuditInput{EventName: "product.create", TargetType: "product", Action: "create", Outcome: "success"})
	if ev.ActorIP != "203.0.113.7" {
		t.Fatalf("expected forwarded client ip, got %q", ev.ActorIP)
	}
}

func TestAuditEventValidateRejectsMissingEventName(t *testing.T) {
	ev := AuditEvent{
		EventVersion: 1,
		ActorIP:      "127.0.0.1",
		TargetType:   "product",
		TargetID:     "42",
		Action:       "update",
		Outcome:      "success",
		RequestID:    "req-1",
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
	if err := ev.Validate(); err == nil {
		t.Fatal("expected validation error for missing event_name")
	}
}
