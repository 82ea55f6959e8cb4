package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	cases := map[string]OrderStatus{
		"pending":     OrderStatusPending,
		"CONFIRMED":   OrderStatusConfirmed,
		" completed ": OrderStatusCompleted,
		"Cancelled":   OrderStatusCancelled,
	}
	for raw, want := range cases {
		got, err := ParseOrderStatus(raw)
		if err != nil {
			t.Fatalf("ParseOrderStatus(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseOrderStatus(%q) = %q, want %q", raw, got, want)
		}
	}
	if _, err := ParseOrderStatus("inquiry_sent"); err == nil {
		t.Fatalf("expected inquiry_sent to be rejected")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if OrderStatusPending.IsTerminal() || OrderStatusConfirmed.IsTerminal() {
		t.Fatalf("pending and confirmed must not be terminal")
	}
	if !OrderStatusCompleted.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatalf("completed and cancelled must be terminal")
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("ADMIN")
	if err != nil || role != RoleAdmin {
		t.Fatalf("expected admin role, got %q err=%v", role, err)
	}
	if _, err := ParseRole("owner"); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestStrictParsers(t *testing.T) {
	if s, err := ParseProductStatus("published"); err != nil || s != ProductStatusPublished {
		t.Fatalf("expected published, got %q err=%v", s, err)
	}
	if _, err := ParseProductStatus("Published"); err == nil {
		t.Fatalf("product status parsing is case sensitive")
	}
	if n, err := ParseNotificationType("admin_message"); err != nil || n != NotificationTypeAdminMessage {
		t.Fatalf("expected admin_message, got %q err=%v", n, err)
	}
	if _, err := ParseOutboxEventType("order_shipped"); err == nil {
		t.Fatalf("expected unknown event type to fail")
	}
}

func TestValidity(t *testing.T) {
	if !AggregateOrder.IsValid() || OutboxAggregateType("cart").IsValid() {
		t.Fatalf("aggregate validity mismatch")
	}
	if !OutboxDLQReasonMaxAttempts.IsValid() || OutboxDLQErrorReason("bad_reason").IsValid() {
		t.Fatalf("dlq reason validity mismatch")
	}
	if !EventOrderStatusChanged.IsValid() || OutboxEventType("").IsValid() {
		t.Fatalf("event type validity mismatch")
	}
}
