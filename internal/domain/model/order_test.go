package model

import (
	"strings"
	"testing"
)

func TestNewMerchantUIDFormat(t *testing.T) {
	uid := NewMerchantUID()
	if !strings.HasPrefix(uid, "order-") {
		t.Fatalf("expected order- prefix, got %q", uid)
	}
	rest := strings.TrimPrefix(uid, "order-")
	if len(rest) != 32 || strings.Contains(rest, "-") {
		t.Fatalf("expected 32 hex chars without hyphens, got %q", rest)
	}
	if NewMerchantUID() == uid {
		t.Fatalf("merchant UIDs must be unique")
	}
}

func TestOrderTransitions(t *testing.T) {
	o := &Order{State: OrderStatePending}
	if o.Terminal() || !o.CanComplete() || !o.CanCancel() {
		t.Fatalf("unexpected PENDING transitions: %+v", o)
	}

	o.State = OrderStateComplete
	if !o.Terminal() || o.CanComplete() || !o.CanCancel() {
		t.Fatalf("COMPLETE must allow refund only")
	}

	o.State = OrderStateFailed
	if !o.Terminal() || o.CanComplete() || o.CanCancel() {
		t.Fatalf("FAILED is final")
	}
}
