package stripeadapter

import (
	"context"
	"testing"
	"time"
)

func TestCallContextBoundsDeadline(t *testing.T) {
	gateway := NewGateway("sk_test_key", "whsec_test", 5*time.Second, nil)

	ctx, cancel := gateway.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("outbound call context carries no deadline")
	}
	if remaining := time.Until(deadline); remaining <= 0 || remaining > 5*time.Second {
		t.Fatalf("deadline %s away, want within 5s", remaining)
	}
}

func TestCallContextKeepsTighterCallerDeadline(t *testing.T) {
	gateway := NewGateway("sk_test_key", "whsec_test", time.Minute, nil)

	parent, parentCancel := context.WithTimeout(context.Background(), time.Second)
	defer parentCancel()

	ctx, cancel := gateway.callContext(parent)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("outbound call context carries no deadline")
	}
	if time.Until(deadline) > time.Second {
		t.Fatalf("caller deadline loosened to %s", time.Until(deadline))
	}
}

func TestNewGatewayDefaultsTimeout(t *testing.T) {
	gateway := NewGateway("sk_test_key", "whsec_test", 0, nil)
	if gateway.timeout != 15*time.Second {
		t.Fatalf("got timeout %s, want 15s", gateway.timeout)
	}
}
