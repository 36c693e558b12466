package relay

import (
	"context"
	"strings"
	"testing"

	"github.com/nerrad567/irrigation-relay/internal/conversation"
	"github.com/nerrad567/irrigation-relay/internal/registry"
	"github.com/nerrad567/irrigation-relay/internal/routing"
)

// A device registered while the broker is unreachable starts receiving
// once the bus reconnects.
func TestService_RegistrationDuringOutage(t *testing.T) {
	ctx := context.Background()
	reg := registry.New(registry.NewMemoryStore())
	f := newFixture(t, "device", nil, Options{})
	machine := conversation.New(reg, f.svc)

	f.bus.setDown(true)
	msgs, err := machine.Handle(ctx, conversation.Input{Operator: "42", Text: "/register ESP_12345678"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(msgs) == 0 || !strings.Contains(msgs[0].Text, "ESP_12345678") {
		t.Fatalf("reply = %+v", msgs)
	}
	if op, err := reg.LookupEndpoint(ctx, "ESP_12345678"); err != nil || op != "42" {
		t.Fatalf("LookupEndpoint() = %q, %v", op, err)
	}

	f.bus.setDown(false)
	if err := f.svc.Resubscribe(ctx); err != nil {
		t.Fatalf("Resubscribe() error = %v", err)
	}

	topic, err := f.router.TopicFor(routing.StatusResponse, "ESP_12345678")
	if err != nil {
		t.Fatalf("TopicFor() error = %v", err)
	}
	f.bus.inject(t, topic, reportPayload(t, "ESP_12345678", ""))
	if d := f.dispatcher.snapshot(); len(d) != 1 {
		t.Errorf("deliveries = %+v, want the report routed", d)
	}
}
