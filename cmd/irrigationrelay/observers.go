package main

import (
	"github.com/nerrad567/irrigation-relay/internal/conversation"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/influxdb"
	"github.com/nerrad567/irrigation-relay/internal/relay"
)

// Event names written to InfluxDB.
const (
	eventDelivery     = "delivery"
	eventBusMessage   = "bus_message"
	eventCommand      = "command"
	eventRegistration = "registration"
	eventTimeout      = "timeout"
)

// eventSink records relay activity as InfluxDB points. A nil client makes
// every method a no-op so the sink can be wired unconditionally.
type eventSink struct {
	client *influxdb.Client
}

func newEventSink(client *influxdb.Client) *eventSink {
	return &eventSink{client: client}
}

func (s *eventSink) write(event, device, outcome string) {
	if s.client == nil {
		return
	}
	s.client.WriteRelayEvent(event, device, outcome)
}

// ObserveDelivery implements notify.Observer.
func (s *eventSink) ObserveDelivery(kind, device, result string) {
	s.write(eventDelivery+"_"+kind, device, result)
}

// ObserveBusMessage implements relay.Observer.
func (s *eventSink) ObserveBusMessage(category, outcome string) {
	s.write(eventBusMessage, category, outcome)
}

// ObserveCommand implements relay.Observer.
func (s *eventSink) ObserveCommand(category, outcome string) {
	s.write(eventCommand, category, outcome)
}

// ObserveTimeout implements relay.Observer.
func (s *eventSink) ObserveTimeout() {
	s.write(eventTimeout, "", "expired")
}

// ObserveRegistration implements conversation.Observer.
func (s *eventSink) ObserveRegistration(outcome string) {
	s.write(eventRegistration, "", outcome)
}

// relayObservers fans relay.Observer calls out.
type relayObservers []relay.Observer

func (o relayObservers) ObserveBusMessage(category, outcome string) {
	for _, obs := range o {
		obs.ObserveBusMessage(category, outcome)
	}
}

func (o relayObservers) ObserveCommand(category, outcome string) {
	for _, obs := range o {
		obs.ObserveCommand(category, outcome)
	}
}

func (o relayObservers) ObserveTimeout() {
	for _, obs := range o {
		obs.ObserveTimeout()
	}
}

// conversationObservers fans conversation.Observer calls out.
type conversationObservers []conversation.Observer

func (o conversationObservers) ObserveRegistration(outcome string) {
	for _, obs := range o {
		obs.ObserveRegistration(outcome)
	}
}
