package notify

import (
	"context"
	"errors"

	"github.com/nerrad567/irrigation-relay/internal/chat"
	"github.com/nerrad567/irrigation-relay/internal/event"
	"github.com/nerrad567/irrigation-relay/internal/registry"
)

// Resolver finds the operator registered for a device.
type Resolver interface {
	LookupEndpoint(ctx context.Context, code registry.DeviceCode) (registry.OperatorID, error)
}

// Sender hands a message to the chat transport.
type Sender interface {
	Send(ctx context.Context, to registry.OperatorID, msg chat.Message) error
}

// Observer is told about every delivery outcome.
type Observer interface {
	ObserveDelivery(kind, device, result string)
}

// Observers fans one outcome out to several observers.
type Observers []Observer

// ObserveDelivery implements Observer.
func (o Observers) ObserveDelivery(kind, device, result string) {
	for _, obs := range o {
		obs.ObserveDelivery(kind, device, result)
	}
}

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopObserver struct{}

func (noopObserver) ObserveDelivery(string, string, string) {}

// Dispatcher resolves the recipient of a device message and sends it.
// It is safe for concurrent use when its Resolver and Sender are.
type Dispatcher struct {
	resolver Resolver
	sender   Sender
	logger   Logger
	observer Observer
}

// New creates a Dispatcher.
func New(resolver Resolver, sender Sender) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		sender:   sender,
		logger:   noopLogger{},
		observer: noopObserver{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// SetObserver sets the delivery observer.
func (d *Dispatcher) SetObserver(observer Observer) {
	d.observer = observer
}

// DeliverReport sends a formatted sensor report to the device's operator.
func (d *Dispatcher) DeliverReport(ctx context.Context, report event.SensorReport) Result {
	return d.deliver(ctx, KindReport, report.DeviceCode, chat.Text(FormatReport(report)))
}

// DeliverAck sends a start/stop acknowledgement to the device's operator.
func (d *Dispatcher) DeliverAck(ctx context.Context, code registry.DeviceCode, action event.Action, ack event.Ack) Result {
	return d.deliver(ctx, KindAck, code, chat.Text(FormatAck(action, ack)))
}

// DeliverNotice sends free text about a device to its operator.
func (d *Dispatcher) DeliverNotice(ctx context.Context, code registry.DeviceCode, text string) Result {
	return d.deliver(ctx, KindNotice, code, chat.Text(text))
}

func (d *Dispatcher) deliver(ctx context.Context, kind string, code registry.DeviceCode, msg chat.Message) Result {
	result := d.send(ctx, kind, code, msg)
	d.observer.ObserveDelivery(kind, string(code), result.String())
	return result
}

func (d *Dispatcher) send(ctx context.Context, kind string, code registry.DeviceCode, msg chat.Message) Result {
	operator, err := d.resolver.LookupEndpoint(ctx, code)
	if errors.Is(err, registry.ErrNotFound) {
		d.logger.Info("no operator registered for device, dropping", "kind", kind, "device", code)
		return NoRecipient
	}
	if err != nil {
		d.logger.Error("resolving operator failed", "kind", kind, "device", code, "error", err)
		return DeliveryFailed
	}

	if err := d.sender.Send(ctx, operator, msg); err != nil {
		d.logger.Error("delivery failed", "kind", kind, "device", code, "operator", operator, "error", err)
		return DeliveryFailed
	}

	d.logger.Debug("delivered", "kind", kind, "device", code, "operator", operator)
	return Delivered
}
