package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/irrigation-relay/internal/chat"
	"github.com/nerrad567/irrigation-relay/internal/registry"
	"github.com/nerrad567/irrigation-relay/internal/routing"
)

// Registry is the part of the identity registry the machine uses.
type Registry interface {
	Register(ctx context.Context, code registry.DeviceCode, operator registry.OperatorID) (registry.Registration, error)
	LookupDevice(ctx context.Context, operator registry.OperatorID) (registry.DeviceCode, error)
	MarkPending(ctx context.Context, operator registry.OperatorID) error
	IsPending(ctx context.Context, operator registry.OperatorID) (bool, error)
}

// Bus publishes requests to devices and manages per-device subscriptions.
type Bus interface {
	Watch(ctx context.Context, code registry.DeviceCode) error
	Unwatch(ctx context.Context, code registry.DeviceCode) error
	Request(ctx context.Context, code registry.DeviceCode, category routing.Category) error
}

// Observer is told about registration attempts.
type Observer interface {
	ObserveRegistration(outcome string)
}

// Registration outcomes reported to the Observer.
const (
	OutcomeRegistered    = "registered"
	OutcomeInvalidFormat = "invalid_format"
)

// Logger defines the logging interface used by the Machine.
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

func (noopObserver) ObserveRegistration(string) {}

// Machine is the per-operator registration state machine. It keeps no
// per-operator memory of its own and is safe for concurrent use, but inputs
// from one operator must be handled in arrival order.
type Machine struct {
	registry Registry
	bus      Bus
	logger   Logger
	observer Observer
}

// New creates a Machine.
func New(reg Registry, bus Bus) *Machine {
	return &Machine{
		registry: reg,
		bus:      bus,
		logger:   noopLogger{},
		observer: noopObserver{},
	}
}

// SetLogger sets the logger for the machine.
func (m *Machine) SetLogger(logger Logger) {
	m.logger = logger
}

// SetObserver sets the registration observer.
func (m *Machine) SetObserver(observer Observer) {
	m.observer = observer
}

// State returns the operator's current state.
func (m *Machine) State(ctx context.Context, operator registry.OperatorID) (State, error) {
	pending, err := m.registry.IsPending(ctx, operator)
	if err != nil {
		return StateIdle, fmt.Errorf("reading pending flag: %w", err)
	}
	if pending {
		return StateAwaitingCode, nil
	}
	return StateIdle, nil
}

// Handle processes one input and returns the replies for the operator.
// An error means the registry could not be read or written; the registry is
// left as it was and the caller should reply with InternalError.
func (m *Machine) Handle(ctx context.Context, in Input) ([]chat.Message, error) {
	if err := in.Operator.Validate(); err != nil {
		return nil, err
	}

	state, err := m.State(ctx, in.Operator)
	if err != nil {
		return nil, err
	}
	ev, args := Classify(in)

	m.logger.Debug("conversation input",
		"operator", in.Operator,
		"state", state.String(),
		"event", ev.String(),
	)

	switch ev {
	case EventStart:
		return reply(welcome()), nil

	case EventHelp:
		return reply(chat.Text(textHelp)), nil

	case EventRegisterIntent:
		if err := m.registry.MarkPending(ctx, in.Operator); err != nil {
			return nil, fmt.Errorf("marking pending: %w", err)
		}
		return reply(chat.Text(textCodePrompt)), nil

	case EventRegisterWithCode:
		if len(args) != 1 {
			return reply(chat.Text(textRegisterArgs)), nil
		}
		return m.register(ctx, in.Operator, args[0], textFormatError)

	case EventFreeText:
		if state != StateAwaitingCode {
			return reply(chat.Text(textIdleHint)), nil
		}
		return m.register(ctx, in.Operator, args[0], textInvalidCode)

	case EventStatus:
		return m.request(ctx, in.Operator, ev, args, routing.StatusRequest)

	case EventStartIrrigation:
		return m.request(ctx, in.Operator, ev, args, routing.IrrigationStartRequest)

	case EventStopIrrigation:
		return m.request(ctx, in.Operator, ev, args, routing.IrrigationStopRequest)

	default:
		name := "(button)"
		if len(args) > 0 {
			name = args[0]
		}
		return reply(chat.Text(fmt.Sprintf(textUnknown, name))), nil
	}
}

// register validates code and binds it to operator. On a format error it
// replies with invalidText and changes nothing.
func (m *Machine) register(ctx context.Context, operator registry.OperatorID, raw, invalidText string) ([]chat.Message, error) {
	code, err := registry.ParseDeviceCode(raw)
	if err != nil {
		m.observer.ObserveRegistration(OutcomeInvalidFormat)
		return reply(chat.Text(invalidText)), nil
	}

	reg, err := m.registry.Register(ctx, code, operator)
	if err != nil {
		return nil, err
	}
	m.observer.ObserveRegistration(OutcomeRegistered)

	if err := m.bus.Watch(ctx, code); err != nil {
		m.logger.Warn("watching device failed", "device", code, "error", err)
	}
	if reg.PreviousDevice != "" {
		if err := m.bus.Unwatch(ctx, reg.PreviousDevice); err != nil {
			m.logger.Warn("unwatching device failed", "device", reg.PreviousDevice, "error", err)
		}
	}

	return reply(registered(reg)), nil
}

// request publishes a live request for the operator's device, or for the
// device named in args when it belongs to the operator.
func (m *Machine) request(ctx context.Context, operator registry.OperatorID, ev Event, args []string, category routing.Category) ([]chat.Message, error) {
	owned, err := m.registry.LookupDevice(ctx, operator)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return reply(chat.Text(textNotRegistered)), nil
	case err != nil:
		return nil, fmt.Errorf("looking up device: %w", err)
	}

	code := owned
	if len(args) > 0 {
		named, err := registry.ParseDeviceCode(args[0])
		if err != nil || len(args) > 1 {
			return reply(chat.Text(textFormatError)), nil
		}
		if named != owned {
			return reply(notYourDevice(named)), nil
		}
		code = named
	}

	if err := m.bus.Request(ctx, code, category); err != nil {
		m.logger.Warn("publishing request failed", "device", code, "category", category.String(), "error", err)
		return reply(busUnavailable(code)), nil
	}
	return reply(requestSent(ev, code)), nil
}

func reply(msgs ...chat.Message) []chat.Message {
	return msgs
}
