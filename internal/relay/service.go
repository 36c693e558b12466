package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/irrigation-relay/internal/event"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/mqtt"
	"github.com/nerrad567/irrigation-relay/internal/notify"
	"github.com/nerrad567/irrigation-relay/internal/registry"
	"github.com/nerrad567/irrigation-relay/internal/routing"
)

// Bus is the publish/subscribe client. *mqtt.Client satisfies it.
type Bus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Dispatcher delivers decoded device messages. *notify.Dispatcher
// satisfies it.
type Dispatcher interface {
	DeliverReport(ctx context.Context, report event.SensorReport) notify.Result
	DeliverAck(ctx context.Context, code registry.DeviceCode, action event.Action, ack event.Ack) notify.Result
	DeliverNotice(ctx context.Context, code registry.DeviceCode, text string) notify.Result
}

// DeviceLister lists registered devices so their subscriptions can be
// restored at startup.
type DeviceLister interface {
	Devices(ctx context.Context) ([]registry.DeviceCode, error)
}

// Observer is told about bus traffic.
type Observer interface {
	ObserveBusMessage(category, outcome string)
	ObserveCommand(category, outcome string)
	ObserveTimeout()
}

// Bus message outcomes reported to the Observer. Delivered messages report
// the notify.Result name instead.
const (
	OutcomeUnrecognized = "unrecognized"
	OutcomeIgnored      = "ignored"
	OutcomeDuplicate    = "duplicate"
	OutcomeMalformed    = "malformed"
	OutcomePublished    = "published"
	OutcomeFailed       = "failed"
)

// Logger defines the logging interface used by the Service.
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

func (noopObserver) ObserveBusMessage(string, string) {}
func (noopObserver) ObserveCommand(string, string)    {}
func (noopObserver) ObserveTimeout()                  {}

// Options tunes a Service.
type Options struct {
	// QoS for publishes and subscriptions.
	QoS byte

	// ResponseTimeout enables timeout notices when positive.
	ResponseTimeout time.Duration

	// DedupTTL is how long a (topic, request_id) pair is remembered.
	DedupTTL time.Duration
}

// Service runs the bus side of the relay.
type Service struct {
	bus        Bus
	router     *routing.Router
	dispatcher Dispatcher
	devices    DeviceLister
	opts       Options

	logger   Logger
	observer Observer
	dedup    *deduper
	tracker  *tracker
	now      func() time.Time

	mu      sync.Mutex
	watched map[registry.DeviceCode]struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	started bool

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a Service. Call Start before use.
func New(bus Bus, router *routing.Router, dispatcher Dispatcher, devices DeviceLister, opts Options) *Service {
	return &Service{
		bus:        bus,
		router:     router,
		dispatcher: dispatcher,
		devices:    devices,
		opts:       opts,
		logger:     noopLogger{},
		observer:   noopObserver{},
		dedup:      newDeduper(opts.DedupTTL, 0),
		tracker:    newTracker(),
		now:        time.Now,
		watched:    make(map[registry.DeviceCode]struct{}),
		ctx:        context.Background(),
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// SetObserver sets the traffic observer.
func (s *Service) SetObserver(observer Observer) {
	s.observer = observer
}

// Start subscribes the response topics and, when a response timeout is
// configured, starts the timeout sweeper. In device scope every device
// already in the registry is watched.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("relay: already started")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	switch s.router.Scope() {
	case routing.ScopeGlobal:
		if err := s.subscribe(s.router.ResponseTopics()); err != nil {
			return err
		}
	default:
		codes, err := s.devices.Devices(ctx)
		if err != nil {
			return fmt.Errorf("listing registered devices: %w", err)
		}
		for _, code := range codes {
			if err := s.Watch(ctx, code); err != nil {
				s.logger.Warn("restoring device subscription failed", "device", code, "error", err)
			}
		}
		s.logger.Info("device subscriptions restored", "devices", len(codes))
	}

	if s.opts.ResponseTimeout > 0 {
		s.wg.Add(1)
		go s.sweep()
	}

	s.logger.Info("relay started",
		"scope", string(s.router.Scope()),
		"response_timeout", s.opts.ResponseTimeout.String(),
	)
	return nil
}

// Stop unsubscribes every topic and stops the sweeper. It is safe to call
// more than once; only the first call has an effect.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		codes := make([]registry.DeviceCode, 0, len(s.watched))
		for code := range s.watched {
			codes = append(codes, code)
		}
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		s.wg.Wait()

		for _, code := range codes {
			if err := s.Unwatch(context.Background(), code); err != nil {
				s.logger.Warn("unwatching device failed", "device", code, "error", err)
			}
		}
		for _, topic := range s.router.ResponseTopics() {
			if err := s.bus.Unsubscribe(topic); err != nil {
				s.logger.Warn("unsubscribing failed", "topic", topic, "error", err)
			}
		}
		s.logger.Info("relay stopped")
	})
}

// Watch subscribes the response topics for code. It is a no-op in global
// scope. The code stays watched even when a subscription fails, so
// Resubscribe retries it and Stop removes it.
func (s *Service) Watch(_ context.Context, code registry.DeviceCode) error {
	topics := s.router.SubscribeDeviceTopics(code)
	if topics == nil {
		return nil
	}

	s.mu.Lock()
	s.watched[code] = struct{}{}
	s.mu.Unlock()

	return s.subscribe(topics)
}

// Resubscribe subscribes every watched topic again. Call it after the bus
// reconnects so devices watched while it was down start receiving.
func (s *Service) Resubscribe(_ context.Context) error {
	s.mu.Lock()
	stopped := s.started && s.ctx.Err() != nil
	s.mu.Unlock()
	if stopped {
		return nil
	}

	if s.router.Scope() == routing.ScopeGlobal {
		return s.subscribe(s.router.ResponseTopics())
	}

	s.mu.Lock()
	codes := make([]registry.DeviceCode, 0, len(s.watched))
	for code := range s.watched {
		codes = append(codes, code)
	}
	s.mu.Unlock()

	var errs []error
	for _, code := range codes {
		if err := s.subscribe(s.router.SubscribeDeviceTopics(code)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(codes) > 0 {
		s.logger.Info("device subscriptions renewed", "devices", len(codes))
	}
	return errors.Join(errs...)
}

// subscribe tries every topic and reports all failures.
func (s *Service) subscribe(topics []string) error {
	var errs []error
	for _, topic := range topics {
		if err := s.bus.Subscribe(topic, s.opts.QoS, s.handleMessage); err != nil {
			errs = append(errs, fmt.Errorf("subscribing %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}

// Unwatch removes the response subscriptions for code. It is a no-op in
// global scope.
func (s *Service) Unwatch(_ context.Context, code registry.DeviceCode) error {
	topics := s.router.SubscribeDeviceTopics(code)
	if topics == nil {
		return nil
	}

	s.mu.Lock()
	delete(s.watched, code)
	s.mu.Unlock()

	var errs []error
	for _, topic := range topics {
		if err := s.bus.Unsubscribe(topic); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribing %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}

// Request publishes a command for category to code and tracks the
// expected response.
func (s *Service) Request(_ context.Context, code registry.DeviceCode, category routing.Category) error {
	if !category.IsRequest() {
		return fmt.Errorf("relay: %s is not a request category", category)
	}

	cmd, err := event.NewCommand(code, actionFor(category), nil)
	if err != nil {
		return err
	}
	topic, err := s.router.TopicFor(category, code)
	if err != nil {
		return err
	}
	payload, err := cmd.Encode()
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}

	if err := s.bus.Publish(topic, payload, s.opts.QoS, false); err != nil {
		s.observer.ObserveCommand(category.String(), OutcomeFailed)
		return err
	}
	s.observer.ObserveCommand(category.String(), OutcomePublished)

	if s.opts.ResponseTimeout > 0 {
		s.tracker.track(code, category.ResponseFor(), cmd.RequestID, s.now().Add(s.opts.ResponseTimeout))
	}

	s.logger.Info("command published",
		"device", code,
		"category", category.String(),
		"request_id", cmd.RequestID,
	)
	return nil
}

// handleMessage is the bus handler for every response topic. Bad input is
// logged and dropped, so it never returns an error.
func (s *Service) handleMessage(topic string, payload []byte) error {
	route, err := s.router.Classify(topic)
	if err != nil {
		s.observer.ObserveBusMessage(routing.CategoryUnknown.String(), OutcomeUnrecognized)
		s.logger.Debug("dropping message on unrecognized topic", "topic", topic)
		return nil
	}
	category := route.Category

	if !category.IsResponse() {
		s.observer.ObserveBusMessage(category.String(), OutcomeIgnored)
		return nil
	}

	if id := event.PeekRequestID(payload); id != "" && !s.dedup.shouldProcess(topic+"|"+id) {
		s.observer.ObserveBusMessage(category.String(), OutcomeDuplicate)
		s.logger.Debug("dropping redelivered message", "topic", topic, "request_id", id)
		return nil
	}

	ctx := s.context()

	var (
		code      registry.DeviceCode
		requestID string
		deliver   func() notify.Result
	)
	switch category {
	case routing.StatusResponse:
		report, err := event.DecodeSensorReport(payload)
		if err != nil {
			return s.dropMalformed(topic, category, err)
		}
		code, requestID = report.DeviceCode, report.RequestID
		deliver = func() notify.Result { return s.dispatcher.DeliverReport(ctx, report) }
	default:
		ack, err := event.DecodeAck(payload)
		if err != nil {
			return s.dropMalformed(topic, category, err)
		}
		code, requestID = ack.DeviceCode, ack.RequestID
		deliver = func() notify.Result { return s.dispatcher.DeliverAck(ctx, ack.DeviceCode, actionFor(category), ack) }
	}

	if route.DeviceCode != "" && route.DeviceCode != code {
		return s.dropMalformed(topic, category,
			fmt.Errorf("%w: esp_code %s does not match topic", event.ErrMalformedPayload, code))
	}

	s.tracker.resolve(code, category, requestID)
	result := deliver()
	s.observer.ObserveBusMessage(category.String(), result.String())
	return nil
}

func (s *Service) dropMalformed(topic string, category routing.Category, err error) error {
	s.observer.ObserveBusMessage(category.String(), OutcomeMalformed)
	s.logger.Warn("dropping malformed message", "topic", topic, "error", err)
	return nil
}

func (s *Service) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// sweep notifies operators about requests that timed out.
func (s *Service) sweep() {
	defer s.wg.Done()

	interval := s.opts.ResponseTimeout / 2
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx := s.context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, p := range s.tracker.expired(s.now()) {
				s.observer.ObserveTimeout()
				s.logger.Warn("device did not answer",
					"device", p.code,
					"category", p.response.String(),
					"request_id", p.requestID,
				)
				s.dispatcher.DeliverNotice(ctx, p.code, notify.FormatTimeout(p.code, actionFor(p.response)))
			}
		}
	}
}

// actionFor maps a request or response category to its command action.
func actionFor(category routing.Category) event.Action {
	switch category {
	case routing.IrrigationStartRequest, routing.IrrigationStartResponse:
		return event.ActionStartIrrigation
	case routing.IrrigationStopRequest, routing.IrrigationStopResponse:
		return event.ActionStopIrrigation
	default:
		return event.ActionStatus
	}
}
