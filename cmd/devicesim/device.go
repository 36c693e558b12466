package main

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/nerrad567/irrigation-relay/internal/event"
	"github.com/nerrad567/irrigation-relay/internal/registry"
	"github.com/nerrad567/irrigation-relay/internal/routing"
)

// Publisher is the bus side the simulated device answers on.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface used by the Device.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Device simulates one ESP32 irrigation controller. Readings drift a little
// on every report; irrigation raises soil moisture.
type Device struct {
	code   registry.DeviceCode
	router *routing.Router
	pub    Publisher
	qos    byte
	logger Logger

	mu         sync.Mutex
	irrigating bool
	airTemp    float64
	humidity   float64
	soil       float64
	water      float64
	rng        *rand.Rand
}

// NewDevice creates a simulated device with plausible starting readings.
func NewDevice(code registry.DeviceCode, router *routing.Router, pub Publisher, qos byte, logger Logger, seed uint64) *Device {
	return &Device{
		code:     code,
		router:   router,
		pub:      pub,
		qos:      qos,
		logger:   logger,
		airTemp:  22.5,
		humidity: 45,
		soil:     30,
		water:    80,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// ranges are the bounds the simulated firmware is configured with.
var ranges = event.Ranges{
	MinAirTemp:      18,
	MaxAirTemp:      30,
	MinAirHumidity:  30,
	MaxAirHumidity:  60,
	MinSoilMoisture: 25,
}

// HandleRequest answers one request message. It is an mqtt.MessageHandler.
func (d *Device) HandleRequest(topic string, payload []byte) error {
	route, err := d.router.Classify(topic)
	if err != nil {
		return err
	}
	if !route.Category.IsRequest() {
		return nil
	}

	cmd, err := event.DecodeCommand(payload)
	if err != nil {
		return err
	}
	// Global topics carry every device's requests.
	if cmd.DeviceCode != d.code {
		return nil
	}

	d.logger.Info("request received", "category", route.Category.String(), "request_id", cmd.RequestID)

	switch route.Category {
	case routing.StatusRequest:
		return d.publishReport(cmd.RequestID)
	case routing.IrrigationStartRequest:
		return d.publishAck(route.Category.ResponseFor(), cmd.RequestID, true)
	case routing.IrrigationStopRequest:
		return d.publishAck(route.Category.ResponseFor(), cmd.RequestID, false)
	}
	return nil
}

// PublishReport sends an unsolicited status report.
func (d *Device) PublishReport() error {
	return d.publishReport("")
}

func (d *Device) publishReport(requestID string) error {
	report := d.sample()
	report.RequestID = requestID

	payload, err := event.EncodeReport(report)
	if err != nil {
		return err
	}
	return d.publish(routing.StatusResponse, payload)
}

func (d *Device) publishAck(category routing.Category, requestID string, start bool) error {
	d.mu.Lock()
	ack := event.Ack{DeviceCode: d.code, Success: true, RequestID: requestID}
	switch {
	case start && d.irrigating:
		ack.Success = false
		ack.Message = "already irrigating"
	case start && d.water <= 5:
		ack.Success = false
		ack.Message = "water tank empty"
	default:
		d.irrigating = start
	}
	state := d.irrigating
	ack.IsIrrigating = &state
	d.mu.Unlock()

	payload, err := event.EncodeAck(ack)
	if err != nil {
		return err
	}
	return d.publish(category, payload)
}

func (d *Device) publish(category routing.Category, payload []byte) error {
	topic, err := d.router.TopicFor(category, d.code)
	if err != nil {
		return err
	}
	if err := d.pub.Publish(topic, payload, d.qos, false); err != nil {
		return fmt.Errorf("publishing %s: %w", category, err)
	}
	return nil
}

// sample advances the simulated readings by one step.
func (d *Device) sample() event.SensorReport {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.airTemp = clamp(d.airTemp+d.jitter(0.5), 5, 40)
	d.humidity = clamp(d.humidity+d.jitter(2), 10, 90)
	if d.irrigating {
		d.soil = clamp(d.soil+3, 0, 100)
		d.water = clamp(d.water-2, 0, 100)
		if d.water == 0 {
			d.irrigating = false
		}
	} else {
		d.soil = clamp(d.soil-0.5+d.jitter(0.3), 0, 100)
	}

	water := round1(d.water)
	return event.SensorReport{
		DeviceCode:   d.code,
		AirTemp:      round1(d.airTemp),
		AirHumidity:  round1(d.humidity),
		SoilMoisture: round1(d.soil),
		WaterLevel:   &water,
		Ranges:       ranges,
		IsIrrigating: d.irrigating,
	}
}

func (d *Device) jitter(span float64) float64 {
	return (d.rng.Float64()*2 - 1) * span
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
