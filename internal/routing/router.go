package routing

import (
	"fmt"
	"strings"

	"github.com/nerrad567/irrigation-relay/internal/infrastructure/config"
	"github.com/nerrad567/irrigation-relay/internal/registry"
)

// Scope selects the topic layout.
type Scope string

// Topic scopes.
const (
	ScopeDevice Scope = config.ScopeDevice
	ScopeGlobal Scope = config.ScopeGlobal
)

// Route is the result of classifying an inbound topic.
type Route struct {
	Category Category

	// DeviceCode is taken from the topic in device scope and is empty in
	// global scope, where the payload carries it.
	DeviceCode registry.DeviceCode
}

// Router builds and parses bus topics. It is immutable and safe for
// concurrent use.
type Router struct {
	prefix string
	scope  Scope
}

// New creates a Router from the mqtt.topics configuration.
func New(cfg config.MQTTTopicsConfig) (*Router, error) {
	prefix := strings.TrimSuffix(cfg.Prefix, "/")
	if prefix == "" || strings.ContainsAny(prefix, "+#") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, cfg.Prefix)
	}

	scope := Scope(cfg.Scope)
	switch scope {
	case ScopeDevice, ScopeGlobal:
	case "":
		scope = ScopeDevice
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, cfg.Scope)
	}

	return &Router{prefix: prefix, scope: scope}, nil
}

// Scope returns the router's topic scope.
func (r *Router) Scope() Scope { return r.scope }

// Prefix returns the topic prefix without a trailing slash.
func (r *Router) Prefix() string { return r.prefix }

// TopicFor returns the topic for category. In device scope code must be a
// valid device code; in global scope it is ignored.
func (r *Router) TopicFor(category Category, code registry.DeviceCode) (string, error) {
	segment := category.Segment()
	if segment == "" {
		return "", fmt.Errorf("routing: unknown category %d", int(category))
	}

	if r.scope == ScopeGlobal {
		return r.prefix + "/" + segment, nil
	}

	if code.Validate() != nil {
		return "", fmt.Errorf("%w: %q", ErrDeviceCodeRequired, string(code))
	}
	return r.prefix + "/" + string(code) + "/" + segment, nil
}

// SubscribeDeviceTopics returns the response topics for code in device
// scope, or nil in global scope and for an invalid code.
func (r *Router) SubscribeDeviceTopics(code registry.DeviceCode) []string {
	if r.scope != ScopeDevice {
		return nil
	}
	return r.topics(ResponseCategories(), code)
}

// RequestTopics returns the request topics a device listens on. The device
// simulator subscribes to these.
func (r *Router) RequestTopics(code registry.DeviceCode) []string {
	return r.topics(RequestCategories(), code)
}

// ResponseTopics returns the shared response topics in global scope, or nil
// in device scope.
func (r *Router) ResponseTopics() []string {
	if r.scope != ScopeGlobal {
		return nil
	}
	return r.topics(ResponseCategories(), "")
}

func (r *Router) topics(categories []Category, code registry.DeviceCode) []string {
	topics := make([]string, 0, len(categories))
	for _, c := range categories {
		t, err := r.TopicFor(c, code)
		if err != nil {
			return nil
		}
		topics = append(topics, t)
	}
	return topics
}

// Classify maps an inbound topic back to its category and, in device scope,
// the device code embedded in it.
func (r *Router) Classify(topic string) (Route, error) {
	rest, ok := strings.CutPrefix(topic, r.prefix+"/")
	if !ok {
		return Route{}, fmt.Errorf("%w: %q", ErrUnrecognized, topic)
	}

	var route Route
	if r.scope == ScopeDevice {
		code, segment, found := strings.Cut(rest, "/")
		if !found || registry.DeviceCode(code).Validate() != nil {
			return Route{}, fmt.Errorf("%w: %q", ErrUnrecognized, topic)
		}
		route.DeviceCode = registry.DeviceCode(code)
		rest = segment
	}

	category, ok := segmentCategories[rest]
	if !ok {
		return Route{}, fmt.Errorf("%w: %q", ErrUnrecognized, topic)
	}
	route.Category = category
	return route, nil
}
