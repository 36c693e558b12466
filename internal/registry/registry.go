package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
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

// Auditor is told about every committed registration. Its errors are
// logged and never undo the registration.
type Auditor interface {
	RecordRegistration(ctx context.Context, reg Registration) error
}

// Registry is the bidirectional device/operator mapping plus the set of
// operators with a registration in progress.
//
// Every mutation runs as one store transaction and mutations are serialised
// by an internal mutex, so readers never observe one direction of a binding
// without the other. All public methods are safe for concurrent use.
type Registry struct {
	store   Store
	mu      sync.Mutex // serialises mutations
	logger  Logger
	auditor Auditor
}

// New creates a Registry over store.
func New(store Store) *Registry {
	return &Registry{
		store:  store,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetAuditor sets the registration audit hook. Call before use.
func (r *Registry) SetAuditor(auditor Auditor) {
	r.auditor = auditor
}

// Register binds code to operator, last write wins in both directions.
//
// The operator's previous device (if any) loses its reverse entry, the
// operator previously holding code (if any) loses its binding, and the
// operator's pending flag is cleared, all in one transaction. A malformed
// code returns ErrInvalidFormat and leaves the registry untouched.
func (r *Registry) Register(ctx context.Context, code DeviceCode, operator OperatorID) (Registration, error) {
	if err := code.Validate(); err != nil {
		return Registration{}, err
	}
	if err := operator.Validate(); err != nil {
		return Registration{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result := Registration{Device: code, Operator: operator}

	err := r.store.Update(ctx, func(tx Tx) error {
		prevDevice, err := getOptional(tx, BucketOperators, string(operator))
		if err != nil {
			return err
		}
		prevOperator, err := getOptional(tx, BucketDevices, string(code))
		if err != nil {
			return err
		}

		if prevDevice != "" && prevDevice != string(code) {
			// Only drop the reverse key if it still points at this operator.
			owner, err := getOptional(tx, BucketDevices, prevDevice)
			if err != nil {
				return err
			}
			if owner == string(operator) {
				if err := tx.Delete(BucketDevices, prevDevice); err != nil {
					return err
				}
			}
			result.PreviousDevice = DeviceCode(prevDevice)
		}

		if prevOperator != "" && prevOperator != string(operator) {
			held, err := getOptional(tx, BucketOperators, prevOperator)
			if err != nil {
				return err
			}
			if held == string(code) {
				if err := tx.Delete(BucketOperators, prevOperator); err != nil {
					return err
				}
			}
			result.DisplacedOperator = OperatorID(prevOperator)
		}

		if err := tx.Put(BucketDevices, string(code), string(operator)); err != nil {
			return err
		}
		if err := tx.Put(BucketOperators, string(operator), string(code)); err != nil {
			return err
		}
		return tx.Delete(BucketPending, string(operator))
	})
	if err != nil {
		return Registration{}, fmt.Errorf("registering %s: %w", code, err)
	}

	r.logger.Info("device registered",
		"device", code,
		"operator", operator,
		"previous_device", result.PreviousDevice,
		"displaced_operator", result.DisplacedOperator,
	)
	if r.auditor != nil {
		if err := r.auditor.RecordRegistration(ctx, result); err != nil {
			r.logger.Warn("audit record failed", "device", code, "error", err)
		}
	}
	return result, nil
}

// LookupEndpoint returns the operator bound to code, or ErrNotFound.
func (r *Registry) LookupEndpoint(ctx context.Context, code DeviceCode) (OperatorID, error) {
	var operator string
	err := r.store.View(ctx, func(tx Tx) error {
		var err error
		operator, err = tx.Get(BucketDevices, string(code))
		return err
	})
	if err != nil {
		return "", err
	}
	return OperatorID(operator), nil
}

// LookupDevice returns the device bound to operator, or ErrNotFound.
func (r *Registry) LookupDevice(ctx context.Context, operator OperatorID) (DeviceCode, error) {
	var code string
	err := r.store.View(ctx, func(tx Tx) error {
		var err error
		code, err = tx.Get(BucketOperators, string(operator))
		return err
	})
	if err != nil {
		return "", err
	}
	return DeviceCode(code), nil
}

// MarkPending records that operator has started a registration and is
// expected to send a device code next. Marking twice is harmless.
func (r *Registry) MarkPending(ctx context.Context, operator OperatorID) error {
	if err := operator.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.store.Update(ctx, func(tx Tx) error {
		return tx.Put(BucketPending, string(operator), time.Now().UTC().Format(time.RFC3339))
	})
}

// IsPending reports whether operator has a registration in progress.
func (r *Registry) IsPending(ctx context.Context, operator OperatorID) (bool, error) {
	var pending bool
	err := r.store.View(ctx, func(tx Tx) error {
		_, err := tx.Get(BucketPending, string(operator))
		switch {
		case err == nil:
			pending = true
		case errors.Is(err, ErrNotFound):
		default:
			return err
		}
		return nil
	})
	return pending, err
}

// ClearPending removes operator's pending flag, if any.
func (r *Registry) ClearPending(ctx context.Context, operator OperatorID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.store.Update(ctx, func(tx Tx) error {
		return tx.Delete(BucketPending, string(operator))
	})
}

// Devices returns every registered device code in ascending order.
func (r *Registry) Devices(ctx context.Context) ([]DeviceCode, error) {
	var codes []DeviceCode
	err := r.store.View(ctx, func(tx Tx) error {
		keys, err := tx.Keys(BucketDevices)
		if err != nil {
			return err
		}
		codes = make([]DeviceCode, 0, len(keys))
		for _, k := range keys {
			codes = append(codes, DeviceCode(k))
		}
		return nil
	})
	return codes, err
}

// Count returns the number of registered devices.
func (r *Registry) Count(ctx context.Context) (int, error) {
	codes, err := r.Devices(ctx)
	return len(codes), err
}

// getOptional is tx.Get with ErrNotFound mapped to "".
func getOptional(tx Tx, bucket Bucket, key string) (string, error) {
	v, err := tx.Get(bucket, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
