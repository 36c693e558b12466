package audit

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/irrigation-relay/internal/registry"
)

// SourceChat marks entries caused by operator chat commands.
const SourceChat = "chat"

// Recorder turns registry registrations into audit entries.
// It satisfies registry.Auditor.
type Recorder struct {
	repo   Repository
	source string
	now    func() time.Time
}

// NewRecorder creates a Recorder writing to repo.
func NewRecorder(repo Repository, source string) *Recorder {
	return &Recorder{repo: repo, source: source, now: time.Now}
}

// RecordRegistration writes one entry for the new binding plus one for each
// side effect. All entries share a timestamp.
func (r *Recorder) RecordRegistration(ctx context.Context, reg registry.Registration) error {
	at := r.now().UTC()

	details := map[string]any{}
	if reg.PreviousDevice != "" {
		details["previous_device"] = string(reg.PreviousDevice)
	}
	if reg.DisplacedOperator != "" {
		details["displaced_operator"] = string(reg.DisplacedOperator)
	}

	entries := []*Entry{{
		Action:     ActionRegister,
		EntityType: EntityDevice,
		EntityID:   string(reg.Device),
		Operator:   string(reg.Operator),
		Details:    details,
	}}
	if reg.PreviousDevice != "" {
		entries = append(entries, &Entry{
			Action:     ActionRelease,
			EntityType: EntityDevice,
			EntityID:   string(reg.PreviousDevice),
			Operator:   string(reg.Operator),
		})
	}
	if reg.DisplacedOperator != "" {
		entries = append(entries, &Entry{
			Action:     ActionDisplace,
			EntityType: EntityDevice,
			EntityID:   string(reg.Device),
			Operator:   string(reg.DisplacedOperator),
			Details:    map[string]any{"new_operator": string(reg.Operator)},
		})
	}

	var errs []error
	for _, e := range entries {
		e.Source = r.source
		e.CreatedAt = at
		if err := r.repo.Create(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
