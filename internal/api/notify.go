package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/nerrad567/irrigation-relay/internal/event"
	"github.com/nerrad567/irrigation-relay/internal/notify"
	"github.com/nerrad567/irrigation-relay/internal/registry"
)

// handleNotify accepts a sensor report pushed by a device over HTTP and
// forwards it to the owning operator.
//
// The device code is checked against the registry before the full body is
// decoded, so an unknown device is reported as unregistered even when the
// remaining fields are incomplete.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, msgInvalidPayload)
		return
	}

	code, err := event.PeekDeviceCode(body)
	if err != nil {
		s.logger.Debug("notify rejected", "reason", "device code", "error", err)
		writeBadRequest(w, msgInvalidPayload)
		return
	}
	tagDevice(r.Context(), code)

	if _, err := s.registry.LookupEndpoint(r.Context(), code); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeBadRequest(w, msgNotRegistered)
			return
		}
		s.logger.Error("registry lookup failed", "device", code, "error", err)
		writeInternalError(w, msgInternal)
		return
	}

	report, err := event.DecodeSensorReport(body)
	if err != nil {
		s.logger.Debug("notify rejected", "device", code, "error", err)
		writeBadRequest(w, msgInvalidPayload)
		return
	}

	switch s.dispatcher.DeliverReport(r.Context(), report) {
	case notify.Delivered:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case notify.NoRecipient:
		// Binding removed between lookup and delivery.
		writeBadRequest(w, msgNotRegistered)
	default:
		writeInternalError(w, msgSendFailed)
	}
}
