package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"watson-dash/pkg/fault"
	"watson-dash/pkg/model"
	"watson-dash/pkg/status"
)

// maxPayload bounds the caller body accepted by the forward routes.
const maxPayload = 1 << 20

// ForwardError is returned when the relay did not accept the action.
// Status is "error" for a non-200 answer and "failed" for a transport failure.
type ForwardError struct {
	Status   string `json:"status"`
	ID       string `json:"id"`
	Code     int    `json:"code,omitempty"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

func registerForwardRoutes(mux *http.ServeMux, d Deps, authn authenticator) {
	mux.HandleFunc("/api/gpt/create-action", forwardHandler(d, authn, status.EventGPTAction))
	mux.HandleFunc("/api/gnis/sync", forwardHandler(d, authn, status.EventGNISSync))
}

func forwardHandler(d Deps, authn authenticator, eventType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := authn(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayload+1))
		if err != nil {
			http.Error(w, "failed to read payload", http.StatusBadRequest)
			return
		}
		if len(raw) > maxPayload {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			raw = []byte("{}")
		}
		if !json.Valid(raw) {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		res := d.Aggregator.Forward(r.Context(), eventType, json.RawMessage(raw))
		rec := model.ActionRecord{
			ID:         uuid.NewString(),
			EnvelopeID: res.Envelope.ID,
			EventType:  eventType,
			Status:     res.Status(),
			Code:       res.Code(),
			CreatedAt:  time.Now(),
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		journal(d, r, actor, rec)

		if res.Err == nil {
			writeRawJSON(w, http.StatusOK, res.Body)
			return
		}
		out := ForwardError{Status: rec.Status, ID: rec.EnvelopeID}
		var fe *fault.Error
		if rec.Status == model.ActionError && errors.As(res.Err, &fe) {
			out.Code = fe.Code
			out.Response = fe.Body
		} else {
			out.Error = res.Err.Error()
		}
		writeJSON(w, http.StatusBadGateway, out)
	}
}

// journal records the attempt and notifies dashboard subscribers. Journal
// failures are logged and do not change the response.
func journal(d Deps, r *http.Request, actor string, rec model.ActionRecord) {
	if err := d.Store.RecordAction(rec); err != nil {
		d.Logger.Error("journal action failed", zap.String("id", rec.ID), zap.Error(err))
	}
	if err := d.Store.AppendAudit(model.AuditEntry{
		Actor:     actor,
		Action:    "forward",
		Target:    rec.EventType,
		Detail:    rec.EnvelopeID + " " + rec.Status,
		RemoteIP:  remoteIP(r),
		Timestamp: rec.CreatedAt,
	}); err != nil {
		d.Logger.Error("audit append failed", zap.Error(err))
	}
	if d.Hub != nil {
		d.Hub.Broadcast(Event{Type: EventAction, Payload: rec})
	}
}
