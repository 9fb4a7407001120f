package status

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"watson-dash/pkg/fault"
	"watson-dash/pkg/model"
	"watson-dash/pkg/relay"
)

// Event types accepted by the forward routes.
const (
	EventGPTAction = "gpt_action"
	EventGNISSync  = "gnis_sync"
)

// ForwardResult is the outcome of one forward attempt. Exactly one of Body
// and Err is set.
type ForwardResult struct {
	Envelope model.ActionEnvelope
	Body     json.RawMessage
	Err      error
}

// Status maps the outcome to the journal status.
func (r ForwardResult) Status() string {
	if r.Err == nil {
		return model.ActionForwarded
	}
	if kind, _ := fault.KindOf(r.Err); kind == fault.RemoteError {
		return model.ActionError
	}
	return model.ActionFailed
}

// Code returns the remote status code for RemoteError outcomes, else zero.
func (r ForwardResult) Code() int {
	var fe *fault.Error
	if asFault(r.Err, &fe) {
		return fe.Code
	}
	return 0
}

// Forward wraps payload in an envelope and posts it to the relay once.
func (a *Aggregator) Forward(ctx context.Context, eventType string, payload json.RawMessage) ForwardResult {
	env := relay.NewEnvelope(eventType, payload, a.platform, a.version, a.now())
	res := ForwardResult{Envelope: env}
	if a.relay == nil {
		res.Err = fault.New(fault.Unreachable, "relay forward", relay.ErrNotConfigured)
	} else {
		res.Body, res.Err = a.relay.Forward(ctx, env)
	}
	if res.Err != nil {
		a.log.Warn("action forward failed",
			zap.String("event", eventType),
			zap.String("id", env.ID),
			zap.String("result", res.Status()),
			zap.Error(res.Err),
		)
		return res
	}
	a.log.Info("action forwarded", zap.String("event", eventType), zap.String("id", env.ID))
	return res
}

func asFault(err error, target **fault.Error) bool {
	return err != nil && errors.As(err, target)
}
