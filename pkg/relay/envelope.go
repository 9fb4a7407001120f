package relay

import (
	"encoding/json"
	"strconv"
	"time"

	"watson-dash/pkg/model"
)

// Source is stamped into every envelope's metadata.
const Source = "watson-dash"

// NewEnvelope wraps payload for the relay. The id is derived from now, so a
// caller retrying the same payload produces a distinct remote record.
func NewEnvelope(eventType string, payload json.RawMessage, platform, version string, now time.Time) model.ActionEnvelope {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return model.ActionEnvelope{
		EventType: eventType,
		ID:        eventType + "-" + strconv.FormatInt(now.UnixNano(), 10),
		Timestamp: now.UTC(),
		Metadata: model.ActionMetadata{
			Source:   Source,
			Platform: platform,
			Version:  version,
		},
		Payload: payload,
	}
}
