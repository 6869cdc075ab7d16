package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/fatflowers/memberhub/pkg/types"
)

// webhookRequest is the provider's delivery envelope.
type webhookRequest struct {
	APIVersion string              `json:"api_version"`
	Event      *types.WebhookEvent `json:"event"`
}

// ParseEvent decodes a raw, already-authenticated request body. It
// accepts both the enveloped form ({"event": {...}}) and a bare event
// object, which some provider sandboxes send. An event without an id or
// type cannot be keyed in the dedupe log and is malformed.
func ParseEvent(raw []byte) (*types.WebhookEvent, error) {
	var req webhookRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	ev := req.Event
	if ev == nil {
		var bare types.WebhookEvent
		if err := json.Unmarshal(raw, &bare); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		ev = &bare
	}

	if ev.ID == "" {
		return nil, fmt.Errorf("%w: missing event id", ErrMalformedPayload)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}
	return ev, nil
}
