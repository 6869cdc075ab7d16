package webhook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/memberhub/pkg/types"
)

func TestParseEvent_Envelope(t *testing.T) {
	raw := []byte(`{"api_version":"1.0","event":{"id":"e1","type":"INITIAL_PURCHASE","app_user_id":"U1","product_id":"monthly","expiration_at_ms":1770000000000}}`)

	ev, err := ParseEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "e1", ev.ID)
	assert.Equal(t, types.EventTypeInitialPurchase, ev.Type)
	assert.Equal(t, "U1", ev.AppUserID)
	assert.Equal(t, int64(1770000000000), ev.ExpirationAtMs)
}

func TestParseEvent_BareEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"id":"e2","type":"RENEWAL","app_user_id":"U1"}`))
	require.NoError(t, err)
	assert.Equal(t, "e2", ev.ID)
	assert.Equal(t, types.EventTypeRenewal, ev.Type)
}

func TestParseEvent_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `{{{`},
		{name: "missing id", raw: `{"event":{"type":"RENEWAL","app_user_id":"U1"}}`},
		{name: "missing type", raw: `{"event":{"id":"e3","app_user_id":"U1"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPayload))
		})
	}
}
