package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	secret := []byte("whsec_test")
	body := []byte(`{"event":{"id":"e1","type":"TEST","app_user_id":"U1"}}`)
	sig := SignBody(body, secret)
	require.NotEmpty(t, sig)

	tests := []struct {
		name   string
		body   []byte
		header string
		secret []byte
		want   bool
	}{
		{name: "valid", body: body, header: sig, secret: secret, want: true},
		{name: "valid with prefix", body: body, header: "sha256=" + sig, secret: secret, want: true},
		{name: "valid with whitespace", body: body, header: " " + sig + "\n", secret: secret, want: true},
		{name: "tampered body", body: []byte(`{"event":{"id":"e1","type":"TEST","app_user_id":"EVIL"}}`), header: sig, secret: secret, want: false},
		{name: "missing header", body: body, header: "", secret: secret, want: false},
		{name: "non hex header", body: body, header: "invalid_signature_12345", secret: secret, want: false},
		{name: "wrong secret", body: body, header: sig, secret: []byte("other"), want: false},
		{name: "empty secret", body: body, header: sig, secret: nil, want: false},
		{name: "truncated signature", body: body, header: sig[:16], secret: secret, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature(tt.body, tt.header, tt.secret))
		})
	}
}
