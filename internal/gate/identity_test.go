package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIdentity(t *testing.T) {
	testCases := []struct {
		name     string
		payload  Payload
		fallback *Fallback
		expected Identity
	}{
		{
			name:     "Direct fields",
			payload:  Payload{UserID: "U1", PermitID: "P1", UserName: "Ann"},
			expected: Identity{UserID: "U1", PermitID: "P1", UserName: "Ann"},
		},
		{
			name:     "Direct fields trimmed",
			payload:  Payload{UserID: "  U1 ", PermitID: " P1", UserName: "Ann  "},
			expected: Identity{UserID: "U1", PermitID: "P1", UserName: "Ann"},
		},
		{
			name:     "JSON qrData canonical keys",
			payload:  Payload{QRData: `{"userId":"U1","permitId":"P1","userName":"Ann"}`},
			expected: Identity{UserID: "U1", PermitID: "P1", UserName: "Ann"},
		},
		{
			name:     "JSON qrData short aliases",
			payload:  Payload{QRData: `{"id":"U1","permit":"P1","name":"Ann"}`},
			expected: Identity{UserID: "U1", PermitID: "P1", UserName: "Ann"},
		},
		{
			name:     "JSON qrData snake_case aliases",
			payload:  Payload{QRData: `{"user_id":"U1","permit_id":"P1","user_name":"Ann"}`},
			expected: Identity{UserID: "U1", PermitID: "P1", UserName: "Ann"},
		},
		{
			name:     "JSON qrData fullName alias",
			payload:  Payload{QRData: `{"id":"U1","permit":"P1","fullName":"Ann Lee"}`},
			expected: Identity{UserID: "U1", PermitID: "P1", UserName: "Ann Lee"},
		},
		{
			name:     "JSON qrData numeric id is stringified",
			payload:  Payload{QRData: `{"id":4217,"permit":"P1","name":"Ann"}`},
			expected: Identity{UserID: "4217", PermitID: "P1", UserName: "Ann"},
		},
		{
			name:     "Bare string qrData treated as userId",
			payload:  Payload{QRData: "U-raw-99"},
			expected: Identity{UserID: "U-raw-99"},
		},
		{
			name:     "Direct fields win over qrData",
			payload:  Payload{QRData: `{"id":"other","permit":"other","name":"Other"}`, UserID: "U1"},
			expected: Identity{UserID: "U1", PermitID: "other", UserName: "Other"},
		},
		{
			name:     "Fallback backfills missing pieces",
			payload:  Payload{QRData: "U1"},
			fallback: &Fallback{PermitID: "P1", UserName: "Ann"},
			expected: Identity{UserID: "U1", PermitID: "P1", UserName: "Ann"},
		},
		{
			name:     "Fallback does not override scan values",
			payload:  Payload{QRData: `{"id":"U1","permit":"P1","name":"Ann"}`},
			fallback: &Fallback{UserID: "FB", PermitID: "FB", UserName: "FB"},
			expected: Identity{UserID: "U1", PermitID: "P1", UserName: "Ann"},
		},
		{
			name:     "Empty payload yields empty identity",
			payload:  Payload{},
			expected: Identity{},
		},
		{
			name:     "Object-valued keys ignored",
			payload:  Payload{QRData: `{"id":{"nested":true},"permit":"P1","name":"Ann"}`},
			expected: Identity{PermitID: "P1", UserName: "Ann"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractIdentity(tc.payload, tc.fallback)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestExtractIdentityIdempotent(t *testing.T) {
	payload := Payload{QRData: `{"id":"U1","permit":"P1","name":"Ann"}`}

	first := ExtractIdentity(payload, nil)
	second := ExtractIdentity(payload, nil)

	assert.Equal(t, Identity{UserID: "U1", PermitID: "P1", UserName: "Ann"}, first)
	assert.Equal(t, first, second)
}
