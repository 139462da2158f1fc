package tokencodec

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-codec-tests-0123456789"

func TestEncodeDecode_RoundTrip(t *testing.T) {
	svc := NewService(testSecret, nil)

	tokenString, err := svc.Encode("user-1", "token-1", "family-1", RefreshAudience, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := svc.Decode(tokenString, RefreshAudience)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "token-1", claims.ID)
	assert.Equal(t, "family-1", claims.Family)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestDecode_FailuresCollapseToInvalidToken(t *testing.T) {
	svc := NewService(testSecret, nil)

	valid, err := svc.Encode("user-1", "token-1", "family-1", RefreshAudience, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		aud   string
	}{
		{
			name:  "garbage string",
			token: "not-a-token",
			aud:   RefreshAudience,
		},
		{
			name:  "empty string",
			token: "",
			aud:   RefreshAudience,
		},
		{
			name: "tampered signature",
			token: func() string {
				parts := strings.Split(valid, ".")
				return parts[0] + "." + parts[1] + ".AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
			}(),
			aud: RefreshAudience,
		},
		{
			name:  "wrong audience",
			token: valid,
			aud:   "trove:access",
		},
		{
			name: "wrong secret",
			token: func() string {
				other := NewService("a-completely-different-secret-key-value", nil)
				s, err := other.Encode("user-1", "token-1", "family-1", RefreshAudience, time.Hour)
				require.NoError(t, err)
				return s
			}(),
			aud: RefreshAudience,
		},
		{
			name: "expired",
			token: func() string {
				s, err := svc.Encode("user-1", "token-1", "family-1", RefreshAudience, -time.Minute)
				require.NoError(t, err)
				return s
			}(),
			aud: RefreshAudience,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.Decode(tt.token, tt.aud)
			assert.Nil(t, claims)
			// every failure mode reports the same error
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestDecode_RejectsNoneAlgorithm(t *testing.T) {
	svc := NewService(testSecret, nil)

	// header {"alg":"none","typ":"JWT"} with an unsigned payload
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ1c2VyLTEiLCJhdWQiOlsidHJvdmU6cmVmcmVzaCJdfQ."

	claims, err := svc.Decode(unsigned, RefreshAudience)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEncode_SecretRotationInvalidatesTokens(t *testing.T) {
	oldSvc := NewService(testSecret, nil)
	tokenString, err := oldSvc.Encode("user-1", "token-1", "family-1", RefreshAudience, time.Hour)
	require.NoError(t, err)

	rotated := NewService("rotated-secret-key-with-enough-length-123", nil)
	claims, err := rotated.Decode(tokenString, RefreshAudience)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
