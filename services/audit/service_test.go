package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedService(t *testing.T) (*Service, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	return NewService(zap.New(core).Named("security")), logs
}

func TestRecord(t *testing.T) {
	svc, logs := newObservedService(t)

	svc.Record(Entry{
		Event:     TokenRefresh,
		UserID:    "42",
		ClientIP:  "203.0.113.9",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/118.0",
		Detail:    "refresh succeeded",
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "token_refresh", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "token_refresh", fields["event"])
	assert.Equal(t, "42", fields["user_id"])
	assert.Equal(t, "203.0.113.9", fields["ip"])
	assert.Contains(t, fields["device"], "Firefox")
	assert.Equal(t, "refresh succeeded", fields["detail"])
}

func TestRecord_OmitsEmptyFields(t *testing.T) {
	svc, logs := newObservedService(t)

	svc.Record(Entry{Event: Logout})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "logout", fields["event"])
	assert.NotContains(t, fields, "user_id")
	assert.NotContains(t, fields, "ip")
	assert.NotContains(t, fields, "user_agent")
}

func TestRecord_NilServiceIsSafe(t *testing.T) {
	var svc *Service
	assert.NotPanics(t, func() {
		svc.Record(Entry{Event: RateLimitHit})
	})
}

func TestSummarizeUserAgent(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "desktop browser",
			raw:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			expected: "Chrome 120.0.0.0 / Windows",
		},
		{
			name:     "garbage",
			raw:      "not-a-user-agent",
			expected: "unknown",
		},
		{
			name:     "empty",
			raw:      "",
			expected: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SummarizeUserAgent(tt.raw))
		})
	}
}
