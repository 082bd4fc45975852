package respond

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, 201, map[string]string{"status": "accepted"})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]string{"status": "accepted"}, decodeBody(t, rec))
}

func TestJSON_NilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, 204, nil)

	assert.Equal(t, 204, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestSafeError_ValidationPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, 400, errors.New("period is invalid"))

	assert.Equal(t, map[string]string{"error": "period is invalid"}, decodeBody(t, rec))
}

func TestSafeError_InternalIsMasked(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, 500, errors.New("pq: connection to postgres://user:hunter2@db:5432 failed"))

	assert.Equal(t, map[string]string{"error": "internal server error"}, decodeBody(t, rec))
}

func TestSafeError_5xxNeverSafe(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, 503, errors.New("store not found"))

	assert.Equal(t, map[string]string{"error": "internal server error"}, decodeBody(t, rec))
}

func TestSanitizeError(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"nil-safe", "", ""},
		{"openai key", "auth failed for sk-abcdefghij1234567890", "auth failed for sk-****"},
		{"anthropic key", "auth failed for sk-ant-api03-xyz_123", "auth failed for sk-ant-****"},
		{"dsn password", "dial postgres://newsmood:hunter2@db:5432/newsmood", "dial postgres://newsmood:****@db:5432/newsmood"},
		{"plain", "connection refused", "connection refused"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			if tc.in != "" {
				err = errors.New(tc.in)
			}
			assert.Equal(t, tc.want, SanitizeError(err))
		})
	}
}
