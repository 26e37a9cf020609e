package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		w := httptest.NewRecorder()
		data := map[string]string{"message": "test"}

		err := WriteJSON(w, http.StatusOK, data)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response map[string]string
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, "test", response["message"])
	})

	t.Run("nil data", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusNoContent, nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteRawJSON(t *testing.T) {
	w := httptest.NewRecorder()
	payload := json.RawMessage(`{"status":"ok","articles":[{"title":"x"}]}`)

	require.NoError(t, WriteRawJSON(w, http.StatusOK, payload))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, string(payload), w.Body.String())
}

func TestWriteHelpers(t *testing.T) {
	tests := []struct {
		name        string
		write       func(w http.ResponseWriter) error
		wantStatus  int
		wantError   string
		wantMessage string
	}{
		{
			name:        "bad request",
			write:       func(w http.ResponseWriter) error { return WriteBadRequest(w, "bad input", nil) },
			wantStatus:  http.StatusBadRequest,
			wantError:   "bad_request",
			wantMessage: "bad input",
		},
		{
			name:        "not found default message",
			write:       func(w http.ResponseWriter) error { return WriteNotFound(w, "") },
			wantStatus:  http.StatusNotFound,
			wantError:   "not_found",
			wantMessage: "Resource not found",
		},
		{
			name:        "service unavailable",
			write:       func(w http.ResponseWriter) error { return WriteServiceUnavailable(w, "news is off") },
			wantStatus:  http.StatusServiceUnavailable,
			wantError:   "service_unavailable",
			wantMessage: "news is off",
		},
		{
			name:        "internal error default message",
			write:       func(w http.ResponseWriter) error { return WriteInternalServerError(w, "") },
			wantStatus:  http.StatusInternalServerError,
			wantError:   "internal_error",
			wantMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w))

			assert.Equal(t, tt.wantStatus, w.Code)

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.wantError, response.Error)
			assert.Equal(t, tt.wantMessage, response.Message)
		})
	}
}

func TestWriteError(t *testing.T) {
	testCases := []struct {
		status        int
		expectedError string
	}{
		{http.StatusBadRequest, "bad_request"},
		{http.StatusNotFound, "not_found"},
		{http.StatusMethodNotAllowed, "method_not_allowed"},
		{http.StatusServiceUnavailable, "service_unavailable"},
		{http.StatusBadGateway, "upstream_error"},
		{http.StatusInternalServerError, "internal_error"},
		{http.StatusTeapot, "internal_error"},
	}

	for _, tc := range testCases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			details := map[string]interface{}{"key": "value"}

			require.NoError(t, WriteError(w, tc.status, "test message", details))
			assert.Equal(t, tc.status, w.Code)

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tc.expectedError, response.Error)
			assert.Equal(t, "test message", response.Message)
			assert.Equal(t, "value", response.Details["key"])
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Message string `json:"message"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"message":"hi"}`},
		{name: "empty body", body: ``, wantErr: "request body is empty"},
		{name: "malformed", body: `{"message":`, wantErr: "invalid JSON body"},
		{name: "wrong type", body: `{"message":5}`, wantErr: "invalid JSON body"},
		{name: "unknown field ignored", body: `{"message":"hi","extra":1}`},
		{name: "trailing data", body: `{"message":"hi"}{"message":"again"}`, wantErr: "unexpected data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst payload
			err := DecodeJSON(req, &dst)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "hi", dst.Message)
		})
	}
}
