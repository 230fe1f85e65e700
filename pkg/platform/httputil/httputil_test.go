package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docstamp/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("render failure omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeRenderFailure, "font lacks glyph"))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "render_failure", body["error"])
		_, ok := body["error_description"]
		assert.False(t, ok, "5xx responses must not carry a description")
	})

	t.Run("validation includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeValidation, "tc is required"))

		require.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "validation_error", body["error"])
		assert.Equal(t, "tc is required", body["error_description"])
	})
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"conflict", dErrors.New(dErrors.CodeConflict, "user already exists"), http.StatusConflict, "user already exists"},
		{"forbidden", dErrors.New(dErrors.CodeForbidden, "admin only"), http.StatusForbidden, "admin only"},
		{"credentials", dErrors.New(dErrors.CodeInvalidCredentials, "invalid credentials"), http.StatusUnauthorized, "invalid credentials"},
		{"storage", dErrors.New(dErrors.CodeStorageFailure, "db down"), http.StatusInternalServerError, "internal error"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := ErrorStatus(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.msg, msg)
		})
	}
}
