package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/dating-profiles/internal/apperror"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJSON_SetsHeaderAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"message": "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode(t, rec)["message"])
}

func TestError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantField  string
	}{
		{
			name:       "validation",
			err:        apperror.ValidationFailed("email", "Please enter a valid email"),
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation Error",
			wantField:  "email",
		},
		{
			name:       "duplicate",
			err:        fmt.Errorf("sqlite.Create: %w", apperror.Duplicate("nickname")),
			wantStatus: http.StatusBadRequest,
			wantError:  "Duplicate field value entered",
			wantField:  "nickname",
		},
		{
			name:       "expired token",
			err:        apperror.Unauthorized(apperror.ErrTokenExpired, "Token expired"),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Token expired",
		},
		{
			name:       "invalid credentials",
			err:        apperror.Unauthorized(apperror.ErrInvalidCredentials, "Invalid email or password"),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid email or password",
		},
		{
			name:       "not found",
			err:        apperror.NotFound("user", "abc"),
			wantStatus: http.StatusNotFound,
			wantError:  "User not found",
		},
		{
			name:       "unknown error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Error updating profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			Error(rec, req, tt.err, "Error updating profile")

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.wantError, body["error"])
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, body["field"])
			} else {
				assert.NotContains(t, body, "field")
			}
		})
	}
}

func TestError_ValidationDetailsAreAList(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperror.Invalid([]apperror.FieldError{
		{Field: "name", Message: "Name is required"},
		{Field: "role", Message: "Invalid role"},
	})

	Error(rec, httptest.NewRequest(http.MethodPost, "/", nil), err, "unused")

	body := decode(t, rec)
	assert.Equal(t, []any{"Name is required", "Invalid role"}, body["details"])
}

func TestError_InternalCarriesDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	Error(rec, httptest.NewRequest(http.MethodDelete, "/", nil), errors.New("connection reset"), "Error deleting account")

	body := decode(t, rec)
	assert.Equal(t, "Error deleting account", body["error"])
	assert.Equal(t, "connection reset", body["details"])
}
