package userconfig

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlers(t *testing.T) (*echo.Echo, *Store) {
	t.Helper()
	store, _ := newTestStore(t)

	e := echo.New()
	NewHandlers(store).RegisterRoutes(e.Group("/api/commands"))
	return e, store
}

func invoke(e *echo.Echo, command, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/commands/"+command, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_SaveAndLoad(t *testing.T) {
	e, _ := setupHandlers(t)

	rec := invoke(e, "save_config", `{"config":"{\"theme\":\"dark\"}"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = invoke(e, "load_config", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var blob string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blob))
	assert.Equal(t, `"{\"theme\":\"dark\"}"`, blob)
}

func TestHandlers_HasLegacyConfig(t *testing.T) {
	e, store := setupHandlers(t)

	rec := invoke(e, "has_legacy_config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "false", strings.TrimSpace(rec.Body.String()))

	require.NoError(t, os.WriteFile(store.paths.LegacyConfig(), []byte("{}"), 0o644))

	rec = invoke(e, "has_legacy_config", "")
	assert.Equal(t, "true", strings.TrimSpace(rec.Body.String()))
}

func TestHandlers_CompleteLegacyMigrateFailure(t *testing.T) {
	e, _ := setupHandlers(t)

	rec := invoke(e, "complete_legacy_migrate", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandlers_SaveConfigInvalidBody(t *testing.T) {
	e, _ := setupHandlers(t)

	rec := invoke(e, "save_config", `{"config":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_SaveConfigMissingField(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "wrong key", body: `{"blob":"x"}`},
		{name: "empty body", body: ""},
		{name: "null config", body: `{"config":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store := setupHandlers(t)

			rec := invoke(e, "save_config", `{"config":"{\"theme\":\"dark\"}"}`)
			require.Equal(t, http.StatusOK, rec.Code)
			before, err := os.ReadFile(store.paths.Config())
			require.NoError(t, err)

			rec = invoke(e, "save_config", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			after, err := os.ReadFile(store.paths.Config())
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after))
		})
	}
}

func TestHandlers_SaveConfigEmptyString(t *testing.T) {
	e, _ := setupHandlers(t)

	rec := invoke(e, "save_config", `{"config":""}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = invoke(e, "load_config", "")
	var blob string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blob))
	assert.Equal(t, `""`, blob)
}
