package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSpec = `openapi: 3.0.3
info:
  title: Test
  version: "1.0"
paths:
  /api/threads/mock:
    post:
      responses:
        "200":
          description: ok
`

func newSwaggerRouter(t *testing.T) http.Handler {
	t.Helper()
	h, err := NewSwaggerHandler("Test", []byte(testSpec))
	require.NoError(t, err)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestSwagger_JSON(t *testing.T) {
	rec := serve(newSwaggerRouter(t), httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
	assert.Contains(t, doc["paths"], "/api/threads/mock")
}

func TestSwagger_YAMLAndUI(t *testing.T) {
	router := newSwaggerRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil))
	assert.Equal(t, testSpec, rec.Body.String())

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Contains(t, rec.Body.String(), "Test - API Documentation")
}

func TestSwagger_InvalidSpec(t *testing.T) {
	_, err := NewSwaggerHandler("Test", []byte("openapi: [unclosed"))
	assert.Error(t, err)
}
