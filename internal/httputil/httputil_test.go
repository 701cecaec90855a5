package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crediflow/internal/metrics"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type sample struct {
	Email string  `json:"email" validate:"required,email"`
	SSI   float64 `json:"ssi" validate:"gte=0,lte=1"`
}

func TestValidationError(t *testing.T) {
	err := Validator.Struct(sample{Email: "nope", SSI: 2})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	ValidationError(discard, rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error  string       `json:"error"`
		Fields []FieldError `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Error)
	assert.ElementsMatch(t, []FieldError{
		{Field: "email", Rule: "email"},
		{Field: "ssi", Rule: "lte", Param: "1"},
	}, body.Fields)
}

func TestValidationErrorWithPlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(discard, rec, errors.New("boom"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request")
}

func TestFail(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(discard, rec, "report not found", errors.New("missing"), http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"report not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Fail(discard, rec, "db down", nil, 0)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouterRecoversAndRecords(t *testing.T) {
	m := metrics.New()
	r := NewRouter(discard, m)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	r.Get("/healthz", HealthHandler(discard))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `route="/healthz"`)
}
