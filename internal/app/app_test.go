package app_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lectura/internal/app"
	"lectura/internal/config"
)

func newTestApp(t *testing.T) (*app.App, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		ServerPort:   8081,
		QueryLogPath: filepath.Join(t.TempDir(), "query.log"),
	}
	a, err := app.New(cfg, &app.Dependencies{DB: db})
	require.NoError(t, err)
	return a, mock
}

func TestApp_Health(t *testing.T) {
	a, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestApp_Metrics(t *testing.T) {
	a, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestApp_CORSPreflight(t *testing.T) {
	a, _ := newTestApp(t)

	req := httptest.NewRequest("OPTIONS", "/search", nil)
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestApp_GetSettingsRoute(t *testing.T) {
	a, mock := newTestApp(t)

	rows := sqlmock.NewRows([]string{"id", "search_alpha", "search_top_k", "max_chunk_length", "max_segment_seconds", "embed_batch_size"}).
		AddRow(1, 0.5, 10, 500, 30.0, 16)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, search_alpha")).WillReturnRows(rows)

	req := httptest.NewRequest("GET", "/settings", nil)
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"search_top_k":10`)
}

func TestApp_CorrelationIDHeader(t *testing.T) {
	a, mock := newTestApp(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).WillReturnError(sqlmock.ErrCancelled)

	req := httptest.NewRequest("GET", "/runs", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "corr-123")
}
