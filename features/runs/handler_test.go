package runs_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"lectura/features/runs"
)

type noRowsRepo struct {
	fakeRepo
}

func (r *noRowsRepo) Get(ctx context.Context, id string) (*runs.Run, error) {
	return nil, sql.ErrNoRows
}

func TestHandler_List(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo := newFakeRepo()
		repo.runs["run-1"] = &runs.Run{ID: "run-1", Status: runs.StatusCompleted}
		h := runs.NewHandler(runs.NewService(repo))

		req := httptest.NewRequest("GET", "/runs?limit=10", nil)
		rr := httptest.NewRecorder()
		h.List(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"count":1`)
	})

	t.Run("EmptyReturnsArray", func(t *testing.T) {
		h := runs.NewHandler(runs.NewService(newFakeRepo()))

		req := httptest.NewRequest("GET", "/runs", nil)
		rr := httptest.NewRecorder()
		h.List(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"data":[]`)
	})
}

func TestHandler_Get(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo := newFakeRepo()
		repo.runs["run-1"] = &runs.Run{ID: "run-1", Status: runs.StatusRunning, Paths: []string{"docs_md/a.md"}}
		h := runs.NewHandler(runs.NewService(repo))

		req := httptest.NewRequest("GET", "/runs/run-1", nil)
		req.SetPathValue("id", "run-1")
		rr := httptest.NewRecorder()
		h.Get(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"running"`)
	})

	t.Run("NotFound", func(t *testing.T) {
		h := runs.NewHandler(runs.NewService(&noRowsRepo{}))

		req := httptest.NewRequest("GET", "/runs/missing", nil)
		req.SetPathValue("id", "missing")
		rr := httptest.NewRecorder()
		h.Get(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "NOT_FOUND")
	})
}
