package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"realestate-backend/internal/audit"
	"realestate-backend/internal/config"
	"realestate-backend/internal/database/dbtest"
	"realestate-backend/internal/export"
	"realestate-backend/internal/identity"
	"realestate-backend/internal/listing"
	"realestate-backend/internal/models"
	"realestate-backend/internal/repository"
	"realestate-backend/internal/search"
)

// flakyIndex fails index deletes on demand.
type flakyIndex struct {
	*search.MemoryIndex
	failDelete bool
}

func (f *flakyIndex) Delete(ctx context.Context, index, id string) error {
	if f.failDelete {
		return errors.New("index unavailable")
	}
	return f.MemoryIndex.Delete(ctx, index, id)
}

type testServer struct {
	app   *fiber.App
	index *flakyIndex
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	db := dbtest.Open(t)
	cfg := &config.Config{
		JWTSecret:   "0123456789abcdef0123456789abcdef",
		TokenTTL:    time.Hour,
		CORSOrigins: "http://localhost:5173",
	}
	names := search.DefaultNames()
	idx := &flakyIndex{MemoryIndex: search.NewMemoryIndex()}
	require.NoError(t, search.Bootstrap(ctx, idx, names, 1, time.Millisecond))

	rec := audit.NewRecorder(db)
	ids := identity.NewUUID()
	svc := listing.NewService(listing.Deps{
		Store:   repository.New(db),
		Index:   idx,
		IDs:     ids,
		Journal: rec,
		Log:     zerolog.Nop(),
		Names:   names,
	})
	app := New(Deps{Config: cfg, DB: db, Index: idx, Service: svc, Audit: rec, IDs: ids, Log: zerolog.Nop()})

	ts := &testServer{app: app, index: idx}
	status, body := ts.do(t, http.MethodPost, "/api/auth/signup", `{"name":"Agent","email":"agent@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusCreated, status)
	ts.token = body["token"].(string)
	return ts
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

const flat = `{"id":"S1","title":"2BHK near Forum","locality":"Koramangala","propertyType":"Flat","listingType":"Rent","price":45000,"bhk":2}`

func TestListingLifecycle(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/supply", flat)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "S1", body["documentId"])
	assert.Equal(t, []any{}, body["matches"])

	status, body = s.do(t, http.MethodPost, "/api/demand", `{"title":"Need 2BHK","locality":"Koramangala","propertyType":"Flat","listingType":"Rent","priceMin":40000,"priceMax":50000,"bhkMin":2,"bhkMax":3}`)
	require.Equal(t, http.StatusCreated, status, body)
	matches := body["matches"].([]any)
	require.Len(t, matches, 1)
	assert.Equal(t, "S1", matches[0].(map[string]any)["id"])

	status, body = s.do(t, http.MethodPut, "/api/supply/S1", `{"price":47000}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "updated", body["result"])

	status, body = s.do(t, http.MethodGet, "/api/supply/S1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 47000.0, body["price"])
	assert.Equal(t, "Koramangala", body["locality"])

	status, body = s.do(t, http.MethodGet, "/api/search/supply?locality=koramangla&min_price=46000", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, body = s.do(t, http.MethodGet, "/api/supply?size=5", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["hits"], 1)

	status, body = s.do(t, http.MethodDelete, "/api/supply/S1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "deleted", body["indexDeleteOutcome"])

	status, body = s.do(t, http.MethodDelete, "/api/supply/S1", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["kind"])
}

func TestWritesRequireToken(t *testing.T) {
	s := newTestServer(t)
	s.token = ""
	status, _ := s.do(t, http.MethodPost, "/api/supply", flat)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/api/supply", "")
	assert.Equal(t, http.StatusOK, status, "reads are public")
}

func TestValidationErrorBody(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodPost, "/api/supply", `{"title":"x","locality":"HSR","propertyType":"Flat","listingType":"Rent","price":-5}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", body["kind"])
	assert.Equal(t, "not_attempted", body["relational"])
	fields := body["fields"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "price", fields[0].(map[string]any)["field"])

	status, _ = s.do(t, http.MethodPost, "/api/supply", `{"propertyType":"castle"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, "/api/search/supply?min_price=cheap", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDuplicateIDIsConflict(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodPost, "/api/supply", flat)
	require.Equal(t, http.StatusCreated, status)
	status, body := s.do(t, http.MethodPost, "/api/supply", flat)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "relational_write", body["kind"])
}

func TestIndexDeleteFailureStillOK(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodPost, "/api/supply", flat)
	require.Equal(t, http.StatusCreated, status)

	s.index.failDelete = true
	status, body := s.do(t, http.MethodDelete, "/api/supply/S1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "failed", body["indexDeleteOutcome"])
	assert.Equal(t, "index_delete", body["kind"])
	assert.Equal(t, "deleted", body["relational"])

	status, _ = s.do(t, http.MethodGet, "/api/supply/S1", "")
	assert.Equal(t, http.StatusNotFound, status)

	req := httptest.NewRequest(http.MethodGet, "/api/sync-issues", nil)
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	var issues []models.SyncIssue
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&issues))
	require.Len(t, issues, 1)
	assert.Equal(t, models.SyncIssueIndexDeleteFailed, issues[0].Type)
}

func TestStatsAndHealth(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodPost, "/api/supply", flat)
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, status)
	supply := body["supply"].(map[string]any)
	assert.EqualValues(t, 1, supply["relational"])
	assert.Equal(t, true, supply["inSync"])

	status, body = s.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["index"])
}

func TestExportWorkbook(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodPost, "/api/supply", flat)
	require.Equal(t, http.StatusCreated, status)

	req := httptest.NewRequest(http.MethodGet, "/api/supply/export", nil)
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "supply.xlsx")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("supply")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "S1", rows[1][0])
}
