package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realestate-backend/internal/auth"
	"realestate-backend/internal/database/dbtest"
	"realestate-backend/internal/models"
)

func TestWriteLogStoresSnapshots(t *testing.T) {
	rec := NewRecorder(dbtest.Open(t))
	ctx := context.Background()

	require.NoError(t, rec.WriteLog(ctx, LogOptions{
		Kind: models.KindSupply, RecordID: "s1", ActorID: "u1",
		Action: models.AuditActionCreate,
		After:  models.Document{"property_id": "s1", "price": 45000},
	}))
	require.NoError(t, rec.WriteLog(ctx, LogOptions{
		Kind: models.KindDemand, RecordID: "d1", Action: models.AuditActionDelete,
		Before: models.Document{"request_id": "d1"},
	}))

	logs, err := rec.ListLogs(ctx, LogFilter{Kind: models.KindSupply})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "s1", logs[0].RecordID)
	assert.JSONEq(t, `null`, string(logs[0].BeforeData))
	assert.JSONEq(t, `{"property_id":"s1","price":45000}`, string(logs[0].AfterData))

	all, err := rec.ListLogs(ctx, LogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "d1", all[0].RecordID, "newest first")
}

func TestResolveIssue(t *testing.T) {
	rec := NewRecorder(dbtest.Open(t))
	ctx := context.Background()

	issue := &models.SyncIssue{RecordKind: models.KindSupply, RecordID: "s1", Operation: "update", Type: models.SyncIssueStaleProjection}
	require.NoError(t, rec.ReportIssue(ctx, issue))
	require.NotZero(t, issue.ID)

	open, err := rec.ListIssues(ctx, IssueFilter{})
	require.NoError(t, err)
	assert.Len(t, open, 1)

	resolved, err := rec.Resolve(ctx, issue.ID, "ops")
	require.NoError(t, err)
	assert.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, "ops", resolved.ResolvedBy)

	_, err = rec.Resolve(ctx, issue.ID, "ops")
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	_, err = rec.Resolve(ctx, 999, "ops")
	assert.ErrorIs(t, err, ErrIssueNotFound)

	open, err = rec.ListIssues(ctx, IssueFilter{Status: "open"})
	require.NoError(t, err)
	assert.Empty(t, open)
	done, err := rec.ListIssues(ctx, IssueFilter{Status: "resolved", Type: models.SyncIssueStaleProjection})
	require.NoError(t, err)
	assert.Len(t, done, 1)
}

func TestSyncIssueHandlers(t *testing.T) {
	rec := NewRecorder(dbtest.Open(t))
	require.NoError(t, rec.ReportIssue(context.Background(), &models.SyncIssue{
		RecordKind: models.KindDemand, RecordID: "d1", Operation: "delete", Type: models.SyncIssueIndexDeleteFailed,
	}))

	app := fiber.New()
	app.Get("/sync-issues", ListSyncIssuesHandler(rec))
	app.Post("/sync-issues/:id/resolve", func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, "u9")
		return c.Next()
	}, ResolveSyncIssueHandler(rec))
	app.Get("/audit-logs", ListAuditLogsHandler(rec))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sync-issues?record_kind=demand", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	var issues []models.SyncIssue
	require.NoError(t, json.Unmarshal(raw, &issues))
	require.Len(t, issues, 1)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/sync-issues/1/resolve", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ = io.ReadAll(resp.Body)
	var resolved models.SyncIssue
	require.NoError(t, json.Unmarshal(raw, &resolved))
	assert.Equal(t, "u9", resolved.ResolvedBy)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/sync-issues/1/resolve", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	for _, path := range []string{"/sync-issues?status=weird", "/sync-issues?record_kind=castle", "/audit-logs?limit=-1", "/sync-issues/abc/resolve"} {
		method := http.MethodGet
		if path == "/sync-issues/abc/resolve" {
			method = http.MethodPost
		}
		resp, err = app.Test(httptest.NewRequest(method, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}
