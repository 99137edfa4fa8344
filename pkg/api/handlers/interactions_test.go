package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/lexhire/lexhire/pkg/interactions"
)

func interactionContext(t *testing.T, method, path, body string, userID uint, listingID uint) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	if listingID != 0 {
		c.SetParamNames("id")
		c.SetParamValues(uintParam(listingID))
	}
	return c, rec
}

func TestSaveAndUnsaveJob_Handler(t *testing.T) {
	db := setupTestDB(t)
	h := NewInteractionHandler(interactions.NewService(db), nil)
	user := seedUser(t, db, "alice@example.com")
	listing := seedPublishedListing(t, db, "Tax Associate", "tax-associate")

	c, rec := interactionContext(t, http.MethodPost, "/api/v1/jobs/1/save", "", user.ID, listing.ID)
	require.NoError(t, h.SaveJob(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"saved"`)

	c, rec = interactionContext(t, http.MethodDelete, "/api/v1/jobs/1/save", "", user.ID, listing.ID)
	require.NoError(t, h.UnsaveJob(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// A second unsave finds nothing active
	c, rec = interactionContext(t, http.MethodDelete, "/api/v1/jobs/1/save", "", user.ID, listing.ID)
	require.NoError(t, h.UnsaveJob(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplyAndUpdateStatus_Handler(t *testing.T) {
	db := setupTestDB(t)
	h := NewInteractionHandler(interactions.NewService(db), nil)
	user := seedUser(t, db, "alice@example.com")
	listing := seedPublishedListing(t, db, "Tax Associate", "tax-associate")

	c, rec := interactionContext(t, http.MethodPost, "/api/v1/jobs/1/apply", "", user.ID, listing.ID)
	require.NoError(t, h.ApplyToJob(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"application_status":"applied"`)

	c, rec = interactionContext(t, http.MethodPut, "/api/v1/jobs/1/apply/status",
		`{"status":"interview"}`, user.ID, listing.ID)
	require.NoError(t, h.UpdateApplicationStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"application_status":"interview"`)

	// Statuses outside the pipeline are rejected by request validation
	c, rec = interactionContext(t, http.MethodPut, "/api/v1/jobs/1/apply/status",
		`{"status":"ghosted"}`, user.ID, listing.ID)
	require.NoError(t, h.UpdateApplicationStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateNotes_Handler(t *testing.T) {
	db := setupTestDB(t)
	h := NewInteractionHandler(interactions.NewService(db), nil)
	user := seedUser(t, db, "alice@example.com")
	listing := seedPublishedListing(t, db, "Tax Associate", "tax-associate")

	c, rec := interactionContext(t, http.MethodPost, "/api/v1/jobs/1/save", "", user.ID, listing.ID)
	require.NoError(t, h.SaveJob(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = interactionContext(t, http.MethodPut, "/api/v1/jobs/1/save/notes",
		`{"notes":"follow up next week"}`, user.ID, listing.ID)
	require.NoError(t, h.UpdateNotes(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "follow up next week")
}

func TestListInteractions_Handler(t *testing.T) {
	db := setupTestDB(t)
	h := NewInteractionHandler(interactions.NewService(db), nil)
	user := seedUser(t, db, "alice@example.com")
	listing := seedPublishedListing(t, db, "Tax Associate", "tax-associate")

	c, rec := interactionContext(t, http.MethodPost, "/api/v1/jobs/1/save", "", user.ID, listing.ID)
	require.NoError(t, h.SaveJob(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = interactionContext(t, http.MethodGet, "/api/v1/me/interactions", "", user.ID, 0)
	require.NoError(t, h.ListInteractions(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	// Another user sees an empty page
	other := seedUser(t, db, "bob@example.com")
	c, rec = interactionContext(t, http.MethodGet, "/api/v1/me/interactions", "", other.ID, 0)
	require.NoError(t, h.ListInteractions(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":0`)
}
