package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lexhire/lexhire/pkg/alerts"
	"github.com/lexhire/lexhire/pkg/cache"
	"github.com/lexhire/lexhire/pkg/listings"
	"github.com/lexhire/lexhire/pkg/mailqueue"
	"github.com/lexhire/lexhire/pkg/models"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.PracticeArea{},
		&models.Location{},
		&models.LawFirm{},
		&models.JobListing{},
		&models.UserJobInteraction{},
		&models.JobAlertSubscription{},
		&models.JobAlertClick{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: "Test User", EmailNotifications: true, JobAlerts: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPublishedListing(t *testing.T, db *gorm.DB, title, slug string) *models.JobListing {
	t.Helper()
	svc := listings.NewService(db)

	firm := models.LawFirm{Name: "Crane & Poole", Slug: "firm-" + slug, IsActive: true}
	require.NoError(t, db.Create(&firm).Error)

	listing, err := svc.Create(context.Background(), listings.CreateListingRequest{
		Title:     title,
		LawFirmID: firm.ID,
		Publish:   true,
	})
	require.NoError(t, err)
	return listing
}

func newAlertHandler(t *testing.T, db *gorm.DB) (*AlertHandler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cacheClient := cache.NewClientFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	alertService := alerts.NewService(db, "https://lexhire.io")
	dispatcher := alerts.NewDispatcher(db, cacheClient, listings.NewService(db), &noopEnqueuer{}, alerts.DispatcherConfig{
		PublicAPIURL: "https://api.lexhire.io",
	})
	return NewAlertHandler(alertService, dispatcher, nil), mr
}

type noopEnqueuer struct{}

func (noopEnqueuer) EnqueueDigest(context.Context, mailqueue.DigestEmailEvent) error { return nil }

func TestCreateSubscription_Handler(t *testing.T) {
	db := setupTestDB(t)
	h, _ := newAlertHandler(t, db)
	user := seedUser(t, db, "alice@example.com")

	e := echo.New()
	body := `{"frequency":"daily","keyword":"tax"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/job-alerts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", user.ID)

	require.NoError(t, h.CreateSubscription(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var sub models.JobAlertSubscription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, "daily", sub.Frequency)
	assert.Equal(t, "tax", sub.Keyword)
}

func TestCreateSubscription_Handler_CapExceeded(t *testing.T) {
	db := setupTestDB(t)
	h, _ := newAlertHandler(t, db)
	user := seedUser(t, db, "alice@example.com")

	svc := alerts.NewService(db, "https://lexhire.io")
	for i := 0; i < models.MaxActiveSubscriptions; i++ {
		_, err := svc.CreateSubscription(context.Background(), user.ID, alerts.CreateSubscriptionRequest{
			Frequency: models.FrequencyDaily,
			Keyword:   fmt.Sprintf("keyword-%d", i),
		})
		require.NoError(t, err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/job-alerts", strings.NewReader(`{"frequency":"daily"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", user.ID)

	require.NoError(t, h.CreateSubscription(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "limit_exceeded")
}

func TestCreateSubscription_Handler_InvalidFrequency(t *testing.T) {
	db := setupTestDB(t)
	h, _ := newAlertHandler(t, db)
	user := seedUser(t, db, "alice@example.com")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/job-alerts", strings.NewReader(`{"frequency":"hourly"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", user.ID)

	require.NoError(t, h.CreateSubscription(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSubscription_Handler_Unauthenticated(t *testing.T) {
	db := setupTestDB(t)
	h, _ := newAlertHandler(t, db)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/job-alerts", strings.NewReader(`{"frequency":"daily"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.CreateSubscription(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteSubscription_Handler_Ownership(t *testing.T) {
	db := setupTestDB(t)
	h, _ := newAlertHandler(t, db)
	owner := seedUser(t, db, "alice@example.com")
	stranger := seedUser(t, db, "mallory@example.com")

	svc := alerts.NewService(db, "https://lexhire.io")
	sub, err := svc.CreateSubscription(context.Background(), owner.ID, alerts.CreateSubscriptionRequest{
		Frequency: models.FrequencyDaily,
	})
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/job-alerts/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", sub.ID))
	c.Set("user_id", stranger.ID)

	require.NoError(t, h.DeleteSubscription(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackClick_Handler_RedirectsToJobPage(t *testing.T) {
	db := setupTestDB(t)
	h, _ := newAlertHandler(t, db)
	user := seedUser(t, db, "alice@example.com")
	listing := seedPublishedListing(t, db, "Tax Associate", "tax-associate")

	svc := alerts.NewService(db, "https://lexhire.io")
	sub, err := svc.CreateSubscription(context.Background(), user.ID, alerts.CreateSubscriptionRequest{
		Frequency: models.FrequencyDaily,
	})
	require.NoError(t, err)

	e := echo.New()
	url := fmt.Sprintf("/api/v1/job-alerts/click?subscription_id=%d&listing_id=%d", sub.ID, listing.ID)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.TrackClick(c))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://lexhire.io/jobs/"+listing.Slug, rec.Header().Get(echo.HeaderLocation))

	var reloaded models.JobAlertSubscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, 1, reloaded.ClickCount)
}

func TestTrackClick_Handler_UnknownSubscription(t *testing.T) {
	db := setupTestDB(t)
	h, _ := newAlertHandler(t, db)
	listing := seedPublishedListing(t, db, "Tax Associate", "tax-associate")

	e := echo.New()
	url := fmt.Sprintf("/api/v1/job-alerts/click?subscription_id=999&listing_id=%d", listing.ID)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.TrackClick(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackClick_Handler_BadParams(t *testing.T) {
	db := setupTestDB(t)
	h, _ := newAlertHandler(t, db)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/job-alerts/click?subscription_id=abc&listing_id=1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.TrackClick(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
