package alerts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lexhire/lexhire/pkg/cache"
	"github.com/lexhire/lexhire/pkg/listings"
	"github.com/lexhire/lexhire/pkg/mailqueue"
	"github.com/lexhire/lexhire/pkg/models"
)

type fakeEnqueuer struct {
	events []mailqueue.DigestEmailEvent
	err    error
}

func (f *fakeEnqueuer) EnqueueDigest(_ context.Context, event mailqueue.DigestEmailEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *cache.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, cache.NewClientFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func seedPublishedListing(t *testing.T, db *gorm.DB, title, slug string, publishedAt time.Time) *models.JobListing {
	t.Helper()
	firm := models.LawFirm{Name: "Crane & Poole", Slug: "firm-" + slug, IsActive: true}
	require.NoError(t, db.Create(&firm).Error)
	listing := models.JobListing{
		Title:       title,
		Slug:        slug,
		LawFirmID:   firm.ID,
		IsActive:    true,
		PublishedAt: &publishedAt,
	}
	require.NoError(t, db.Create(&listing).Error)
	return &listing
}

func newTestDispatcher(t *testing.T, db *gorm.DB, enqueuer DigestEnqueuer) (*Dispatcher, *miniredis.Miniredis) {
	t.Helper()
	mr, cacheClient := newTestCache(t)
	dispatcher := NewDispatcher(db, cacheClient, listings.NewService(db), enqueuer, DispatcherConfig{
		PublicAPIURL: "https://api.lexhire.io",
	})
	return dispatcher, mr
}

func TestDispatcherRun_EnqueuesMatchingDigests(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	listing := seedPublishedListing(t, db, "Tax Associate", "tax-associate", time.Now().Add(-2*time.Hour))

	daily, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyDaily})
	require.NoError(t, err)
	_, err = svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyWeekly})
	require.NoError(t, err)

	enqueuer := &fakeEnqueuer{}
	dispatcher, mr := newTestDispatcher(t, db, enqueuer)

	stats, err := dispatcher.Run(ctx, models.FrequencyDaily)
	require.NoError(t, err)

	assert.Equal(t, models.FrequencyDaily, stats.Frequency)
	assert.Equal(t, 1, stats.Scanned, "the weekly subscription is out of scope")
	assert.Equal(t, 1, stats.Enqueued)
	assert.Equal(t, 0, stats.Failed)

	require.Len(t, enqueuer.events, 1)
	event := enqueuer.events[0]
	assert.Equal(t, daily.ID, event.SubscriptionID)
	assert.Equal(t, "alice@example.com", event.Email)
	assert.Equal(t, models.FrequencyDaily, event.Frequency)
	require.Len(t, event.Listings, 1)
	assert.Equal(t, "Tax Associate", event.Listings[0].Title)
	assert.Equal(t, "Crane & Poole", event.Listings[0].FirmName)
	assert.Equal(t,
		fmt.Sprintf("https://api.lexhire.io/api/v1/job-alerts/click?subscription_id=%d&listing_id=%d", daily.ID, listing.ID),
		event.Listings[0].ClickURL)

	var reloaded models.JobAlertSubscription
	require.NoError(t, db.First(&reloaded, daily.ID).Error)
	assert.Equal(t, 1, reloaded.SentCount)
	assert.NotNil(t, reloaded.LastSentAt)

	assert.False(t, mr.Exists("alerts:dispatch:lease:daily"), "lease is released after the run")
}

func TestDispatcherRun_SkipsUsersWithAlertsOff(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "quiet@example.com")
	require.NoError(t, db.Model(user).Update("job_alerts", false).Error)
	seedPublishedListing(t, db, "Tax Associate", "tax-associate", time.Now().Add(-2*time.Hour))

	sub, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyDaily})
	require.NoError(t, err)

	enqueuer := &fakeEnqueuer{}
	dispatcher, _ := newTestDispatcher(t, db, enqueuer)

	stats, err := dispatcher.Run(ctx, models.FrequencyDaily)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Enqueued)
	assert.Empty(t, enqueuer.events)

	var reloaded models.JobAlertSubscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, 0, reloaded.SentCount)
	assert.Nil(t, reloaded.LastSentAt)
}

func TestDispatcherRun_SkipsSubscriptionsWithoutMatches(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	// Published outside the daily window
	seedPublishedListing(t, db, "Old Role", "old-role", time.Now().Add(-48*time.Hour))

	_, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyDaily})
	require.NoError(t, err)

	enqueuer := &fakeEnqueuer{}
	dispatcher, _ := newTestDispatcher(t, db, enqueuer)

	stats, err := dispatcher.Run(ctx, models.FrequencyDaily)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 1, stats.Skipped, "empty digests are never sent")
	assert.Empty(t, enqueuer.events)

	// The weekly window still reaches back far enough
	weekly, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyWeekly})
	require.NoError(t, err)

	stats, err = dispatcher.Run(ctx, models.FrequencyWeekly)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Enqueued)
	require.Len(t, enqueuer.events, 1)
	assert.Equal(t, weekly.ID, enqueuer.events[0].SubscriptionID)
}

func TestDispatcherRun_LeaseBlocksOverlappingRuns(t *testing.T) {
	db := setupTestDB(t)

	enqueuer := &fakeEnqueuer{}
	dispatcher, mr := newTestDispatcher(t, db, enqueuer)

	require.NoError(t, mr.Set("alerts:dispatch:lease:daily", "held"))

	_, err := dispatcher.Run(context.Background(), models.FrequencyDaily)
	assert.True(t, errors.Is(err, ErrRunInProgress))

	// The held lease is not released by the rejected run
	assert.True(t, mr.Exists("alerts:dispatch:lease:daily"))
}

func TestDispatcherRun_EnqueueFailureBumpsFailedCount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	seedPublishedListing(t, db, "Tax Associate", "tax-associate", time.Now().Add(-2*time.Hour))

	sub, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyDaily})
	require.NoError(t, err)

	enqueuer := &fakeEnqueuer{err: errors.New("broker unavailable")}
	dispatcher, _ := newTestDispatcher(t, db, enqueuer)

	stats, err := dispatcher.Run(ctx, models.FrequencyDaily)
	require.NoError(t, err, "one bad subscription never aborts the run")
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Enqueued)

	var reloaded models.JobAlertSubscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, 1, reloaded.FailedCount)
	assert.Equal(t, 0, reloaded.SentCount)
	assert.Nil(t, reloaded.LastSentAt)
}

func TestDispatcherRun_AllFrequencies(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	seedPublishedListing(t, db, "Tax Associate", "tax-associate", time.Now().Add(-2*time.Hour))

	_, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyDaily})
	require.NoError(t, err)
	_, err = svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyWeekly})
	require.NoError(t, err)

	enqueuer := &fakeEnqueuer{}
	dispatcher, _ := newTestDispatcher(t, db, enqueuer)

	stats, err := dispatcher.Run(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "all", stats.Frequency)
	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 2, stats.Enqueued)
	assert.Len(t, enqueuer.events, 2)
}

func TestDispatcherRun_UnknownFrequency(t *testing.T) {
	db := setupTestDB(t)

	dispatcher, _ := newTestDispatcher(t, db, &fakeEnqueuer{})

	_, err := dispatcher.Run(context.Background(), "hourly")
	assert.Error(t, err)
}
