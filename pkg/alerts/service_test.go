package alerts

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lexhire/lexhire/pkg/domain"
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

func seedListing(t *testing.T, db *gorm.DB, slug string) *models.JobListing {
	t.Helper()
	firm := models.LawFirm{Name: "Crane & Poole", Slug: "crane-poole-" + slug, IsActive: true}
	require.NoError(t, db.Create(&firm).Error)
	listing := models.JobListing{Title: "Associate", Slug: slug, LawFirmID: firm.ID, IsActive: true}
	require.NoError(t, db.Create(&listing).Error)
	return &listing
}

func TestCreateSubscription(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	area := models.PracticeArea{Name: "Tax"}
	require.NoError(t, db.Create(&area).Error)
	loc := models.Location{Name: "London", Slug: "london", IsActive: true}
	require.NoError(t, db.Create(&loc).Error)

	sub, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{
		Frequency:       models.FrequencyWeekly,
		EmploymentTypes: []string{models.EmploymentFullTime, models.EmploymentContract},
		PracticeAreaIDs: []uint{area.ID},
		LocationID:      &loc.ID,
		Keyword:         "  tax counsel  ",
	})
	require.NoError(t, err)

	assert.Equal(t, models.FrequencyWeekly, sub.Frequency)
	assert.Equal(t, "tax counsel", sub.Keyword, "keyword is trimmed")
	assert.True(t, sub.IsActive)
	require.Len(t, sub.PracticeAreas, 1)
}

func TestCreateSubscription_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")

	_, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: "hourly"})
	de, ok := err.(*domain.DomainError)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeValidation, de.Code)

	_, err = svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{
		Frequency:       models.FrequencyDaily,
		EmploymentTypes: []string{"gig"},
	})
	de, ok = err.(*domain.DomainError)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeValidation, de.Code)

	missing := uint(999)
	_, err = svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{
		Frequency:  models.FrequencyDaily,
		LocationID: &missing,
	})
	de, ok = err.(*domain.DomainError)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeNotFound, de.Code)
}

func TestCreateSubscription_ActiveCap(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	other := seedUser(t, db, "bob@example.com")

	var firstID uint
	for i := 0; i < models.MaxActiveSubscriptions; i++ {
		sub, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{
			Frequency: models.FrequencyDaily,
			Keyword:   fmt.Sprintf("keyword-%d", i),
		})
		require.NoError(t, err)
		if i == 0 {
			firstID = sub.ID
		}
	}

	_, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyDaily})
	de, ok := err.(*domain.DomainError)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeLimitExceeded, de.Code)

	// The cap is per user
	_, err = svc.CreateSubscription(ctx, other.ID, CreateSubscriptionRequest{Frequency: models.FrequencyDaily})
	require.NoError(t, err)

	// Deactivated subscriptions free up a slot
	require.NoError(t, db.Model(&models.JobAlertSubscription{}).
		Where("id = ?", firstID).
		Update("is_active", false).Error)
	_, err = svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyDaily})
	require.NoError(t, err)
}

func TestListSubscriptions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	other := seedUser(t, db, "bob@example.com")

	_, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyDaily})
	require.NoError(t, err)
	_, err = svc.CreateSubscription(ctx, other.ID, CreateSubscriptionRequest{Frequency: models.FrequencyWeekly})
	require.NoError(t, err)

	subs, err := svc.ListSubscriptions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, user.ID, subs[0].UserID)
}

func TestDeleteSubscription_Ownership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	stranger := seedUser(t, db, "mallory@example.com")

	sub, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyDaily})
	require.NoError(t, err)

	// Someone else's delete looks like a missing record
	err = svc.DeleteSubscription(ctx, stranger.ID, sub.ID)
	de, ok := err.(*domain.DomainError)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeNotFound, de.Code)

	require.NoError(t, svc.DeleteSubscription(ctx, user.ID, sub.ID))

	var count int64
	require.NoError(t, db.Model(&models.JobAlertSubscription{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "deletion is permanent, not a soft flag")
}

func TestDeleteSubscription_RemovesClickLogAndJoinRows(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	listing := seedListing(t, db, "tax-associate")
	area := models.PracticeArea{Name: "Tax"}
	require.NoError(t, db.Create(&area).Error)

	sub, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{
		Frequency:       models.FrequencyDaily,
		PracticeAreaIDs: []uint{area.ID},
	})
	require.NoError(t, err)
	other, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyWeekly})
	require.NoError(t, err)

	_, err = svc.RecordClick(ctx, sub.ID, listing.ID, "203.0.113.9", "Mozilla/5.0")
	require.NoError(t, err)
	_, err = svc.RecordClick(ctx, other.ID, listing.ID, "203.0.113.9", "Mozilla/5.0")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSubscription(ctx, user.ID, sub.ID))

	var clicks int64
	require.NoError(t, db.Model(&models.JobAlertClick{}).
		Where("job_alert_subscription_id = ?", sub.ID).Count(&clicks).Error)
	assert.Equal(t, int64(0), clicks, "click log goes with the subscription")

	var joins int64
	require.NoError(t, db.Table("job_alert_subscription_practice_areas").
		Where("job_alert_subscription_id = ?", sub.ID).Count(&joins).Error)
	assert.Equal(t, int64(0), joins)

	// The other subscription's log is untouched
	require.NoError(t, db.Model(&models.JobAlertClick{}).
		Where("job_alert_subscription_id = ?", other.ID).Count(&clicks).Error)
	assert.Equal(t, int64(1), clicks)
}

func TestCreateSubscription_DuplicatePracticeAreaIDs(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	area := models.PracticeArea{Name: "Tax"}
	require.NoError(t, db.Create(&area).Error)

	sub, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{
		Frequency:       models.FrequencyDaily,
		PracticeAreaIDs: []uint{area.ID, area.ID},
	})
	require.NoError(t, err)
	require.Len(t, sub.PracticeAreas, 1, "repeated ids collapse to one association")
}

func TestRecordClick(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io/")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	listing := seedListing(t, db, "tax-associate")
	sub, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyDaily})
	require.NoError(t, err)

	target, err := svc.RecordClick(ctx, sub.ID, listing.ID, "203.0.113.9", "Mozilla/5.0")
	require.NoError(t, err)
	assert.Equal(t, "https://lexhire.io/jobs/tax-associate", target)

	_, err = svc.RecordClick(ctx, sub.ID, listing.ID, "203.0.113.9", "Mozilla/5.0")
	require.NoError(t, err)

	var reloaded models.JobAlertSubscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, 2, reloaded.ClickCount)

	var clicks []models.JobAlertClick
	require.NoError(t, db.Find(&clicks).Error)
	require.Len(t, clicks, 2, "every click is logged, no deduplication")
	assert.Equal(t, sub.ID, clicks[0].JobAlertSubscriptionID)
	assert.Equal(t, "203.0.113.9", clicks[0].IPAddress)
	assert.Equal(t, "Mozilla/5.0", clicks[0].UserAgent)
}

func TestRecordClick_UnknownIDsRecordNothing(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "https://lexhire.io")
	ctx := context.Background()

	user := seedUser(t, db, "alice@example.com")
	listing := seedListing(t, db, "tax-associate")
	sub, err := svc.CreateSubscription(ctx, user.ID, CreateSubscriptionRequest{Frequency: models.FrequencyDaily})
	require.NoError(t, err)

	_, err = svc.RecordClick(ctx, 999, listing.ID, "", "")
	de, ok := err.(*domain.DomainError)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeNotFound, de.Code)

	_, err = svc.RecordClick(ctx, sub.ID, 999, "", "")
	de, ok = err.(*domain.DomainError)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeNotFound, de.Code)

	var count int64
	require.NoError(t, db.Model(&models.JobAlertClick{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	var reloaded models.JobAlertSubscription
	require.NoError(t, db.First(&reloaded, sub.ID).Error)
	assert.Equal(t, 0, reloaded.ClickCount)
}
