package alerts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/lexhire/lexhire/pkg/cache"
	"github.com/lexhire/lexhire/pkg/mailqueue"
	"github.com/lexhire/lexhire/pkg/models"
)

// ListingMatcher finds listings matching a subscription's filters.
type ListingMatcher interface {
	MatchSubscription(ctx context.Context, sub *models.JobAlertSubscription, cutoff time.Time, limit int) ([]models.JobListing, error)
}

// DigestEnqueuer hands a digest off for delivery.
type DigestEnqueuer interface {
	EnqueueDigest(ctx context.Context, event mailqueue.DigestEmailEvent) error
}

// DispatcherConfig carries tunables for a digest run.
type DispatcherConfig struct {
	BatchSize    int
	MaxListings  int
	LeaseTTL     time.Duration
	PublicAPIURL string
}

// RunStats summarizes one digest run.
type RunStats struct {
	Frequency string
	Scanned   int
	Enqueued  int
	Skipped   int
	Failed    int
}

// Dispatcher walks active subscriptions of a frequency, matches recent
// listings for each, and enqueues one digest email per subscription
// with matches.
type Dispatcher struct {
	db       *gorm.DB
	cache    *cache.Client
	matcher  ListingMatcher
	enqueuer DigestEnqueuer
	cfg      DispatcherConfig
}

// NewDispatcher creates a digest dispatcher.
func NewDispatcher(db *gorm.DB, cacheClient *cache.Client, matcher ListingMatcher, enqueuer DigestEnqueuer, cfg DispatcherConfig) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxListings <= 0 {
		cfg.MaxListings = 50
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 30 * time.Minute
	}
	return &Dispatcher{db: db, cache: cacheClient, matcher: matcher, enqueuer: enqueuer, cfg: cfg}
}

// ErrRunInProgress reports that another run for the same frequency
// currently holds the dispatch lease.
var ErrRunInProgress = errors.New("digest run already in progress")

// Run dispatches digests for the given frequency. An empty frequency
// runs daily and then weekly. Overlapping runs for one frequency are
// prevented with a Redis lease so duplicate digests are never sent.
func (d *Dispatcher) Run(ctx context.Context, frequency string) (*RunStats, error) {
	switch frequency {
	case "":
		daily, err := d.runFrequency(ctx, models.FrequencyDaily)
		if err != nil {
			return daily, err
		}
		weekly, err := d.runFrequency(ctx, models.FrequencyWeekly)
		if err != nil {
			return weekly, err
		}
		return &RunStats{
			Frequency: "all",
			Scanned:   daily.Scanned + weekly.Scanned,
			Enqueued:  daily.Enqueued + weekly.Enqueued,
			Skipped:   daily.Skipped + weekly.Skipped,
			Failed:    daily.Failed + weekly.Failed,
		}, nil
	case models.FrequencyDaily, models.FrequencyWeekly:
		return d.runFrequency(ctx, frequency)
	default:
		return nil, fmt.Errorf("unknown digest frequency %q", frequency)
	}
}

func (d *Dispatcher) runFrequency(ctx context.Context, frequency string) (*RunStats, error) {
	leaseKey := "alerts:dispatch:lease:" + frequency
	acquired, err := d.cache.SetNX(ctx, leaseKey, time.Now().UTC().Format(time.RFC3339), d.cfg.LeaseTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire dispatch lease: %w", err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := d.cache.Delete(context.Background(), leaseKey); err != nil {
			log.Printf("dispatcher: failed to release lease %s: %v", leaseKey, err)
		}
	}()

	cutoff := time.Now().Add(-24 * time.Hour)
	if frequency == models.FrequencyWeekly {
		cutoff = time.Now().Add(-7 * 24 * time.Hour)
	}

	stats := &RunStats{Frequency: frequency}
	log.Printf("🕐 dispatching %s digests, cutoff %s", frequency, cutoff.Format(time.RFC3339))

	var lastID uint
	for {
		var batch []models.JobAlertSubscription
		err := d.db.WithContext(ctx).
			Preload("PracticeAreas").
			Where("frequency = ? AND is_active = ? AND id > ?", frequency, true, lastID).
			Order("id ASC").
			Limit(d.cfg.BatchSize).
			Find(&batch).Error
		if err != nil {
			return stats, fmt.Errorf("failed to load subscriptions: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		lastID = batch[len(batch)-1].ID

		for i := range batch {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			stats.Scanned++
			if err := d.dispatchOne(ctx, &batch[i], cutoff, stats); err != nil {
				stats.Failed++
				log.Printf("❌ dispatcher: subscription %d failed: %v", batch[i].ID, err)
				if uerr := d.db.WithContext(ctx).Model(&batch[i]).
					UpdateColumn("failed_count", gorm.Expr("failed_count + 1")).Error; uerr != nil {
					log.Printf("dispatcher: failed to bump failed_count for %d: %v", batch[i].ID, uerr)
				}
			}
		}
	}

	log.Printf("✅ %s digest run complete: scanned=%d enqueued=%d skipped=%d failed=%d",
		frequency, stats.Scanned, stats.Enqueued, stats.Skipped, stats.Failed)
	return stats, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, sub *models.JobAlertSubscription, cutoff time.Time, stats *RunStats) error {
	var user models.User
	err := d.db.WithContext(ctx).First(&user, sub.UserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			stats.Skipped++
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.EmailNotifications || !user.JobAlerts {
		stats.Skipped++
		return nil
	}

	matches, err := d.matcher.MatchSubscription(ctx, sub, cutoff, d.cfg.MaxListings)
	if err != nil {
		return fmt.Errorf("failed to match listings: %w", err)
	}
	if len(matches) == 0 {
		stats.Skipped++
		return nil
	}

	event := mailqueue.DigestEmailEvent{
		SubscriptionID: sub.ID,
		UserID:         user.ID,
		Email:          user.Email,
		UserName:       user.Name,
		Frequency:      sub.Frequency,
		Listings:       make([]mailqueue.DigestListing, 0, len(matches)),
		GeneratedAt:    time.Now().UTC(),
	}
	for _, listing := range matches {
		dl := mailqueue.DigestListing{
			ID:          listing.ID,
			Title:       listing.Title,
			FirmName:    listing.LawFirm.Name,
			ClickURL:    d.clickURL(sub.ID, listing.ID),
			PublishedAt: listing.PublishedAt,
		}
		if listing.Location != nil {
			dl.Location = listing.Location.Name
		}
		event.Listings = append(event.Listings, dl)
	}

	if err := d.enqueuer.EnqueueDigest(ctx, event); err != nil {
		return fmt.Errorf("failed to enqueue digest: %w", err)
	}

	// Counter bumps happen in SQL so concurrent runs of the other
	// frequency never clobber each other.
	err = d.db.WithContext(ctx).Model(sub).Updates(map[string]interface{}{
		"last_sent_at": time.Now(),
		"sent_count":   gorm.Expr("sent_count + 1"),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update send counters: %w", err)
	}

	stats.Enqueued++
	return nil
}

func (d *Dispatcher) clickURL(subscriptionID, listingID uint) string {
	return fmt.Sprintf("%s/api/v1/job-alerts/click?subscription_id=%d&listing_id=%d",
		d.cfg.PublicAPIURL, subscriptionID, listingID)
}
