// Command alerts runs a digest dispatch from the command line. It is
// the manual counterpart of the in-process cron schedule, useful for
// one-off runs and for external schedulers.
//
// Usage:
//
//	alerts [daily|weekly]
//
// With no argument both frequencies are dispatched, daily first.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lexhire/lexhire/config"
	"github.com/lexhire/lexhire/pkg/alerts"
	"github.com/lexhire/lexhire/pkg/cache"
	"github.com/lexhire/lexhire/pkg/database"
	"github.com/lexhire/lexhire/pkg/listings"
	"github.com/lexhire/lexhire/pkg/mailqueue"
	"github.com/lexhire/lexhire/pkg/models"
)

func main() {
	frequency := ""
	if len(os.Args) > 1 {
		frequency = os.Args[1]
	}
	switch frequency {
	case "", models.FrequencyDaily, models.FrequencyWeekly:
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [daily|weekly]\n", os.Args[0])
		os.Exit(2)
	}

	cfg := config.Load()

	db, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	listingService := listings.NewService(db.DB)
	publisher := mailqueue.NewPublisher(cfg.AMQPURL, cfg.DigestQueueName)
	dispatcher := alerts.NewDispatcher(db.DB, redisClient, listingService, publisher, alerts.DispatcherConfig{
		BatchSize:    cfg.DigestBatchSize,
		MaxListings:  cfg.DigestMaxListings,
		LeaseTTL:     time.Duration(cfg.DigestLeaseMinutes) * time.Minute,
		PublicAPIURL: cfg.PublicAPIURL,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	stats, err := dispatcher.Run(ctx, frequency)
	if err != nil {
		if err == alerts.ErrRunInProgress {
			log.Fatalf("⚠️ Dispatch skipped: another run holds the lease")
		}
		log.Fatalf("❌ Dispatch failed: %v", err)
	}

	log.Printf("✅ Dispatch done (%s): scanned=%d enqueued=%d skipped=%d failed=%d",
		stats.Frequency, stats.Scanned, stats.Enqueued, stats.Skipped, stats.Failed)
}
