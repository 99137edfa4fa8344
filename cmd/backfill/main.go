// Command backfill copies the legacy practice_area_ids JSON column on
// job alert subscriptions into the subscription practice-area join
// table. It is idempotent: join rows that already exist are skipped,
// so it can be re-run safely until the legacy column is dropped.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"log"
	"time"

	"github.com/lexhire/lexhire/config"
	"github.com/lexhire/lexhire/pkg/database"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would be written without touching the join table")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	// The legacy column is not part of the current models, so it is
	// read with raw SQL. NULL and empty values mean nothing to copy.
	rows, err := db.DB.WithContext(ctx).Raw(
		`SELECT id, practice_area_ids FROM job_alert_subscriptions
		 WHERE practice_area_ids IS NOT NULL AND practice_area_ids <> '' AND practice_area_ids <> '[]'`,
	).Rows()
	if err != nil {
		log.Fatalf("❌ Failed to read legacy column: %v", err)
	}
	defer rows.Close()

	type pending struct {
		subscriptionID uint
		areaIDs        []uint
	}
	var work []pending
	scanned := 0
	malformed := 0

	for rows.Next() {
		var subID uint
		var raw sql.NullString
		if err := rows.Scan(&subID, &raw); err != nil {
			log.Fatalf("❌ Failed to scan row: %v", err)
		}
		scanned++

		var areaIDs []uint
		if err := json.Unmarshal([]byte(raw.String), &areaIDs); err != nil {
			malformed++
			log.Printf("⚠️ Subscription %d: malformed legacy value %q, skipping", subID, raw.String)
			continue
		}
		if len(areaIDs) > 0 {
			work = append(work, pending{subscriptionID: subID, areaIDs: areaIDs})
		}
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("❌ Failed while reading rows: %v", err)
	}

	log.Printf("Found %d subscriptions with legacy data (%d malformed)", len(work), malformed)
	if *dryRun {
		for _, w := range work {
			log.Printf("  would link subscription %d to practice areas %v", w.subscriptionID, w.areaIDs)
		}
		log.Printf("✅ Dry run complete, nothing written")
		return
	}

	inserted := 0
	skipped := 0
	for _, w := range work {
		for _, areaID := range w.areaIDs {
			// Skip ids that no longer resolve to a practice area so
			// the foreign keys stay sound.
			var exists int64
			err := db.DB.WithContext(ctx).Raw(
				`SELECT COUNT(*) FROM practice_areas WHERE id = ?`, areaID,
			).Scan(&exists).Error
			if err != nil {
				log.Fatalf("❌ Failed to check practice area %d: %v", areaID, err)
			}
			if exists == 0 {
				skipped++
				log.Printf("⚠️ Subscription %d references missing practice area %d, skipping", w.subscriptionID, areaID)
				continue
			}

			var dup int64
			err = db.DB.WithContext(ctx).Raw(
				`SELECT COUNT(*) FROM job_alert_subscription_practice_areas
				 WHERE job_alert_subscription_id = ? AND practice_area_id = ?`,
				w.subscriptionID, areaID,
			).Scan(&dup).Error
			if err != nil {
				log.Fatalf("❌ Failed to check join row: %v", err)
			}
			if dup > 0 {
				skipped++
				continue
			}

			err = db.DB.WithContext(ctx).Exec(
				`INSERT INTO job_alert_subscription_practice_areas (job_alert_subscription_id, practice_area_id)
				 VALUES (?, ?)`,
				w.subscriptionID, areaID,
			).Error
			if err != nil {
				log.Fatalf("❌ Failed to insert join row: %v", err)
			}
			inserted++
		}
	}

	log.Printf("✅ Backfill complete: scanned=%d inserted=%d skipped=%d malformed=%d",
		scanned, inserted, skipped, malformed)
}
