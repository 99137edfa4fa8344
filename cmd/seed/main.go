// Command seed fills a development database with a practice-area
// tree, locations, firms, published listings, and a couple of users
// with alert subscriptions. Structural data is fixed so local runs
// are comparable; descriptive text is faked.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/lexhire/lexhire/config"
	"github.com/lexhire/lexhire/pkg/alerts"
	"github.com/lexhire/lexhire/pkg/database"
	"github.com/lexhire/lexhire/pkg/firms"
	"github.com/lexhire/lexhire/pkg/listings"
	"github.com/lexhire/lexhire/pkg/models"
	"github.com/lexhire/lexhire/pkg/taxonomy"
)

func main() {
	listingsPerFirm := flag.Int("listings", 6, "published listings per firm")
	seed := flag.Int64("seed", 42, "fake data seed")
	flag.Parse()

	gofakeit.Seed(*seed)
	cfg := config.Load()

	db, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	taxonomyService := taxonomy.NewService(db.DB, nil)
	firmService := firms.NewService(db.DB)
	listingService := listings.NewService(db.DB)
	alertService := alerts.NewService(db.DB, cfg.FrontendURL)

	// Practice-area tree: a handful of roots with children.
	tree := map[string][]string{
		"Corporate Law":    {"Mergers & Acquisitions", "Securities", "Private Equity"},
		"Litigation":       {"Commercial Litigation", "White Collar Defense"},
		"Intellectual Property": {"Patent Prosecution", "Trademark"},
		"Employment Law":   nil,
		"Tax":              nil,
	}
	areaIDs := map[string]uint{}
	for root, children := range tree {
		parent, err := taxonomyService.CreatePracticeArea(ctx, root, nil)
		if err != nil {
			log.Fatalf("❌ Failed to create practice area %q: %v", root, err)
		}
		areaIDs[root] = parent.ID
		for _, child := range children {
			area, err := taxonomyService.CreatePracticeArea(ctx, child, &parent.ID)
			if err != nil {
				log.Fatalf("❌ Failed to create practice area %q: %v", child, err)
			}
			areaIDs[child] = area.ID
		}
	}
	log.Printf("✅ Seeded %d practice areas", len(areaIDs))

	locationSpecs := []struct {
		name, region, country string
		remote                bool
	}{
		{"London", "Greater London", "United Kingdom", false},
		{"New York", "NY", "United States", false},
		{"Amsterdam", "North Holland", "Netherlands", false},
		{"Remote (Europe)", "", "", true},
	}
	var locationIDs []uint
	for _, ls := range locationSpecs {
		loc, err := taxonomyService.CreateLocation(ctx, ls.name, "", ls.region, ls.country, ls.remote)
		if err != nil {
			log.Fatalf("❌ Failed to create location %q: %v", ls.name, err)
		}
		locationIDs = append(locationIDs, loc.ID)
	}
	log.Printf("✅ Seeded %d locations", len(locationIDs))

	allAreaIDs := make([]uint, 0, len(areaIDs))
	for _, id := range areaIDs {
		allAreaIDs = append(allAreaIDs, id)
	}

	employmentTypes := []string{
		models.EmploymentFullTime, models.EmploymentPartTime,
		models.EmploymentContract, models.EmploymentInternship,
	}
	workplaceTypes := []string{models.WorkplaceOnsite, models.WorkplaceRemote, models.WorkplaceHybrid}
	experienceLevels := []string{"Junior Associate", "Associate", "Senior Associate", "Counsel", "Partner"}

	firmCount := 5
	listingTotal := 0
	for i := 0; i < firmCount; i++ {
		name := gofakeit.LastName() + " & " + gofakeit.LastName() + " LLP"
		firm, err := firmService.Create(ctx, firms.CreateFirmRequest{
			Name:            name,
			Website:         "https://" + gofakeit.DomainName(),
			Description:     gofakeit.Paragraph(1, 3, 12, " "),
			Email:           gofakeit.Email(),
			Phone:           gofakeit.Phone(),
			PracticeAreaIDs: pick(allAreaIDs, 3),
		})
		if err != nil {
			log.Fatalf("❌ Failed to create firm %q: %v", name, err)
		}

		for j := 0; j < *listingsPerFirm; j++ {
			locID := locationIDs[gofakeit.Number(0, len(locationIDs)-1)]
			salaryMin := gofakeit.Number(60, 140) * 1000
			salaryMax := salaryMin + gofakeit.Number(10, 60)*1000
			title := gofakeit.RandomString(experienceLevels) + ", " + gofakeit.RandomString([]string{
				"Corporate", "Disputes", "IP", "Employment", "Tax",
			})
			_, err := listingService.Create(ctx, listings.CreateListingRequest{
				Title:           title,
				LawFirmID:       firm.ID,
				LocationID:      &locID,
				WorkplaceType:   gofakeit.RandomString(workplaceTypes),
				EmploymentType:  gofakeit.RandomString(employmentTypes),
				ExperienceLevel: gofakeit.RandomString(experienceLevels),
				SalaryMin:       &salaryMin,
				SalaryMax:       &salaryMax,
				SalaryCurrency:  "GBP",
				Description:     gofakeit.Paragraph(2, 4, 14, " "),
				Requirements:    []string{gofakeit.Sentence(8), gofakeit.Sentence(8)},
				Benefits:        []string{gofakeit.Sentence(6)},
				PracticeAreaIDs: pick(allAreaIDs, 2),
				Publish:         true,
			})
			if err != nil {
				log.Fatalf("❌ Failed to create listing: %v", err)
			}
			listingTotal++
		}
	}
	log.Printf("✅ Seeded %d firms with %d listings", firmCount, listingTotal)

	users := []models.User{
		{Email: "admin@lexhire.io", Name: "Admin", IsAdmin: true, EmailNotifications: true, JobAlerts: true},
		{Email: gofakeit.Email(), Name: gofakeit.Name(), EmailNotifications: true, JobAlerts: true},
		{Email: gofakeit.Email(), Name: gofakeit.Name(), EmailNotifications: true, JobAlerts: true},
	}
	for i := range users {
		if err := db.DB.WithContext(ctx).Create(&users[i]).Error; err != nil {
			log.Fatalf("❌ Failed to create user: %v", err)
		}
	}
	log.Printf("✅ Seeded %d users", len(users))

	for _, u := range users[1:] {
		_, err := alertService.CreateSubscription(ctx, u.ID, alerts.CreateSubscriptionRequest{
			Frequency:       gofakeit.RandomString([]string{models.FrequencyDaily, models.FrequencyWeekly}),
			EmploymentTypes: []string{models.EmploymentFullTime},
			PracticeAreaIDs: pick(allAreaIDs, 2),
		})
		if err != nil {
			log.Fatalf("❌ Failed to create subscription for %s: %v", u.Email, err)
		}
	}
	log.Printf("✅ Seeded alert subscriptions")

	if err := taxonomyService.RecalculateJobCounts(ctx); err != nil {
		log.Fatalf("❌ Failed to refresh job counts: %v", err)
	}
	log.Printf("✅ Seed complete")
}

func pick(ids []uint, n int) []uint {
	if n >= len(ids) {
		return ids
	}
	seen := map[uint]bool{}
	var out []uint
	for len(out) < n {
		id := ids[gofakeit.Number(0, len(ids)-1)]
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
