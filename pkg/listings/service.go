package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lexhire/lexhire/pkg/domain"
	"github.com/lexhire/lexhire/pkg/models"
	"github.com/lexhire/lexhire/pkg/slug"
)

// Service handles job listing business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new listing service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateListingRequest represents a request to create a job listing
type CreateListingRequest struct {
	Title           string     `json:"title" validate:"required,min=3,max=200"`
	LawFirmID       uint       `json:"law_firm_id" validate:"required,gt=0"`
	LocationID      *uint      `json:"location_id,omitempty"`
	WorkplaceType   string     `json:"workplace_type" validate:"omitempty,oneof=onsite remote hybrid"`
	EmploymentType  string     `json:"employment_type" validate:"omitempty,oneof=full_time part_time contract internship"`
	ExperienceLevel string     `json:"experience_level"`
	SalaryMin       *int       `json:"salary_min,omitempty" validate:"omitempty,gte=0"`
	SalaryMax       *int       `json:"salary_max,omitempty" validate:"omitempty,gte=0"`
	SalaryCurrency  string     `json:"salary_currency" validate:"omitempty,len=3"`
	ClosingDate     *time.Time `json:"closing_date,omitempty"`
	Description     string     `json:"description"`
	Requirements    []string   `json:"requirements"`
	Benefits        []string   `json:"benefits"`
	PracticeAreaIDs []uint     `json:"practice_area_ids"`
	Publish         bool       `json:"publish"`
	PostedByID      *uint      `json:"-"`
}

// UpdateListingRequest represents a partial update. The slug is frozen
// at creation and never regenerated, even on a title change.
type UpdateListingRequest struct {
	Title           *string    `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	LocationID      *uint      `json:"location_id,omitempty"`
	WorkplaceType   *string    `json:"workplace_type,omitempty" validate:"omitempty,oneof=onsite remote hybrid"`
	EmploymentType  *string    `json:"employment_type,omitempty" validate:"omitempty,oneof=full_time part_time contract internship"`
	ExperienceLevel *string    `json:"experience_level,omitempty"`
	SalaryMin       *int       `json:"salary_min,omitempty"`
	SalaryMax       *int       `json:"salary_max,omitempty"`
	ClosingDate     *time.Time `json:"closing_date,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Requirements    []string   `json:"requirements,omitempty"`
	Benefits        []string   `json:"benefits,omitempty"`
	IsActive        *bool      `json:"is_active,omitempty"`
	Publish         *bool      `json:"publish,omitempty"`
	PracticeAreaIDs []uint     `json:"practice_area_ids,omitempty"`
}

// SearchRequest represents public listing search filters
type SearchRequest struct {
	Keyword        string `query:"q"`
	LocationID     uint   `query:"location_id"`
	PracticeAreaID uint   `query:"practice_area_id"`
	EmploymentType string `query:"employment_type"`
	WorkplaceType  string `query:"workplace_type"`
	Page           int    `query:"page"`
	Limit          int    `query:"limit"`
}

// SearchResult is a page of visible listings
type SearchResult struct {
	Listings []models.JobListing `json:"listings"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	Limit    int                 `json:"limit"`
}

// Create creates a job listing. The slug is derived from the title
// with numeric-suffix collision resolution and frozen afterwards.
func (s *Service) Create(ctx context.Context, req CreateListingRequest) (*models.JobListing, error) {
	var firm models.LawFirm
	if err := s.db.WithContext(ctx).First(&firm, req.LawFirmID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("law firm")
		}
		return nil, fmt.Errorf("failed to load law firm: %w", err)
	}

	if req.LocationID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Location{}).Where("id = ?", *req.LocationID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check location: %w", err)
		}
		if count == 0 {
			return nil, domain.NewNotFoundError("location")
		}
	}

	areas, err := s.resolvePracticeAreas(ctx, req.PracticeAreaIDs)
	if err != nil {
		return nil, err
	}

	uniqueSlug, err := s.uniqueSlug(ctx, slug.Make(req.Title))
	if err != nil {
		return nil, err
	}

	listing := &models.JobListing{
		Title:           req.Title,
		Slug:            uniqueSlug,
		LawFirmID:       req.LawFirmID,
		LocationID:      req.LocationID,
		WorkplaceType:   defaultString(req.WorkplaceType, models.WorkplaceOnsite),
		EmploymentType:  defaultString(req.EmploymentType, models.EmploymentFullTime),
		ExperienceLevel: req.ExperienceLevel,
		SalaryMin:       req.SalaryMin,
		SalaryMax:       req.SalaryMax,
		SalaryCurrency:  strings.ToUpper(req.SalaryCurrency),
		ClosingDate:     req.ClosingDate,
		IsActive:        true,
		Description:     req.Description,
		Requirements:    req.Requirements,
		Benefits:        req.Benefits,
		PostedByID:      req.PostedByID,
		PracticeAreas:   areas,
	}
	if req.Publish {
		now := time.Now()
		listing.PublishedAt = &now
	}

	if err := s.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return listing, nil
}

// Update applies a partial update to a listing.
func (s *Service) Update(ctx context.Context, listingID uint, req UpdateListingRequest) (*models.JobListing, error) {
	var listing models.JobListing
	if err := s.db.WithContext(ctx).First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("job listing")
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.LocationID != nil {
		updates["location_id"] = *req.LocationID
	}
	if req.WorkplaceType != nil {
		updates["workplace_type"] = *req.WorkplaceType
	}
	if req.EmploymentType != nil {
		updates["employment_type"] = *req.EmploymentType
	}
	if req.ExperienceLevel != nil {
		updates["experience_level"] = *req.ExperienceLevel
	}
	if req.SalaryMin != nil {
		updates["salary_min"] = *req.SalaryMin
	}
	if req.SalaryMax != nil {
		updates["salary_max"] = *req.SalaryMax
	}
	if req.ClosingDate != nil {
		updates["closing_date"] = *req.ClosingDate
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Requirements != nil {
		updates["requirements"] = models.StringList(req.Requirements)
	}
	if req.Benefits != nil {
		updates["benefits"] = models.StringList(req.Benefits)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Publish != nil {
		if *req.Publish {
			if listing.PublishedAt == nil {
				updates["published_at"] = time.Now()
			}
		} else {
			updates["published_at"] = nil
		}
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&listing).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update listing: %w", err)
		}
	}

	if req.PracticeAreaIDs != nil {
		areas, err := s.resolvePracticeAreas(ctx, req.PracticeAreaIDs)
		if err != nil {
			return nil, err
		}
		if err := s.db.WithContext(ctx).Model(&listing).Association("PracticeAreas").Replace(areas); err != nil {
			return nil, fmt.Errorf("failed to update practice areas: %w", err)
		}
	}

	var reloaded models.JobListing
	if err := s.db.WithContext(ctx).Preload("PracticeAreas").Preload("LawFirm").Preload("Location").First(&reloaded, listing.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload listing: %w", err)
	}
	return &reloaded, nil
}

// Delete soft-deletes a listing.
func (s *Service) Delete(ctx context.Context, listingID uint) error {
	res := s.db.WithContext(ctx).Delete(&models.JobListing{}, listingID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("job listing")
	}
	return nil
}

// GetBySlug returns a publicly visible listing by slug.
func (s *Service) GetBySlug(ctx context.Context, listingSlug string) (*models.JobListing, error) {
	var listing models.JobListing
	err := s.visibleScope(ctx).
		Preload("LawFirm").
		Preload("Location").
		Preload("PracticeAreas").
		Where("job_listings.slug = ?", listingSlug).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("job listing")
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	return &listing, nil
}

// GetVisibleByID returns a publicly visible listing by id. Used by the
// click tracker to resolve the redirect target.
func (s *Service) GetVisibleByID(ctx context.Context, listingID uint) (*models.JobListing, error) {
	var listing models.JobListing
	err := s.visibleScope(ctx).
		Where("job_listings.id = ?", listingID).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("job listing")
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	return &listing, nil
}

// Search returns a page of publicly visible listings, newest first.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := s.visibleScope(ctx)
	if req.Keyword != "" {
		q = q.Where("LOWER(job_listings.title) LIKE ?", "%"+strings.ToLower(req.Keyword)+"%")
	}
	if req.LocationID != 0 {
		q = q.Where("job_listings.location_id = ?", req.LocationID)
	}
	if req.EmploymentType != "" {
		q = q.Where("job_listings.employment_type = ?", req.EmploymentType)
	}
	if req.WorkplaceType != "" {
		q = q.Where("job_listings.workplace_type = ?", req.WorkplaceType)
	}
	if req.PracticeAreaID != 0 {
		q = q.Where(practiceAreaExists, []uint{req.PracticeAreaID})
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Model(&models.JobListing{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	var results []models.JobListing
	err := q.
		Preload("LawFirm").
		Preload("Location").
		Preload("PracticeAreas").
		Order("job_listings.published_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}

	return &SearchResult{Listings: results, Total: total, Page: page, Limit: limit}, nil
}

const practiceAreaExists = `EXISTS (
	SELECT 1 FROM job_listing_practice_areas
	WHERE job_listing_practice_areas.job_listing_id = job_listings.id
	  AND job_listing_practice_areas.practice_area_id IN ?)`

// MatchSubscription returns listings matching a subscription's
// filters, published on or after cutoff, newest first, capped at
// limit. Unset filters impose no constraint.
func (s *Service) MatchSubscription(ctx context.Context, sub *models.JobAlertSubscription, cutoff time.Time, limit int) ([]models.JobListing, error) {
	if limit <= 0 {
		limit = 50
	}

	q := s.visibleScope(ctx).Where("job_listings.published_at >= ?", cutoff)

	if len(sub.EmploymentTypes) > 0 {
		q = q.Where("job_listings.employment_type IN ?", []string(sub.EmploymentTypes))
	}
	if sub.LocationID != nil {
		q = q.Where("job_listings.location_id = ?", *sub.LocationID)
	}
	if sub.Keyword != "" {
		q = q.Where("LOWER(job_listings.title) LIKE ?", "%"+strings.ToLower(sub.Keyword)+"%")
	}
	if sub.ExperienceLevel != "" {
		q = q.Where("job_listings.experience_level = ?", sub.ExperienceLevel)
	}
	if len(sub.PracticeAreas) > 0 {
		ids := make([]uint, len(sub.PracticeAreas))
		for i, a := range sub.PracticeAreas {
			ids[i] = a.ID
		}
		q = q.Where(practiceAreaExists, ids)
	}

	var matches []models.JobListing
	err := q.
		Preload("LawFirm").
		Preload("Location").
		Order("job_listings.published_at DESC").
		Limit(limit).
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to match listings: %w", err)
	}
	return matches, nil
}

// visibleScope restricts a query to publicly visible listings: active,
// published, not soft-deleted, with an active, non-deleted firm.
func (s *Service) visibleScope(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.JobListing{}).
		Joins("JOIN law_firms ON law_firms.id = job_listings.law_firm_id").
		Where("job_listings.is_active = ?", true).
		Where("job_listings.published_at IS NOT NULL").
		Where("law_firms.is_active = ?", true).
		Where("law_firms.deleted_at IS NULL")
}

func (s *Service) resolvePracticeAreas(ctx context.Context, ids []uint) ([]models.PracticeArea, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var areas []models.PracticeArea
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve practice areas: %w", err)
	}
	if len(areas) != len(ids) {
		return nil, domain.NewValidationError("one or more practice areas do not exist")
	}
	return areas, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *Service) uniqueSlug(ctx context.Context, base string) (string, error) {
	for n := 1; ; n++ {
		candidate := slug.WithSuffix(base, n)
		var count int64
		// Unscoped so a soft-deleted listing keeps holding its slug.
		if err := s.db.WithContext(ctx).Unscoped().Model(&models.JobListing{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
	}
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
