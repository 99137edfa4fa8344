package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/lexhire/lexhire/pkg/domain"
	"github.com/lexhire/lexhire/pkg/models"
)

// Service manages job alert subscriptions and alert click tracking
type Service struct {
	db          *gorm.DB
	frontendURL string
}

// NewService creates a new alert service. frontendURL is the public
// site base used to build redirect targets for tracked clicks.
func NewService(db *gorm.DB, frontendURL string) *Service {
	return &Service{db: db, frontendURL: strings.TrimRight(frontendURL, "/")}
}

// CreateSubscriptionRequest represents a request to create a job alert
type CreateSubscriptionRequest struct {
	Frequency       string   `json:"frequency" validate:"required,oneof=daily weekly"`
	EmploymentTypes []string `json:"employment_types" validate:"omitempty,dive,oneof=full_time part_time contract internship"`
	PracticeAreaIDs []uint   `json:"practice_area_ids"`
	LocationID      *uint    `json:"location_id,omitempty"`
	Keyword         string   `json:"keyword" validate:"omitempty,max=100"`
	ExperienceLevel string   `json:"experience_level" validate:"omitempty,max=50"`
}

// CreateSubscription creates a job alert subscription for the user.
// Each user may hold at most MaxActiveSubscriptions active alerts.
func (s *Service) CreateSubscription(ctx context.Context, userID uint, req CreateSubscriptionRequest) (*models.JobAlertSubscription, error) {
	if req.Frequency != models.FrequencyDaily && req.Frequency != models.FrequencyWeekly {
		return nil, domain.NewValidationError("frequency must be daily or weekly")
	}
	if !models.ValidEmploymentTypes(req.EmploymentTypes) {
		return nil, domain.NewValidationError("invalid employment type filter")
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

	var active int64
	err = s.db.WithContext(ctx).Model(&models.JobAlertSubscription{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&active).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	if active >= models.MaxActiveSubscriptions {
		return nil, domain.NewLimitExceededError(models.MaxActiveSubscriptions)
	}

	sub := &models.JobAlertSubscription{
		UserID:          userID,
		Frequency:       req.Frequency,
		EmploymentTypes: req.EmploymentTypes,
		LocationID:      req.LocationID,
		Keyword:         strings.TrimSpace(req.Keyword),
		ExperienceLevel: req.ExperienceLevel,
		IsActive:        true,
		PracticeAreas:   areas,
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return sub, nil
}

// ListSubscriptions returns the user's subscriptions, newest first.
func (s *Service) ListSubscriptions(ctx context.Context, userID uint) ([]models.JobAlertSubscription, error) {
	var subs []models.JobAlertSubscription
	err := s.db.WithContext(ctx).
		Preload("PracticeAreas").
		Preload("Location").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// DeleteSubscription permanently removes a subscription owned by the
// user. A subscription owned by someone else reports not found.
func (s *Service) DeleteSubscription(ctx context.Context, userID, subscriptionID uint) error {
	var sub models.JobAlertSubscription
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", subscriptionID, userID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("subscription")
		}
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_alert_subscription_id = ?", sub.ID).
			Delete(&models.JobAlertClick{}).Error; err != nil {
			return fmt.Errorf("failed to delete click log: %w", err)
		}
		if err := tx.Model(&sub).Association("PracticeAreas").Clear(); err != nil {
			return fmt.Errorf("failed to clear practice areas: %w", err)
		}
		if err := tx.Delete(&sub).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}

// RecordClick records a digest link click and returns the public URL
// of the clicked listing. Unknown subscription or listing ids report
// not found and record nothing.
func (s *Service) RecordClick(ctx context.Context, subscriptionID, listingID uint, ipAddress, userAgent string) (string, error) {
	var sub models.JobAlertSubscription
	if err := s.db.WithContext(ctx).First(&sub, subscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.NewNotFoundError("subscription")
		}
		return "", fmt.Errorf("failed to load subscription: %w", err)
	}

	var listing models.JobListing
	if err := s.db.WithContext(ctx).First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.NewNotFoundError("job listing")
		}
		return "", fmt.Errorf("failed to load listing: %w", err)
	}

	click := &models.JobAlertClick{
		JobAlertSubscriptionID: subscriptionID,
		JobListingID:           listingID,
		IPAddress:              ipAddress,
		UserAgent:              userAgent,
	}
	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		return "", fmt.Errorf("failed to record click: %w", err)
	}

	// Increment in SQL so concurrent clicks never lose counts.
	err := s.db.WithContext(ctx).Model(&sub).
		UpdateColumn("click_count", gorm.Expr("click_count + 1")).Error
	if err != nil {
		return "", fmt.Errorf("failed to update click count: %w", err)
	}

	return s.PublicListingURL(listing.Slug), nil
}

// PublicListingURL builds the public job page URL for a listing slug.
func (s *Service) PublicListingURL(slug string) string {
	return fmt.Sprintf("%s/jobs/%s", s.frontendURL, slug)
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
