package interactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lexhire/lexhire/pkg/domain"
	"github.com/lexhire/lexhire/pkg/models"
)

// Service tracks per-user job interactions (saved jobs and applications)
type Service struct {
	db *gorm.DB
}

// NewService creates a new interaction service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListRequest represents interaction list filters
type ListRequest struct {
	Type   string `query:"type" validate:"omitempty,oneof=saved applied"`
	Status string `query:"status" validate:"omitempty,oneof=active archived"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}

// ListResult is a page of a user's interactions
type ListResult struct {
	Interactions []models.UserJobInteraction `json:"interactions"`
	Total        int64                       `json:"total"`
	Page         int                         `json:"page"`
	Limit        int                         `json:"limit"`
}

// Upsert records an interaction of the given type between a user and a
// listing. Saving or applying twice is idempotent: an existing row is
// reactivated rather than duplicated. For applications the application
// status and applied timestamp are set once, on first creation, and
// survive archive/reactivate cycles.
func (s *Service) Upsert(ctx context.Context, userID, listingID uint, interactionType string) (*models.UserJobInteraction, error) {
	if interactionType != models.InteractionSaved && interactionType != models.InteractionApplied {
		return nil, domain.NewValidationError("invalid interaction type")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.JobListing{}).Where("id = ?", listingID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check listing: %w", err)
	}
	if count == 0 {
		return nil, domain.NewNotFoundError("job listing")
	}

	var existing models.UserJobInteraction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND job_listing_id = ? AND type = ?", userID, listingID, interactionType).
		First(&existing).Error
	if err == nil {
		if existing.Status != models.InteractionStatusActive {
			if err := s.db.WithContext(ctx).Model(&existing).Update("status", models.InteractionStatusActive).Error; err != nil {
				return nil, fmt.Errorf("failed to reactivate interaction: %w", err)
			}
			existing.Status = models.InteractionStatusActive
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up interaction: %w", err)
	}

	interaction := &models.UserJobInteraction{
		UserID:       userID,
		JobListingID: listingID,
		Type:         interactionType,
		Status:       models.InteractionStatusActive,
	}
	if interactionType == models.InteractionApplied {
		now := time.Now()
		interaction.ApplicationStatus = models.ApplicationApplied
		interaction.AppliedAt = &now
	}
	if err := s.db.WithContext(ctx).Create(interaction).Error; err != nil {
		return nil, fmt.Errorf("failed to create interaction: %w", err)
	}
	return interaction, nil
}

// Archive archives an active interaction owned by the user. Rows that
// do not exist, belong to someone else, or are already archived all
// report not found.
func (s *Service) Archive(ctx context.Context, userID, listingID uint, interactionType string) error {
	res := s.db.WithContext(ctx).
		Model(&models.UserJobInteraction{}).
		Where("user_id = ? AND job_listing_id = ? AND type = ? AND status = ?",
			userID, listingID, interactionType, models.InteractionStatusActive).
		Update("status", models.InteractionStatusArchived)
	if res.Error != nil {
		return fmt.Errorf("failed to archive interaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("interaction")
	}
	return nil
}

// UpdateApplicationStatus moves an active application through the
// pipeline. Only the row's owner may update it.
func (s *Service) UpdateApplicationStatus(ctx context.Context, userID, listingID uint, status string) (*models.UserJobInteraction, error) {
	if !models.ValidApplicationStatus(status) {
		return nil, domain.NewValidationError("invalid application status")
	}

	interaction, err := s.ownedActive(ctx, userID, listingID, models.InteractionApplied)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(interaction).Update("application_status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}
	interaction.ApplicationStatus = status
	return interaction, nil
}

// UpdateSavedNotes replaces the notes on an active saved interaction.
// The text is stored verbatim, an empty string clears it.
func (s *Service) UpdateSavedNotes(ctx context.Context, userID, listingID uint, notes string) (*models.UserJobInteraction, error) {
	interaction, err := s.ownedActive(ctx, userID, listingID, models.InteractionSaved)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(interaction).Update("notes", notes).Error; err != nil {
		return nil, fmt.Errorf("failed to update notes: %w", err)
	}
	interaction.Notes = notes
	return interaction, nil
}

// List returns a page of the user's interactions, most recent first.
func (s *Service) List(ctx context.Context, userID uint, req ListRequest) (*ListResult, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := s.db.WithContext(ctx).Model(&models.UserJobInteraction{}).Where("user_id = ?", userID)
	if req.Type != "" {
		q = q.Where("type = ?", req.Type)
	}
	if req.Status != "" {
		q = q.Where("status = ?", req.Status)
	} else {
		q = q.Where("status = ?", models.InteractionStatusActive)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count interactions: %w", err)
	}

	var results []models.UserJobInteraction
	err := q.
		Preload("JobListing").
		Preload("JobListing.LawFirm").
		Preload("JobListing.Location").
		Order("updated_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}

	return &ListResult{Interactions: results, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) ownedActive(ctx context.Context, userID, listingID uint, interactionType string) (*models.UserJobInteraction, error) {
	var interaction models.UserJobInteraction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND job_listing_id = ? AND type = ? AND status = ?",
			userID, listingID, interactionType, models.InteractionStatusActive).
		First(&interaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("interaction")
		}
		return nil, fmt.Errorf("failed to load interaction: %w", err)
	}
	return &interaction, nil
}
