package firms

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lexhire/lexhire/pkg/domain"
	"github.com/lexhire/lexhire/pkg/models"
	"github.com/lexhire/lexhire/pkg/slug"
)

// Service handles law firm business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new law firm service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateFirmRequest represents a request to create a law firm
type CreateFirmRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=160"`
	Website         string `json:"website" validate:"omitempty,url"`
	Description     string `json:"description"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone"`
	PracticeAreaIDs []uint `json:"practice_area_ids"`
}

// UpdateFirmRequest represents a partial update to a law firm
type UpdateFirmRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=2,max=160"`
	Website         *string `json:"website,omitempty" validate:"omitempty,url"`
	Description     *string `json:"description,omitempty"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string `json:"phone,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
	PracticeAreaIDs []uint  `json:"practice_area_ids,omitempty"`
}

// Create creates a law firm with a slug derived from its name.
func (s *Service) Create(ctx context.Context, req CreateFirmRequest) (*models.LawFirm, error) {
	areas, err := s.resolvePracticeAreas(ctx, req.PracticeAreaIDs)
	if err != nil {
		return nil, err
	}

	uniqueSlug, err := s.uniqueSlug(ctx, slug.Make(req.Name), 0)
	if err != nil {
		return nil, err
	}

	firm := &models.LawFirm{
		Name:          req.Name,
		Slug:          uniqueSlug,
		Website:       req.Website,
		Description:   req.Description,
		Email:         req.Email,
		Phone:         req.Phone,
		IsActive:      true,
		PracticeAreas: areas,
	}
	if err := s.db.WithContext(ctx).Create(firm).Error; err != nil {
		return nil, fmt.Errorf("failed to create law firm: %w", err)
	}
	return firm, nil
}

// Update applies a partial update. A rename regenerates the slug,
// unlike job listings whose slug is frozen at creation.
func (s *Service) Update(ctx context.Context, firmID uint, req UpdateFirmRequest) (*models.LawFirm, error) {
	var firm models.LawFirm
	if err := s.db.WithContext(ctx).First(&firm, firmID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("law firm")
		}
		return nil, fmt.Errorf("failed to load law firm: %w", err)
	}

	updates := map[string]interface{}{}
	if req.Name != nil && *req.Name != firm.Name {
		newSlug, err := s.uniqueSlug(ctx, slug.Make(*req.Name), firm.ID)
		if err != nil {
			return nil, err
		}
		updates["name"] = *req.Name
		updates["slug"] = newSlug
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&firm).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update law firm: %w", err)
		}
	}

	if req.PracticeAreaIDs != nil {
		areas, err := s.resolvePracticeAreas(ctx, req.PracticeAreaIDs)
		if err != nil {
			return nil, err
		}
		if err := s.db.WithContext(ctx).Model(&firm).Association("PracticeAreas").Replace(areas); err != nil {
			return nil, fmt.Errorf("failed to update practice areas: %w", err)
		}
	}

	return s.getByID(ctx, firm.ID)
}

// GetBySlug returns an active firm by slug with its practice areas.
func (s *Service) GetBySlug(ctx context.Context, firmSlug string) (*models.LawFirm, error) {
	var firm models.LawFirm
	err := s.db.WithContext(ctx).
		Preload("PracticeAreas").
		Where("slug = ? AND is_active = ?", firmSlug, true).
		First(&firm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("law firm")
		}
		return nil, fmt.Errorf("failed to load law firm: %w", err)
	}
	return &firm, nil
}

// List returns all active firms ordered by name.
func (s *Service) List(ctx context.Context) ([]models.LawFirm, error) {
	var firms []models.LawFirm
	err := s.db.WithContext(ctx).
		Preload("PracticeAreas").
		Where("is_active = ?", true).
		Order("name").
		Find(&firms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list law firms: %w", err)
	}
	return firms, nil
}

func (s *Service) getByID(ctx context.Context, id uint) (*models.LawFirm, error) {
	var firm models.LawFirm
	if err := s.db.WithContext(ctx).Preload("PracticeAreas").First(&firm, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload law firm: %w", err)
	}
	return &firm, nil
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

// uniqueSlug finds the first free slug for base, skipping the firm's
// own row during a rename.
func (s *Service) uniqueSlug(ctx context.Context, base string, selfID uint) (string, error) {
	for n := 1; ; n++ {
		candidate := slug.WithSuffix(base, n)
		var count int64
		q := s.db.WithContext(ctx).Model(&models.LawFirm{}).Where("slug = ?", candidate)
		if selfID != 0 {
			q = q.Where("id <> ?", selfID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
	}
}
