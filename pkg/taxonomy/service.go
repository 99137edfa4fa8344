package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lexhire/lexhire/pkg/cache"
	"github.com/lexhire/lexhire/pkg/domain"
	"github.com/lexhire/lexhire/pkg/models"
	"github.com/lexhire/lexhire/pkg/slug"
)

const treeCacheKey = "taxonomy:practice_area_tree"
const treeCacheTTL = 10 * time.Minute

// Service handles practice area and location business logic
type Service struct {
	db    *gorm.DB
	cache *cache.Client
}

// NewService creates a new taxonomy service. The cache is optional;
// when nil the practice area tree is always read from the database.
func NewService(db *gorm.DB, cacheClient *cache.Client) *Service {
	return &Service{db: db, cache: cacheClient}
}

// CreatePracticeArea creates a practice area, optionally under a
// parent.
func (s *Service) CreatePracticeArea(ctx context.Context, name string, parentID *uint) (*models.PracticeArea, error) {
	if parentID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.PracticeArea{}).Where("id = ?", *parentID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check parent: %w", err)
		}
		if count == 0 {
			return nil, domain.NewNotFoundError("parent practice area")
		}
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.PracticeArea{}).Where("name = ?", name).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check name: %w", err)
	}
	if existing > 0 {
		return nil, domain.NewConflictError("A practice area with this name already exists")
	}

	area := &models.PracticeArea{Name: name, ParentID: parentID}
	if err := s.db.WithContext(ctx).Create(area).Error; err != nil {
		return nil, fmt.Errorf("failed to create practice area: %w", err)
	}

	s.invalidateTree(ctx)
	return area, nil
}

// Reparent moves a practice area under a new parent (nil moves it to
// the root). The move is rejected when it would create a cycle: the
// walk up from the new parent must never reach the area itself. The
// walk is bounded by the total node count so corrupted data cannot
// loop forever.
func (s *Service) Reparent(ctx context.Context, areaID uint, newParentID *uint) (*models.PracticeArea, error) {
	var area models.PracticeArea
	if err := s.db.WithContext(ctx).First(&area, areaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("practice area")
		}
		return nil, fmt.Errorf("failed to load practice area: %w", err)
	}

	if newParentID != nil {
		if *newParentID == areaID {
			return nil, domain.NewCycleDetectedError("A practice area cannot be its own parent")
		}

		parents, err := s.parentMap(ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := parents[*newParentID]; !ok {
			return nil, domain.NewNotFoundError("parent practice area")
		}

		// Walk up from the new parent. Bounded by the node count so a
		// pre-existing cycle in stored data terminates the loop.
		cursor := newParentID
		for steps := 0; cursor != nil && steps < len(parents); steps++ {
			if *cursor == areaID {
				return nil, domain.NewCycleDetectedError("Moving this practice area under one of its descendants would create a cycle")
			}
			cursor = parents[*cursor]
		}
	}

	if err := s.db.WithContext(ctx).Model(&area).Update("parent_id", newParentID).Error; err != nil {
		return nil, fmt.Errorf("failed to reparent practice area: %w", err)
	}

	area.ParentID = newParentID
	s.invalidateTree(ctx)
	return &area, nil
}

// DeletePracticeArea removes a practice area. Areas that still have
// children cannot be deleted; move or delete the children first.
func (s *Service) DeletePracticeArea(ctx context.Context, areaID uint) error {
	var area models.PracticeArea
	if err := s.db.WithContext(ctx).First(&area, areaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("practice area")
		}
		return fmt.Errorf("failed to load practice area: %w", err)
	}

	var children int64
	if err := s.db.WithContext(ctx).Model(&models.PracticeArea{}).Where("parent_id = ?", areaID).Count(&children).Error; err != nil {
		return fmt.Errorf("failed to count children: %w", err)
	}
	if children > 0 {
		return domain.NewConflictError("Practice area still has sub-areas")
	}

	if err := s.db.WithContext(ctx).Delete(&area).Error; err != nil {
		return fmt.Errorf("failed to delete practice area: %w", err)
	}

	s.invalidateTree(ctx)
	return nil
}

// Tree returns all practice areas as a forest of root nodes with
// nested children.
func (s *Service) Tree(ctx context.Context) ([]*models.PracticeArea, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, treeCacheKey); err == nil && cached != "" {
			var tree []*models.PracticeArea
			if err := json.Unmarshal([]byte(cached), &tree); err == nil {
				return tree, nil
			}
		}
	}

	var areas []models.PracticeArea
	if err := s.db.WithContext(ctx).Order("name").Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("failed to list practice areas: %w", err)
	}

	byID := make(map[uint]*models.PracticeArea, len(areas))
	for i := range areas {
		byID[areas[i].ID] = &areas[i]
	}

	var roots []*models.PracticeArea
	for i := range areas {
		node := &areas[i]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := byID[*node.ParentID]
		if !ok {
			// Orphaned by a deleted parent; surface it at the root.
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, *node)
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(roots); err == nil {
			_ = s.cache.Set(ctx, treeCacheKey, string(encoded), treeCacheTTL)
		}
	}

	return roots, nil
}

// parentMap loads the id -> parent_id map for every practice area.
func (s *Service) parentMap(ctx context.Context) (map[uint]*uint, error) {
	var areas []models.PracticeArea
	if err := s.db.WithContext(ctx).Select("id", "parent_id").Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("failed to load practice areas: %w", err)
	}

	parents := make(map[uint]*uint, len(areas))
	for _, a := range areas {
		parents[a.ID] = a.ParentID
	}
	return parents, nil
}

func (s *Service) invalidateTree(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, treeCacheKey)
	}
}

// CreateLocation creates a location. The slug is derived from the
// name when absent, with numeric suffixes on collision.
func (s *Service) CreateLocation(ctx context.Context, name, slugOverride, region, country string, isRemote bool) (*models.Location, error) {
	base := slugOverride
	if base == "" {
		base = slug.Make(name)
	}

	unique, err := s.uniqueLocationSlug(ctx, base)
	if err != nil {
		return nil, err
	}

	loc := &models.Location{
		Name:     name,
		Slug:     unique,
		Region:   region,
		Country:  country,
		IsRemote: isRemote,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(loc).Error; err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	return loc, nil
}

// ListLocations returns all active locations ordered by name.
func (s *Service) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// RecalculateJobCounts refreshes the denormalized job_count on every
// location from the count of publicly visible listings. It is invoked
// on demand and from the nightly cron, never maintained per-write.
func (s *Service) RecalculateJobCounts(ctx context.Context) error {
	err := s.db.WithContext(ctx).Exec(`
		UPDATE locations SET job_count = (
			SELECT COUNT(*) FROM job_listings
			JOIN law_firms ON law_firms.id = job_listings.law_firm_id
			WHERE job_listings.location_id = locations.id
			  AND job_listings.is_active = ?
			  AND job_listings.published_at IS NOT NULL
			  AND job_listings.deleted_at IS NULL
			  AND law_firms.is_active = ?
			  AND law_firms.deleted_at IS NULL
		)`, true, true).Error
	if err != nil {
		return fmt.Errorf("failed to recalculate job counts: %w", err)
	}
	return nil
}

func (s *Service) uniqueLocationSlug(ctx context.Context, base string) (string, error) {
	for n := 1; ; n++ {
		candidate := slug.WithSuffix(base, n)
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Location{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
	}
}
