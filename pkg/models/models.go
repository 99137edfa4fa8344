package models

import (
	"time"

	"gorm.io/gorm"
)

// Frequency values for job alert subscriptions.
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// Workplace types for job listings.
const (
	WorkplaceOnsite = "onsite"
	WorkplaceRemote = "remote"
	WorkplaceHybrid = "hybrid"
)

// Employment types for job listings and subscription filters.
const (
	EmploymentFullTime   = "full_time"
	EmploymentPartTime   = "part_time"
	EmploymentContract   = "contract"
	EmploymentInternship = "internship"
)

// Interaction types and statuses.
const (
	InteractionSaved   = "saved"
	InteractionApplied = "applied"

	InteractionStatusActive   = "active"
	InteractionStatusArchived = "archived"
)

// Application statuses tracked on an "applied" interaction.
const (
	ApplicationApplied   = "applied"
	ApplicationInterview = "interview"
	ApplicationOffer     = "offer"
	ApplicationRejected  = "rejected"
	ApplicationWithdrawn = "withdrawn"
)

// MaxActiveSubscriptions is the soft cap on active job alert
// subscriptions per user, checked at creation time.
const MaxActiveSubscriptions = 5

// ValidEmploymentTypes reports whether every value is a known
// employment type.
func ValidEmploymentTypes(types []string) bool {
	for _, t := range types {
		switch t {
		case EmploymentFullTime, EmploymentPartTime, EmploymentContract, EmploymentInternship:
		default:
			return false
		}
	}
	return true
}

// ValidApplicationStatus reports whether s is one of the five tracked
// application statuses.
func ValidApplicationStatus(s string) bool {
	switch s {
	case ApplicationApplied, ApplicationInterview, ApplicationOffer, ApplicationRejected, ApplicationWithdrawn:
		return true
	}
	return false
}

// User is a job seeker account. Authentication flows live outside this
// service; the two notification preference flags gate digest dispatch.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email   string `gorm:"uniqueIndex;not null" json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `gorm:"default:false" json:"-"`

	EmailNotifications bool `gorm:"default:true" json:"email_notifications"`
	JobAlerts          bool `gorm:"default:true" json:"job_alerts"`
}

// PracticeArea is a hierarchical legal specialty tag. The parent chain
// must stay acyclic; that is checked by the taxonomy service, not by
// the storage layer.
type PracticeArea struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `gorm:"uniqueIndex;not null;size:120" json:"name"`
	ParentID *uint  `gorm:"index" json:"parent_id,omitempty"`

	Children []PracticeArea `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// Location is a flat reference table of hiring locations. JobCount is
// denormalized and only refreshed by an explicit recalculation.
type Location struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `gorm:"not null;size:120" json:"name"`
	Slug     string `gorm:"uniqueIndex;not null;size:140" json:"slug"`
	Region   string `gorm:"size:120" json:"region"`
	Country  string `gorm:"size:120" json:"country"`
	IsRemote bool   `gorm:"default:false" json:"is_remote"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
	JobCount int    `gorm:"default:0" json:"job_count"`
}

// LawFirm is an employer profile. Slug is derived from the name and
// regenerated on rename.
type LawFirm struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"not null;size:160" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null;size:180" json:"slug"`
	Website     string `json:"website"`
	Description string `gorm:"type:text" json:"description"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	LogoPath    string `json:"logo_path"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	PracticeAreas []PracticeArea `gorm:"many2many:law_firm_practice_areas" json:"practice_areas,omitempty"`
	Listings      []JobListing   `json:"listings,omitempty"`
}

// JobListing is a published job. Slug is frozen at creation. A listing
// is publicly visible only when it is active, published, not
// soft-deleted, and its firm is active and not soft-deleted.
type JobListing struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title string `gorm:"not null;size:200" json:"title"`
	Slug  string `gorm:"uniqueIndex;not null;size:220" json:"slug"`

	LawFirmID  uint    `gorm:"not null;index" json:"law_firm_id"`
	LawFirm    LawFirm `json:"law_firm"`
	LocationID *uint   `gorm:"index" json:"location_id,omitempty"`
	Location   *Location `json:"location,omitempty"`

	WorkplaceType   string `gorm:"size:20;default:'onsite'" json:"workplace_type"`
	EmploymentType  string `gorm:"size:20;index;default:'full_time'" json:"employment_type"`
	ExperienceLevel string `gorm:"size:120" json:"experience_level"`

	SalaryMin      *int   `json:"salary_min,omitempty"`
	SalaryMax      *int   `json:"salary_max,omitempty"`
	SalaryCurrency string `gorm:"size:3" json:"salary_currency,omitempty"`

	ClosingDate *time.Time `json:"closing_date,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`

	Description  string     `gorm:"type:text" json:"description"`
	Requirements StringList `gorm:"type:text" json:"requirements"`
	Benefits     StringList `gorm:"type:text" json:"benefits"`

	PostedByID *uint `json:"posted_by,omitempty"`

	PracticeAreas []PracticeArea `gorm:"many2many:job_listing_practice_areas" json:"practice_areas,omitempty"`
}

// UserJobInteraction is a user's saved or applied relationship to a
// listing. At most one row exists per (user, listing, type); removal
// is modeled as a status flip to archived, never a physical delete.
type UserJobInteraction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID       uint `gorm:"not null;uniqueIndex:idx_user_job_type" json:"user_id"`
	JobListingID uint `gorm:"not null;uniqueIndex:idx_user_job_type" json:"job_listing_id"`

	Type   string `gorm:"size:10;not null;uniqueIndex:idx_user_job_type" json:"type"`
	Status string `gorm:"size:10;not null;default:'active'" json:"status"`

	// Saved interactions only.
	Notes string `gorm:"type:text" json:"notes,omitempty"`

	// Applied interactions only.
	ApplicationStatus string     `gorm:"size:20" json:"application_status,omitempty"`
	AppliedAt         *time.Time `json:"applied_at,omitempty"`

	JobListing JobListing `json:"job_listing"`
}

// JobAlertSubscription is a user's digest subscription. Unset filters
// impose no constraint. Counters are updated with atomic column
// increments because the dispatcher and the click tracker can race on
// the same row.
type JobAlertSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `json:"-"`

	Frequency       string     `gorm:"size:10;not null" json:"frequency"`
	EmploymentTypes StringList `gorm:"type:text" json:"employment_types"`
	LocationID      *uint      `json:"location_id,omitempty"`
	Location        *Location  `json:"location,omitempty"`
	Keyword         string     `gorm:"size:120" json:"keyword,omitempty"`
	ExperienceLevel string     `gorm:"size:120" json:"experience_level,omitempty"`

	IsActive    bool       `gorm:"default:true;index" json:"is_active"`
	LastSentAt  *time.Time `json:"last_sent_at,omitempty"`
	SentCount   int        `gorm:"default:0" json:"sent_count"`
	ClickCount  int        `gorm:"default:0" json:"click_count"`
	FailedCount int        `gorm:"default:0" json:"failed_count"`

	PracticeAreas []PracticeArea `gorm:"many2many:job_alert_subscription_practice_areas;constraint:OnDelete:CASCADE" json:"practice_areas,omitempty"`
}

// JobAlertClick is an append-only log of digest link clicks. There is
// no update path and no deduplication; rows are removed only when
// their subscription is deleted.
type JobAlertClick struct {
	ID uint `gorm:"primaryKey" json:"id"`

	JobAlertSubscriptionID uint `gorm:"not null;index" json:"job_alert_subscription_id"`
	JobListingID           uint `gorm:"not null;index" json:"job_listing_id"`

	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	ClickedAt time.Time `gorm:"autoCreateTime" json:"clicked_at"`
}
