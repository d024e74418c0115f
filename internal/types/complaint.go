package types

import (
	"time"

	"github.com/google/uuid"
)

type ComplaintStatus string

const (
	StatusPending  ComplaintStatus = "Pending"
	StatusInReview ComplaintStatus = "In Review"
	StatusResolved ComplaintStatus = "Resolved"
)

func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusResolved:
		return true
	}
	return false
}

type ComplaintUrgency string

const (
	UrgencyLow      ComplaintUrgency = "Low"
	UrgencyNormal   ComplaintUrgency = "Normal"
	UrgencyHigh     ComplaintUrgency = "High"
	UrgencyCritical ComplaintUrgency = "Critical"
)

func (u ComplaintUrgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

type ComplaintCategory string

const (
	CategoryCommunication ComplaintCategory = "Communication"
	CategoryHub           ComplaintCategory = "Hub"
	CategoryReview        ComplaintCategory = "Review"
	CategoryPayments      ComplaintCategory = "Payments"
	CategoryOthers        ComplaintCategory = "Others"
)

func (c ComplaintCategory) Valid() bool {
	switch c {
	case CategoryCommunication, CategoryHub, CategoryReview, CategoryPayments, CategoryOthers:
		return true
	}
	return false
}

type Complaint struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title       string            `gorm:"not null;column:title" json:"title"`
	Description string            `gorm:"type:text;not null;column:description" json:"description"`
	Category    ComplaintCategory `gorm:"not null;index;column:category" json:"category"`
	Status      ComplaintStatus   `gorm:"not null;default:'Pending';index;column:status" json:"status"`
	Urgency     ComplaintUrgency  `gorm:"not null;default:'Normal';column:urgency" json:"urgency"`

	SubmitterID uuid.UUID  `gorm:"type:uuid;not null;index;column:submitter_id" json:"submitter_id"`
	HubID       *uuid.UUID `gorm:"type:uuid;index;column:hub_id" json:"hub_id,omitempty"`

	IsAnonymous    bool    `gorm:"not null;default:false;column:is_anonymous" json:"is_anonymous"`
	ResolutionNote *string `gorm:"type:text;column:resolution_note" json:"resolution_note,omitempty"`
	Starred        bool    `gorm:"not null;default:false;column:starred" json:"starred"`
	AttachmentURL  *string `gorm:"column:attachment_url" json:"attachment_url,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Complaint) TableName() string {
	return "complaint"
}

// ComplaintView is the redacted read model. SubmitterID and SubmitterName
// are blanked for anonymous complaints unless the viewer is the submitter.
type ComplaintView struct {
	Complaint
	SubmitterID   *uuid.UUID `json:"submitter_id,omitempty"`
	SubmitterName string     `json:"submitter_name,omitempty"`
}

const AnonymousDisplayName = "Anonymous"
