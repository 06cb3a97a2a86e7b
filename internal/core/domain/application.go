package domain

import (
	"errors"
	"time"
)

// ApplicationStatus represents the review state of an expert application.
type ApplicationStatus string

const (
	ApplicationDraft    ApplicationStatus = "DRAFT"
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
	ApplicationRevoked  ApplicationStatus = "REVOKED"

	// ApplicationNone is reported to clients when no application exists yet.
	ApplicationNone ApplicationStatus = "NONE"
)

// applicationTransitions defines the allowed review workflow transitions.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationDraft:    {ApplicationPending},
	ApplicationPending:  {ApplicationApproved, ApplicationRejected},
	ApplicationApproved: {ApplicationRevoked},
	ApplicationRejected: {ApplicationPending},
}

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrReasonRequired      = errors.New("rejection reason required")
	ErrNotOwner            = errors.New("not the application owner")
)

// CanTransitionTo reports whether moving from s to next is a valid review step.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist from s.
// REJECTED is not terminal: the owner may edit and resubmit.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationRevoked
}

// ApplicationProfile holds the structured fields an applicant fills in.
type ApplicationProfile struct {
	Skills       []string `json:"skills" bson:"skills"`
	Availability string   `json:"availability" bson:"availability"`
	Portfolio    string   `json:"portfolio" bson:"portfolio"`
	Documents    []string `json:"documents" bson:"documents"`
}

// ExpertApplication is the one-per-user record progressing through review.
type ExpertApplication struct {
	ID              string             `json:"id" bson:"_id,omitempty"`
	UserID          string             `json:"user_id" bson:"user_id"`
	OrgID           string             `json:"org_id,omitempty" bson:"org_id,omitempty"`
	Status          ApplicationStatus  `json:"status" bson:"status"`
	Profile         ApplicationProfile `json:"profile" bson:"profile"`
	SubmittedAt     time.Time          `json:"submitted_at,omitempty" bson:"submitted_at,omitempty"`
	ReviewedAt      time.Time          `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
	ReviewerID      string             `json:"reviewer_id,omitempty" bson:"reviewer_id,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// Editable reports whether the owner may still change the application content.
func (a *ExpertApplication) Editable() bool {
	return a.Status == ApplicationDraft || a.Status == ApplicationRejected
}
