// Package models contains the persisted domain records for rosters,
// projects, and headshot upload outcomes.
package models

import "time"

// Attorney is one roster entry within a shortlist project
type Attorney struct {
	ID          string    `json:"attorney_id" db:"id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	Name        string    `json:"name" db:"name" validate:"required"`
	Title       string    `json:"title,omitempty" db:"title"`
	Firm        string    `json:"firm,omitempty" db:"firm"`
	City        string    `json:"city,omitempty" db:"city"`
	Email       string    `json:"email,omitempty" db:"email" validate:"omitempty,email"`
	HasHeadshot bool      `json:"has_headshot" db:"has_headshot"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// AttorneyUpdate is the mutable subset of an attorney record
type AttorneyUpdate struct {
	Name  string `json:"name" validate:"required"`
	Title string `json:"title"`
	Firm  string `json:"firm"`
	City  string `json:"city"`
	Email string `json:"email" validate:"omitempty,email"`
}
