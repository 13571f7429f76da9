package models

import "time"

// Project is a shortlist project that owns a roster of attorneys
type Project struct {
	ID        string    `json:"project_id" db:"id"`
	Title     string    `json:"title" db:"title" validate:"required"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
