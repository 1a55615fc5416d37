package entity

import (
	"time"

	"gorm.io/gorm"
)

type ProjectStatus string

const (
	StatusQueued     ProjectStatus = "queued"
	StatusProcessing ProjectStatus = "processing"
	StatusCompleted  ProjectStatus = "completed"
	StatusFailed     ProjectStatus = "failed"
)

// Terminal reports whether no further status transition is possible.
func (s ProjectStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Project is the authoritative job record, stored as JSON in Redis under
// project:<id>. Every write resets the record's TTL.
type Project struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Status      ProjectStatus  `json:"status"`
	Config      map[string]any `json:"config"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	ArchiveKey  string         `json:"archive_key,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// GeneratedFile is one file produced by a generator, with a path relative
// to the project root.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// WorkItem is the queue message referencing a project. Full state is
// reloaded from Redis by the worker.
type WorkItem struct {
	ProjectID string `json:"project_id"`
}

// ProjectHistory is the non-authoritative audit row kept in Postgres.
// Redis owns the live status; this table survives record expiry.
type ProjectHistory struct {
	ProjectID string        `gorm:"primaryKey;type:uuid"`
	UserID    string        `gorm:"not null"`
	Status    ProjectStatus `gorm:"not null;type:text"`
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
