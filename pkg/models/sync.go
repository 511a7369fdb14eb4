package models

import (
	"time"
)

// SyncJob represents one catalog synchronization run (for internal use)
type SyncJob struct {
	ID          string     `json:"id"`
	Species     string     `json:"species"`
	Limit       int        `json:"limit"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	CellsTotal  int        `json:"cells_total"`
	CellsSynced int        `json:"cells_synced"`
	ErrorMsg    *string    `json:"error_message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
