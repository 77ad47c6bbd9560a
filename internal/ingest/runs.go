package ingest

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run records one ingestion pass: its source, outcome and counts.
type Run struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	Source     string     `json:"source" gorm:"not null"`
	Status     string     `json:"status" gorm:"not null"`
	Parsed     int        `json:"parsed"`
	Added      int        `json:"added"`
	Duplicates int        `json:"duplicates"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

func (Run) TableName() string {
	return "ingest_runs"
}

// RunRepository persists ingestion run bookkeeping.
type RunRepository interface {
	Start(source string) (*Run, error)
	Finish(run *Run) error
	Recent(limit int) ([]*Run, error)
}

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Start(source string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Source:    source,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *runRepository) Finish(run *Run) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	if run.Status == RunStatusRunning {
		run.Status = RunStatusCompleted
	}
	return r.db.Save(run).Error
}

func (r *runRepository) Recent(limit int) ([]*Run, error) {
	var runs []*Run
	err := r.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
