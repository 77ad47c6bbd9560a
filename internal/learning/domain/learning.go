package domain

import (
	"encoding/json"
	"time"
)

// Module groups lessons into one curriculum unit. Modules are
// generated from templates plus the email corpus; regeneration clears
// and rebuilds the whole curriculum.
type Module struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	Title          string `json:"title" gorm:"not null"`
	Description    string `json:"description"`
	OrderIndex     int    `json:"order_index" gorm:"index"`
	EstimatedHours int    `json:"estimated_hours"`

	Lessons []Lesson `json:"lessons,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

func (Module) TableName() string {
	return "modules"
}

// Lesson belongs to exactly one module and is sourced from one or
// more corpus emails.
type Lesson struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	ModuleID   uint   `json:"module_id" gorm:"index;not null"`
	Title      string `json:"title" gorm:"not null"`
	Content    string `json:"content" gorm:"type:text"`
	OrderIndex int    `json:"order_index"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// LessonSource records which email a lesson was generated from.
type LessonSource struct {
	LessonID  uint    `json:"lesson_id" gorm:"primaryKey;autoIncrement:false"`
	EmailID   uint    `json:"email_id" gorm:"primaryKey;autoIncrement:false"`
	Relevance float64 `json:"relevance" gorm:"default:1"`
}

func (LessonSource) TableName() string {
	return "lesson_sources"
}

// QuizQuestion is one multiple-choice question attached to a lesson.
// Options are stored JSON-encoded; CorrectIndex points at the single
// correct option.
type QuizQuestion struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	LessonID     uint   `json:"lesson_id" gorm:"index;not null"`
	Question     string `json:"question" gorm:"not null"`
	OptionsJSON  string `json:"-" gorm:"column:options;not null"`
	CorrectIndex int    `json:"-"`
	Explanation  string `json:"explanation"`
	OrderIndex   int    `json:"order_index"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// Options decodes the stored option list.
func (q *QuizQuestion) Options() []string {
	var options []string
	if err := json.Unmarshal([]byte(q.OptionsJSON), &options); err != nil {
		return nil
	}
	return options
}

// SetOptions encodes the option list for storage.
func (q *QuizQuestion) SetOptions(options []string) error {
	encoded, err := json.Marshal(options)
	if err != nil {
		return err
	}
	q.OptionsJSON = string(encoded)
	return nil
}

// UserProgress holds the single learner's outcome for one lesson.
type UserProgress struct {
	LessonID    uint       `json:"lesson_id" gorm:"primaryKey;autoIncrement:false"`
	CompletedAt *time.Time `json:"completed_at"`
	Score       *float64   `json:"score"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}
