package repository

import (
	"gorm.io/gorm"

	"aikb-backend/internal/learning/domain"
)

// ModuleSeed is one module with its lessons and their source emails,
// ready to persist in a curriculum rebuild.
type ModuleSeed struct {
	Module  domain.Module
	Lessons []LessonSeed
}

// LessonSeed pairs a lesson with the email IDs it was generated from.
type LessonSeed struct {
	Lesson   domain.Lesson
	EmailIDs []uint
}

// ProgressSummary is the learner's overall standing.
type ProgressSummary struct {
	TotalLessons      int64   `json:"total_lessons"`
	CompletedLessons  int64   `json:"completed_lessons"`
	CompletionPercent float64 `json:"completion_percent"`
	TotalModules      int64   `json:"total_modules"`
	CompletedModules  int64   `json:"completed_modules"`
	AverageScore      float64 `json:"average_score"`
}

// LearningRepository stores the curriculum, quizzes and progress.
type LearningRepository interface {
	// RebuildCurriculum replaces the whole curriculum, including
	// quizzes and progress, in one transaction.
	RebuildCurriculum(seeds []ModuleSeed) error
	ModuleCount() (int64, error)
	Modules() ([]*domain.Module, error)
	ModuleByID(id uint) (*domain.Module, error)
	LessonByID(id uint) (*domain.Lesson, error)
	LessonsWithoutQuiz() ([]*domain.Lesson, error)
	AllLessons() ([]*domain.Lesson, error)
	// NewestEmailMatching finds the most recent email whose subject or
	// summary contains topic. found is false when nothing matches.
	NewestEmailMatching(topic string) (id uint, summary string, found bool, err error)
	ReplaceQuiz(lessonID uint, questions []domain.QuizQuestion) error
	QuizForLesson(lessonID uint) ([]*domain.QuizQuestion, error)
	SaveProgress(progress *domain.UserProgress) error
	AllProgress() ([]*domain.UserProgress, error)
	Summary() (*ProgressSummary, error)
}

type learningRepository struct {
	db *gorm.DB
}

func NewLearningRepository(db *gorm.DB) LearningRepository {
	return &learningRepository{db: db}
}

func (r *learningRepository) RebuildCurriculum(seeds []ModuleSeed) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&domain.UserProgress{}, &domain.QuizQuestion{},
			&domain.LessonSource{}, &domain.Lesson{}, &domain.Module{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}

		for i := range seeds {
			seed := &seeds[i]
			if err := tx.Create(&seed.Module).Error; err != nil {
				return err
			}
			for j := range seed.Lessons {
				lesson := &seed.Lessons[j]
				lesson.Lesson.ModuleID = seed.Module.ID
				if err := tx.Create(&lesson.Lesson).Error; err != nil {
					return err
				}
				for _, emailID := range lesson.EmailIDs {
					source := domain.LessonSource{
						LessonID:  lesson.Lesson.ID,
						EmailID:   emailID,
						Relevance: 1,
					}
					if err := tx.Create(&source).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func (r *learningRepository) ModuleCount() (int64, error) {
	var count int64
	err := r.db.Model(&domain.Module{}).Count(&count).Error
	return count, err
}

func (r *learningRepository) Modules() ([]*domain.Module, error) {
	var modules []*domain.Module
	err := r.db.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("lessons.order_index")
	}).Order("order_index").Find(&modules).Error
	return modules, err
}

func (r *learningRepository) ModuleByID(id uint) (*domain.Module, error) {
	var module domain.Module
	err := r.db.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("lessons.order_index")
	}).First(&module, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &module, nil
}

func (r *learningRepository) LessonByID(id uint) (*domain.Lesson, error) {
	var lesson domain.Lesson
	err := r.db.First(&lesson, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &lesson, nil
}

func (r *learningRepository) LessonsWithoutQuiz() ([]*domain.Lesson, error) {
	var lessons []*domain.Lesson
	err := r.db.Where(`NOT EXISTS (
		SELECT 1 FROM quiz_questions q WHERE q.lesson_id = lessons.id
	)`).Order("id").Find(&lessons).Error
	return lessons, err
}

func (r *learningRepository) AllLessons() ([]*domain.Lesson, error) {
	var lessons []*domain.Lesson
	err := r.db.Order("id").Find(&lessons).Error
	return lessons, err
}

func (r *learningRepository) NewestEmailMatching(topic string) (uint, string, bool, error) {
	var row struct {
		ID      uint
		Summary string
	}
	pattern := "%" + topic + "%"
	result := r.db.Raw(`
		SELECT id, summary FROM emails
		WHERE subject LIKE ? OR summary LIKE ?
		ORDER BY date_parsed DESC
		LIMIT 1
	`, pattern, pattern).Scan(&row)
	if result.Error != nil {
		return 0, "", false, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, "", false, nil
	}
	return row.ID, row.Summary, true, nil
}

func (r *learningRepository) ReplaceQuiz(lessonID uint, questions []domain.QuizQuestion) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", lessonID).Delete(&domain.QuizQuestion{}).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].LessonID = lessonID
			questions[i].OrderIndex = i + 1
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *learningRepository) QuizForLesson(lessonID uint) ([]*domain.QuizQuestion, error) {
	var questions []*domain.QuizQuestion
	err := r.db.Where("lesson_id = ?", lessonID).Order("order_index").Find(&questions).Error
	return questions, err
}

func (r *learningRepository) SaveProgress(progress *domain.UserProgress) error {
	return r.db.Save(progress).Error
}

func (r *learningRepository) AllProgress() ([]*domain.UserProgress, error) {
	var progress []*domain.UserProgress
	err := r.db.Find(&progress).Error
	return progress, err
}

func (r *learningRepository) Summary() (*ProgressSummary, error) {
	summary := &ProgressSummary{}

	if err := r.db.Model(&domain.Lesson{}).Count(&summary.TotalLessons).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.UserProgress{}).
		Where("completed_at IS NOT NULL").
		Count(&summary.CompletedLessons).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.Module{}).Count(&summary.TotalModules).Error; err != nil {
		return nil, err
	}

	err := r.db.Raw(`
		SELECT COUNT(DISTINCT m.id)
		FROM modules m
		WHERE NOT EXISTS (
			SELECT 1 FROM lessons l
			WHERE l.module_id = m.id
			AND NOT EXISTS (
				SELECT 1 FROM user_progress up
				WHERE up.lesson_id = l.id AND up.completed_at IS NOT NULL
			)
		) AND EXISTS (SELECT 1 FROM lessons WHERE module_id = m.id)
	`).Scan(&summary.CompletedModules).Error
	if err != nil {
		return nil, err
	}

	var avgScore *float64
	err = r.db.Raw(`SELECT AVG(score) FROM user_progress WHERE score IS NOT NULL`).Scan(&avgScore).Error
	if err != nil {
		return nil, err
	}
	if avgScore != nil {
		summary.AverageScore = roundOne(*avgScore)
	}

	if summary.TotalLessons > 0 {
		percent := float64(summary.CompletedLessons) / float64(summary.TotalLessons) * 100
		summary.CompletionPercent = roundOne(percent)
	}
	return summary, nil
}

func roundOne(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
