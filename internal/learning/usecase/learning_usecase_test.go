package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	emaildomain "aikb-backend/internal/email/domain"
	"aikb-backend/internal/learning/domain"
	"aikb-backend/internal/learning/repository"
	"aikb-backend/pkg/ai"
)

type fakeAI struct {
	synthesize func(system, prompt string) (string, error)
}

func (f *fakeAI) Summarize(ctx context.Context, input ai.SummaryInput) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeAI) Classify(ctx context.Context, input ai.ClassifyInput) (ai.Classification, error) {
	return ai.Classification{}, errors.New("not implemented")
}

func (f *fakeAI) ExtractEntities(ctx context.Context, text string) ([]ai.ExtractedEntity, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAI) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAI) Synthesize(ctx context.Context, system, prompt string) (string, error) {
	if f.synthesize == nil {
		return "", errors.New("not implemented")
	}
	return f.synthesize(system, prompt)
}

func newTestUsecase(t *testing.T, aiService ai.Service) (*LearningUsecase, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&emaildomain.Email{},
		&domain.Module{}, &domain.Lesson{}, &domain.LessonSource{},
		&domain.QuizQuestion{}, &domain.UserProgress{},
	))
	return NewLearningUsecase(repository.NewLearningRepository(db), aiService, zap.NewNop()), db
}

func seedCorpusEmail(t *testing.T, db *gorm.DB, subject, summary string, daysAgo int) uint {
	t.Helper()
	date := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo)
	email := &emaildomain.Email{Subject: subject, Summary: summary, DateParsed: &date}
	require.NoError(t, db.Create(email).Error)
	return email.ID
}

func TestInitCurriculum(t *testing.T) {
	uc, db := newTestUsecase(t, nil)

	olderID := seedCorpusEmail(t, db, "Cursor tips from last month", "Old cursor notes.", 30)
	newestID := seedCorpusEmail(t, db, "Cursor 1.0 released", "Cursor shipped a stable release.", 1)
	seedCorpusEmail(t, db, "LLM benchmarks roundup", "", 2)
	_ = olderID

	count, err := uc.InitCurriculum(false)
	require.NoError(t, err)
	assert.Equal(t, len(curriculumTemplates), count)

	modules, err := uc.Modules()
	require.NoError(t, err)
	require.Len(t, modules, len(curriculumTemplates))
	assert.Equal(t, "Introduction to AI & LLMs", modules[0].Title)
	assert.Equal(t, 1, modules[0].OrderIndex)

	// The coding assistants module picks the newest email matching its
	// first topic and titles the lesson after the topic.
	coding := modules[1]
	require.NotEmpty(t, coding.Lessons)
	lesson := coding.Lessons[0]
	assert.Equal(t, "Understanding Cursor", lesson.Title)
	assert.Equal(t, "Cursor shipped a stable release.", lesson.Content)

	var source domain.LessonSource
	require.NoError(t, db.Where("lesson_id = ?", lesson.ID).First(&source).Error)
	assert.Equal(t, newestID, source.EmailID)

	// A matching email without a summary gets placeholder content.
	intro := modules[0]
	require.NotEmpty(t, intro.Lessons)
	assert.Equal(t, "Understanding LLM", intro.Lessons[0].Title)
	assert.Contains(t, intro.Lessons[0].Content, "Learn about LLM")

	for _, module := range modules {
		assert.LessOrEqual(t, len(module.Lessons), lessonsPerModule)
	}
}

func TestInitCurriculumSkipsWhenPresent(t *testing.T) {
	uc, db := newTestUsecase(t, nil)
	seedCorpusEmail(t, db, "Cursor news", "Summary.", 1)

	_, err := uc.InitCurriculum(false)
	require.NoError(t, err)

	var before []domain.Module
	require.NoError(t, db.Find(&before).Error)

	count, err := uc.InitCurriculum(false)
	require.NoError(t, err)
	assert.Equal(t, len(before), count)

	var after []domain.Module
	require.NoError(t, db.Find(&after).Error)
	assert.Equal(t, before[0].ID, after[0].ID, "existing curriculum should be untouched")

	// force rebuilds with fresh rows.
	_, err = uc.InitCurriculum(true)
	require.NoError(t, err)
	require.NoError(t, db.Find(&after).Error)
	assert.NotEqual(t, before[0].ID, after[0].ID)
}

func TestGenerateQuizzesFallback(t *testing.T) {
	uc, db := newTestUsecase(t, nil)
	seedCorpusEmail(t, db, "Cursor news", "Summary.", 1)

	_, err := uc.InitCurriculum(false)
	require.NoError(t, err)

	generated, err := uc.GenerateQuizzes(context.Background(), false)
	require.NoError(t, err)
	assert.Greater(t, generated, 0)

	var lesson domain.Lesson
	require.NoError(t, db.First(&lesson).Error)

	questions, err := uc.QuizForLesson(lesson.ID)
	require.NoError(t, err)
	require.Len(t, questions, quizQuestionCount)
	for _, q := range questions {
		options := q.Options()
		require.NotEmpty(t, options)
		assert.GreaterOrEqual(t, q.CorrectIndex, 0)
		assert.Less(t, q.CorrectIndex, len(options))
	}

	// Without force, lessons that already have a quiz are skipped.
	generated, err = uc.GenerateQuizzes(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, generated)
}

func TestGenerateQuizzesLLM(t *testing.T) {
	response := "```json\n" + `[
		{"question": "What does Cursor do?", "options": ["Edits code with AI", "Stores files", "Routes packets"], "correct_index": 0, "explanation": "It is an AI code editor."},
		{"question": "Bad entry", "options": ["only one option"], "correct_index": 0, "explanation": ""},
		{"question": "Out of range", "options": ["a", "b"], "correct_index": 5, "explanation": ""}
	]` + "\n```"
	uc, db := newTestUsecase(t, &fakeAI{
		synthesize: func(system, prompt string) (string, error) {
			return response, nil
		},
	})
	seedCorpusEmail(t, db, "Cursor news", "Summary.", 1)

	_, err := uc.InitCurriculum(false)
	require.NoError(t, err)
	_, err = uc.GenerateQuizzes(context.Background(), false)
	require.NoError(t, err)

	var lesson domain.Lesson
	require.NoError(t, db.First(&lesson).Error)

	questions, err := uc.QuizForLesson(lesson.ID)
	require.NoError(t, err)
	require.Len(t, questions, 1, "invalid questions are dropped")
	assert.Equal(t, "What does Cursor do?", questions[0].Question)
	assert.Equal(t, 0, questions[0].CorrectIndex)
}

func TestGradeQuiz(t *testing.T) {
	uc, db := newTestUsecase(t, nil)
	seedCorpusEmail(t, db, "Cursor news", "Summary.", 1)

	_, err := uc.InitCurriculum(false)
	require.NoError(t, err)
	_, err = uc.GenerateQuizzes(context.Background(), false)
	require.NoError(t, err)

	var lesson domain.Lesson
	require.NoError(t, db.First(&lesson).Error)
	questions, err := uc.QuizForLesson(lesson.ID)
	require.NoError(t, err)
	require.Len(t, questions, 3)

	t.Run("two of three is not a pass", func(t *testing.T) {
		answers := map[uint]int{
			questions[0].ID: questions[0].CorrectIndex,
			questions[1].ID: questions[1].CorrectIndex,
			questions[2].ID: wrongAnswer(questions[2]),
		}
		result, err := uc.GradeQuiz(lesson.ID, answers)
		require.NoError(t, err)
		assert.Equal(t, 67, result.Score)
		assert.Equal(t, 2, result.Correct)
		assert.Equal(t, 3, result.Total)
		assert.False(t, result.Passed)

		var progress []domain.UserProgress
		require.NoError(t, db.Find(&progress).Error)
		assert.Empty(t, progress, "failing should not record completion")
	})

	t.Run("missing answer counts as wrong", func(t *testing.T) {
		answers := map[uint]int{
			questions[0].ID: questions[0].CorrectIndex,
		}
		result, err := uc.GradeQuiz(lesson.ID, answers)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Correct)
		assert.False(t, result.Passed)

		require.Len(t, result.Feedback, 3)
		assert.Equal(t, -1, result.Feedback[1].YourAnswer)
		assert.False(t, result.Feedback[1].IsCorrect)
	})

	t.Run("out of range answer is a client error", func(t *testing.T) {
		answers := map[uint]int{questions[0].ID: 10}
		_, err := uc.GradeQuiz(lesson.ID, answers)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidAnswer))
	})

	t.Run("no quiz for lesson", func(t *testing.T) {
		_, err := uc.GradeQuiz(99999, nil)
		assert.True(t, errors.Is(err, ErrNoQuiz))
	})

	t.Run("perfect score passes and records progress", func(t *testing.T) {
		answers := make(map[uint]int, len(questions))
		for _, q := range questions {
			answers[q.ID] = q.CorrectIndex
		}
		result, err := uc.GradeQuiz(lesson.ID, answers)
		require.NoError(t, err)
		assert.Equal(t, 100, result.Score)
		assert.True(t, result.Passed)

		var progress domain.UserProgress
		require.NoError(t, db.Where("lesson_id = ?", lesson.ID).First(&progress).Error)
		require.NotNil(t, progress.CompletedAt)
		require.NotNil(t, progress.Score)
		assert.Equal(t, 100.0, *progress.Score)
	})
}

func TestFallbackQuizShape(t *testing.T) {
	questions := fallbackQuiz("Cursor")
	require.Len(t, questions, quizQuestionCount)
	for _, q := range questions {
		assert.Contains(t, q.Question, "Cursor")
		options := q.Options()
		assert.Len(t, options, 4)
		assert.Less(t, q.CorrectIndex, len(options))
		assert.NotEmpty(t, q.Explanation)
	}
}

func TestProgressSummary(t *testing.T) {
	uc, db := newTestUsecase(t, nil)
	seedCorpusEmail(t, db, "Cursor news", "Summary.", 1)

	_, err := uc.InitCurriculum(false)
	require.NoError(t, err)

	summary, err := uc.ProgressSummary()
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.TotalLessons)
	assert.EqualValues(t, 0, summary.CompletedLessons)
	assert.EqualValues(t, len(curriculumTemplates), summary.TotalModules)
	assert.Zero(t, summary.CompletedModules)

	var lesson domain.Lesson
	require.NoError(t, db.First(&lesson).Error)
	score := 85.0
	found, err := uc.MarkLessonComplete(lesson.ID, &score)
	require.NoError(t, err)
	assert.True(t, found)

	summary, err = uc.ProgressSummary()
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.CompletedLessons)
	assert.Equal(t, 100.0, summary.CompletionPercent)
	assert.EqualValues(t, 1, summary.CompletedModules, "only modules with lessons can complete")
	assert.Equal(t, 85.0, summary.AverageScore)
}

func TestMarkLessonCompleteMissing(t *testing.T) {
	uc, _ := newTestUsecase(t, nil)

	found, err := uc.MarkLessonComplete(12345, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func wrongAnswer(q *domain.QuizQuestion) int {
	if q.CorrectIndex == 0 {
		return 1
	}
	return 0
}
