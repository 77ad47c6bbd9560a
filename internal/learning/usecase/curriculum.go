package usecase

import (
	"fmt"

	"go.uber.org/zap"

	"aikb-backend/internal/learning/domain"
	"aikb-backend/internal/learning/repository"
	"aikb-backend/pkg/ai"
)

const lessonsPerModule = 3

// moduleTemplate seeds one curriculum module; lessons are generated
// from the corpus emails matching its topics.
type moduleTemplate struct {
	order          int
	title          string
	description    string
	topics         []string
	estimatedHours int
}

var curriculumTemplates = []moduleTemplate{
	{
		order:          1,
		title:          "Introduction to AI & LLMs",
		description:    "Understanding the fundamentals of AI, machine learning, and large language models.",
		topics:         []string{"AI basics", "Machine Learning", "LLM", "GPT", "Claude"},
		estimatedHours: 4,
	},
	{
		order:          2,
		title:          "AI Coding Assistants",
		description:    "Learn to use AI-powered coding tools like Cursor, Claude Code, and GitHub Copilot.",
		topics:         []string{"Cursor", "Claude Code", "GitHub Copilot", "Windsurf", "AI Coding IDEs"},
		estimatedHours: 6,
	},
	{
		order:          3,
		title:          "Prompt Engineering",
		description:    "Master the art of writing effective prompts for AI systems.",
		topics:         []string{"Prompt Engineering", "Chain of Thought", "Few-shot Learning"},
		estimatedHours: 5,
	},
	{
		order:          4,
		title:          "AI Agents & Automation",
		description:    "Understanding and building AI agents for task automation.",
		topics:         []string{"AI Agents", "Agentic AI", "MCP", "Automation"},
		estimatedHours: 6,
	},
	{
		order:          5,
		title:          "No-Code AI Development",
		description:    "Building applications with AI without traditional coding.",
		topics:         []string{"Vibe Coding", "Lovable", "Bolt", "v0", "Replit"},
		estimatedHours: 4,
	},
	{
		order:          6,
		title:          "RAG & Knowledge Systems",
		description:    "Building AI systems that integrate with your own data.",
		topics:         []string{"RAG", "Embeddings", "Vector Database", "Knowledge Graph"},
		estimatedHours: 5,
	},
}

// LearningUsecase builds and serves the curriculum, generates quizzes
// and tracks the single learner's progress.
type LearningUsecase struct {
	learning repository.LearningRepository
	ai       ai.Service
	logger   *zap.Logger
}

func NewLearningUsecase(learning repository.LearningRepository, aiService ai.Service, logger *zap.Logger) *LearningUsecase {
	return &LearningUsecase{learning: learning, ai: aiService, logger: logger}
}

// InitCurriculum builds the curriculum from templates and the current
// corpus unless one already exists. force rebuilds regardless, which
// also clears quizzes and progress.
func (u *LearningUsecase) InitCurriculum(force bool) (int, error) {
	if !force {
		count, err := u.learning.ModuleCount()
		if err != nil {
			return 0, err
		}
		if count > 0 {
			return int(count), nil
		}
	}

	seeds := make([]repository.ModuleSeed, 0, len(curriculumTemplates))
	for _, template := range curriculumTemplates {
		seed := repository.ModuleSeed{
			Module: domain.Module{
				Title:          template.title,
				Description:    template.description,
				OrderIndex:     template.order,
				EstimatedHours: template.estimatedHours,
			},
		}

		lessonOrder := 0
		for _, topic := range template.topics {
			if lessonOrder == lessonsPerModule {
				break
			}
			emailID, summary, found, err := u.learning.NewestEmailMatching(topic)
			if err != nil {
				return 0, err
			}
			if !found {
				continue
			}

			content := summary
			if content == "" {
				content = fmt.Sprintf("Learn about %s and its applications in AI.", topic)
			}
			lessonOrder++
			seed.Lessons = append(seed.Lessons, repository.LessonSeed{
				Lesson: domain.Lesson{
					Title:      fmt.Sprintf("Understanding %s", topic),
					Content:    content,
					OrderIndex: lessonOrder,
				},
				EmailIDs: []uint{emailID},
			})
		}
		seeds = append(seeds, seed)
	}

	if err := u.learning.RebuildCurriculum(seeds); err != nil {
		return 0, err
	}
	u.logger.Info("curriculum initialized", zap.Int("modules", len(seeds)))
	return len(seeds), nil
}

func (u *LearningUsecase) Modules() ([]*domain.Module, error) {
	return u.learning.Modules()
}

func (u *LearningUsecase) ModuleByID(id uint) (*domain.Module, error) {
	return u.learning.ModuleByID(id)
}

func (u *LearningUsecase) LessonByID(id uint) (*domain.Lesson, error) {
	return u.learning.LessonByID(id)
}

// MarkLessonComplete records the lesson as done with an optional
// score. Returns false when the lesson does not exist.
func (u *LearningUsecase) MarkLessonComplete(lessonID uint, score *float64) (bool, error) {
	lesson, err := u.learning.LessonByID(lessonID)
	if err != nil {
		return false, err
	}
	if lesson == nil {
		return false, nil
	}

	now := timeNow()
	progress := &domain.UserProgress{
		LessonID:    lessonID,
		CompletedAt: &now,
		Score:       score,
	}
	return true, u.learning.SaveProgress(progress)
}

func (u *LearningUsecase) ProgressSummary() (*repository.ProgressSummary, error) {
	return u.learning.Summary()
}

func (u *LearningUsecase) Progress() ([]*domain.UserProgress, error) {
	return u.learning.AllProgress()
}
