package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"aikb-backend/internal/learning/domain"
)

const (
	quizQuestionCount = 3
	quizPassThreshold = 70
	quizContentCap    = 2000
)

// ErrNoQuiz marks a grading request against a lesson with no stored
// questions.
var ErrNoQuiz = errors.New("no quiz for lesson")

// ErrInvalidAnswer marks a submission with an out-of-range option
// index.
var ErrInvalidAnswer = errors.New("invalid answer index")

func timeNow() time.Time {
	return time.Now().UTC()
}

// quizPayload is the JSON shape the LLM returns per question.
type quizPayload struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

// GenerateQuizzes creates quiz questions for lessons missing them, or
// for all lessons when force is set.
func (u *LearningUsecase) GenerateQuizzes(ctx context.Context, force bool) (int, error) {
	var lessons []*domain.Lesson
	var err error
	if force {
		lessons, err = u.learning.AllLessons()
	} else {
		lessons, err = u.learning.LessonsWithoutQuiz()
	}
	if err != nil {
		return 0, err
	}

	generated := 0
	for _, lesson := range lessons {
		if err := ctx.Err(); err != nil {
			return generated, err
		}
		questions := u.generateQuiz(ctx, lesson)
		if err := u.learning.ReplaceQuiz(lesson.ID, questions); err != nil {
			return generated, err
		}
		generated++
	}

	u.logger.Info("quizzes generated", zap.Int("lessons", generated))
	return generated, nil
}

func (u *LearningUsecase) generateQuiz(ctx context.Context, lesson *domain.Lesson) []domain.QuizQuestion {
	if u.ai == nil {
		return fallbackQuiz(lesson.Title)
	}

	content := lesson.Content
	if len(content) > quizContentCap {
		content = content[:quizContentCap]
	}

	prompt := fmt.Sprintf(`Generate %d multiple choice quiz questions about "%s" based on this content:

%s

Return JSON array with this format:
[
  {
    "question": "Question text?",
    "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
    "correct_index": 0,
    "explanation": "Brief explanation of correct answer"
  }
]

correct_index is the zero-based position of the correct option. Only return valid JSON, no other text.`,
		quizQuestionCount, lesson.Title, content)

	raw, err := u.ai.Synthesize(ctx, "You are a quiz generator. Return only valid JSON.", prompt)
	if err != nil {
		u.logger.Warn("quiz generation failed, using fallback",
			zap.Uint("lesson_id", lesson.ID), zap.Error(err))
		return fallbackQuiz(lesson.Title)
	}

	var payloads []quizPayload
	if err := json.Unmarshal([]byte(stripFence(raw)), &payloads); err != nil {
		u.logger.Warn("quiz response unparseable, using fallback",
			zap.Uint("lesson_id", lesson.ID), zap.Error(err))
		return fallbackQuiz(lesson.Title)
	}

	questions := make([]domain.QuizQuestion, 0, len(payloads))
	for _, payload := range payloads {
		if payload.Question == "" || len(payload.Options) < 2 ||
			payload.CorrectIndex < 0 || payload.CorrectIndex >= len(payload.Options) {
			continue
		}
		question := domain.QuizQuestion{
			Question:     payload.Question,
			CorrectIndex: payload.CorrectIndex,
			Explanation:  payload.Explanation,
		}
		if err := question.SetOptions(payload.Options); err != nil {
			continue
		}
		questions = append(questions, question)
	}
	if len(questions) == 0 {
		return fallbackQuiz(lesson.Title)
	}
	return questions
}

// fallbackQuiz builds template questions when no LLM is available.
func fallbackQuiz(topic string) []domain.QuizQuestion {
	templates := []struct {
		question     string
		options      []string
		correctIndex int
		explanation  string
	}{
		{
			question:     fmt.Sprintf("What is %s primarily used for?", topic),
			options:      []string{"Data storage", "AI-powered functionality", "Network management", "Hardware control"},
			correctIndex: 1,
			explanation:  fmt.Sprintf("%s is an AI-related technology focused on intelligent automation and assistance.", topic),
		},
		{
			question:     fmt.Sprintf("Which category best describes %s?", topic),
			options:      []string{"AI Tool", "Database System", "Operating System", "Networking Protocol"},
			correctIndex: 0,
			explanation:  fmt.Sprintf("%s falls under AI tools and technologies.", topic),
		},
		{
			question:     fmt.Sprintf("What is a key benefit of using %s?", topic),
			options:      []string{"Reduced electricity usage", "Increased productivity through AI assistance", "Better internet speed", "Improved printer quality"},
			correctIndex: 1,
			explanation:  fmt.Sprintf("%s helps users be more productive by leveraging AI capabilities.", topic),
		},
	}

	questions := make([]domain.QuizQuestion, 0, quizQuestionCount)
	for i, template := range templates {
		if i == quizQuestionCount {
			break
		}
		question := domain.QuizQuestion{
			Question:     template.question,
			CorrectIndex: template.correctIndex,
			Explanation:  template.explanation,
		}
		if err := question.SetOptions(template.options); err != nil {
			continue
		}
		questions = append(questions, question)
	}
	return questions
}

// QuizForLesson returns the stored questions without their answers.
func (u *LearningUsecase) QuizForLesson(lessonID uint) ([]*domain.QuizQuestion, error) {
	return u.learning.QuizForLesson(lessonID)
}

// QuestionFeedback explains one graded answer.
type QuestionFeedback struct {
	Question     string `json:"question"`
	YourAnswer   int    `json:"your_answer"`
	CorrectIndex int    `json:"correct_index"`
	IsCorrect    bool   `json:"is_correct"`
	Explanation  string `json:"explanation"`
}

// GradeResult is a scored quiz submission.
type GradeResult struct {
	Score    int                `json:"score"`
	Correct  int                `json:"correct"`
	Total    int                `json:"total"`
	Passed   bool               `json:"passed"`
	Feedback []QuestionFeedback `json:"feedback"`
}

// GradeQuiz scores a submission of question ID to chosen option
// index. A missing answer counts as wrong; an out-of-range index is a
// client error. Passing records lesson completion.
func (u *LearningUsecase) GradeQuiz(lessonID uint, answers map[uint]int) (*GradeResult, error) {
	questions, err := u.learning.QuizForLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuiz
	}

	result := &GradeResult{Total: len(questions)}
	for _, question := range questions {
		answer, answered := answers[question.ID]
		if answered && (answer < 0 || answer >= len(question.Options())) {
			return nil, fmt.Errorf("%w: question %d", ErrInvalidAnswer, question.ID)
		}

		isCorrect := answered && answer == question.CorrectIndex
		if isCorrect {
			result.Correct++
		}
		feedbackAnswer := -1
		if answered {
			feedbackAnswer = answer
		}
		result.Feedback = append(result.Feedback, QuestionFeedback{
			Question:     question.Question,
			YourAnswer:   feedbackAnswer,
			CorrectIndex: question.CorrectIndex,
			IsCorrect:    isCorrect,
			Explanation:  question.Explanation,
		})
	}

	result.Score = int(math.Round(float64(result.Correct) / float64(result.Total) * 100))
	result.Passed = result.Score >= quizPassThreshold

	if result.Passed {
		score := float64(result.Score)
		if _, err := u.MarkLessonComplete(lessonID, &score); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
