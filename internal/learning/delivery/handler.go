package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aikb-backend/internal/learning/usecase"
)

type LearningHandler struct {
	learningUsecase *usecase.LearningUsecase
}

func NewLearningHandler(learningUsecase *usecase.LearningUsecase) *LearningHandler {
	return &LearningHandler{learningUsecase: learningUsecase}
}

// InitCurriculum builds the curriculum; pass force=true to rebuild,
// which also clears quizzes and progress.
func (h *LearningHandler) InitCurriculum(c *gin.Context) {
	force := c.Query("force") == "true"

	modules, err := h.learningUsecase.InitCurriculum(force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": modules})
}

func (h *LearningHandler) GetModules(c *gin.Context) {
	modules, err := h.learningUsecase.Modules()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": modules})
}

func (h *LearningHandler) GetModule(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid module id"})
		return
	}

	module, err := h.learningUsecase.ModuleByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if module == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "module not found"})
		return
	}
	c.JSON(http.StatusOK, module)
}

func (h *LearningHandler) GetLesson(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
		return
	}

	lesson, err := h.learningUsecase.LessonByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if lesson == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lesson not found"})
		return
	}
	c.JSON(http.StatusOK, lesson)
}

func (h *LearningHandler) CompleteLesson(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
		return
	}

	var req struct {
		Score *float64 `json:"score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	found, err := h.learningUsecase.MarkLessonComplete(id, req.Score)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "lesson not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": true})
}

// GetQuiz returns a lesson's quiz questions. Correct answers are not
// serialized.
func (h *LearningHandler) GetQuiz(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
		return
	}

	questions, err := h.learningUsecase.QuizForLesson(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type quizQuestion struct {
		ID       uint     `json:"id"`
		Question string   `json:"question"`
		Options  []string `json:"options"`
	}
	payload := make([]quizQuestion, len(questions))
	for i, question := range questions {
		payload[i] = quizQuestion{
			ID:       question.ID,
			Question: question.Question,
			Options:  question.Options(),
		}
	}
	c.JSON(http.StatusOK, gin.H{"lesson_id": id, "questions": payload})
}

// GradeQuiz scores a submission of question ID to chosen option index.
func (h *LearningHandler) GradeQuiz(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
		return
	}

	var req struct {
		Answers map[uint]int `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.learningUsecase.GradeQuiz(id, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNoQuiz):
			c.JSON(http.StatusNotFound, gin.H{"error": "no quiz for this lesson"})
		case errors.Is(err, usecase.ErrInvalidAnswer):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *LearningHandler) GenerateQuizzes(c *gin.Context) {
	force := c.Query("force") == "true"

	generated, err := h.learningUsecase.GenerateQuizzes(c.Request.Context(), force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": generated})
}

func (h *LearningHandler) Progress(c *gin.Context) {
	summary, err := h.learningUsecase.ProgressSummary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	progress, err := h.learningUsecase.Progress()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "lessons": progress})
}

func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}
