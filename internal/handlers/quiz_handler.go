package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizflow-service/internal/quizerr"
	"quizflow-service/internal/service"
)

type QuizHandler struct {
	Service *service.QuizService
}

func NewQuizHandler(s *service.QuizService) *QuizHandler {
	return &QuizHandler{Service: s}
}

// statusFor maps an error kind to its HTTP status. Notification never
// reaches this: it is logged inside the orchestrator.
func statusFor(err error) int {
	switch quizerr.KindOf(err) {
	case quizerr.Validation:
		return http.StatusBadRequest
	case quizerr.NotFound:
		return http.StatusNotFound
	case quizerr.Generation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error, msg string) {
	body := gin.H{"success": false, "error": msg}
	var qe *quizerr.Error
	if errors.As(err, &qe) && qe.Kind == quizerr.Validation {
		body["details"] = qe.Msg
	}
	c.JSON(statusFor(err), body)
}

// GenerateQuiz starts a session: topic in, AI-generated questions stored,
// opaque session id out.
func (h *QuizHandler) GenerateQuiz(c *gin.Context) {
	var req struct {
		Topic string `json:"topic" binding:"required"`
		Email string `json:"email" binding:"omitempty,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	session, err := h.Service.StartQuiz(c.Request.Context(), req.Topic, req.Email)
	if err != nil {
		respondError(c, err, "Failed to generate quiz")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"session_id": session.ID,
	})
}

// GetSession returns in-flight session state.
func (h *QuizHandler) GetSession(c *gin.Context) {
	session, err := h.Service.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Session not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": session,
	})
}

// SubmitAnswer records one answer; recording the last one finalizes the
// session and the response carries the result.
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	var req struct {
		QuestionID int    `json:"question_id" binding:"required"`
		Answer     string `json:"answer" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid answer format",
			"details": err.Error(),
		})
		return
	}

	outcome, err := h.Service.SubmitAnswer(c.Request.Context(), c.Param("id"), req.QuestionID, req.Answer)
	if err != nil {
		respondError(c, err, "Failed to submit answer")
		return
	}

	body := gin.H{
		"success":          true,
		"is_correct":       outcome.IsCorrect,
		"answered":         len(outcome.Session.Answers),
		"total":            len(outcome.Session.Questions),
		"current_question": outcome.Session.CurrentQuestion,
		"completed":        outcome.Completed,
	}
	if outcome.Completed {
		body["result_id"] = outcome.Result.ID
		body["score"] = outcome.Result.Score
	}
	c.JSON(http.StatusOK, body)
}

// submitQuizRequest is the whole-quiz submission shape. Correctness is
// always recomputed server-side against the session's stored questions;
// a client-supplied is_correct flag is not part of the contract.
type submitQuizRequest struct {
	SessionID string   `json:"session_id"`
	Topic     string   `json:"topic"`
	Answers   []string `json:"answers"`
	Email     string   `json:"email"`
}

// SubmitQuiz validates the full-submission shape strictly (unknown fields
// rejected) and finalizes the session.
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	var req submitQuizRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid submission data",
			"details": err.Error(),
		})
		return
	}
	if req.SessionID == "" || len(req.Answers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid submission data",
			"details": "session_id and answers are required",
		})
		return
	}

	result, err := h.Service.SubmitQuiz(c.Request.Context(), req.SessionID, req.Answers, req.Email)
	if err != nil {
		respondError(c, err, "Failed to process quiz submission")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":             result.ID,
			"score":          result.Score,
			"max_score":      result.MaxScore,
			"recommendation": result.Recommendation,
		},
	})
}

// GetResult returns a persisted result by id.
func (h *QuizHandler) GetResult(c *gin.Context) {
	result, err := h.Service.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Quiz result not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
