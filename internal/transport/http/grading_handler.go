package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"profman/internal/app"
	"profman/internal/domain"
)

// GradingHandler adapts JSON requests to the grading service.
type GradingHandler struct {
	service  *app.GradingService
	log      *zap.Logger
	validate *validator.Validate
}

func NewGradingHandler(service *app.GradingService, log *zap.Logger) *GradingHandler {
	return &GradingHandler{
		service:  service,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type quizAttemptRequest struct {
	QuizID    string         `json:"quizId" validate:"required"`
	StudentID string         `json:"studentId" validate:"required"`
	Answers   map[string]any `json:"answers"`
	TimeSpent int            `json:"timeSpent" validate:"gte=0"`
}

type answerPayload struct {
	QuestionID string `json:"questionId" validate:"required"`
	Value      any    `json:"value"`
}

type examSubmissionRequest struct {
	ExamID    string          `json:"examId" validate:"required"`
	StudentID string          `json:"studentId" validate:"required"`
	Answers   []answerPayload `json:"answers" validate:"dive"`
}

type manualGradePayload struct {
	QuestionID string   `json:"questionId" validate:"required"`
	Points     *float64 `json:"points" validate:"required,gte=0"`
	Feedback   string   `json:"feedback" validate:"max=4000"`
}

type gradesRequest struct {
	GradedBy string               `json:"gradedBy" validate:"required"`
	Grades   []manualGradePayload `json:"grades" validate:"required,min=1,dive"`
}

func (h *GradingHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizAttemptRequest
	if !h.decode(w, r, &req) {
		return
	}
	attempt, err := h.service.SubmitQuiz(r.Context(), app.QuizSubmission{
		QuizID:    req.QuizID,
		StudentID: req.StudentID,
		Answers:   req.Answers,
		TimeSpent: req.TimeSpent,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusCreated, attempt)
}

func (h *GradingHandler) ListQuizAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.service.ListQuizAttempts(r.Context(), chi.URLParam(r, "quizID"), r.URL.Query().Get("studentId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, attempts)
}

func (h *GradingHandler) SubmitExam(w http.ResponseWriter, r *http.Request) {
	var req examSubmissionRequest
	if !h.decode(w, r, &req) {
		return
	}
	answers := make([]domain.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, domain.Answer{QuestionID: a.QuestionID, Value: a.Value})
	}
	sub, err := h.service.SubmitExam(r.Context(), app.ExamSubmissionRequest{
		ExamID:    req.ExamID,
		StudentID: req.StudentID,
		Answers:   answers,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusCreated, sub)
}

func (h *GradingHandler) GetExamSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.GetExamSubmission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, sub)
}

func (h *GradingHandler) ExamSubmissionHistory(w http.ResponseWriter, r *http.Request) {
	versions, err := h.service.ExamSubmissionHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, versions)
}

func (h *GradingHandler) GradeExamSubmission(w http.ResponseWriter, r *http.Request) {
	var req gradesRequest
	if !h.decode(w, r, &req) {
		return
	}
	grades := make([]domain.ManualGrade, 0, len(req.Grades))
	for _, g := range req.Grades {
		grades = append(grades, domain.ManualGrade{QuestionID: g.QuestionID, Points: *g.Points, Feedback: g.Feedback})
	}
	sub, err := h.service.GradeExamSubmission(r.Context(), chi.URLParam(r, "id"), req.GradedBy, grades)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, sub)
}

func (h *GradingHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *GradingHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrExamNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidSubmission):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrVersionConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		h.log.Error("grading request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "")
	}
}
