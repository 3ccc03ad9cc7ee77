package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/internal/service"
	"github.com/Ksohaib16/Test-Generator/pkg/response"
)

type questionService interface {
	List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error)
	Create(ctx context.Context, teacherID string, req models.CreateQuestionRequest) (*models.Question, error)
}

// QuestionHandler serves the question bank.
type QuestionHandler struct {
	service questionService
}

// NewQuestionHandler constructs the handler.
func NewQuestionHandler(svc questionService) *QuestionHandler {
	return &QuestionHandler{service: svc}
}

// List godoc
// @Summary List questions
// @Description Filter the question bank. Unknown query parameters are rejected.
// @Tags Questions
// @Produce json
// @Param subject query string false "Subject"
// @Param chapter query string false "Chapter"
// @Param topic query string false "Topic"
// @Param difficulty query string false "easy, medium or hard"
// @Param type query string false "mcq, short_answer or long_answer"
// @Param owner query string false "Owner teacher id, or me"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /questions [get]
func (h *QuestionHandler) List(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	filter, err := service.ParseQuestionFilter(c.Request.URL.Query(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Create godoc
// @Summary Create question
// @Tags Questions
// @Accept json
// @Produce json
// @Param payload body models.CreateQuestionRequest true "Question payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /questions [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateQuestionRequest
	if !bindJSON(c, &req, "invalid question payload") {
		return
	}

	question, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}
