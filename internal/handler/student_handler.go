package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/internal/service"
	"github.com/Ksohaib16/Test-Generator/pkg/response"
)

type approvalService interface {
	Decide(ctx context.Context, linkID, teacherID string, req models.DecideLinkRequest, meta service.RequestMeta) (*models.StudentTeacherLink, error)
	ListPending(ctx context.Context, teacherID string) ([]models.PendingStudent, error)
	ListApprovedStudents(ctx context.Context, teacherID string) ([]models.RosterStudent, error)
}

// StudentHandler serves the approval workflow and the teacher's roster.
type StudentHandler struct {
	service approvalService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(svc approvalService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// Pending godoc
// @Summary Pending link requests
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/pending [get]
func (h *StudentHandler) Pending(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.service.ListPending(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Decide godoc
// @Summary Approve or reject a student
// @Description Decisions are final. Repeating the same decision is accepted.
// @Tags Students
// @Accept json
// @Produce json
// @Param linkId path string true "Link ID"
// @Param payload body models.DecideLinkRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{linkId}/status [post]
func (h *StudentHandler) Decide(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.DecideLinkRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	link, err := h.service.Decide(c.Request.Context(), c.Param("linkId"), claims.UserID, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link)
}

// Roster godoc
// @Summary Approved students
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) Roster(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.service.ListApprovedStudents(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}
