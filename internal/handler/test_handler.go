package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/internal/service"
	"github.com/Ksohaib16/Test-Generator/pkg/response"
)

type testService interface {
	Create(ctx context.Context, teacherID string, req models.CreateTestRequest) (*models.Test, error)
	Get(ctx context.Context, id, teacherID string) (*models.Test, error)
	List(ctx context.Context, teacherID string) ([]models.Test, error)
	Update(ctx context.Context, id, teacherID string, req models.UpdateTestRequest) (*models.Test, error)
	Delete(ctx context.Context, id, teacherID string) error
}

type paperService interface {
	Render(ctx context.Context, testID, teacherID string, opts models.PDFOptions) (*service.RenderedPaper, error)
}

type assignmentService interface {
	Assign(ctx context.Context, testID, teacherID string, req models.AssignTestRequest) (int, error)
	List(ctx context.Context, testID, teacherID string) ([]models.AssignmentDetail, error)
	ExportCSV(ctx context.Context, testID, teacherID string) (string, []byte, error)
}

// TestHandler serves test CRUD, PDF export and assignment.
type TestHandler struct {
	tests       testService
	papers      paperService
	assignments assignmentService
}

// NewTestHandler constructs the handler.
func NewTestHandler(tests testService, papers paperService, assignments assignmentService) *TestHandler {
	return &TestHandler{tests: tests, papers: papers, assignments: assignments}
}

// List godoc
// @Summary List tests
// @Description Tests created by the caller, newest first
// @Tags Tests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tests [get]
func (h *TestHandler) List(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.tests.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Get godoc
// @Summary Get test
// @Tags Tests
// @Produce json
// @Param id path string true "Test ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tests/{id} [get]
func (h *TestHandler) Get(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	test, err := h.tests.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, test)
}

// Create godoc
// @Summary Create test
// @Description Assemble a test from embedded questions or from question bank ids
// @Tags Tests
// @Accept json
// @Produce json
// @Param payload body models.CreateTestRequest true "Test payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tests [post]
func (h *TestHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateTestRequest
	if !bindJSON(c, &req, "invalid test payload") {
		return
	}
	test, err := h.tests.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, test)
}

// Update godoc
// @Summary Update test
// @Description Partial update. Replacing questions recomputes total marks.
// @Tags Tests
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param payload body models.UpdateTestRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tests/{id} [put]
func (h *TestHandler) Update(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.UpdateTestRequest
	if !bindJSON(c, &req, "invalid test payload") {
		return
	}
	test, err := h.tests.Update(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, test)
}

// Delete godoc
// @Summary Delete test
// @Tags Tests
// @Produce json
// @Param id path string true "Test ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tests/{id} [delete]
func (h *TestHandler) Delete(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.tests.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "test deleted"})
}

// PDF godoc
// @Summary Export test paper
// @Description Render the test as a PDF. Omitted toggles default to false.
// @Tags Tests
// @Accept json
// @Produce application/pdf
// @Param id path string true "Test ID"
// @Param payload body models.PDFOptions false "Presentation toggles"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /tests/{id}/pdf [post]
func (h *TestHandler) PDF(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var opts models.PDFOptions
	if !bindOptionalJSON(c, &opts, "invalid pdf options") {
		return
	}
	paper, err := h.papers.Render(c.Request.Context(), c.Param("id"), claims.UserID, opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "application/pdf", paper.Filename, paper.Content)
}

// Assign godoc
// @Summary Assign test
// @Description Assign the test to approved students in one transaction
// @Tags Tests
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param payload body models.AssignTestRequest true "Students and due date"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tests/{id}/assign [post]
func (h *TestHandler) Assign(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.AssignTestRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	count, err := h.assignments.Assign(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, models.AssignTestResponse{Count: count})
}

// Assignments godoc
// @Summary List assignments of a test
// @Tags Tests
// @Produce json
// @Param id path string true "Test ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tests/{id}/assignments [get]
func (h *TestHandler) Assignments(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.assignments.List(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// ExportAssignments godoc
// @Summary Export assignments as CSV
// @Tags Tests
// @Produce text/csv
// @Param id path string true "Test ID"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tests/{id}/assignments/export [get]
func (h *TestHandler) ExportAssignments(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	filename, content, err := h.assignments.ExportCSV(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "text/csv", filename, content)
}
