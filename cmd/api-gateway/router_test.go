package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/internal/repository/memstore"
	"github.com/Ksohaib16/Test-Generator/internal/service"
	"github.com/Ksohaib16/Test-Generator/pkg/config"
)

func memApplication(store *memstore.Store) *application {
	cfg := &config.Config{
		Env:       "test",
		APIPrefix: "/api",
		Session:   config.SessionConfig{Secret: "router-secret", TTL: time.Hour, CookieName: "tg_session"},
	}
	logr := zap.NewNop()
	metrics := service.NewMetricsService()
	dashboard := service.NewDashboardService(store.Stats(), nil, time.Minute, logr)
	questions := service.NewQuestionService(store.Questions(), nil, logr)
	tests := service.NewTestService(store.Tests(), questions, dashboard, nil, logr)
	return &application{
		cfg:     cfg,
		logger:  logr,
		metrics: metrics,
		auth: service.NewAuthService(store.Users(), dashboard, nil, logr, service.AuthConfig{
			SessionSecret: cfg.Session.Secret,
			SessionTTL:    cfg.Session.TTL,
			BcryptCost:    bcrypt.MinCost,
		}),
		questions: questions,
		tests:     tests,
		papers:    service.NewRenderService(tests, store.Users(), nil, metrics, "", logr),
		assignments: service.NewAssignmentService(service.AssignmentServiceParams{
			Repo:      store.Assignments(),
			Tests:     tests,
			Roster:    store.Links(),
			Dashboard: dashboard,
			Metrics:   metrics,
		}),
		approvals: service.NewApprovalService(store.Links(), store.Users(), dashboard, metrics, nil, logr),
		dashboard: dashboard,
		audit:     store.Users(),
	}
}

type client struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func (c *client) login(email, password string) {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "tg_session" {
			c.cookie = cookie
		}
	}
	require.NotNil(c.t, c.cookie)
}

func data(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func TestTeacherWorkflowEndToEnd(t *testing.T) {
	store := memstore.New()
	router := newRouter(memApplication(store))
	teacher := &client{t: t, router: router}
	student := &client{t: t, router: router}

	rec := teacher.do(http.MethodPost, "/api/auth/register", map[string]interface{}{
		"name": "Ms. Rao", "email": "rao@school.test", "password": "secret123", "role": "teacher",
		"institutionName": "Green Valley School",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var registered models.RegisterResponse
	data(t, rec, &registered)

	rec = student.do(http.MethodPost, "/api/auth/register", map[string]interface{}{
		"name": "Asha", "email": "asha@school.test", "password": "secret123", "role": "student",
		"teacherId": registered.UserID, "rollNumber": "7",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, teacher.do(http.MethodGet, "/api/tests", nil).Code)

	teacher.login("rao@school.test", "secret123")
	student.login("asha@school.test", "secret123")
	assert.Equal(t, http.StatusForbidden, student.do(http.MethodGet, "/api/tests", nil).Code)
	assert.Equal(t, http.StatusOK, student.do(http.MethodGet, "/api/auth/me", nil).Code)

	rec = teacher.do(http.MethodGet, "/api/students/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []models.PendingStudent
	data(t, rec, &pending)
	require.Len(t, pending, 1)

	rec = teacher.do(http.MethodPost, "/api/students/"+pending[0].LinkID+"/status", map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = teacher.do(http.MethodPost, "/api/students/"+pending[0].LinkID+"/status", map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = teacher.do(http.MethodGet, "/api/students", nil)
	var roster []models.RosterStudent
	data(t, rec, &roster)
	require.Len(t, roster, 1)

	rec = teacher.do(http.MethodPost, "/api/tests", map[string]interface{}{
		"title": "Physics Chapter Test", "subject": "science", "type": "chapter_test", "difficulty": "medium",
		"questions": []map[string]interface{}{
			{"difficulty": "easy", "type": "mcq", "questionText": "SI unit of force?", "options": []string{"Joule", "Newton"}, "answer": "Newton", "marks": 2},
			{"difficulty": "medium", "type": "short_answer", "questionText": "State Newton's second law.", "marks": 3},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var test models.Test
	data(t, rec, &test)
	assert.Equal(t, 5, *test.TotalMarks)

	rec = teacher.do(http.MethodPost, "/api/tests/"+test.ID+"/pdf", map[string]bool{"includeHeader": true, "showMarks": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "physics-chapter-test.pdf")

	rec = teacher.do(http.MethodPost, "/api/tests/"+test.ID+"/assign", map[string]interface{}{"studentIds": []string{roster[0].ID}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = teacher.do(http.MethodGet, "/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalStudents":1`)
	assert.Contains(t, rec.Body.String(), `"testsAssigned":1`)

	rec = teacher.do(http.MethodDelete, "/api/tests/"+test.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.Assignments().All())

	actions := map[string]int{}
	for _, log := range store.AuditLogs() {
		actions[log.Action]++
	}
	assert.Equal(t, 1, actions[models.AuditActionTestAssign])
	assert.Equal(t, 1, actions[models.AuditActionTestDelete])
	assert.Equal(t, 1, actions[models.AuditActionLinkDecision])

	require.Equal(t, http.StatusOK, teacher.do(http.MethodPost, "/api/auth/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, teacher.do(http.MethodGet, "/api/auth/me", nil).Code)
}

func TestProbesAndDocs(t *testing.T) {
	router := newRouter(memApplication(memstore.New()))
	c := &client{t: t, router: router}

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/metrics", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/docs/doc.json", nil).Code)
}
