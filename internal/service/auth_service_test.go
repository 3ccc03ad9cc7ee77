package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/internal/repository/memstore"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

func newAuthService(store *memstore.Store) *AuthService {
	return NewAuthService(store.Users(), nil, nil, nil, AuthConfig{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		BcryptCost:    bcrypt.MinCost,
	})
}

func TestAuthServiceRegisterTeacherWithInstitution(t *testing.T) {
	store := memstore.New()
	svc := newAuthService(store)
	ctx := context.Background()

	resp, err := svc.Register(ctx, models.RegisterRequest{
		Name:            "Ms. Rao",
		Email:           "Rao@School.test",
		Password:        "secret123",
		Role:            models.RoleTeacher,
		InstitutionName: strPtr("Green Valley School"),
	}, RequestMeta{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.UserID)

	user, err := store.Users().FindByEmail(ctx, "rao@school.test")
	require.NoError(t, err)
	require.NotNil(t, user.InstitutionID)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	inst, err := store.Users().FindInstitutionByID(ctx, *user.InstitutionID)
	require.NoError(t, err)
	assert.Equal(t, "Green Valley School", inst.Name)

	logs := store.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionRegister, logs[0].Action)

	_, err = svc.Register(ctx, models.RegisterRequest{
		Name: "Impostor", Email: "rao@school.test", Password: "secret123", Role: models.RoleTeacher,
	}, RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "email", appErrors.FromError(err).Details[0].Field)
}

func TestAuthServiceRegisterStudentRequestsLink(t *testing.T) {
	store := memstore.New()
	svc := newAuthService(store)
	ctx := context.Background()
	teacher := registerTeacher(t, store, "teacher")

	resp, err := svc.Register(ctx, models.RegisterRequest{
		Name: "Asha", Email: "asha@school.test", Password: "secret123", Role: models.RoleStudent,
		TeacherID: &teacher.ID, RollNumber: strPtr("12"),
	}, RequestMeta{})
	require.NoError(t, err)

	pending, err := store.Links().ListPending(ctx, teacher.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, resp.UserID, pending[0].ID)
	assert.Equal(t, "12", *pending[0].RollNumber)

	_, err = svc.Register(ctx, models.RegisterRequest{
		Name: "Ravi", Email: "ravi@school.test", Password: "secret123", Role: models.RoleStudent,
		TeacherID: strPtr("missing"),
	}, RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "teacherId", appErrors.FromError(err).Details[0].Field)

	_, err = svc.Register(ctx, models.RegisterRequest{
		Name: "Meera", Email: "meera@school.test", Password: "secret123", Role: models.RoleStudent,
		TeacherID: &resp.UserID,
	}, RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
}

func TestAuthServiceRegisterStudentInvalidatesTeacherDashboard(t *testing.T) {
	store := memstore.New()
	recorder := &invalidationRecorder{}
	svc := NewAuthService(store.Users(), recorder, nil, nil, AuthConfig{SessionSecret: "test-secret", BcryptCost: bcrypt.MinCost})
	ctx := context.Background()
	teacher := registerTeacher(t, store, "teacher")

	_, err := svc.Register(ctx, models.RegisterRequest{
		Name: "Kiran", Email: "kiran@school.test", Password: "secret123", Role: models.RoleTeacher,
	}, RequestMeta{})
	require.NoError(t, err)
	assert.Empty(t, recorder.teachers)

	_, err = svc.Register(ctx, models.RegisterRequest{
		Name: "Asha", Email: "asha@school.test", Password: "secret123", Role: models.RoleStudent, TeacherID: &teacher.ID,
	}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, []string{teacher.ID}, recorder.teachers)
}

// staleEmailLookup never sees existing users, as when two registrations for
// the same email pass the lookup before either commits.
type staleEmailLookup struct {
	*memstore.Users
}

func (staleEmailLookup) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func TestAuthServiceRegisterDuplicateEmailOnInsert(t *testing.T) {
	store := memstore.New()
	svc := NewAuthService(staleEmailLookup{store.Users()}, nil, nil, nil, AuthConfig{SessionSecret: "test-secret", BcryptCost: bcrypt.MinCost})
	req := models.RegisterRequest{Name: "Ms. Rao", Email: "rao@school.test", Password: "secret123", Role: models.RoleTeacher}

	_, err := svc.Register(context.Background(), req, RequestMeta{})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req, RequestMeta{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, appErrors.FieldError{Field: "email", Rule: "unique"}, appErr.Details[0])
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	svc := newAuthService(memstore.New())
	cases := map[string]models.RegisterRequest{
		"bad email":    {Name: "A", Email: "not-an-email", Password: "secret123", Role: models.RoleTeacher},
		"short pass":   {Name: "A", Email: "a@school.test", Password: "123", Role: models.RoleTeacher},
		"unknown role": {Name: "A", Email: "a@school.test", Password: "secret123", Role: "admin"},
		"missing name": {Email: "a@school.test", Password: "secret123", Role: models.RoleStudent},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), req, RequestMeta{})
			assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
		})
	}
}

func TestAuthServiceSessionLifecycle(t *testing.T) {
	store := memstore.New()
	svc := newAuthService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, models.RegisterRequest{
		Name: "Ms. Rao", Email: "rao@school.test", Password: "secret123", Role: models.RoleTeacher,
	}, RequestMeta{})
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "rao@school.test", Password: "wrong-pass"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@school.test", Password: "secret123"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	result, err := svc.Login(ctx, models.LoginRequest{Email: "RAO@school.test", Password: "secret123", IP: "10.0.0.2"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, models.RoleTeacher, result.User.Role)

	claims, err := svc.ValidateSession(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, result.Session.ID, claims.ID)

	me, err := svc.Me(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, "rao@school.test", me.Email)

	require.NoError(t, svc.Logout(ctx, claims, RequestMeta{}))
	_, err = svc.ValidateSession(ctx, result.Token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	actions := []string{}
	for _, log := range store.AuditLogs() {
		actions = append(actions, log.Action)
	}
	assert.Equal(t, []string{models.AuditActionRegister, models.AuditActionLogin, models.AuditActionLogout}, actions)
}

func TestAuthServiceRejectsForeignAndExpiredTokens(t *testing.T) {
	store := memstore.New()
	svc := newAuthService(store)
	ctx := context.Background()
	_, err := svc.Register(ctx, models.RegisterRequest{
		Name: "Ms. Rao", Email: "rao@school.test", Password: "secret123", Role: models.RoleTeacher,
	}, RequestMeta{})
	require.NoError(t, err)
	result, err := svc.Login(ctx, models.LoginRequest{Email: "rao@school.test", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.ValidateSession(ctx, "garbage")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	other := NewAuthService(store.Users(), nil, nil, nil, AuthConfig{SessionSecret: "other-secret", BcryptCost: bcrypt.MinCost})
	_, err = other.ValidateSession(ctx, result.Token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateSession(ctx, result.Token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	assert.ErrorIs(t, svc.Logout(ctx, nil, RequestMeta{}), appErrors.ErrUnauthorized)
}
