package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Register(ctx context.Context, user *models.User, institution *models.Institution, link *models.StudentTeacherLink) error
	CreateSession(ctx context.Context, session *models.Session) error
	FindSession(ctx context.Context, id string) (*models.Session, error)
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	Issuer        string
	BcryptCost    int
}

// AuthService provides registration and cookie-session use cases.
type AuthService struct {
	repo      authUserRepository
	dashboard dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, dashboard dashboardInvalidator, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 24 * time.Hour
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.Issuer == "" {
		config.Issuer = "test-generator"
	}
	return &AuthService{repo: repo, dashboard: dashboard, validator: validate, logger: logger, config: config, now: time.Now}
}

// SessionTTL reports how long issued sessions stay valid.
func (s *AuthService) SessionTTL() time.Duration {
	return s.config.SessionTTL
}

// Register creates an account. Teachers may found an institution; students
// may request a link to a teacher, which starts pending.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, meta RequestMeta) (*models.RegisterResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid registration payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, fieldError("email", "unique", "user already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check existing user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	}

	var institution *models.Institution
	var link *models.StudentTeacherLink
	switch req.Role {
	case models.RoleTeacher:
		if req.InstitutionName != nil && strings.TrimSpace(*req.InstitutionName) != "" {
			institution = &models.Institution{Name: strings.TrimSpace(*req.InstitutionName), Address: req.InstitutionAddress}
		}
	case models.RoleStudent:
		user.RollNumber = req.RollNumber
		if req.TeacherID != nil && *req.TeacherID != "" {
			teacher, err := s.repo.FindByID(ctx, *req.TeacherID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, fieldError("teacherId", "exists", "teacher not found")
				}
				return nil, appErrors.Internal(err, "failed to load teacher")
			}
			if teacher.Role != models.RoleTeacher {
				return nil, fieldError("teacherId", "teacher", "teacherId does not reference a teacher")
			}
			link = &models.StudentTeacherLink{TeacherID: teacher.ID}
		}
	}

	if err := s.repo.Register(ctx, user, institution, link); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return nil, fieldError("email", "unique", "user already exists")
		}
		return nil, appErrors.Internal(err, "failed to register user")
	}
	if link != nil && s.dashboard != nil {
		s.dashboard.Invalidate(ctx, link.TeacherID)
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionRegister,
		Resource:   "auth",
		ResourceID: &user.ID,
		NewValues:  []byte(fmt.Sprintf(`{"role":%q}`, user.Role)),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record register audit log", zap.Error(err))
	}

	return &models.RegisterResponse{UserID: user.ID}, nil
}

// Login verifies credentials and opens a server-side session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.config.SessionTTL),
		CreatedAt: now,
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Internal(err, "failed to persist session")
	}

	token, err := s.signSession(user, session)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign session")
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &user.ID,
		Action:     models.AuditActionLogin,
		Resource:   "auth",
		ResourceID: &user.ID,
		NewValues:  []byte(`{"status":"success"}`),
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record login audit log", zap.Error(err))
	}

	return &models.LoginResult{Token: token, Session: session, User: user.Summary()}, nil
}

// Logout revokes the session behind claims.
func (s *AuthService) Logout(ctx context.Context, claims *models.SessionClaims, meta RequestMeta) error {
	if claims == nil || claims.ID == "" {
		return appErrors.ErrUnauthorized
	}
	if err := s.repo.RevokeSession(ctx, claims.ID, s.now().UTC()); err != nil {
		return appErrors.Internal(err, "failed to revoke session")
	}
	userID := claims.UserID
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionLogout,
		Resource:   "auth",
		ResourceID: &userID,
		NewValues:  []byte(`{"status":"logout"}`),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record logout audit log", zap.Error(err))
	}
	return nil
}

// Me returns the summary of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserSummary, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	summary := user.Summary()
	return &summary, nil
}

// ValidateSession verifies the signed token and the session row it names.
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SessionSecret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}

	session, err := s.repo.FindSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session not found")
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	if !session.Active(s.now()) || session.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired or revoked")
	}
	return claims, nil
}

func (s *AuthService) signSession(user *models.User, session *models.Session) (string, error) {
	claims := &models.SessionClaims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.SessionSecret))
}
