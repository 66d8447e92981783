package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/takrit/auth-sessions/internal/domain"
	"github.com/takrit/auth-sessions/internal/dto"
	"github.com/takrit/auth-sessions/internal/repository"
	"github.com/takrit/auth-sessions/internal/session"
	"github.com/takrit/auth-sessions/internal/token"
	"github.com/takrit/auth-sessions/pkg/logger"
	"github.com/takrit/auth-sessions/pkg/telemetry"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthServiceConfig holds configuration for AuthService
type AuthServiceConfig struct {
	BcryptCost int
}

// AuthService orchestrates the session lifecycle: signup and login mint a
// token pair and record the refresh token in the session cache before any
// cookie is handed out; logout revokes the cache record.
type AuthService interface {
	// Signup creates a new user and opens a session
	Signup(ctx context.Context, req *dto.SignupRequest) (*domain.User, *domain.TokenPair, error)
	// Login authenticates a user and opens a session
	Login(ctx context.Context, req *dto.LoginRequest) (*domain.User, *domain.TokenPair, error)
	// Logout revokes the session named by the refresh token. An
	// unverifiable token is a soft no-op, not an error.
	Logout(ctx context.Context, refreshToken string) error
	// Refresh rotates the token pair. The refresh token must both verify
	// and match the value currently held in the session cache.
	Refresh(ctx context.Context, refreshToken string) (*domain.User, *domain.TokenPair, error)
	// GetUser retrieves a user by id
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

type authService struct {
	users      repository.UserRepository
	sessions   session.Store
	tokens     *token.Issuer
	bcryptCost int
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users repository.UserRepository,
	sessions session.Store,
	tokens *token.Issuer,
	config *AuthServiceConfig,
) AuthService {
	cost := bcrypt.DefaultCost
	if config != nil && config.BcryptCost != 0 {
		cost = config.BcryptCost
	}
	return &authService{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		bcryptCost: cost,
	}
}

// Signup creates a new user and opens a session
func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest) (*domain.User, *domain.TokenPair, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.signup")
	defer span.End()

	span.SetAttributes(attribute.String("email", req.Email))

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}
	if existing != nil {
		span.SetStatus(codes.Error, "user already exists")
		return nil, nil, ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// The unique index wins races the existence check cannot.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			span.SetStatus(codes.Error, "user already exists")
			return nil, nil, ErrUserAlreadyExists
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	pair, err := s.openSession(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return user, pair, nil
}

// Login authenticates a user and opens a session
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*domain.User, *domain.TokenPair, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.login")
	defer span.End()

	span.SetAttributes(attribute.String("email", req.Email))

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}
	// Unknown email and wrong password are indistinguishable to the caller.
	if user == nil {
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.openSession(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return user, pair, nil
}

// Logout revokes the session named by the refresh token
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.logout")
	defer span.End()

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		// Nothing to revoke; the transport clears cookies regardless.
		logger.Get().Warn("logout with unverifiable refresh token", zap.Error(err))
		span.SetStatus(codes.Ok, "nothing to revoke")
		return nil
	}

	span.SetAttributes(attribute.String("user_id", claims.UserID))

	if err := s.sessions.Delete(ctx, claims.UserID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Refresh rotates the token pair
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *domain.TokenPair, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.refresh")
	defer span.End()

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		span.SetStatus(codes.Error, "invalid refresh token")
		return nil, nil, ErrInvalidRefresh
	}

	span.SetAttributes(attribute.String("user_id", claims.UserID))

	// Signature validity is necessary but not sufficient: the cache must
	// still hold this exact value for the user.
	stored, err := s.sessions.Get(ctx, claims.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}
	if stored == "" || stored != refreshToken {
		span.SetStatus(codes.Error, "refresh token revoked or superseded")
		return nil, nil, ErrInvalidRefresh
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return nil, nil, ErrInvalidRefresh
	}

	pair, err := s.openSession(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	span.SetStatus(codes.Ok, "")
	return user, pair, nil
}

// GetUser retrieves a user by id
func (s *authService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.get_user")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", id))

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return nil, ErrUserNotFound
	}

	span.SetStatus(codes.Ok, "")
	return user, nil
}

// openSession mints a token pair and records the refresh token. The cache
// write must succeed before any cookie reaches the client: an unrecorded
// refresh token could never be validated or revoked later.
func (s *authService) openSession(ctx context.Context, userID string) (*domain.TokenPair, error) {
	pair, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, userID, pair.RefreshToken, s.tokens.RefreshTTL()); err != nil {
		return nil, err
	}
	return pair, nil
}
