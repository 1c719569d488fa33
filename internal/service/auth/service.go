package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
	"github.com/makhanda-smiles/portal-api/pkg/auth"
	"github.com/makhanda-smiles/portal-api/pkg/errors"
	"github.com/makhanda-smiles/portal-api/pkg/security"
)

var ErrInvalidCredentials = stderrors.New("invalid credentials")

// ChangeFunc is called after a client's session changes. session is nil
// after sign-out.
type ChangeFunc func(clientID string, session *model.AuthSession)

// Service is the authentication provider. Sessions are bound to the
// client id that signed in.
type Service struct {
	users  repository.UserRepository
	jwt    auth.JWTService
	hasher security.PasswordHasher
	tokens TokenStore
	ttl    time.Duration
	logger zerolog.Logger

	mu        sync.RWMutex
	listeners map[int]ChangeFunc
	nextID    int
}

func NewService(users repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher,
	tokens TokenStore, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		users:     users,
		jwt:       jwtSvc,
		hasher:    hasher,
		tokens:    tokens,
		ttl:       ttl,
		logger:    logger,
		listeners: make(map[int]ChangeFunc),
	}
}

// Register creates a login and its patient record, then signs the client in.
func (s *Service) Register(ctx context.Context, clientID string, req model.RegisterRequest) (*model.AuthSession, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if stderrors.Is(err, security.ErrPasswordTooShort) {
			return nil, errors.BadRequest(err.Error(), err)
		}
		return nil, errors.Internal(err)
	}

	now := time.Now()
	email := strings.TrimSpace(req.Email)
	user := &model.User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     req.FullName,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	patient := &model.Patient{
		Base:     model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		FullName: req.FullName,
		Email:    email,
		Phone:    req.Phone,
	}

	if err := s.users.CreateWithPatient(ctx, user, patient); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Conflict("an account with this email already exists", err)
		}
		return nil, errors.Unavailable("failed to create account", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("account registered")
	return s.issue(ctx, clientID, user)
}

func (s *Service) SignIn(ctx context.Context, clientID, email, password string) (*model.AuthSession, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, errors.Unavailable("failed to sign in", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Warn().Str("user_id", user.ID.String()).Msg("failed sign-in attempt")
		return nil, errors.Unauthorized(ErrInvalidCredentials)
	}

	return s.issue(ctx, clientID, user)
}

func (s *Service) issue(ctx context.Context, clientID string, user *model.User) (*model.AuthSession, error) {
	token, expiresAt, err := s.jwt.GenerateAccessToken(user.ID.String(), user.Email, user.FullName)
	if err != nil {
		return nil, errors.Internal(err)
	}

	session := &model.AuthSession{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User: model.SessionUser{
			ID:       user.ID.String(),
			Email:    user.Email,
			FullName: user.FullName,
		},
	}
	if err := s.tokens.Save(ctx, clientID, session, s.ttl); err != nil {
		return nil, errors.Unavailable("failed to store session", err)
	}

	s.notify(clientID, session)
	return session, nil
}

func (s *Service) SignOut(ctx context.Context, clientID string) error {
	if err := s.tokens.Delete(ctx, clientID); err != nil {
		return errors.Unavailable("failed to sign out", err)
	}
	s.notify(clientID, nil)
	return nil
}

// GetSession returns the client's session, or nil when it has none or its
// token no longer validates.
func (s *Service) GetSession(ctx context.Context, clientID string) (*model.AuthSession, error) {
	session, err := s.tokens.Load(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil
	}
	if _, err := s.jwt.ValidateToken(session.AccessToken); err != nil {
		s.logger.Debug().Err(err).Str("client_id", clientID).Msg("discarding invalid session")
		_ = s.tokens.Delete(ctx, clientID)
		return nil, nil
	}
	return session, nil
}

// OnChange registers fn for session changes and returns its unsubscribe func.
func (s *Service) OnChange(fn func(clientID string, session *model.AuthSession)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) notify(clientID string, session *model.AuthSession) {
	s.mu.RLock()
	listeners := make([]ChangeFunc, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(clientID, session)
	}
}
