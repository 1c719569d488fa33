package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
	"github.com/makhanda-smiles/portal-api/pkg/auth"
	apperrors "github.com/makhanda-smiles/portal-api/pkg/errors"
	"github.com/makhanda-smiles/portal-api/pkg/security"
)

type memoryUsers struct {
	mu       sync.Mutex
	users    map[string]*model.User
	patients []*model.Patient
}

func (m *memoryUsers) CreateWithPatient(_ context.Context, u *model.User, p *model.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return repository.ErrDuplicate
	}
	m.users[u.Email] = u
	m.patients = append(m.patients, p)
	return nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *memoryUsers) IsAdmin(context.Context, uuid.UUID) (bool, error) { return false, nil }

func newTestService(t *testing.T) (*Service, *memoryUsers, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	users := &memoryUsers{users: map[string]*model.User{}}
	svc := NewService(users, auth.NewJWTService("secret", time.Hour), security.NewBcryptHasher(bcrypt.MinCost),
		NewRedisTokenStore(client), time.Hour, zerolog.Nop())
	return svc, users, mr
}

func TestService_RegisterSignsIn(t *testing.T) {
	svc, users, mr := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "c1", model.RegisterRequest{
		FullName: "Jane Doe", Email: "jane@example.com", Phone: "0821234567", Password: "password1",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", session.User.Email)
	require.Len(t, users.patients, 1)
	assert.Equal(t, "0821234567", users.patients[0].Phone)
	assert.True(t, mr.Exists("smiles:session:c1"))

	got, err := svc.GetSession(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, session.AccessToken, got.AccessToken)

	_, err = svc.Register(ctx, "c2", model.RegisterRequest{FullName: "Jane", Email: "jane@example.com", Password: "password1"})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestService_SignInAndOut(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "c1", model.RegisterRequest{FullName: "Jane", Email: "jane@example.com", Password: "password1"})
	require.NoError(t, err)

	var changes []*model.AuthSession
	unsubscribe := svc.OnChange(func(clientID string, s *model.AuthSession) {
		if clientID == "c2" {
			changes = append(changes, s)
		}
	})
	defer unsubscribe()

	_, err = svc.SignIn(ctx, "c2", "jane@example.com", "nope-nope")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	_, err = svc.SignIn(ctx, "c2", "nobody@example.com", "password1")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	session, err := svc.SignIn(ctx, "c2", "jane@example.com", "password1")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx, "c2"))

	require.Len(t, changes, 2)
	assert.Equal(t, session, changes[0])
	assert.Nil(t, changes[1])

	got, err := svc.GetSession(ctx, "c2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestService_GetSessionDropsInvalidToken(t *testing.T) {
	svc, _, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.tokens.Save(ctx, "c1", &model.AuthSession{AccessToken: "forged"}, time.Hour))

	got, err := svc.GetSession(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("smiles:session:c1"))
}

func TestService_RegisterShortPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), "c1", model.RegisterRequest{FullName: "J", Email: "j@example.com", Password: "short"})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}
