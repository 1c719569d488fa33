package auth

import (
	"context"
	"net/http"
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

	"github.com/makhanda-smiles/portal-api/internal/handler/testutil"
	"github.com/makhanda-smiles/portal-api/internal/middleware"
	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
	authsvc "github.com/makhanda-smiles/portal-api/internal/service/auth"
	"github.com/makhanda-smiles/portal-api/internal/session"
	"github.com/makhanda-smiles/portal-api/pkg/auth"
	"github.com/makhanda-smiles/portal-api/pkg/security"
)

type memoryUsers struct {
	mu     sync.Mutex
	users  map[string]*model.User
	admins map[uuid.UUID]bool
}

func (m *memoryUsers) CreateWithPatient(_ context.Context, u *model.User, _ *model.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return repository.ErrDuplicate
	}
	m.users[u.Email] = u
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

func (m *memoryUsers) IsAdmin(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admins[id], nil
}

type env struct {
	router http.Handler
	users  *memoryUsers
	redis  *miniredis.Miniredis
	// tokens holds the access token each client was last issued.
	tokens map[string]string
}

func setup(t *testing.T, demo bool) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	jwtService := auth.NewJWTService("test-secret", time.Hour)
	users := &memoryUsers{users: map[string]*model.User{}, admins: map[uuid.UUID]bool{}}
	accounts := authsvc.NewService(users, jwtService,
		security.NewBcryptHasher(bcrypt.MinCost), authsvc.NewRedisTokenStore(client), time.Hour, zerolog.Nop())
	manager := session.NewManager(accounts, users, session.NewRedisFlagStore(client), zerolog.Nop(), session.Config{DemoEnabled: demo})
	manager.Start()
	t.Cleanup(manager.Close)

	r, api := testutil.NewRouter(middleware.ClientIdentity(manager, jwtService))
	NewHandler(manager, accounts).RegisterRoutes(api)
	return &env{router: r, users: users, redis: mr, tokens: map[string]string{}}
}

// call sends the client's last issued token along with its id.
func (e *env) call(t *testing.T, method, path, clientID string, body interface{}) (int, session.View) {
	t.Helper()
	var header map[string]string
	if clientID != "" {
		header = map[string]string{middleware.HeaderXClientID: clientID}
		if token := e.tokens[clientID]; token != "" {
			header["Authorization"] = "Bearer " + token
		}
	}
	w, resp := testutil.Do(t, e.router, testutil.Request{Method: method, Path: path, Body: body, Header: header})

	var view session.View
	if resp.IsSuccess() {
		resp.Decode(t, &view)
		if view.AccessToken != "" {
			e.tokens[clientID] = view.AccessToken
		} else if !view.Authenticated {
			delete(e.tokens, clientID)
		}
	}
	return w.Code, view
}

const client = "browser-0001"

func TestRegisterLoginLogout(t *testing.T) {
	e := setup(t, false)

	code, view := e.call(t, http.MethodPost, "/api/v1/auth/register", client, map[string]string{
		"full_name": "Ayanda Dube", "email": "ayanda@example.com", "phone": "0825550000", "password": "toothfairy",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, view.Authenticated)
	assert.False(t, view.DemoMode)
	require.NotNil(t, view.User)
	assert.Equal(t, "ayanda@example.com", view.User.Email)
	assert.NotNil(t, view.ExpiresAt)
	assert.NotEmpty(t, view.AccessToken)

	code, _ = e.call(t, http.MethodPost, "/api/v1/auth/register", "browser-0002", map[string]string{
		"full_name": "Ayanda Dube", "email": "ayanda@example.com", "password": "toothfairy",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, view = e.call(t, http.MethodGet, "/api/v1/auth/session", client, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, view.Authenticated)

	code, view = e.call(t, http.MethodPost, "/api/v1/auth/logout", client, nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, view.Authenticated)

	code, view = e.call(t, http.MethodPost, "/api/v1/auth/login", client, map[string]string{
		"email": "ayanda@example.com", "password": "toothfairy",
	})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, view.Authenticated)
	assert.False(t, view.IsAdmin)

	code, _ = e.call(t, http.MethodPost, "/api/v1/auth/login", client, map[string]string{
		"email": "ayanda@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLoginAsAdmin(t *testing.T) {
	e := setup(t, false)

	code, view := e.call(t, http.MethodPost, "/api/v1/auth/register", client, map[string]string{
		"full_name": "Dr Naidoo", "email": "naidoo@clinic.test", "password": "root-canal",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.False(t, view.IsAdmin)

	e.users.admins[e.users.users["naidoo@clinic.test"].ID] = true

	code, view = e.call(t, http.MethodPost, "/api/v1/auth/login", "browser-0003", map[string]string{
		"email": "naidoo@clinic.test", "password": "root-canal",
	})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, view.IsAdmin)
}

func TestDemoMode(t *testing.T) {
	e := setup(t, true)

	code, view := e.call(t, http.MethodPost, "/api/v1/auth/demo", client, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, view.DemoMode)
	assert.True(t, view.IsAdmin)
	assert.Equal(t, session.RoleAdmin, view.DemoRole)
	assert.Equal(t, "demo-admin-123", view.User.ID)
	assert.Equal(t, "true", e.redis.HGet("smiles:client:"+client, "demoMode"))

	code, view = e.call(t, http.MethodGet, "/api/v1/auth/session", client, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, view.DemoMode)

	code, view = e.call(t, http.MethodDelete, "/api/v1/auth/demo", client, nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, view.DemoMode)
	assert.False(t, view.Authenticated)

	code, _ = e.call(t, http.MethodPost, "/api/v1/auth/demo", client, map[string]string{"role": "dentist"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRequiresClientID(t *testing.T) {
	e := setup(t, false)

	code, _ := e.call(t, http.MethodGet, "/api/v1/auth/session", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSessionNeedsItsToken(t *testing.T) {
	e := setup(t, false)

	code, view := e.call(t, http.MethodPost, "/api/v1/auth/register", client, map[string]string{
		"full_name": "Lindiwe Mokoena", "email": "lindiwe@example.com", "password": "flossdaily",
	})
	require.Equal(t, http.StatusCreated, code)
	token := view.AccessToken

	bare := map[string]string{middleware.HeaderXClientID: client}
	w, _ := testutil.Do(t, e.router, testutil.Request{Method: http.MethodGet, Path: "/api/v1/auth/session", Header: bare})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = testutil.Do(t, e.router, testutil.Request{Method: http.MethodPost, Path: "/api/v1/auth/logout", Header: bare})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A token issued to another client does not unlock this one.
	code, other := e.call(t, http.MethodPost, "/api/v1/auth/login", "browser-0009", map[string]string{
		"email": "lindiwe@example.com", "password": "flossdaily",
	})
	require.Equal(t, http.StatusOK, code)
	stolen := map[string]string{middleware.HeaderXClientID: client, "Authorization": "Bearer " + other.AccessToken}
	if other.AccessToken != token {
		w, _ = testutil.Do(t, e.router, testutil.Request{Method: http.MethodGet, Path: "/api/v1/auth/session", Header: stolen})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	code, view = e.call(t, http.MethodGet, "/api/v1/auth/session", client, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, view.Authenticated)
	assert.Equal(t, "lindiwe@example.com", view.User.Email)
}

func TestDemoModeDisabled(t *testing.T) {
	e := setup(t, false)

	code, _ := e.call(t, http.MethodPost, "/api/v1/auth/demo", client, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.False(t, e.redis.Exists("smiles:client:"+client))

	code, view := e.call(t, http.MethodGet, "/api/v1/auth/session", client, nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, view.DemoMode)
	assert.False(t, view.IsAdmin)
}
