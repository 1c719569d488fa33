package middleware

import (
	"context"
	"crypto/subtle"
	stderrors "errors"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/makhanda-smiles/portal-api/internal/session"
	"github.com/makhanda-smiles/portal-api/pkg/auth"
	"github.com/makhanda-smiles/portal-api/pkg/errors"
	"github.com/makhanda-smiles/portal-api/pkg/httputil"
)

const (
	HeaderXClientID = "X-Client-ID"
	ContextClientID = "client_id"
	ContextSession  = "session_state"
	// ContextSessionClaimed is set when the client id carries a session the
	// request did not prove with its bearer token.
	ContextSessionClaimed = "session_claimed"
)

var errTokenMismatch = stderrors.New("token does not match the client's session")

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// SessionResolver resolves a client's session state.
type SessionResolver interface {
	Init(ctx context.Context, clientID string) (session.State, error)
}

// TokenValidator checks a bearer access token.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// ClientIdentity resolves the session of the calling client, identified by
// the X-Client-ID header. Requests without the header pass through
// anonymously; a malformed header is rejected.
//
// A provider-issued session also needs "Authorization: Bearer <token>"
// naming that same session. Without the header the request proceeds
// anonymously; with a wrong token it is rejected.
func ClientIdentity(resolver SessionResolver, tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader(HeaderXClientID)
		if clientID == "" {
			c.Next()
			return
		}
		if !clientIDPattern.MatchString(clientID) {
			httputil.RespondWithError(c, errors.BadRequest("invalid client id", nil))
			return
		}

		state, err := resolver.Init(c.Request.Context(), clientID)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}

		if real, ok := state.Source.(session.Real); ok && real.Session != nil {
			token, present, err := bearerToken(c)
			if err != nil {
				httputil.RespondWithError(c, err)
				return
			}
			if !present {
				c.Set(ContextSessionClaimed, true)
				state = session.State{}
			} else if err := verifySession(tokens, token, real); err != nil {
				httputil.RespondWithError(c, err)
				return
			}
		}

		c.Set(ContextClientID, clientID)
		c.Set(ContextSession, state)
		c.Next()
	}
}

// RequireClient rejects requests without a client id, and requests that
// would act on a session they did not prove.
func RequireClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ClientID(c) == "" {
			httputil.RespondWithError(c, errors.BadRequest("missing "+HeaderXClientID+" header", nil))
			return
		}
		if c.GetBool(ContextSessionClaimed) {
			httputil.RespondWithError(c, errors.Unauthorized(errTokenMismatch))
			return
		}
		c.Next()
	}
}

// RequireIdentity rejects clients that are not signed in, for real or in demo mode.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, ok := SessionState(c)
		if !ok || state.Identity() == nil {
			httputil.RespondWithError(c, errors.Unauthorized(nil))
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects clients that are not provider-verified
// administrators. A demo admin never reaches clinic records.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, ok := SessionState(c)
		if !ok || state.Identity() == nil {
			httputil.RespondWithError(c, errors.Unauthorized(nil))
			return
		}
		if !state.Verified() {
			httputil.RespondWithError(c, errors.Forbidden("demo sessions cannot access clinic records"))
			return
		}
		if !state.IsAdmin {
			httputil.RespondWithError(c, errors.Forbidden("admin access required"))
			return
		}
		c.Next()
	}
}

// bearerToken reads the Authorization header. present is false when the
// header is absent.
func bearerToken(c *gin.Context) (token string, present bool, err error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", true, errors.Unauthorized(stderrors.New("invalid authorization format"))
	}
	return parts[1], true, nil
}

// verifySession accepts token only when it validates and is the very token
// stored for the client's session.
func verifySession(tokens TokenValidator, token string, real session.Real) error {
	claims, err := tokens.ValidateToken(token)
	if err != nil {
		return errors.Unauthorized(err)
	}
	if claims.Subject != real.Session.User.ID ||
		subtle.ConstantTimeCompare([]byte(token), []byte(real.Session.AccessToken)) != 1 {
		return errors.Unauthorized(errTokenMismatch)
	}
	return nil
}

func ClientID(c *gin.Context) string {
	return c.GetString(ContextClientID)
}

// SessionState returns the state resolved by ClientIdentity.
func SessionState(c *gin.Context) (session.State, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return session.State{}, false
	}
	state, ok := v.(session.State)
	return state, ok
}
