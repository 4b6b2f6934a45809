package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"Pressroom/internal/core/users"
)

// Context keys for storing caller information
type contextKey string

const (
	IdentityKey contextKey = "identity"
)

// Session cookie layout shared with the sign-in service
const (
	SessionName      = "pressroom_session"
	SessionUserIDKey = "user_id"
	SessionAdminKey  = "admin"
)

// adminClaim is the private JWT claim marking administrators
const adminClaim = "admin"

// IdentityMiddleware resolves the current identity from a Bearer JWT or,
// when no Authorization header is sent, from the session cookie
type IdentityMiddleware struct {
	sessions sessions.Store
	admins   map[int64]struct{}
	jwtKey   []byte
}

// NewIdentityMiddleware creates the identity middleware.
// An empty jwtSecret disables bearer tokens; a nil store disables sessions.
// adminIDs are treated as administrators regardless of token claims.
func NewIdentityMiddleware(jwtSecret string, store sessions.Store, adminIDs []int64) *IdentityMiddleware {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	m := &IdentityMiddleware{
		sessions: store,
		admins:   admins,
	}
	if jwtSecret != "" {
		m.jwtKey = []byte(jwtSecret)
	}
	return m
}

// Resolve attaches the caller identity to the context. Requests without
// valid credentials continue as the anonymous identity.
func (m *IdentityMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.identify(r)
		if err != nil {
			hlog.FromRequest(r).Debug().Err(err).Msg("continuing without identity")
			identity = users.Anonymous
		}
		next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), identity)))
	})
}

// RequireAuth rejects requests that do not carry a valid identity with 401
func (m *IdentityMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.identify(r)
		if err != nil {
			hlog.FromRequest(r).Info().
				Err(err).
				Str("ip", r.RemoteAddr).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("auth failure")
			writeAuthError(w, "Invalid or expired credentials")
			return
		}
		if identity.IsAnonymous() {
			writeAuthError(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), identity)))
	})
}

func (m *IdentityMiddleware) identify(r *http.Request) (users.Identity, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return users.Anonymous, fmt.Errorf("%w: expected Bearer token", users.ErrInvalidCredentials)
		}
		return m.fromToken(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
	}
	if m.sessions != nil {
		return m.fromSession(r)
	}
	return users.Anonymous, nil
}

func (m *IdentityMiddleware) fromToken(raw string) (users.Identity, error) {
	if m.jwtKey == nil {
		return users.Anonymous, fmt.Errorf("%w: bearer tokens are disabled", users.ErrInvalidCredentials)
	}

	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, m.jwtKey),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(30*time.Second),
	)
	if err != nil {
		return users.Anonymous, fmt.Errorf("%w: %v", users.ErrInvalidCredentials, err)
	}

	identity := users.Identity{UserID: users.ParseUserID(token.Subject())}
	if identity.IsAnonymous() {
		return users.Anonymous, fmt.Errorf("%w: subject %q is not a user id", users.ErrInvalidCredentials, token.Subject())
	}
	if v, ok := token.Get(adminClaim); ok {
		identity.Admin, _ = v.(bool)
	}
	return m.withConfiguredAdmin(identity), nil
}

func (m *IdentityMiddleware) fromSession(r *http.Request) (users.Identity, error) {
	session, err := m.sessions.Get(r, SessionName)
	if err != nil {
		return users.Anonymous, fmt.Errorf("%w: %v", users.ErrInvalidCredentials, err)
	}

	var identity users.Identity
	switch v := session.Values[SessionUserIDKey].(type) {
	case int64:
		identity.UserID = v
	case int:
		identity.UserID = int64(v)
	case string:
		identity.UserID = users.ParseUserID(v)
	}
	if identity.IsAnonymous() {
		return users.Anonymous, nil
	}
	identity.Admin, _ = session.Values[SessionAdminKey].(bool)
	return m.withConfiguredAdmin(identity), nil
}

func (m *IdentityMiddleware) withConfiguredAdmin(identity users.Identity) users.Identity {
	if _, ok := m.admins[identity.UserID]; ok {
		identity.Admin = true
	}
	return identity
}

// IssueToken signs an HS256 token for userID. Used by the token command and tests.
func IssueToken(secret string, userID int64, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Subject(strconv.FormatInt(userID, 10)).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Claim(adminClaim, admin).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(secret)))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// GetIdentity extracts the caller identity from the request context.
// Returns the anonymous identity when none was resolved.
func GetIdentity(r *http.Request) users.Identity {
	return IdentityFromContext(r.Context())
}

// IdentityFromContext extracts the caller identity from a context
func IdentityFromContext(ctx context.Context) users.Identity {
	identity, _ := ctx.Value(IdentityKey).(users.Identity)
	return identity
}

// SetIdentity stores the caller identity in the context.
// Tests use it to simulate an authenticated caller.
func SetIdentity(ctx context.Context, identity users.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	response := `{"error":"AuthRequired","message":"` + message + `"}`
	if _, err := w.Write([]byte(response)); err != nil {
		log.Error().Err(err).Msg("failed to write auth error response")
	}
}
