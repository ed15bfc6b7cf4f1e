package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// SessionCookie is the cookie the identity provider's frontend SDK sets.
const SessionCookie = "__session"

var errInvalidToken = errors.New("invalid token")

// TokenClaims are the claims of an HS256 session token.
type TokenClaims struct {
	Locale string `json:"locale,omitempty"`
	jwt.RegisteredClaims
}

// SessionVerifier resolves a bearer token to a user id.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// HMACVerifier verifies HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	Secret string
	Issuer string
}

func (v HMACVerifier) Verify(_ context.Context, token string) (string, error) {
	var opts []jwt.ParserOption
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	claims, err := VerifyJWT(v.Secret, token, opts...)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

type userKey string

const (
	userIDKey userKey = "user_id"
)

// SignJWT issues an HS256 token for claims.
func SignJWT(secret string, claims TokenClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyJWT checks an HS256 token. Tokens must carry exp; other algorithms
// are rejected before the signature is checked.
func VerifyJWT(secret, token string, opts ...jwt.ParserOption) (*TokenClaims, error) {
	opts = append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}, opts...)

	var claims TokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

// Authenticate resolves the session from the Authorization header or the
// session cookie and stores the user id in the context. It never rejects:
// handlers decide whether a session is required. A nil verifier leaves
// every request anonymous.
func Authenticate(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("auth.session.rejected")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

func sessionToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if strings.TrimSpace(userID) == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}
