package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("identity: invalid token")
	ErrUnknownKey   = errors.New("identity: unknown signing key")
	ErrExpired      = errors.New("identity: token expired")
)

const keyTTL = time.Hour

// refreshInterval bounds how often a token may force a key fetch.
const refreshInterval = time.Minute

// clockSkew tolerated on exp and nbf.
const clockSkew = 30 * time.Second

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Claims are the registered claims of a verified session token.
type Claims struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
	Raw       jwt.MapClaims
}

// Verifier checks RS256 session tokens against the identity provider's
// published key set. Keys are cached for an hour. A token naming an unknown
// kid triggers a refetch at most once per refreshInterval.
type Verifier struct {
	jwksURL    string
	issuer     string
	audience   string
	httpClient *http.Client
	now        func() time.Time

	mu          sync.RWMutex
	cache       map[string]*rsa.PublicKey
	fetched     time.Time
	lastAttempt time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithAudience requires the aud claim to contain audience.
func WithAudience(audience string) Option {
	return func(v *Verifier) { v.audience = audience }
}

// WithHTTPClient replaces the client used to fetch keys.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) { v.httpClient = c }
}

// NewVerifier creates a verifier for the key set at jwksURL. An empty
// issuer disables the iss check.
func NewVerifier(jwksURL, issuer string, opts ...Option) *Verifier {
	v := &Verifier{
		jwksURL:    jwksURL,
		issuer:     issuer,
		cache:      make(map[string]*rsa.PublicKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify validates token and returns its subject.
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	claims, err := v.VerifyToken(ctx, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// VerifyToken validates signature, issuer, audience and lifetime.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	payload := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, payload, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.key(ctx, kid)
	}, opts...)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownKey):
		return nil, ErrUnknownKey
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	default:
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims := &Claims{Raw: payload}
	claims.Issuer, _ = payload.GetIssuer()
	if exp, _ := payload.GetExpirationTime(); exp != nil {
		claims.ExpiresAt = exp.Time
	}
	claims.Subject, _ = payload.GetSubject()
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// key resolves kid from the cache, fetching the key set when it is stale
// or does not know kid. Fetches are throttled; stale keys keep serving
// while the provider is unreachable.
func (v *Verifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	pk, ok := v.cache[kid]
	fresh := v.now().Sub(v.fetched) < keyTTL
	v.mu.RUnlock()
	if ok && fresh {
		return pk, nil
	}

	if !v.claimFetch() {
		if ok {
			return pk, nil
		}
		return nil, ErrUnknownKey
	}
	if err := v.refresh(ctx); err != nil {
		if ok {
			return pk, nil
		}
		return nil, err
	}

	v.mu.RLock()
	pk, ok = v.cache[kid]
	v.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownKey
	}
	return pk, nil
}

func (v *Verifier) claimFetch() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()
	if !v.lastAttempt.IsZero() && now.Sub(v.lastAttempt) < refreshInterval {
		return false
	}
	v.lastAttempt = now
	return true
}

func (v *Verifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity: fetch keys: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity: fetch keys: status %d", resp.StatusCode)
	}
	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("identity: decode keys: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey)
	for _, key := range set.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(key)
		if err != nil {
			continue
		}
		keys[key.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("identity: no usable keys")
	}
	v.mu.Lock()
	v.cache = keys
	v.fetched = v.now()
	v.mu.Unlock()
	return nil
}

func rsaKeyFromJWK(j jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}
	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() == 0 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: int(e.Int64())}, nil
}
