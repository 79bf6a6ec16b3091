// Package auth issues and checks bearer tokens on the dev backend and keeps
// the client's tokens fresh.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/langassess/langassess/internal/rbac"
)

const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"
	issuer          = "langassess-dev"
)

var ErrTokenKind = errors.New("wrong token kind")

// Claims is the payload of both access and refresh tokens. The audience
// tells them apart.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Service struct {
	hmac       []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewService(secret string) *Service {
	return &Service{hmac: []byte(secret), AccessTTL: time.Hour, RefreshTTL: 30 * 24 * time.Hour}
}

func (s *Service) IssueAccess(id, email, role string) (string, error) {
	return s.issue(&Claims{ID: id, Email: email, Role: role}, audienceAccess, s.AccessTTL)
}

func (s *Service) IssueRefresh(id string) (string, error) {
	return s.issue(&Claims{ID: id}, audienceRefresh, s.RefreshTTL)
}

func (s *Service) issue(c *Claims, aud string, ttl time.Duration) (string, error) {
	now := time.Now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   c.ID,
		Audience:  jwt.ClaimStrings{aud},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.hmac)
}

func (s *Service) ParseAccess(tok string) (*Claims, error)  { return s.parse(tok, audienceAccess) }
func (s *Service) ParseRefresh(tok string) (*Claims, error) { return s.parse(tok, audienceRefresh) }

func (s *Service) parse(tok, aud string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tok, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if len(c.Audience) != 1 || c.Audience[0] != aud {
		return nil, ErrTokenKind
	}
	return c, nil
}

// Middleware requires a valid access token and puts its subject and role in
// the request context.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "missing bearer", http.StatusUnauthorized)
			return
		}
		c, err := s.ParseAccess(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		ctx := WithSubject(r.Context(), c.ID)
		ctx = rbac.WithRole(ctx, rbac.Role(c.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Decode reads a token's claims without checking the signature. The client
// uses it to learn the user id, role and expiry of its own token.
func Decode(tok string) (*Claims, error) {
	c := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Expiry returns the token's expiry, or the zero time if it has none.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
