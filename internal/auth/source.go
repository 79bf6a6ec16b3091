package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/oauth2"

	"github.com/langassess/langassess/internal/kvstore"
)

// Store keys for the client's tokens.
const (
	KeyAccessToken  = "auth_token"
	KeyRefreshToken = "auth_refresh_token"
)

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrExpired     = errors.New("access token expired")
)

// RefreshFunc trades a refresh token for a new token pair. The returned
// refresh token may be empty when the server does not rotate it.
type RefreshFunc func(ctx context.Context, refreshToken string) (access, refresh string, err error)

// Source is an oauth2.TokenSource over the persisted access token. An
// expired token is refreshed through Refresh when one is configured.
type Source struct {
	Ctx     context.Context
	Store   kvstore.Store
	Refresh RefreshFunc
	Leeway  time.Duration // refresh this long before expiry
	Logger  *log.Logger
}

// NewTokenSource wraps a Source so the token is only reread once it is about
// to expire.
func NewTokenSource(ctx context.Context, store kvstore.Store, refresh RefreshFunc) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &Source{
		Ctx:     ctx,
		Store:   store,
		Refresh: refresh,
		Leeway:  30 * time.Second,
		Logger:  log.New(os.Stderr, "[auth] ", log.LstdFlags),
	})
}

func (s *Source) Token() (*oauth2.Token, error) {
	ctx := s.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	access, err := kvstore.Load(ctx, s.Store, KeyAccessToken, "")
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if access == "" {
		return nil, ErrNotLoggedIn
	}
	c, err := Decode(access)
	if err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	exp := c.Expiry()
	if exp.IsZero() || time.Now().Add(s.Leeway).Before(exp) {
		return &oauth2.Token{AccessToken: access, TokenType: "Bearer", Expiry: exp}, nil
	}

	if s.Refresh == nil {
		return nil, ErrExpired
	}
	rt, err := kvstore.Load(ctx, s.Store, KeyRefreshToken, "")
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	newAccess, newRefresh, err := s.Refresh(ctx, rt)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if newRefresh == "" {
		newRefresh = rt
	}
	if err := SaveTokens(ctx, s.Store, newAccess, newRefresh); err != nil && s.Logger != nil {
		s.Logger.Printf("persist refreshed token: %v", err)
	}
	c, err = Decode(newAccess)
	if err != nil {
		return nil, fmt.Errorf("decode refreshed token: %w", err)
	}
	return &oauth2.Token{AccessToken: newAccess, TokenType: "Bearer", Expiry: c.Expiry()}, nil
}

func SaveTokens(ctx context.Context, store kvstore.Store, access, refresh string) error {
	if err := kvstore.Save(ctx, store, KeyAccessToken, access); err != nil {
		return err
	}
	return kvstore.Save(ctx, store, KeyRefreshToken, refresh)
}

func ClearTokens(ctx context.Context, store kvstore.Store) error {
	return kvstore.Clear(ctx, store, KeyAccessToken, KeyRefreshToken)
}

// Current decodes the stored access token, for showing who is logged in.
func Current(ctx context.Context, store kvstore.Store) (*Claims, error) {
	access, err := kvstore.Load(ctx, store, KeyAccessToken, "")
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, ErrNotLoggedIn
	}
	return Decode(access)
}
