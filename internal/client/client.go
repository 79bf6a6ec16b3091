// Package client talks to the assessment REST backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

var (
	ErrUnauthorized = errors.New("session expired, log in again")
	ErrNotFound     = errors.New("response not found")
)

// APIError is a reply the server rejected, either with a non-2xx status or
// with success=false in the envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// TokenSource supplies the bearer token for authenticated calls. Nil
	// means every call goes out unauthenticated.
	TokenSource oauth2.TokenSource
	Logger      *log.Logger
}

// Client is the shared transport of the session, question and auth clients.
type Client struct {
	base   string
	authed *http.Client
	anon   *http.Client
	log    *log.Logger
}

func New(cfg Config) *Client {
	lg := cfg.Logger
	if lg == nil {
		lg = log.New(os.Stderr, "[client] ", log.LstdFlags)
	}
	// The jar carries the refresh-token cookie between auth calls.
	jar, _ := cookiejar.New(nil)
	anon := &http.Client{Timeout: cfg.Timeout, Jar: jar}
	authed := anon
	if cfg.TokenSource != nil {
		authed = &http.Client{
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Transport: &oauth2.Transport{Source: cfg.TokenSource, Base: http.DefaultTransport},
		}
	}
	return &Client{
		base:   cfg.BaseURL,
		authed: authed,
		anon:   anon,
		log:    lg,
	}
}

func (c *Client) Sessions() *SessionClient   { return &SessionClient{c: c} }
func (c *Client) Questions() *QuestionClient { return &QuestionClient{c: c} }
func (c *Client) Auth() *AuthClient          { return &AuthClient{c: c} }

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	anon   bool
}

// call performs one request and decodes the response envelope into T.
func call[T any](ctx context.Context, c *Client, rq request) (envelope[T], error) {
	var env envelope[T]

	u := c.base + rq.path
	if len(rq.query) > 0 {
		u += "?" + rq.query.Encode()
	}
	var body io.Reader
	if rq.body != nil {
		b, err := json.Marshal(rq.body)
		if err != nil {
			return env, fmt.Errorf("encode %s %s: %w", rq.method, rq.path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, rq.method, u, body)
	if err != nil {
		return env, fmt.Errorf("build %s %s: %w", rq.method, rq.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	h := c.authed
	if rq.anon {
		h = c.anon
	}
	res, err := h.Do(req)
	if err != nil {
		c.log.Printf("%s %s: %v", rq.method, rq.path, err)
		return env, fmt.Errorf("%s %s: %w", rq.method, rq.path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return env, fmt.Errorf("read %s %s: %w", rq.method, rq.path, err)
	}
	var decodeErr error
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if res.StatusCode/100 != 2 {
		apiErr := &APIError{Status: res.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Message
		}
		c.log.Printf("%s %s -> %d %s", rq.method, rq.path, res.StatusCode, apiErr.Message)
		return env, apiErr
	}
	if decodeErr != nil {
		return env, fmt.Errorf("decode %s %s: %w", rq.method, rq.path, decodeErr)
	}
	if !env.Success {
		return env, &APIError{Status: res.StatusCode, Message: env.Message}
	}
	return env, nil
}
