package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/langassess/langassess/internal/assessment"
)

// SessionClient covers the /assessment endpoints.
type SessionClient struct{ c *Client }

// CreateSession starts the caller's session. The server assigns id, step 1
// and status in-progress.
func (s *SessionClient) CreateSession(ctx context.Context) error {
	_, err := call[any](ctx, s.c, request{method: http.MethodPost, path: "/assessment/user"})
	return err
}

// UserSessions returns the caller's sessions, newest first.
func (s *SessionClient) UserSessions(ctx context.Context) ([]assessment.Session, error) {
	env, err := call[[]assessment.Session](ctx, s.c, request{method: http.MethodGet, path: "/assessment/user"})
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// SubmitAnswers sends one attempt's accumulated answers. Only a
// success=true reply counts as acknowledged.
func (s *SessionClient) SubmitAnswers(ctx context.Context, answers []assessment.Answer) error {
	if len(answers) == 0 {
		return assessment.ErrNoAnswers
	}
	_, err := call[any](ctx, s.c, request{method: http.MethodPatch, path: "/assessment", body: answers})
	return err
}

// ScoreSession asks the server to score the submitted answers of a session.
func (s *SessionClient) ScoreSession(ctx context.Context, id string) error {
	_, err := call[any](ctx, s.c, request{method: http.MethodPatch, path: "/assessment/" + url.PathEscape(id)})
	return err
}

type SessionQuery struct {
	Page   int
	Limit  int
	Status assessment.Status
}

// AllSessions lists every user's session. Admin only.
func (s *SessionClient) AllSessions(ctx context.Context, q SessionQuery) ([]assessment.Session, Meta, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	env, err := call[[]assessment.Session](ctx, s.c, request{method: http.MethodGet, path: "/assessment", query: v})
	if err != nil {
		return nil, Meta{}, err
	}
	var meta Meta
	if env.Meta != nil {
		meta = *env.Meta
	}
	return env.Data, meta, nil
}
