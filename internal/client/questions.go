package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/langassess/langassess/internal/assessment"
)

// QuestionClient covers the /question endpoints. Writes are admin only.
type QuestionClient struct{ c *Client }

func (q *QuestionClient) List(ctx context.Context, p assessment.QuestionQuery) (assessment.QuestionPage, error) {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Competency != "" {
		v.Set("competency", string(p.Competency))
	}
	if p.Levels != "" {
		v.Set("level", p.Levels)
	}
	env, err := call[[]assessment.Question](ctx, q.c, request{method: http.MethodGet, path: "/question", query: v})
	if err != nil {
		return assessment.QuestionPage{}, err
	}
	page := assessment.QuestionPage{Questions: env.Data, Page: p.Page, Limit: p.Limit, Total: len(env.Data)}
	if env.Meta != nil {
		page.Page, page.Limit, page.Total = env.Meta.Page, env.Meta.Limit, env.Meta.Total
	}
	return page, nil
}

func (q *QuestionClient) Get(ctx context.Context, id string) (assessment.Question, error) {
	env, err := call[assessment.Question](ctx, q.c, request{method: http.MethodGet, path: questionPath(id)})
	return env.Data, err
}

// Create validates locally before sending, so a malformed question never
// reaches the server.
func (q *QuestionClient) Create(ctx context.Context, in assessment.Question) (assessment.Question, error) {
	if err := in.Validate(); err != nil {
		return assessment.Question{}, err
	}
	in.ID = ""
	env, err := call[assessment.Question](ctx, q.c, request{method: http.MethodPost, path: "/question", body: in})
	return env.Data, err
}

func (q *QuestionClient) Update(ctx context.Context, in assessment.Question) (assessment.Question, error) {
	if in.ID == "" {
		return assessment.Question{}, errors.New("question id required")
	}
	if err := in.Validate(); err != nil {
		return assessment.Question{}, err
	}
	env, err := call[assessment.Question](ctx, q.c, request{method: http.MethodPatch, path: questionPath(in.ID), body: in})
	return env.Data, err
}

func (q *QuestionClient) Delete(ctx context.Context, id string) error {
	_, err := call[any](ctx, q.c, request{method: http.MethodDelete, path: questionPath(id)})
	return err
}

func questionPath(id string) string { return "/question/" + url.PathEscape(id) }
