// Package grading scores submitted answers against the question bank and
// maps the percentage to a certification outcome.
package grading

import (
	"github.com/langassess/langassess/internal/assessment"
)

// Bank resolves a question id to the stored question.
type Bank interface {
	Question(id string) (assessment.Question, bool)
}

type BankFunc func(id string) (assessment.Question, bool)

func (f BankFunc) Question(id string) (assessment.Question, bool) { return f(id) }

// Tally is the raw outcome of one attempt.
type Tally struct {
	Answered int
	Correct  int
}

// Percent is correct/answered as 0..100; an empty tally scores 0.
func (t Tally) Percent() float64 {
	if t.Answered == 0 {
		return 0
	}
	return float64(t.Correct) * 100 / float64(t.Answered)
}

type Option func(*config)

type config struct {
	trustClient bool
	bands       map[int][]Band
}

// WithTrustClient scores by the isCorrect flag the client sent instead of
// rechecking the selected text against the bank.
func WithTrustClient(b bool) Option { return func(c *config) { c.trustClient = b } }

// WithBands replaces the certification table.
func WithBands(b map[int][]Band) Option { return func(c *config) { c.bands = b } }

type Engine struct {
	bank Bank
	cfg  config
}

func NewEngine(bank Bank, opts ...Option) *Engine {
	cfg := config{bands: DefaultBands}
	for _, o := range opts {
		o(&cfg)
	}
	return &Engine{bank: bank, cfg: cfg}
}

// Grade reports whether one answer is correct. An answer to a question the
// bank no longer has counts as wrong; an unanswered (expired) one too.
func (e *Engine) Grade(a assessment.Answer) bool {
	if e.cfg.trustClient {
		return a.IsCorrect
	}
	if a.SelectedAnswer == "" {
		return false
	}
	q, ok := e.bank.Question(a.QuestionID)
	if !ok {
		return false
	}
	return q.Correct() == a.SelectedAnswer
}

// Tally counts answers, one per question id; later duplicates win.
func (e *Engine) Tally(answers []assessment.Answer) Tally {
	var dedup []assessment.Answer
	for _, a := range answers {
		dedup = assessment.UpsertAnswer(dedup, a)
	}
	t := Tally{Answered: len(dedup)}
	for _, a := range dedup {
		if e.Grade(a) {
			t.Correct++
		}
	}
	return t
}

// Score tallies the answers and certifies the result for step.
func (e *Engine) Score(step int, answers []assessment.Answer) (Tally, Outcome) {
	t := e.Tally(answers)
	return t, certify(e.cfg.bands, step, t.Percent())
}
