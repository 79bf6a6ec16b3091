package assessment

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/langassess/langassess/internal/kvstore"
)

// DefaultTimeLimit is the per-question countdown in seconds.
const DefaultTimeLimit = 60

// Persisted progress keys. All four are cleared together after a successful
// submission.
const (
	KeyQuestionIndex = "assessment_currentQuestionIndex"
	KeyAnswers       = "assessment_userAnswers"
	KeyTimeLeft      = "assessment_timeLeft"
	KeySelected      = "assessment_selectedOption"
)

// ProgressKeys returns the store keys holding an unsubmitted attempt.
func ProgressKeys() []string {
	return []string{KeyQuestionIndex, KeyAnswers, KeyTimeLeft, KeySelected}
}

type Phase int

const (
	PhaseEmpty     Phase = iota // no questions; terminal, no timer
	PhaseAnswering              // timer running, nothing selected
	PhaseRevealed               // option chosen, correctness shown, selection locked
	PhaseFinished               // last answer recorded, waiting for / done with submission
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseAnswering:
		return "answering"
	case PhaseRevealed:
		return "revealed"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

type SubmitState int

const (
	SubmitIdle SubmitState = iota
	SubmitPending
	SubmitDone
)

var (
	ErrNoQuestions      = errors.New("no questions available")
	ErrNotActive        = errors.New("no question is active")
	ErrSelectionLocked  = errors.New("an option is already selected")
	ErrUnknownOption    = errors.New("option does not belong to the current question")
	ErrNoSelection      = errors.New("select an option first")
	ErrUseFinish        = errors.New("this is the last question; finish the assessment instead")
	ErrNotLastQuestion  = errors.New("finish is only available on the last question")
	ErrNoAnswers        = errors.New("no answers to submit")
	ErrNotFinished      = errors.New("assessment is not finished")
	ErrSubmitInFlight   = errors.New("submission already in progress")
	ErrAlreadySubmitted = errors.New("assessment already submitted")
)

// Submitter sends the accumulated answers of one attempt. A nil error means
// the server acknowledged the submission.
type Submitter interface {
	SubmitAnswers(ctx context.Context, answers []Answer) error
}

type SubmitterFunc func(ctx context.Context, answers []Answer) error

func (f SubmitterFunc) SubmitAnswers(ctx context.Context, answers []Answer) error {
	return f(ctx, answers)
}

type RunnerConfig struct {
	Step      int
	Questions []Question
	Store     kvstore.Store // nil: progress is not persisted
	Logger    *log.Logger
}

// Runner drives one attempt over a fixed question list. It is not safe for
// concurrent use; Loop serialises every call onto one goroutine.
type Runner struct {
	step      int
	questions []Question
	store     kvstore.Store
	log       *log.Logger

	index    int
	answers  []Answer
	timeLeft int
	selected *string
	phase    Phase
	submit   SubmitState
	lastErr  error
}

// NewRunner builds a runner and resumes any progress found in the store.
// Unreadable or out-of-range persisted values fall back to first-run values.
func NewRunner(ctx context.Context, cfg RunnerConfig) *Runner {
	lg := cfg.Logger
	if lg == nil {
		lg = log.New(os.Stderr, "[assess] ", log.LstdFlags)
	}
	r := &Runner{
		step:      cfg.Step,
		questions: cfg.Questions,
		store:     cfg.Store,
		log:       lg,
		timeLeft:  DefaultTimeLimit,
	}
	if len(r.questions) == 0 {
		r.phase = PhaseEmpty
		return r
	}
	r.restore(ctx)
	return r
}

func (r *Runner) restore(ctx context.Context) {
	idx, err := kvstore.Load(ctx, r.store, KeyQuestionIndex, 0)
	r.warn("restore index", err)
	if idx < 0 || idx >= len(r.questions) {
		idx = 0
	}
	answers, err := kvstore.Load[[]Answer](ctx, r.store, KeyAnswers, nil)
	r.warn("restore answers", err)
	answers = r.ownAnswers(answers)
	left, err := kvstore.Load(ctx, r.store, KeyTimeLeft, DefaultTimeLimit)
	r.warn("restore time left", err)
	if left < 0 || left > DefaultTimeLimit {
		left = DefaultTimeLimit
	}
	sel, err := kvstore.Load[*string](ctx, r.store, KeySelected, nil)
	r.warn("restore selection", err)
	if sel != nil {
		if _, ok := r.questions[idx].Option(*sel); !ok {
			sel = nil
		}
	}

	r.index, r.answers, r.timeLeft, r.selected = idx, answers, left, sel
	r.phase = PhaseAnswering
	if sel != nil {
		r.phase = PhaseRevealed
	}
}

// ownAnswers drops restored answers for questions outside this attempt,
// such as leftovers from an earlier question page.
func (r *Runner) ownAnswers(answers []Answer) []Answer {
	ids := make(map[string]bool, len(r.questions))
	for _, q := range r.questions {
		ids[q.ID] = true
	}
	kept := answers[:0:0]
	for _, a := range answers {
		if ids[a.QuestionID] {
			kept = append(kept, a)
		} else {
			r.log.Printf("dropping saved answer for unknown question %q", a.QuestionID)
		}
	}
	return kept
}

// Tick is the once-per-second timer callback. At zero the current question
// expires: non-final questions advance on their own, the final one records
// its answer and waits for an explicit Finish/submit.
func (r *Runner) Tick(ctx context.Context) {
	if !r.TimerRunning() {
		return
	}
	if r.timeLeft > 0 {
		r.timeLeft--
		r.save(ctx, KeyTimeLeft, r.timeLeft)
	}
	if r.timeLeft == 0 {
		r.advance(ctx)
	}
}

// Select records the chosen option and reveals correctness. Once revealed the
// selection is locked and further calls change nothing.
func (r *Runner) Select(ctx context.Context, option string) error {
	switch r.phase {
	case PhaseEmpty, PhaseFinished:
		return ErrNotActive
	case PhaseRevealed:
		return ErrSelectionLocked
	}
	if _, ok := r.current().Option(option); !ok {
		return ErrUnknownOption
	}
	r.selected = &option
	r.phase = PhaseRevealed
	r.save(ctx, KeySelected, r.selected)
	return nil
}

// Next commits the current answer and moves to the following question.
func (r *Runner) Next(ctx context.Context) error {
	switch r.phase {
	case PhaseEmpty, PhaseFinished:
		return ErrNotActive
	case PhaseAnswering:
		return ErrNoSelection
	}
	if r.isLast() {
		return ErrUseFinish
	}
	r.advance(ctx)
	return nil
}

// Finish commits the last question's answer and enters PhaseFinished.
// Calling it again once finished is a no-op.
func (r *Runner) Finish(ctx context.Context) error {
	switch r.phase {
	case PhaseEmpty:
		return ErrNoQuestions
	case PhaseFinished:
		return nil
	}
	if !r.isLast() {
		return ErrNotLastQuestion
	}
	if r.phase == PhaseAnswering {
		return ErrNoSelection
	}
	r.advance(ctx)
	return nil
}

// advance upserts the current answer, then either resets per-question state
// for the next question or finishes on the last one.
func (r *Runner) advance(ctx context.Context) {
	r.commit(ctx)
	if !r.isLast() {
		r.index++
		r.selected = nil
		r.timeLeft = DefaultTimeLimit
		r.phase = PhaseAnswering
		r.save(ctx, KeyQuestionIndex, r.index)
		r.save(ctx, KeySelected, r.selected)
		r.save(ctx, KeyTimeLeft, r.timeLeft)
		return
	}
	r.phase = PhaseFinished
}

func (r *Runner) commit(ctx context.Context) {
	q := r.current()
	a := Answer{QuestionID: q.ID}
	if r.selected != nil {
		a.SelectedAnswer = *r.selected
		if o, ok := q.Option(*r.selected); ok {
			a.IsCorrect = o.IsCorrect
		}
	}
	r.answers = UpsertAnswer(r.answers, a)
	r.save(ctx, KeyAnswers, r.answers)
}

// BeginSubmit marks a submission as in flight and returns the answers to send.
func (r *Runner) BeginSubmit() ([]Answer, error) {
	switch r.submit {
	case SubmitPending:
		return nil, ErrSubmitInFlight
	case SubmitDone:
		return nil, ErrAlreadySubmitted
	}
	if len(r.answers) == 0 {
		return nil, ErrNoAnswers
	}
	if r.phase != PhaseFinished {
		return nil, ErrNotFinished
	}
	r.submit = SubmitPending
	r.lastErr = nil
	return append([]Answer(nil), r.answers...), nil
}

// CompleteSubmit records the outcome of the submission started by
// BeginSubmit. Success clears the persisted progress; failure keeps it so the
// user can retry.
func (r *Runner) CompleteSubmit(ctx context.Context, err error) {
	if r.submit != SubmitPending {
		return
	}
	if err != nil {
		r.submit = SubmitIdle
		r.lastErr = err
		r.log.Printf("submit failed, progress kept for retry: %v", err)
		return
	}
	if cerr := kvstore.Clear(ctx, r.store, ProgressKeys()...); cerr != nil {
		r.log.Printf("clear progress: %v", cerr)
	}
	r.submit = SubmitDone
}

// Submit is the synchronous form of BeginSubmit + CompleteSubmit.
func (r *Runner) Submit(ctx context.Context, s Submitter) error {
	answers, err := r.BeginSubmit()
	if err != nil {
		return err
	}
	err = s.SubmitAnswers(ctx, answers)
	r.CompleteSubmit(ctx, err)
	return err
}

// TimerRunning reports whether the countdown should be scheduled.
func (r *Runner) TimerRunning() bool {
	return r.phase == PhaseAnswering || r.phase == PhaseRevealed
}

func (r *Runner) Phase() Phase             { return r.phase }
func (r *Runner) Index() int               { return r.index }
func (r *Runner) TimeLeft() int            { return r.timeLeft }
func (r *Runner) SubmitState() SubmitState { return r.submit }
func (r *Runner) Submitted() bool          { return r.submit == SubmitDone }

func (r *Runner) Answers() []Answer { return append([]Answer(nil), r.answers...) }

func (r *Runner) current() Question { return r.questions[r.index] }
func (r *Runner) isLast() bool      { return r.index == len(r.questions)-1 }

func (r *Runner) save(ctx context.Context, key string, v any) {
	if err := kvstore.Save(ctx, r.store, key, v); err != nil {
		r.log.Printf("persist %s: %v", key, err)
	}
}

func (r *Runner) warn(what string, err error) {
	if err != nil {
		r.log.Printf("%s: %v (using default)", what, err)
	}
}
