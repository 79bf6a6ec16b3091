package assessment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/langassess/langassess/internal/kvstore"
)

// Region is the part of the assessment page to show.
type Region int

const (
	RegionTakeAssessment Region = iota // no session yet
	RegionRunner                       // attempt in progress
	RegionProcessResult                // answers submitted, not yet scored
	RegionNextStep                     // passed a step below MaxStep
	RegionQualified                    // passed the final step
	RegionRetake                       // mid-range score, same step again
	RegionAbandoned                    // failed; no retake
	RegionUnknown
)

func (r Region) String() string {
	switch r {
	case RegionTakeAssessment:
		return "take-assessment"
	case RegionRunner:
		return "runner"
	case RegionProcessResult:
		return "process-result"
	case RegionNextStep:
		return "next-step"
	case RegionQualified:
		return "qualified"
	case RegionRetake:
		return "retake"
	case RegionAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// Decide maps the server-reported sessions to a page region. Only the first
// session counts. Abandoned always wins; unscored answers come next.
func Decide(sessions []Session) Region {
	if len(sessions) == 0 {
		return RegionTakeAssessment
	}
	s := sessions[0]
	if s.Status == StatusAbandoned {
		return RegionAbandoned
	}
	if len(s.Answers) > 0 {
		return RegionProcessResult
	}
	switch s.Status {
	case StatusInProgress:
		return RegionRunner
	case StatusProceed:
		if s.CurrentStep < MaxStep {
			return RegionNextStep
		}
		return RegionQualified
	case StatusCompleted:
		return RegionRetake
	}
	return RegionUnknown
}

// QuestionQuery selects a page of the question bank. Levels is comma joined.
type QuestionQuery struct {
	Page       int
	Limit      int
	Competency Competency
	Levels     string
}

type QuestionPage struct {
	Questions []Question
	Page      int
	Limit     int
	Total     int
}

type SessionService interface {
	Submitter
	CreateSession(ctx context.Context) error
	UserSessions(ctx context.Context) ([]Session, error)
	ScoreSession(ctx context.Context, id string) error
}

type QuestionService interface {
	List(ctx context.Context, q QuestionQuery) (QuestionPage, error)
}

// DefaultPageSize is how many questions one attempt fetches.
const DefaultPageSize = 50

type ControllerConfig struct {
	Sessions  SessionService
	Questions QuestionService
	Store     kvstore.Store
	Logger    *log.Logger
	PageSize  int
}

// Controller turns session status into page regions and performs the page
// actions. Collaborators are passed in explicitly; nothing is looked up
// globally.
type Controller struct {
	sessions  SessionService
	questions QuestionService
	store     kvstore.Store
	log       *log.Logger
	pageSize  int

	loaded  bool
	current []Session
	region  Region
	notice  error
}

func NewController(cfg ControllerConfig) *Controller {
	lg := cfg.Logger
	if lg == nil {
		lg = log.New(os.Stderr, "[assess] ", log.LstdFlags)
	}
	size := cfg.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Controller{
		sessions:  cfg.Sessions,
		questions: cfg.Questions,
		store:     cfg.Store,
		log:       lg,
		pageSize:  size,
	}
}

// Refresh refetches the user's sessions and recomputes the region. On error
// the previous region is kept and the error is also kept as the notice.
func (c *Controller) Refresh(ctx context.Context) (Region, error) {
	list, err := c.sessions.UserSessions(ctx)
	if err != nil {
		return c.region, c.fail("load assessment data", err)
	}
	c.loaded = true
	c.current = list
	c.region = Decide(list)
	c.notice = nil
	return c.region, nil
}

func (c *Controller) Region() Region { return c.region }
func (c *Controller) Notice() error  { return c.notice }

// Session returns the session the page is showing.
func (c *Controller) Session() (Session, bool) {
	if len(c.current) == 0 {
		return Session{}, false
	}
	return c.current[0], true
}

// Resumable reports whether an unsubmitted attempt is saved locally.
func (c *Controller) Resumable(ctx context.Context) bool {
	if c.store == nil {
		return false
	}
	_, ok, err := c.store.Get(ctx, KeyQuestionIndex)
	return err == nil && ok
}

// TakeAssessment creates the user's session and refetches.
func (c *Controller) TakeAssessment(ctx context.Context) (Region, error) {
	if c.loaded && c.region != RegionTakeAssessment {
		return c.region, errors.New("an assessment already exists")
	}
	if err := c.sessions.CreateSession(ctx); err != nil {
		return c.region, c.fail("start assessment", err)
	}
	return c.Refresh(ctx)
}

// ProcessResult asks the server to score the submitted answers and refetches.
func (c *Controller) ProcessResult(ctx context.Context) (Region, error) {
	s, ok := c.Session()
	if !ok || c.region != RegionProcessResult {
		return c.region, errors.New("no submitted answers to process")
	}
	if err := c.sessions.ScoreSession(ctx, s.ID); err != nil {
		return c.region, c.fail("process result", err)
	}
	return c.Refresh(ctx)
}

// StartAttempt fetches the question page for the session's next attempt and
// builds a Runner for it. Valid for the runner, next-step and retake regions.
func (c *Controller) StartAttempt(ctx context.Context) (*Runner, error) {
	s, ok := c.Session()
	if !ok {
		return nil, errors.New("no assessment session")
	}
	switch c.region {
	case RegionRunner, RegionNextStep, RegionRetake:
	default:
		return nil, fmt.Errorf("cannot start an attempt from %s", c.region)
	}
	step := s.CurrentStep
	if s.Status == StatusProceed {
		step++
	}

	page, err := c.questions.List(ctx, QuestionQuery{
		Page:   1,
		Limit:  c.pageSize,
		Levels: s.LevelFilter(),
	})
	if err != nil {
		return nil, c.fail("load questions", err)
	}
	c.region = RegionRunner
	return NewRunner(ctx, RunnerConfig{
		Step:      step,
		Questions: page.Questions,
		Store:     c.store,
		Logger:    c.log,
	}), nil
}

// Submitter is what a Loop for this page should submit through.
func (c *Controller) Submitter() Submitter { return c.sessions }

func (c *Controller) fail(action string, err error) error {
	err = fmt.Errorf("%s: %w", action, err)
	c.log.Printf("%v", err)
	c.notice = err
	return err
}
