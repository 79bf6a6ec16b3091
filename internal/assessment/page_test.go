package assessment

import (
	"context"
	"errors"
	"testing"

	"github.com/langassess/langassess/internal/kvstore"
)

func TestDecide(t *testing.T) {
	answered := []Answer{{QuestionID: "a", SelectedAnswer: "right", IsCorrect: true}}
	cases := []struct {
		name string
		in   []Session
		want Region
	}{
		{"no session", nil, RegionTakeAssessment},
		{"fresh", []Session{{CurrentStep: 1, Status: StatusInProgress}}, RegionRunner},
		{"submitted", []Session{{CurrentStep: 1, Status: StatusInProgress, Answers: answered}}, RegionProcessResult},
		{"abandoned", []Session{{CurrentStep: 1, Status: StatusAbandoned}}, RegionAbandoned},
		{"abandoned with answers", []Session{{CurrentStep: 2, Status: StatusAbandoned, Answers: answered}}, RegionAbandoned},
		{"proceed step 1", []Session{{CurrentStep: 1, Status: StatusProceed}}, RegionNextStep},
		{"proceed step 2", []Session{{CurrentStep: 2, Status: StatusProceed}}, RegionNextStep},
		{"proceed final", []Session{{CurrentStep: 3, Status: StatusProceed}}, RegionQualified},
		{"completed", []Session{{CurrentStep: 2, Status: StatusCompleted}}, RegionRetake},
		{"first session wins", []Session{{Status: StatusCompleted}, {Status: StatusAbandoned}}, RegionRetake},
		{"unknown status", []Session{{Status: "paused"}}, RegionUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.in); got != tc.want {
				t.Fatalf("Decide = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAbandonedNeverOffersRetake(t *testing.T) {
	for step := 1; step <= MaxStep; step++ {
		got := Decide([]Session{{CurrentStep: step, Status: StatusAbandoned}})
		if got == RegionRetake || got == RegionNextStep || got == RegionRunner {
			t.Fatalf("step %d abandoned yields %s", step, got)
		}
	}
}

type fakeSessions struct {
	fakeSubmitter
	list     []Session
	listErr  error
	created  int
	scored   []string
	scoreErr error
	onCreate func(*fakeSessions)
	onScore  func(*fakeSessions)
}

func (f *fakeSessions) CreateSession(context.Context) error {
	f.created++
	if f.onCreate != nil {
		f.onCreate(f)
	}
	return nil
}

func (f *fakeSessions) UserSessions(context.Context) ([]Session, error) {
	return f.list, f.listErr
}

func (f *fakeSessions) ScoreSession(_ context.Context, id string) error {
	if f.scoreErr != nil {
		return f.scoreErr
	}
	f.scored = append(f.scored, id)
	if f.onScore != nil {
		f.onScore(f)
	}
	return nil
}

type fakeQuestions struct {
	queries []QuestionQuery
	page    QuestionPage
}

func (f *fakeQuestions) List(_ context.Context, q QuestionQuery) (QuestionPage, error) {
	f.queries = append(f.queries, q)
	return f.page, nil
}

func newTestController(s *fakeSessions, q *fakeQuestions, store kvstore.Store) *Controller {
	return NewController(ControllerConfig{Sessions: s, Questions: q, Store: store, Logger: quiet})
}

func TestControllerTakeAssessment(t *testing.T) {
	ctx := context.Background()
	s := &fakeSessions{onCreate: func(f *fakeSessions) {
		f.list = []Session{{ID: "s1", CurrentStep: 1, Status: StatusInProgress}}
	}}
	c := newTestController(s, &fakeQuestions{}, nil)

	if r, err := c.Refresh(ctx); err != nil || r != RegionTakeAssessment {
		t.Fatalf("refresh = %s, %v", r, err)
	}
	r, err := c.TakeAssessment(ctx)
	if err != nil || r != RegionRunner {
		t.Fatalf("take = %s, %v", r, err)
	}
	if _, err := c.TakeAssessment(ctx); err == nil {
		t.Fatalf("second take should be refused")
	}
	if s.created != 1 {
		t.Fatalf("created = %d", s.created)
	}
}

func TestControllerProcessResult(t *testing.T) {
	ctx := context.Background()
	s := &fakeSessions{
		list: []Session{{ID: "s1", CurrentStep: 1, Status: StatusInProgress,
			Answers: []Answer{{QuestionID: "a"}}}},
		onScore: func(f *fakeSessions) {
			f.list = []Session{{ID: "s1", CurrentStep: 1, Status: StatusProceed,
				HighestCertifiedLevels: []Level{A2}}}
		},
	}
	c := newTestController(s, &fakeQuestions{}, nil)
	if _, err := c.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	r, err := c.ProcessResult(ctx)
	if err != nil || r != RegionNextStep {
		t.Fatalf("process = %s, %v", r, err)
	}
	if len(s.scored) != 1 || s.scored[0] != "s1" {
		t.Fatalf("scored = %v", s.scored)
	}
	if _, err := c.ProcessResult(ctx); err == nil {
		t.Fatalf("process outside process-result region should fail")
	}
}

func TestControllerFailureKeepsRegion(t *testing.T) {
	ctx := context.Background()
	s := &fakeSessions{list: []Session{{ID: "s1", Status: StatusInProgress,
		Answers: []Answer{{QuestionID: "a"}}}}}
	c := newTestController(s, &fakeQuestions{}, nil)
	if _, err := c.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	s.scoreErr = boom
	r, err := c.ProcessResult(ctx)
	if !errors.Is(err, boom) || r != RegionProcessResult {
		t.Fatalf("process = %s, %v", r, err)
	}
	if !errors.Is(c.Notice(), boom) {
		t.Fatalf("notice = %v", c.Notice())
	}

	s.listErr = boom
	if r, _ := c.Refresh(ctx); r != RegionProcessResult {
		t.Fatalf("refresh error changed region to %s", r)
	}
}

func TestControllerStartAttemptNextStep(t *testing.T) {
	ctx := context.Background()
	s := &fakeSessions{list: []Session{{ID: "s1", CurrentStep: 1, Status: StatusProceed,
		HighestCertifiedLevels: []Level{A1, A2}}}}
	q := &fakeQuestions{page: QuestionPage{Questions: sampleQuestions(2)}}
	c := newTestController(s, q, kvstore.NewMemoryStore())
	if _, err := c.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	run, err := c.StartAttempt(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.Region() != RegionRunner || run.View().Step != 2 {
		t.Fatalf("region %s step %d", c.Region(), run.View().Step)
	}
	want := QuestionQuery{Page: 1, Limit: DefaultPageSize, Levels: "A1,A2"}
	if len(q.queries) != 1 || q.queries[0] != want {
		t.Fatalf("queries = %+v", q.queries)
	}
}

func TestControllerStartAttemptRefusedWhenAbandoned(t *testing.T) {
	ctx := context.Background()
	s := &fakeSessions{list: []Session{{ID: "s1", CurrentStep: 1, Status: StatusAbandoned}}}
	q := &fakeQuestions{}
	c := newTestController(s, q, nil)
	if _, err := c.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.StartAttempt(ctx); err == nil {
		t.Fatalf("abandoned session started an attempt")
	}
	if len(q.queries) != 0 {
		t.Fatalf("questions fetched for abandoned session")
	}
}

func TestControllerResumable(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	c := newTestController(&fakeSessions{}, &fakeQuestions{}, store)
	if c.Resumable(ctx) {
		t.Fatalf("empty store resumable")
	}
	if err := kvstore.Save(ctx, store, KeyQuestionIndex, 1); err != nil {
		t.Fatal(err)
	}
	if !c.Resumable(ctx) {
		t.Fatalf("saved progress not resumable")
	}
}
