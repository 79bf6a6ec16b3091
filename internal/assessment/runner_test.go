package assessment

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/langassess/langassess/internal/kvstore"
)

var quiet = log.New(io.Discard, "", 0)

func sampleQuestions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			ID:         string(rune('a' + i)),
			Text:       "question " + string(rune('a'+i)),
			Competency: Grammar,
			Level:      A1,
			Options: []Option{
				{Text: "right", IsCorrect: true},
				{Text: "wrong"},
				{Text: "other"},
			},
		}
	}
	return qs
}

func newTestRunner(t *testing.T, store kvstore.Store, n int) *Runner {
	t.Helper()
	return NewRunner(context.Background(), RunnerConfig{
		Step:      1,
		Questions: sampleQuestions(n),
		Store:     store,
		Logger:    quiet,
	})
}

func tickN(r *Runner, n int) {
	for i := 0; i < n; i++ {
		r.Tick(context.Background())
	}
}

func TestSelectAndAdvanceUpsertsOnePerQuestion(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t, kvstore.NewMemoryStore(), 4)

	for i := 0; i < 4; i++ {
		if err := r.Select(ctx, "wrong"); err != nil {
			t.Fatalf("q%d select: %v", i, err)
		}
		// second selection is ignored
		if err := r.Select(ctx, "right"); !errors.Is(err, ErrSelectionLocked) {
			t.Fatalf("q%d reselect err = %v", i, err)
		}
		if i < 3 {
			if err := r.Next(ctx); err != nil {
				t.Fatalf("q%d next: %v", i, err)
			}
		} else if err := r.Finish(ctx); err != nil {
			t.Fatalf("finish: %v", err)
		}
		if got := len(r.Answers()); got != i+1 {
			t.Fatalf("after q%d: %d answers", i, got)
		}
	}
	if r.Phase() != PhaseFinished {
		t.Fatalf("phase = %s", r.Phase())
	}
	for _, a := range r.Answers() {
		if a.SelectedAnswer != "wrong" || a.IsCorrect {
			t.Fatalf("unexpected answer %+v", a)
		}
	}
}

func TestNextRequiresSelection(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t, nil, 2)
	if err := r.Next(ctx); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("next without selection: %v", err)
	}
	if err := r.Finish(ctx); !errors.Is(err, ErrNotLastQuestion) {
		t.Fatalf("finish on first question: %v", err)
	}
	_ = r.Select(ctx, "right")
	_ = r.Next(ctx)
	_ = r.Select(ctx, "right")
	if err := r.Next(ctx); !errors.Is(err, ErrUseFinish) {
		t.Fatalf("next on last question: %v", err)
	}
	if err := r.Select(ctx, "nope"); !errors.Is(err, ErrSelectionLocked) {
		t.Fatalf("select after reveal: %v", err)
	}
}

func TestSelectUnknownOption(t *testing.T) {
	r := newTestRunner(t, nil, 1)
	if err := r.Select(context.Background(), "maybe"); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("err = %v", err)
	}
	if r.Phase() != PhaseAnswering {
		t.Fatalf("phase changed to %s", r.Phase())
	}
}

func TestTimerStaysInRange(t *testing.T) {
	r := newTestRunner(t, nil, 2)
	prev := r.TimeLeft()
	if prev != DefaultTimeLimit {
		t.Fatalf("initial time = %d", prev)
	}
	for i := 0; i < DefaultTimeLimit-1; i++ {
		r.Tick(context.Background())
		if got := r.TimeLeft(); got != prev-1 || got < 0 || got > DefaultTimeLimit {
			t.Fatalf("tick %d: time %d after %d", i, got, prev)
		}
		prev = r.TimeLeft()
	}
	// reaching zero advances and resets
	r.Tick(context.Background())
	if r.Index() != 1 || r.TimeLeft() != DefaultTimeLimit {
		t.Fatalf("after expiry index=%d time=%d", r.Index(), r.TimeLeft())
	}
}

func TestExpiryAutoAdvancesToFinished(t *testing.T) {
	r := newTestRunner(t, kvstore.NewMemoryStore(), 3)
	tickN(r, 3*DefaultTimeLimit)

	if r.Phase() != PhaseFinished {
		t.Fatalf("phase = %s", r.Phase())
	}
	answers := r.Answers()
	if len(answers) != 3 {
		t.Fatalf("answers = %d", len(answers))
	}
	for _, a := range answers {
		if a.SelectedAnswer != "" || a.IsCorrect {
			t.Fatalf("expected empty incorrect answer, got %+v", a)
		}
	}
	if r.SubmitState() != SubmitIdle {
		t.Fatalf("expiry must not submit, state = %v", r.SubmitState())
	}
	// more ticks do nothing once finished
	tickN(r, 10)
	if r.TimeLeft() != 0 || len(r.Answers()) != 3 {
		t.Fatalf("ticks after finish changed state")
	}
}

func TestExpiryKeepsSelection(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t, nil, 2)
	_ = r.Select(ctx, "right")
	tickN(r, DefaultTimeLimit)
	if r.Index() != 1 {
		t.Fatalf("index = %d", r.Index())
	}
	if a := r.Answers()[0]; a.SelectedAnswer != "right" || !a.IsCorrect {
		t.Fatalf("answer = %+v", a)
	}
}

func TestResumeFromSnapshot(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	prior := []Answer{
		{QuestionID: "a", SelectedAnswer: "right", IsCorrect: true},
		{QuestionID: "b", SelectedAnswer: "wrong"},
	}
	_ = kvstore.Save(ctx, store, KeyQuestionIndex, 2)
	_ = kvstore.Save(ctx, store, KeyAnswers, prior)
	_ = kvstore.Save(ctx, store, KeyTimeLeft, 37)
	_ = kvstore.Save(ctx, store, KeySelected, nil)

	r := newTestRunner(t, store, 4)
	v := r.View()
	if v.Index != 2 || v.Question.ID != "c" || v.TimeLeft != 37 {
		t.Fatalf("resumed view = index %d question %q time %d", v.Index, v.Question.ID, v.TimeLeft)
	}
	if v.Phase != PhaseAnswering || v.Revealed {
		t.Fatalf("resumed phase = %s revealed=%v", v.Phase, v.Revealed)
	}
	if got := len(r.Answers()); got != 2 {
		t.Fatalf("answers before advance = %d", got)
	}

	_ = r.Select(ctx, "right")
	_ = r.Next(ctx)
	if got := len(r.Answers()); got != 3 {
		t.Fatalf("answers after advance = %d", got)
	}
}

func TestResumeDropsForeignAnswers(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	_ = kvstore.Save(ctx, store, KeyQuestionIndex, 1)
	_ = kvstore.Save(ctx, store, KeyAnswers, []Answer{
		{QuestionID: "a", SelectedAnswer: "right", IsCorrect: true},
		{QuestionID: "from-old-page", SelectedAnswer: "x"},
	})

	r := newTestRunner(t, store, 3)
	got := r.Answers()
	if len(got) != 1 || got[0].QuestionID != "a" {
		t.Fatalf("restored answers = %+v", got)
	}
}

func TestProgressKeysIsACopy(t *testing.T) {
	keys := ProgressKeys()
	keys[0] = "changed"
	if ProgressKeys()[0] != KeyQuestionIndex {
		t.Fatal("ProgressKeys shares its backing array")
	}
}

func TestResumeWithSelectionLocks(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	sel := "wrong"
	_ = kvstore.Save(ctx, store, KeySelected, &sel)

	r := newTestRunner(t, store, 2)
	if r.Phase() != PhaseRevealed {
		t.Fatalf("phase = %s", r.Phase())
	}
	if err := r.Select(ctx, "right"); !errors.Is(err, ErrSelectionLocked) {
		t.Fatalf("select = %v", err)
	}
}

func TestResumeSanitisesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	_ = kvstore.Save(ctx, store, KeyQuestionIndex, 9)
	_ = kvstore.Save(ctx, store, KeyTimeLeft, 75)
	_ = store.Set(ctx, KeyAnswers, []byte("[{broken"))
	ghost := "not an option"
	_ = kvstore.Save(ctx, store, KeySelected, &ghost)

	r := newTestRunner(t, store, 3)
	if r.Index() != 0 || r.TimeLeft() != DefaultTimeLimit || len(r.Answers()) != 0 {
		t.Fatalf("index=%d time=%d answers=%d", r.Index(), r.TimeLeft(), len(r.Answers()))
	}
	if r.Phase() != PhaseAnswering {
		t.Fatalf("phase = %s", r.Phase())
	}
}

func TestTransitionsPersistImmediately(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	r := newTestRunner(t, store, 2)

	r.Tick(ctx)
	if left, _ := kvstore.Load(ctx, store, KeyTimeLeft, -1); left != DefaultTimeLimit-1 {
		t.Fatalf("persisted time = %d", left)
	}
	_ = r.Select(ctx, "other")
	if sel, _ := kvstore.Load[*string](ctx, store, KeySelected, nil); sel == nil || *sel != "other" {
		t.Fatalf("persisted selection = %v", sel)
	}
	_ = r.Next(ctx)
	idx, _ := kvstore.Load(ctx, store, KeyQuestionIndex, -1)
	sel, _ := kvstore.Load[*string](ctx, store, KeySelected, nil)
	answers, _ := kvstore.Load[[]Answer](ctx, store, KeyAnswers, nil)
	if idx != 1 || sel != nil || len(answers) != 1 {
		t.Fatalf("after next: idx=%d sel=%v answers=%v", idx, sel, answers)
	}
}

type fakeSubmitter struct {
	calls int
	err   error
	got   []Answer
}

func (f *fakeSubmitter) SubmitAnswers(_ context.Context, answers []Answer) error {
	f.calls++
	f.got = answers
	return f.err
}

func finishedRunner(t *testing.T, store kvstore.Store) *Runner {
	t.Helper()
	r := newTestRunner(t, store, 2)
	ctx := context.Background()
	_ = r.Select(ctx, "right")
	_ = r.Next(ctx)
	_ = r.Select(ctx, "wrong")
	if err := r.Finish(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}
	return r
}

func TestSubmitSuccessClearsProgress(t *testing.T) {
	store := kvstore.NewMemoryStore()
	r := finishedRunner(t, store)
	sub := &fakeSubmitter{}

	if err := r.Submit(context.Background(), sub); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.calls != 1 || len(sub.got) != 2 {
		t.Fatalf("submitter calls=%d answers=%d", sub.calls, len(sub.got))
	}
	if keys := store.Keys(); len(keys) != 0 {
		t.Fatalf("progress keys left behind: %v", keys)
	}
	if !r.Submitted() {
		t.Fatalf("runner not marked submitted")
	}
	if err := r.Submit(context.Background(), sub); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second submit = %v", err)
	}
}

func TestSubmitFailureKeepsProgress(t *testing.T) {
	store := kvstore.NewMemoryStore()
	r := finishedRunner(t, store)
	before := len(store.Keys())
	sub := &fakeSubmitter{err: errors.New("503 service unavailable")}

	if err := r.Submit(context.Background(), sub); err == nil {
		t.Fatalf("expected error")
	}
	if got := len(store.Keys()); got != before || got != 4 {
		t.Fatalf("keys after failure = %d (before %d)", got, before)
	}
	if r.View().SubmitErr == nil || r.SubmitState() != SubmitIdle {
		t.Fatalf("failure not recorded for retry")
	}

	sub.err = nil
	if err := r.Submit(context.Background(), sub); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(store.Keys()) != 0 {
		t.Fatalf("retry did not clear progress")
	}
}

func TestSubmitGuards(t *testing.T) {
	sub := &fakeSubmitter{}
	empty := newTestRunner(t, nil, 0)
	if err := empty.Submit(context.Background(), sub); !errors.Is(err, ErrNoAnswers) {
		t.Fatalf("empty submit = %v", err)
	}

	r := newTestRunner(t, nil, 2)
	_ = r.Select(context.Background(), "right")
	_ = r.Next(context.Background())
	if err := r.Submit(context.Background(), sub); !errors.Is(err, ErrNotFinished) {
		t.Fatalf("unfinished submit = %v", err)
	}
	if sub.calls != 0 {
		t.Fatalf("guards must not reach the network")
	}

	f := finishedRunner(t, nil)
	if _, err := f.BeginSubmit(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := f.BeginSubmit(); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("double begin = %v", err)
	}
}

func TestEmptyQuestionList(t *testing.T) {
	r := newTestRunner(t, nil, 0)
	if r.Phase() != PhaseEmpty || r.TimerRunning() {
		t.Fatalf("phase=%s running=%v", r.Phase(), r.TimerRunning())
	}
	r.Tick(context.Background())
	if err := r.Finish(context.Background()); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("finish = %v", err)
	}
	if v := r.View(); v.Total != 0 || v.Progress != 0 {
		t.Fatalf("view = %+v", v)
	}
}

func TestProgressFraction(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t, nil, 4)
	want := []float64{0.25, 0.5, 0.75, 1}
	for i, w := range want {
		if got := r.View().Progress; got != w {
			t.Fatalf("index %d progress = %v, want %v", i, got, w)
		}
		_ = r.Select(ctx, "right")
		_ = r.Next(ctx)
	}
}

func TestViewMarksAfterReveal(t *testing.T) {
	r := newTestRunner(t, nil, 1)
	for _, o := range r.View().Options {
		if o.Correct || o.Incorrect {
			t.Fatalf("marks shown before reveal: %+v", o)
		}
	}
	_ = r.Select(context.Background(), "wrong")
	marks := map[string]OptionView{}
	for _, o := range r.View().Options {
		marks[o.Text] = o
	}
	if !marks["right"].Correct || !marks["wrong"].Incorrect || !marks["wrong"].Selected {
		t.Fatalf("marks = %+v", marks)
	}
	if marks["other"].Correct || marks["other"].Incorrect {
		t.Fatalf("unselected wrong option marked: %+v", marks["other"])
	}
}
