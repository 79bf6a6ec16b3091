package grading

import (
	"testing"

	"github.com/langassess/langassess/internal/assessment"
)

func bankOf(qs ...assessment.Question) Bank {
	m := map[string]assessment.Question{}
	for _, q := range qs {
		m[q.ID] = q
	}
	return BankFunc(func(id string) (assessment.Question, bool) {
		q, ok := m[id]
		return q, ok
	})
}

func q(id string) assessment.Question {
	return assessment.Question{ID: id, Options: []assessment.Option{{Text: "yes", IsCorrect: true}, {Text: "no"}}}
}

func TestGradeRechecksAgainstBank(t *testing.T) {
	e := NewEngine(bankOf(q("a")))
	cases := []struct {
		in   assessment.Answer
		want bool
	}{
		{assessment.Answer{QuestionID: "a", SelectedAnswer: "yes"}, true},
		{assessment.Answer{QuestionID: "a", SelectedAnswer: "no", IsCorrect: true}, false}, // client flag ignored
		{assessment.Answer{QuestionID: "a", SelectedAnswer: ""}, false},
		{assessment.Answer{QuestionID: "gone", SelectedAnswer: "yes"}, false},
	}
	for _, tc := range cases {
		if got := e.Grade(tc.in); got != tc.want {
			t.Errorf("Grade(%+v) = %v", tc.in, got)
		}
	}

	trusting := NewEngine(bankOf(), WithTrustClient(true))
	if !trusting.Grade(assessment.Answer{QuestionID: "x", IsCorrect: true}) {
		t.Errorf("trusting engine ignored isCorrect")
	}
}

func TestTallyDedupsByQuestion(t *testing.T) {
	e := NewEngine(bankOf(q("a"), q("b")))
	got := e.Tally([]assessment.Answer{
		{QuestionID: "a", SelectedAnswer: "no"},
		{QuestionID: "b", SelectedAnswer: "yes"},
		{QuestionID: "a", SelectedAnswer: "yes"},
	})
	if got.Answered != 2 || got.Correct != 2 || got.Percent() != 100 {
		t.Fatalf("tally = %+v", got)
	}
	if (Tally{}).Percent() != 0 {
		t.Fatalf("empty tally percent")
	}
}

func TestCertifyBands(t *testing.T) {
	cases := []struct {
		step   int
		pct    float64
		level  assessment.Level
		status assessment.Status
	}{
		{1, 10, "", assessment.StatusAbandoned},
		{1, 25, assessment.A1, assessment.StatusCompleted},
		{1, 60, assessment.A2, assessment.StatusCompleted},
		{1, 75, assessment.A2, assessment.StatusProceed},
		{2, 0, "", assessment.StatusCompleted},
		{2, 40, assessment.B1, assessment.StatusCompleted},
		{2, 74.9, assessment.B2, assessment.StatusCompleted},
		{2, 80, assessment.B2, assessment.StatusProceed},
		{3, 20, "", assessment.StatusCompleted},
		{3, 30, assessment.C1, assessment.StatusCompleted},
		{3, 50, assessment.C2, assessment.StatusProceed},
	}
	for _, tc := range cases {
		o := certify(DefaultBands, tc.step, tc.pct)
		if o.Level != tc.level || o.Status != tc.status {
			t.Errorf("step %d %.1f%%: got %s", tc.step, tc.pct, o)
		}
	}
}

func TestApply(t *testing.T) {
	s := &assessment.Session{
		CurrentStep:            1,
		Status:                 assessment.StatusInProgress,
		Answers:                []assessment.Answer{{QuestionID: "a"}},
		HighestCertifiedLevels: []assessment.Level{assessment.A1},
	}
	Apply(s, Outcome{Step: 1, Percent: 80, Level: assessment.A2, Status: assessment.StatusProceed})
	Apply(s, Outcome{Step: 1, Percent: 80, Level: assessment.A2, Status: assessment.StatusProceed})

	if s.Status != assessment.StatusProceed || len(s.Answers) != 0 {
		t.Fatalf("session = %+v", s)
	}
	if len(s.HighestCertifiedLevels) != 2 || len(s.Results) != 2 || s.Results[0].Score != 80 {
		t.Fatalf("levels %v results %v", s.HighestCertifiedLevels, s.Results)
	}
}
