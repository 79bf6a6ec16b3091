package grading

import (
	"fmt"

	"github.com/langassess/langassess/internal/assessment"
)

// Band is one row of a step's table: scores at or above Min get Level and
// Status. An empty Level keeps whatever was certified before.
type Band struct {
	Min    float64
	Level  assessment.Level
	Status assessment.Status
}

// DefaultBands is the three-step certification table, highest band first.
var DefaultBands = map[int][]Band{
	1: {
		{75, assessment.A2, assessment.StatusProceed},
		{50, assessment.A2, assessment.StatusCompleted},
		{25, assessment.A1, assessment.StatusCompleted},
		{0, "", assessment.StatusAbandoned},
	},
	2: {
		{75, assessment.B2, assessment.StatusProceed},
		{50, assessment.B2, assessment.StatusCompleted},
		{25, assessment.B1, assessment.StatusCompleted},
		{0, "", assessment.StatusCompleted},
	},
	3: {
		{50, assessment.C2, assessment.StatusProceed},
		{25, assessment.C1, assessment.StatusCompleted},
		{0, "", assessment.StatusCompleted},
	},
}

type Outcome struct {
	Step    int
	Percent float64
	Level   assessment.Level // "" when nothing new is certified
	Status  assessment.Status
}

func (o Outcome) String() string {
	lvl := string(o.Level)
	if lvl == "" {
		lvl = "-"
	}
	return fmt.Sprintf("step %d: %.0f%% level %s status %s", o.Step, o.Percent, lvl, o.Status)
}

func certify(bands map[int][]Band, step int, pct float64) Outcome {
	out := Outcome{Step: step, Percent: pct, Status: assessment.StatusCompleted}
	for _, b := range bands[step] {
		if pct >= b.Min {
			out.Level, out.Status = b.Level, b.Status
			return out
		}
	}
	return out
}

// Apply folds an outcome into the session: it records the result, adds a
// newly certified level, sets the status and drops the scored answers.
func Apply(s *assessment.Session, o Outcome) {
	s.Results = append(s.Results, assessment.Result{Step: o.Step, Score: o.Percent, CertifiedLevel: o.Level})
	if o.Level != "" && !hasLevel(s.HighestCertifiedLevels, o.Level) {
		s.HighestCertifiedLevels = append(s.HighestCertifiedLevels, o.Level)
	}
	s.Status = o.Status
	s.Answers = nil
}

func hasLevel(ls []assessment.Level, l assessment.Level) bool {
	for _, x := range ls {
		if x == l {
			return true
		}
	}
	return false
}
