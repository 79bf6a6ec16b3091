package assessment

import (
	"errors"
	"fmt"
	"strings"
)

type Competency string

const (
	Grammar    Competency = "grammar"
	Vocabulary Competency = "vocabulary"
	Writing    Competency = "writing"
)

func (c Competency) Valid() bool {
	switch c {
	case Grammar, Vocabulary, Writing:
		return true
	}
	return false
}

// Level is a CEFR proficiency level. Levels order A1 < A2 < ... < C2.
type Level string

const (
	A1 Level = "A1"
	A2 Level = "A2"
	B1 Level = "B1"
	B2 Level = "B2"
	C1 Level = "C1"
	C2 Level = "C2"
)

var levelOrder = []Level{A1, A2, B1, B2, C1, C2}

func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if l.rank() < 0 {
		return "", fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}

func (l Level) rank() int {
	for i, x := range levelOrder {
		if x == l {
			return i
		}
	}
	return -1
}

func (l Level) Valid() bool       { return l.rank() >= 0 }
func (l Level) Less(o Level) bool { return l.rank() < o.rank() }
func (l Level) String() string    { return string(l) }

// Levels lists every level in ascending order.
func Levels() []Level { return append([]Level(nil), levelOrder...) }

const (
	MinOptions = 2
	MaxOptions = 8
)

type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type Question struct {
	ID         string     `json:"_id,omitempty"`
	CreatedBy  string     `json:"createdBy,omitempty"`
	Text       string     `json:"text"`
	Competency Competency `json:"competency"`
	Level      Level      `json:"level"`
	TimeLimit  int        `json:"timeLimit,omitempty"` // seconds; informational, the runner uses DefaultTimeLimit
	Options    []Option   `json:"options"`
}

var (
	ErrOptionCount   = errors.New("question must have between 2 and 8 options")
	ErrCorrectOption = errors.New("question must have exactly one correct option")
)

// Validate enforces the question-bank invariants.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("question text is required")
	}
	if !q.Competency.Valid() {
		return fmt.Errorf("unknown competency %q", q.Competency)
	}
	if !q.Level.Valid() {
		return fmt.Errorf("unknown level %q", q.Level)
	}
	if n := len(q.Options); n < MinOptions || n > MaxOptions {
		return ErrOptionCount
	}
	correct := 0
	seen := map[string]bool{}
	for _, o := range q.Options {
		if strings.TrimSpace(o.Text) == "" {
			return errors.New("option text is required")
		}
		if seen[o.Text] {
			return fmt.Errorf("duplicate option %q", o.Text)
		}
		seen[o.Text] = true
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return ErrCorrectOption
	}
	return nil
}

// Option returns the option with the given display text.
func (q Question) Option(text string) (Option, bool) {
	for _, o := range q.Options {
		if o.Text == text {
			return o, true
		}
	}
	return Option{}, false
}

// Correct returns the correct option's text, or "" if none is flagged.
func (q Question) Correct() string {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.Text
		}
	}
	return ""
}

type Answer struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// UpsertAnswer replaces the answer for a.QuestionID if present, else appends.
// The input slice is not modified.
func UpsertAnswer(answers []Answer, a Answer) []Answer {
	out := make([]Answer, len(answers), len(answers)+1)
	copy(out, answers)
	for i := range out {
		if out[i].QuestionID == a.QuestionID {
			out[i] = a
			return out
		}
	}
	return append(out, a)
}

type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusProceed    Status = "proceed"
	StatusAbandoned  Status = "abandoned"
)

// MaxStep is the last proficiency tier.
const MaxStep = 3

type Result struct {
	Step           int     `json:"step"`
	Score          float64 `json:"score"`
	CertifiedLevel Level   `json:"certifiedLevel,omitempty"`
}

// SessionUser is the owning user; the backend may populate it or send a bare id.
type SessionUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type Session struct {
	ID                     string      `json:"_id"`
	User                   SessionUser `json:"userId"`
	CurrentStep            int         `json:"currentStep"`
	Status                 Status      `json:"status"`
	Answers                []Answer    `json:"answers,omitempty"`
	Results                []Result    `json:"results,omitempty"`
	HighestCertifiedLevels []Level     `json:"highestCertifiedLevels,omitempty"`
}

// LevelFilter is the comma-joined level query for the next question page,
// or "" when nothing is certified yet.
func (s Session) LevelFilter() string {
	parts := make([]string, 0, len(s.HighestCertifiedLevels))
	for _, l := range s.HighestCertifiedLevels {
		parts = append(parts, string(l))
	}
	return strings.Join(parts, ",")
}
