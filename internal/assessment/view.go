package assessment

// OptionView is one answer choice as it should be displayed.
type OptionView struct {
	Text      string
	Selected  bool
	Correct   bool // revealed as the correct option
	Incorrect bool // revealed as a wrong selection
}

// View is an immutable snapshot of the runner for rendering.
type View struct {
	Step     int
	Phase    Phase
	Index    int // 0-based
	Total    int
	Progress float64 // (Index+1)/Total; 0 when there are no questions
	TimeLeft int

	Question Question
	Options  []OptionView
	Revealed bool
	IsLast   bool

	Answered  int
	Submit    SubmitState
	SubmitErr error
}

func (r *Runner) View() View {
	v := View{
		Step:      r.step,
		Phase:     r.phase,
		Total:     len(r.questions),
		TimeLeft:  r.timeLeft,
		Answered:  len(r.answers),
		Submit:    r.submit,
		SubmitErr: r.lastErr,
	}
	if r.phase == PhaseEmpty {
		return v
	}
	q := r.current()
	v.Index = r.index
	v.Progress = float64(r.index+1) / float64(len(r.questions))
	v.Question = q
	v.IsLast = r.isLast()
	v.Revealed = r.phase == PhaseRevealed || r.phase == PhaseFinished

	v.Options = make([]OptionView, len(q.Options))
	for i, o := range q.Options {
		ov := OptionView{Text: o.Text}
		ov.Selected = r.selected != nil && *r.selected == o.Text
		if v.Revealed {
			ov.Correct = o.IsCorrect
			ov.Incorrect = ov.Selected && !o.IsCorrect
		}
		v.Options[i] = ov
	}
	return v
}

// Selected returns the text of the selected option, if any.
func (v View) Selected() (string, bool) {
	for _, o := range v.Options {
		if o.Selected {
			return o.Text, true
		}
	}
	return "", false
}
