package assessment

import (
	"context"
	"time"
)

type CommandKind int

const (
	CmdSelect CommandKind = iota
	CmdNext
	CmdFinish // finish (if needed) and submit; repeats act as a retry
	CmdQuit
)

type Command struct {
	Kind   CommandKind
	Option string // CmdSelect only
}

// Loop is the event loop around a Runner: user commands and timer fires are
// handled one at a time on the goroutine calling Run.
type Loop struct {
	Runner    *Runner
	Submitter Submitter
	Interval  time.Duration // tick period; defaults to one second
	Render    func(View)    // called after every transition
	Notify    func(error)   // non-fatal, user-facing problems
}

// Run processes commands until the submission is acknowledged, CmdQuit
// arrives, cmds is closed or ctx is done. With no questions it renders once
// and returns. Leaving Run stops the pending timer.
// A submission still in flight when Run returns completes in the background
// and its result is dropped.
func (l *Loop) Run(ctx context.Context, cmds <-chan Command) error {
	r := l.Runner
	interval := l.Interval
	if interval <= 0 {
		interval = time.Second
	}

	l.render()
	if r.Phase() == PhaseEmpty {
		return nil
	}

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	// A fresh timer is armed whenever the countdown it was scheduled for is no
	// longer current; the old one is stopped first so it can never fire late.
	rearm := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
		if r.TimerRunning() {
			timer = time.NewTimer(interval)
			timerC = timer.C
		}
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	rearm()

	// Buffered so the submit goroutine never blocks if Run has already returned.
	results := make(chan error, 1)
	submit := func() {
		answers, err := r.BeginSubmit()
		if err != nil {
			l.notify(err)
			return
		}
		s := l.Submitter
		bg := context.WithoutCancel(ctx)
		go func() { results <- s.SubmitAnswers(bg, answers) }()
	}

	for {
		before := countdownOf(r)

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timerC:
			timer, timerC = nil, nil
			r.Tick(ctx)

		case err := <-results:
			r.CompleteSubmit(ctx, err)
			l.render()
			if err != nil {
				l.notify(err)
				continue
			}
			return nil

		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			switch cmd.Kind {
			case CmdQuit:
				return nil
			case CmdSelect:
				l.notify(r.Select(ctx, cmd.Option))
			case CmdNext:
				l.notify(r.Next(ctx))
			case CmdFinish:
				if err := r.Finish(ctx); err != nil {
					l.notify(err)
				} else {
					submit()
				}
			}
		}

		if timerC == nil || countdownOf(r) != before {
			rearm()
		}
		l.render()
	}
}

type countdown struct {
	index, left int
	running     bool
}

func countdownOf(r *Runner) countdown {
	return countdown{index: r.Index(), left: r.TimeLeft(), running: r.TimerRunning()}
}

func (l *Loop) render() {
	if l.Render != nil {
		l.Render(l.Runner.View())
	}
}

func (l *Loop) notify(err error) {
	if err != nil && l.Notify != nil {
		l.Notify(err)
	}
}
