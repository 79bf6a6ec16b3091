package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/langassess/langassess/internal/assessment"
	"github.com/langassess/langassess/internal/term"
)

func (a *app) say(r assessment.Region) {
	s, _ := a.page.Session()
	fmt.Fprintln(a.stdout, term.RegionMessage(r, s))
}

func cmdStatus(ctx context.Context, a *app, _ []string) error {
	r, err := a.page.Refresh(ctx)
	if err != nil {
		return err
	}
	a.say(r)
	if r == assessment.RegionRunner && a.page.Resumable(ctx) {
		fmt.Fprintln(a.stdout, "Saved progress will be resumed.")
	}
	return nil
}

func cmdTake(ctx context.Context, a *app, _ []string) error {
	if _, err := a.page.Refresh(ctx); err != nil {
		return err
	}
	r, err := a.page.TakeAssessment(ctx)
	if err != nil {
		return err
	}
	a.say(r)
	return nil
}

func cmdProcess(ctx context.Context, a *app, _ []string) error {
	if _, err := a.page.Refresh(ctx); err != nil {
		return err
	}
	r, err := a.page.ProcessResult(ctx)
	if err != nil {
		return err
	}
	if s, ok := a.page.Session(); ok && len(s.Results) > 0 {
		last := s.Results[len(s.Results)-1]
		fmt.Fprintf(a.stdout, "Step %d score: %.0f%%\n", last.Step, last.Score)
	}
	a.say(r)
	return nil
}

func cmdCertificate(ctx context.Context, a *app, _ []string) error {
	if _, err := a.page.Refresh(ctx); err != nil {
		return err
	}
	s, ok := a.page.Session()
	if !ok {
		return errors.New("no assessment yet")
	}
	return term.RenderCertificate(a.stdout, s)
}

// cmdRun plays one attempt on the terminal. Input lines are read on their
// own goroutine and parsed against the latest rendered view.
func cmdRun(ctx context.Context, a *app, _ []string) error {
	if _, err := a.page.Refresh(ctx); err != nil {
		return err
	}
	runner, err := a.page.StartAttempt(ctx)
	if err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		last assessment.View
	)
	loop := &assessment.Loop{
		Runner:    runner,
		Submitter: a.page.Submitter(),
		Render: func(v assessment.View) {
			mu.Lock()
			changed := v.Index != last.Index || v.Phase != last.Phase || v.Submit != last.Submit || v.TimeLeft%10 == 0
			last = v
			mu.Unlock()
			if changed {
				term.RenderView(a.stdout, v)
			}
		},
		Notify: func(err error) { fmt.Fprintln(a.stdout, "!", err) },
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	cmds := make(chan assessment.Command)
	go func() {
		defer close(cmds)
		sc := bufio.NewScanner(a.stdin)
		for sc.Scan() {
			mu.Lock()
			v := last
			mu.Unlock()
			cmd, err := term.ParseCommand(sc.Text(), v)
			if err != nil {
				fmt.Fprintln(a.stdout, "!", err)
				continue
			}
			select {
			case cmds <- cmd:
			case <-runCtx.Done():
				return
			}
		}
	}()

	// Interrupting the run is a normal way out; progress is already persisted.
	if err := loop.Run(runCtx, cmds); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if runner.Phase() == assessment.PhaseEmpty {
		return nil
	}
	if !runner.Submitted() {
		fmt.Fprintln(a.stdout, "Progress saved. Run `assess run` to continue.")
		return nil
	}
	r, err := a.page.Refresh(ctx)
	if err != nil {
		return err
	}
	a.say(r)
	return nil
}
