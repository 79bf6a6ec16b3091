// Package term draws the assessment page on a plain terminal and turns typed
// lines into runner commands.
package term

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/langassess/langassess/internal/assessment"
)

const barWidth = 30

// RenderView writes one frame of the runner.
func RenderView(w io.Writer, v assessment.View) {
	if v.Phase == assessment.PhaseEmpty {
		fmt.Fprintln(w, "No questions available for this step.")
		return
	}

	fmt.Fprintf(w, "\nStep %d  question %d/%d  %s  %ds left\n",
		v.Step, v.Index+1, v.Total, bar(v.Progress), v.TimeLeft)
	fmt.Fprintf(w, "[%s · %s]\n", v.Question.Competency, v.Question.Level)
	fmt.Fprintln(w, v.Question.Text)
	for i, o := range v.Options {
		mark := " "
		switch {
		case o.Correct:
			mark = "+"
		case o.Incorrect:
			mark = "x"
		case o.Selected:
			mark = "*"
		}
		fmt.Fprintf(w, "  %s %d) %s\n", mark, i+1, o.Text)
	}

	switch {
	case v.Submit == assessment.SubmitPending:
		fmt.Fprintln(w, "Submitting...")
	case v.Submit == assessment.SubmitDone:
		fmt.Fprintf(w, "Submitted %d answers.\n", v.Answered)
	case v.Phase == assessment.PhaseFinished:
		fmt.Fprintln(w, "Finished. Type f to submit.")
	case v.Revealed && v.IsLast:
		fmt.Fprintln(w, "Type f to finish.")
	case v.Revealed:
		fmt.Fprintln(w, "Type n for the next question.")
	default:
		fmt.Fprintln(w, "Pick an option by number.")
	}
}

func bar(p float64) string {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	n := int(p*barWidth + 0.5)
	return "[" + strings.Repeat("#", n) + strings.Repeat(".", barWidth-n) + "]"
}

var ErrUnknownCommand = errors.New("unknown command (number, option text, n, f or q)")

// ParseCommand reads one typed line against the current view. A number
// selects that option; any other text that matches an option exactly
// selects it.
func ParseCommand(line string, v assessment.View) (assessment.Command, error) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "":
		return assessment.Command{}, ErrUnknownCommand
	case "n", "next":
		return assessment.Command{Kind: assessment.CmdNext}, nil
	case "f", "finish", "submit":
		return assessment.Command{Kind: assessment.CmdFinish}, nil
	case "q", "quit", "exit":
		return assessment.Command{Kind: assessment.CmdQuit}, nil
	}
	if n, err := strconv.Atoi(line); err == nil {
		if n < 1 || n > len(v.Options) {
			return assessment.Command{}, fmt.Errorf("option %d out of range 1-%d", n, len(v.Options))
		}
		return assessment.Command{Kind: assessment.CmdSelect, Option: v.Options[n-1].Text}, nil
	}
	for _, o := range v.Options {
		if o.Text == line {
			return assessment.Command{Kind: assessment.CmdSelect, Option: o.Text}, nil
		}
	}
	return assessment.Command{}, ErrUnknownCommand
}

// RegionMessage is the prose shown for a page region outside the runner.
func RegionMessage(r assessment.Region, s assessment.Session) string {
	switch r {
	case assessment.RegionTakeAssessment:
		return "You have not started the assessment yet. Run `assess take` to begin."
	case assessment.RegionRunner:
		return fmt.Sprintf("Step %d is in progress. Run `assess run` to continue.", s.CurrentStep)
	case assessment.RegionProcessResult:
		return fmt.Sprintf("Your step %d answers are submitted. Run `assess process` to see the result.", s.CurrentStep)
	case assessment.RegionNextStep:
		return fmt.Sprintf("You passed step %d. Run `assess run` to start step %d.", s.CurrentStep, s.CurrentStep+1)
	case assessment.RegionQualified:
		return "You passed every step. Run `assess certificate` to view your certificate."
	case assessment.RegionRetake:
		return fmt.Sprintf("Step %d is complete but not passed. Run `assess run` to retake it.", s.CurrentStep)
	case assessment.RegionAbandoned:
		return "The assessment was failed and cannot be retaken."
	}
	return "Unknown assessment state."
}

var ErrNoCertificate = errors.New("no certified level yet")

// RenderCertificate prints the highest certified level with the score
// history behind it.
func RenderCertificate(w io.Writer, s assessment.Session) error {
	if len(s.HighestCertifiedLevels) == 0 {
		return ErrNoCertificate
	}
	top := s.HighestCertifiedLevels[0]
	for _, l := range s.HighestCertifiedLevels[1:] {
		if top.Less(l) {
			top = l
		}
	}

	name := s.User.Name
	if name == "" {
		name = s.User.Email
	}
	fmt.Fprintln(w, "CERTIFICATE OF LANGUAGE PROFICIENCY")
	if name != "" {
		fmt.Fprintf(w, "Awarded to %s\n", name)
	}
	fmt.Fprintf(w, "Certified level: %s\n", top)
	if len(s.Results) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STEP\tSCORE\tLEVEL")
		for _, r := range s.Results {
			lvl := string(r.CertifiedLevel)
			if lvl == "" {
				lvl = "-"
			}
			fmt.Fprintf(tw, "%d\t%.0f%%\t%s\n", r.Step, r.Score, lvl)
		}
		return tw.Flush()
	}
	return nil
}

// RenderQuestions lists one page of the bank.
func RenderQuestions(w io.Writer, p assessment.QuestionPage) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLEVEL\tCOMPETENCY\tTEXT")
	for _, q := range p.Questions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", q.ID, q.Level, q.Competency, truncate(q.Text, 50))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d, %d of %d\n", p.Page, len(p.Questions), p.Total)
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
