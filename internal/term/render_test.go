package term

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/langassess/langassess/internal/assessment"
)

func sampleView() assessment.View {
	return assessment.View{
		Step:     1,
		Phase:    assessment.PhaseAnswering,
		Index:    0,
		Total:    2,
		Progress: 0.5,
		TimeLeft: 42,
		Question: assessment.Question{Text: "Pick the verb", Competency: assessment.Grammar, Level: assessment.A1},
		Options:  []assessment.OptionView{{Text: "run"}, {Text: "blue"}},
	}
}

func TestParseCommand(t *testing.T) {
	v := sampleView()
	cases := []struct {
		in   string
		want assessment.Command
	}{
		{"1", assessment.Command{Kind: assessment.CmdSelect, Option: "run"}},
		{" 2 ", assessment.Command{Kind: assessment.CmdSelect, Option: "blue"}},
		{"blue", assessment.Command{Kind: assessment.CmdSelect, Option: "blue"}},
		{"n", assessment.Command{Kind: assessment.CmdNext}},
		{"NEXT", assessment.Command{Kind: assessment.CmdNext}},
		{"f", assessment.Command{Kind: assessment.CmdFinish}},
		{"q", assessment.Command{Kind: assessment.CmdQuit}},
	}
	for _, c := range cases {
		got, err := ParseCommand(c.in, v)
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%q: got %+v want %+v", c.in, got, c.want)
		}
	}

	if _, err := ParseCommand("3", v); err == nil {
		t.Fatal("out of range option accepted")
	}
	if _, err := ParseCommand("green", v); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("got %v", err)
	}
	if _, err := ParseCommand("", v); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("got %v", err)
	}
}

func TestRenderViewMarksReveal(t *testing.T) {
	v := sampleView()
	v.Phase = assessment.PhaseRevealed
	v.Revealed = true
	v.Options[0].Correct = true
	v.Options[1].Selected = true
	v.Options[1].Incorrect = true

	var buf bytes.Buffer
	RenderView(&buf, v)
	out := buf.String()
	for _, want := range []string{"question 1/2", "42s left", "+ 1) run", "x 2) blue", "Type n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderViewEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderView(&buf, assessment.View{Phase: assessment.PhaseEmpty})
	if !strings.Contains(buf.String(), "No questions") {
		t.Fatal(buf.String())
	}
}

func TestBarClamps(t *testing.T) {
	if got := bar(2); strings.Count(got, "#") != barWidth {
		t.Fatal(got)
	}
	if got := bar(-1); strings.Count(got, "#") != 0 {
		t.Fatal(got)
	}
}

func TestRenderCertificate(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderCertificate(&buf, assessment.Session{}); !errors.Is(err, ErrNoCertificate) {
		t.Fatalf("got %v", err)
	}

	s := assessment.Session{
		User:                   assessment.SessionUser{Name: "Sam"},
		HighestCertifiedLevels: []assessment.Level{assessment.A2, assessment.C2, assessment.B2},
		Results: []assessment.Result{
			{Step: 1, Score: 80, CertifiedLevel: assessment.A2},
			{Step: 2, Score: 75, CertifiedLevel: assessment.B2},
			{Step: 3, Score: 60, CertifiedLevel: assessment.C2},
		},
	}
	if err := RenderCertificate(&buf, s); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Certified level: C2") || !strings.Contains(out, "Awarded to Sam") {
		t.Fatal(out)
	}
}

func TestRegionMessageCoversEveryRegion(t *testing.T) {
	for r := assessment.RegionTakeAssessment; r <= assessment.RegionUnknown; r++ {
		if RegionMessage(r, assessment.Session{CurrentStep: 1}) == "" {
			t.Fatalf("%s has no message", r)
		}
	}
	if !strings.Contains(RegionMessage(assessment.RegionNextStep, assessment.Session{CurrentStep: 2}), "step 3") {
		t.Fatal("next step message")
	}
}
