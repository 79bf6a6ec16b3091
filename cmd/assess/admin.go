package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/langassess/langassess/internal/assessment"
	"github.com/langassess/langassess/internal/client"
	"github.com/langassess/langassess/internal/term"
)

func cmdQuestions(ctx context.Context, a *app, args []string) error {
	var (
		q          assessment.QuestionQuery
		competency string
	)
	if err := parseFlags("questions", args, func(fs *flag.FlagSet) {
		fs.IntVar(&q.Page, "page", 1, "page number")
		fs.IntVar(&q.Limit, "limit", 20, "page size")
		fs.StringVar(&q.Levels, "level", "", "comma separated levels")
		fs.StringVar(&competency, "competency", "", "grammar, vocabulary or writing")
	}); err != nil {
		return err
	}
	q.Competency = assessment.Competency(competency)
	page, err := a.api.Questions().List(ctx, q)
	if err != nil {
		return err
	}
	return term.RenderQuestions(a.stdout, page)
}

func cmdQuestionDelete(ctx context.Context, a *app, args []string) error {
	var id string
	if err := parseFlags("question-rm", args, func(fs *flag.FlagSet) {
		fs.StringVar(&id, "id", "", "question id")
	}, "id"); err != nil {
		return err
	}
	if err := a.api.Questions().Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Deleted", id)
	return nil
}

func cmdSessions(ctx context.Context, a *app, args []string) error {
	var (
		q      client.SessionQuery
		status string
	)
	if err := parseFlags("sessions", args, func(fs *flag.FlagSet) {
		fs.IntVar(&q.Page, "page", 1, "page number")
		fs.IntVar(&q.Limit, "limit", 20, "page size")
		fs.StringVar(&status, "status", "", "filter by status")
	}); err != nil {
		return err
	}
	q.Status = assessment.Status(status)
	list, meta, err := a.api.Sessions().AllSessions(ctx, q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tSTEP\tSTATUS\tLEVELS")
	for _, s := range list {
		user := s.User.Email
		if user == "" {
			user = s.User.ID
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.ID, user, s.CurrentStep, s.Status, s.LevelFilter())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "page %d, %d of %d\n", meta.Page, len(list), meta.Total)
	return nil
}
