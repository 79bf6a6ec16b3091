// Command assess is the terminal client for the language assessment.
//
//	assess login -email me@example.com -password secret
//	assess status
//	assess take
//	assess run
//	assess process
//	assess certificate
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/langassess/langassess/internal/assessment"
	"github.com/langassess/langassess/internal/auth"
	"github.com/langassess/langassess/internal/client"
	"github.com/langassess/langassess/internal/config"
	"github.com/langassess/langassess/internal/kvstore"
)

type app struct {
	cfg    config.Config
	store  kvstore.Store
	api    *client.Client
	page   *assessment.Controller
	log    *log.Logger
	stdin  io.Reader
	stdout io.Writer
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":       {"-email E -password P", cmdLogin},
	"logout":      {"", cmdLogout},
	"whoami":      {"", cmdWhoami},
	"register":    {"-name N -email E -password P", cmdRegister},
	"verify":      {"-email E -otp CODE", cmdVerify},
	"resend-otp":  {"-email E", cmdResendOTP},
	"forgot":      {"-email E", cmdForgot},
	"reset":       {"-token T -user ID -password P", cmdReset},
	"passwd":      {"-current P -new P", cmdPasswd},
	"status":      {"", cmdStatus},
	"take":        {"", cmdTake},
	"run":         {"", cmdRun},
	"process":     {"", cmdProcess},
	"certificate": {"", cmdCertificate},
	"questions":   {"[-page N] [-limit N] [-level A1,A2] [-competency C]", cmdQuestions},
	"question-rm": {"-id ID", cmdQuestionDelete},
	"sessions":    {"[-page N] [-limit N] [-status S]", cmdSessions},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: assess <command> [flags]")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-12s %s\n", n, commands[n].usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, closer, err := newApp(ctx, config.FromEnv())
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	err = cmd.run(ctx, a, os.Args[2:])
	_ = closer.Close()
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, auth.ErrNotLoggedIn) {
			fmt.Fprintln(os.Stderr, "Please log in: assess login -email ... -password ...")
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg config.Config) (*app, io.Closer, error) {
	lg := log.New(os.Stderr, "[assess] ", log.LstdFlags)
	store, closer, err := kvstore.Open(ctx, cfg)
	if err != nil {
		return nil, closer, err
	}
	if store == nil {
		lg.Printf("no durable store configured; progress and login will not survive this run")
		store = kvstore.NewMemoryStore()
	}

	// The token source refreshes through the same client it authenticates.
	var api *client.Client
	ts := auth.NewTokenSource(ctx, store, func(ctx context.Context, rt string) (string, string, error) {
		return api.Auth().Refresher()(ctx, rt)
	})
	api = client.New(client.Config{
		BaseURL:     cfg.APIBaseURL,
		Timeout:     cfg.HTTPTimeout,
		TokenSource: ts,
	})

	return &app{
		cfg:   cfg,
		store: store,
		api:   api,
		page: assessment.NewController(assessment.ControllerConfig{
			Sessions:  api.Sessions(),
			Questions: api.Questions(),
			Store:     store,
			Logger:    lg,
		}),
		log:    lg,
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}, closer, nil
}

// parseFlags parses args into a fresh FlagSet and checks that every name in
// required was given a non-empty value.
func parseFlags(name string, args []string, define func(fs *flag.FlagSet), required ...string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	define(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, r := range required {
		if f := fs.Lookup(r); f == nil || f.Value.String() == "" {
			return fmt.Errorf("%s: -%s is required", name, r)
		}
	}
	return nil
}
