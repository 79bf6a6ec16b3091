package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/langassess/langassess/internal/assessment"
	"github.com/langassess/langassess/internal/auth"
	"github.com/langassess/langassess/internal/kvstore"
)

func cmdLogin(ctx context.Context, a *app, args []string) error {
	var email, password string
	if err := parseFlags("login", args, func(fs *flag.FlagSet) {
		fs.StringVar(&email, "email", "", "account email")
		fs.StringVar(&password, "password", "", "account password")
	}, "email", "password"); err != nil {
		return err
	}
	t, err := a.api.Auth().Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := auth.SaveTokens(ctx, a.store, t.AccessToken, t.RefreshToken); err != nil {
		return err
	}
	if t.User != nil {
		fmt.Fprintf(a.stdout, "Logged in as %s (%s).\n", t.User.Email, t.User.Role)
	}
	return nil
}

// cmdLogout drops local credentials and any unsubmitted progress even when
// the server call fails.
func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.api.Auth().Logout(ctx); err != nil {
		a.log.Printf("server logout: %v", err)
	}
	if err := kvstore.Clear(ctx, a.store, assessment.ProgressKeys()...); err != nil {
		return err
	}
	if err := auth.ClearTokens(ctx, a.store); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Logged out.")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	c, err := auth.Current(ctx, a.store)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s (%s), token expires %s\n", c.Email, c.Role, c.Expiry().Local().Format("2006-01-02 15:04"))
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	var name, email, password string
	if err := parseFlags("register", args, func(fs *flag.FlagSet) {
		fs.StringVar(&name, "name", "", "display name")
		fs.StringVar(&email, "email", "", "account email")
		fs.StringVar(&password, "password", "", "account password")
	}, "name", "email", "password"); err != nil {
		return err
	}
	return printMessage(a)(a.api.Auth().Register(ctx, name, email, password))
}

func cmdVerify(ctx context.Context, a *app, args []string) error {
	var email, otp string
	if err := parseFlags("verify", args, func(fs *flag.FlagSet) {
		fs.StringVar(&email, "email", "", "account email")
		fs.StringVar(&otp, "otp", "", "one-time code")
	}, "email", "otp"); err != nil {
		return err
	}
	return printMessage(a)(a.api.Auth().VerifyOTP(ctx, email, otp))
}

func cmdResendOTP(ctx context.Context, a *app, args []string) error {
	var email string
	if err := parseFlags("resend-otp", args, func(fs *flag.FlagSet) {
		fs.StringVar(&email, "email", "", "account email")
	}, "email"); err != nil {
		return err
	}
	return printMessage(a)(a.api.Auth().ResendOTP(ctx, email))
}

func cmdForgot(ctx context.Context, a *app, args []string) error {
	var email string
	if err := parseFlags("forgot", args, func(fs *flag.FlagSet) {
		fs.StringVar(&email, "email", "", "account email")
	}, "email"); err != nil {
		return err
	}
	return printMessage(a)(a.api.Auth().ForgotPassword(ctx, email))
}

func cmdReset(ctx context.Context, a *app, args []string) error {
	var token, user, password string
	if err := parseFlags("reset", args, func(fs *flag.FlagSet) {
		fs.StringVar(&token, "token", "", "reset token from the email")
		fs.StringVar(&user, "user", "", "user id from the email")
		fs.StringVar(&password, "password", "", "new password")
	}, "token", "user", "password"); err != nil {
		return err
	}
	return printMessage(a)(a.api.Auth().ResetPassword(ctx, token, user, password))
}

func cmdPasswd(ctx context.Context, a *app, args []string) error {
	var current, next string
	if err := parseFlags("passwd", args, func(fs *flag.FlagSet) {
		fs.StringVar(&current, "current", "", "current password")
		fs.StringVar(&next, "new", "", "new password")
	}, "current", "new"); err != nil {
		return err
	}
	return printMessage(a)(a.api.Auth().ChangePassword(ctx, current, next))
}

func printMessage(a *app) func(string, error) error {
	return func(msg string, err error) error {
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, msg)
		return nil
	}
}
