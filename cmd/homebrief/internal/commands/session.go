package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfeidau/homebrief/internal/browse"
)

// LoginCmd signs in with the backend.
type LoginCmd struct {
	Username string `arg:"" help:"Username to sign in as"`
	Password string `help:"Password" env:"HOMEBRIEF_PASSWORD"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := setup(ctx, globals)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.svc.Login(ctx, l.Username, l.Password)
	if err != nil {
		if errors.Is(err, browse.ErrLoginFailed) {
			return errors.New("login failed: check the username and password")
		}
		return err
	}

	out := globals.out()
	if result.AlreadySignedIn {
		fmt.Fprintf(out, "Already signed in. %s\n", browse.Greeting(result.Session))
		fmt.Fprintln(out, "Run 'homebrief logout' to switch user.")
		return nil
	}

	fmt.Fprintln(out, browse.Greeting(result.Session))
	return nil
}

// GuestCmd starts a guest session.
type GuestCmd struct{}

func (g *GuestCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := setup(ctx, globals)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.svc.ContinueAsGuest(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(globals.out(), browse.Greeting(sess))
	return nil
}

// LogoutCmd ends the session.
type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := setup(ctx, globals)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.svc.Logout(ctx); err != nil {
		return err
	}

	fmt.Fprintln(globals.out(), "Signed out.")
	return nil
}

// WhoamiCmd prints the current session.
type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := setup(ctx, globals)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.svc.Current(ctx)
	if err != nil {
		return noSessionHint(err)
	}

	out := globals.out()
	fmt.Fprintln(out, browse.Greeting(sess))
	fmt.Fprintf(out, "  Session: %s\n", sess.Type)
	if sess.User != nil {
		fmt.Fprintf(out, "  User ID: %s\n", sess.User.ID)
	}
	fmt.Fprintf(out, "  Started: %s\n", sess.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(out, "  Viewed:  %d properties\n", len(sess.ViewedPropertyIDs))
	return nil
}

// noSessionHint turns ErrNoSession into a message naming the commands that start one.
func noSessionHint(err error) error {
	if errors.Is(err, browse.ErrNoSession) {
		return fmt.Errorf("%w: run 'homebrief login <username>' or 'homebrief guest' first", err)
	}
	return err
}
