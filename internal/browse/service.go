// Package browse implements the visitor flows: signing in, entering as a
// guest, listing properties and opening one property with its brief.
package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/homebrief/internal/client"
	"github.com/wolfeidau/homebrief/internal/models"
	"github.com/wolfeidau/homebrief/internal/session"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoSession is returned by flows that need a visitor to be signed in or entered as a guest.
	ErrNoSession = errors.New("no active session")

	// ErrMissingCredentials is returned when the username or password is blank.
	ErrMissingCredentials = errors.New("username and password are required")

	// ErrLoginFailed is returned when the backend rejects the credentials.
	ErrLoginFailed = errors.New("login failed")
)

// Backend is the subset of the listing API the flows need.
type Backend interface {
	Login(ctx context.Context, username, password string) (*client.LoginResult, error)
	ListProperties(ctx context.Context) ([]models.PropertySummary, error)
	GetProperty(ctx context.Context, propertyID string) (*models.PropertySummary, error)
	GetPropertyBrief(ctx context.Context, propertyID string) (*models.PropertyBrief, error)
}

// LoginResult describes the session after a login attempt.
type LoginResult struct {
	Session         *models.Session
	AlreadySignedIn bool
}

// PropertyView is a listing together with its brief.
type PropertyView struct {
	Property *models.PropertySummary
	Brief    *models.PropertyBrief
}

// Service runs the visitor flows against a backend and the session store.
type Service struct {
	api      Backend
	sessions *session.Store
	clock    func() time.Time
}

// NewService creates a Service. A nil clock uses time.Now.
func NewService(api Backend, sessions *session.Store, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{api: api, sessions: sessions, clock: clock}
}

// Login signs in with the backend and starts a user session.
// An existing session is returned untouched.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	current, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return &LoginResult{Session: current, AlreadySignedIn: true}, nil
	}

	// Only the username is trimmed; the password is sent as typed
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, ErrMissingCredentials
	}

	result, err := s.api.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if !result.OK || result.User == nil {
		return nil, ErrLoginFailed
	}

	sess := models.NewUserSession(s.clock(), *result.User)
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}

	log.Info().Str("username", sess.User.Username).Msg("signed in")

	return &LoginResult{Session: sess}, nil
}

// ContinueAsGuest starts a fresh guest session, replacing whatever was stored.
func (s *Service) ContinueAsGuest(ctx context.Context) (*models.Session, error) {
	sess := models.NewGuestSession(s.clock())
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Logout ends the session.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

// Current returns the active session or ErrNoSession.
func (s *Service) Current(ctx context.Context) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Welcome returns the greeting shown to the visitor.
func (s *Service) Welcome(ctx context.Context) (string, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	return Greeting(sess), nil
}

// Greeting names the visitor, falling back to "guest".
func Greeting(sess *models.Session) string {
	if sess.Type == models.SessionTypeUser && sess.User != nil {
		return "Welcome " + sess.User.Username
	}
	return "Welcome guest"
}

// Properties lists every property.
func (s *Service) Properties(ctx context.Context) ([]models.PropertySummary, error) {
	if _, err := s.Current(ctx); err != nil {
		return nil, err
	}
	return s.api.ListProperties(ctx)
}

// ViewProperty loads a property and its brief, then records the view.
// Nothing is recorded if either lookup fails.
func (s *Service) ViewProperty(ctx context.Context, propertyID string) (*PropertyView, error) {
	if _, err := s.Current(ctx); err != nil {
		return nil, err
	}
	if propertyID == "" {
		return nil, client.ErrInvalidPropertyID
	}

	view := &PropertyView{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		property, err := s.api.GetProperty(gctx, propertyID)
		if err != nil {
			return err
		}
		view.Property = property
		return nil
	})
	g.Go(func() error {
		brief, err := s.api.GetPropertyBrief(gctx, propertyID)
		if err != nil {
			return err
		}
		view.Brief = brief
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.sessions.AddViewedPropertyID(ctx, propertyID); err != nil {
		return nil, fmt.Errorf("failed to record view: %w", err)
	}

	return view, nil
}

// History returns the viewed property ids, oldest first.
func (s *Service) History(ctx context.Context) ([]string, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return sess.ViewedPropertyIDs, nil
}
