package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
)

// SessionType discriminates the two session variants.
type SessionType string

const (
	SessionTypeGuest SessionType = "guest" // Visitor without an authenticated identity
	SessionTypeUser  SessionType = "user"  // Visitor signed in through the backend
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// User is the authenticated identity returned by the backend login call.
type User struct {
	ID       string `json:"id" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// Session identifies the current visitor and the properties they have opened.
// It is persisted as a single JSON record; User is only present for the user variant.
type Session struct {
	Type              SessionType `json:"type" validate:"required,oneof=guest user"`
	CreatedAt         time.Time   `json:"createdAt" validate:"required"`
	User              *User       `json:"user,omitempty" validate:"required_if=Type user,excluded_if=Type guest"`
	ViewedPropertyIDs []string    `json:"viewedPropertyIds" validate:"required,unique,dive,required"`
}

// NewGuestSession returns a guest session with an empty viewing history.
func NewGuestSession(now time.Time) *Session {
	return &Session{
		Type:              SessionTypeGuest,
		CreatedAt:         now.UTC(),
		ViewedPropertyIDs: []string{},
	}
}

// NewUserSession returns a session for an authenticated user with an empty viewing history.
func NewUserSession(now time.Time, user User) *Session {
	return &Session{
		Type:              SessionTypeUser,
		CreatedAt:         now.UTC(),
		User:              &user,
		ViewedPropertyIDs: []string{},
	}
}

// IsGuest returns true for the guest variant.
func (s *Session) IsGuest() bool {
	return s.Type == SessionTypeGuest
}

// HasViewed reports whether the property id is already in the history.
func (s *Session) HasViewed(propertyID string) bool {
	return slices.Contains(s.ViewedPropertyIDs, propertyID)
}

// Clone returns a deep copy so callers can't mutate a shared record.
func (s *Session) Clone() *Session {
	clone := *s
	if s.User != nil {
		user := *s.User
		clone.User = &user
	}
	if s.ViewedPropertyIDs != nil {
		clone.ViewedPropertyIDs = slices.Clone(s.ViewedPropertyIDs)
	}
	return &clone
}

// Validate checks the discriminant and the fields each variant requires.
func (s *Session) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("session %q: %w", s.Type, err)
	}
	return nil
}
