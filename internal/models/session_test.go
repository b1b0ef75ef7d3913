package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSession_Validate(t *testing.T) {
	t.Run("accepts guest session", func(t *testing.T) {
		require.NoError(t, NewGuestSession(testNow).Validate())
	})

	t.Run("accepts user session", func(t *testing.T) {
		s := NewUserSession(testNow, User{ID: "user:jane", Username: "jane"})
		require.NoError(t, s.Validate())
	})

	tests := []struct {
		name    string
		session Session
	}{
		{
			name:    "unknown type",
			session: Session{Type: "admin", CreatedAt: testNow, ViewedPropertyIDs: []string{}},
		},
		{
			name:    "missing type",
			session: Session{CreatedAt: testNow, ViewedPropertyIDs: []string{}},
		},
		{
			name:    "zero created at",
			session: Session{Type: SessionTypeGuest, ViewedPropertyIDs: []string{}},
		},
		{
			name:    "user variant without user",
			session: Session{Type: SessionTypeUser, CreatedAt: testNow, ViewedPropertyIDs: []string{}},
		},
		{
			name: "guest variant with user",
			session: Session{
				Type:              SessionTypeGuest,
				CreatedAt:         testNow,
				User:              &User{ID: "user:jane", Username: "jane"},
				ViewedPropertyIDs: []string{},
			},
		},
		{
			name: "user without username",
			session: Session{
				Type:              SessionTypeUser,
				CreatedAt:         testNow,
				User:              &User{ID: "user:jane"},
				ViewedPropertyIDs: []string{},
			},
		},
		{
			name:    "nil viewed list",
			session: Session{Type: SessionTypeGuest, CreatedAt: testNow},
		},
		{
			name:    "duplicate viewed ids",
			session: Session{Type: SessionTypeGuest, CreatedAt: testNow, ViewedPropertyIDs: []string{"p1", "p1"}},
		},
		{
			name:    "empty viewed id",
			session: Session{Type: SessionTypeGuest, CreatedAt: testNow, ViewedPropertyIDs: []string{""}},
		},
	}

	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			assert.Error(t, tt.session.Validate())
		})
	}
}

func TestSession_JSONLayout(t *testing.T) {
	t.Run("guest omits user", func(t *testing.T) {
		data, err := json.Marshal(NewGuestSession(testNow))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"guest","createdAt":"2024-01-01T00:00:00Z","viewedPropertyIds":[]}`, string(data))
	})

	t.Run("user carries identity", func(t *testing.T) {
		s := NewUserSession(testNow, User{ID: "user:jane", Username: "jane"})
		s.ViewedPropertyIDs = append(s.ViewedPropertyIDs, "p1")

		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"type":"user",
			"createdAt":"2024-01-01T00:00:00Z",
			"user":{"id":"user:jane","username":"jane"},
			"viewedPropertyIds":["p1"]
		}`, string(data))
	})
}

func TestSession_Clone(t *testing.T) {
	s := NewUserSession(testNow, User{ID: "user:jane", Username: "jane"})
	s.ViewedPropertyIDs = append(s.ViewedPropertyIDs, "p1")

	clone := s.Clone()
	clone.User.Username = "changed"
	clone.ViewedPropertyIDs[0] = "p2"

	assert.Equal(t, "jane", s.User.Username)
	assert.Equal(t, []string{"p1"}, s.ViewedPropertyIDs)
	assert.True(t, s.HasViewed("p1"))
	assert.False(t, s.HasViewed("p2"))
}

func TestPropertyBrief_MonthlyTotal(t *testing.T) {
	brief := PropertyBrief{
		EstimatedMonthlyCosts: []BriefMoneyLine{
			{Label: "Principal & interest", Monthly: 2100},
			{Label: "Property tax", Monthly: 450},
			{Label: "Insurance", Monthly: 120},
		},
	}
	assert.Equal(t, int64(2670), brief.MonthlyTotal())
	assert.Zero(t, (&PropertyBrief{}).MonthlyTotal())
}

func TestConfidence_IsValid(t *testing.T) {
	assert.True(t, ConfidenceHigh.IsValid())
	assert.True(t, ConfidenceLow.IsValid())
	assert.False(t, Confidence("certain").IsValid())
}
