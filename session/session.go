package session

import (
	"encoding/json"
	"fmt"
)

// Session is the client-side authentication state for the current user.
// All three fields are set and cleared together: after a completed login
// there is never a token without a user snapshot, and after a logout or a
// failed refresh none of them remain.
type Session struct {
	AccessToken  string
	RefreshToken string

	// User is the profile snapshot returned by the login endpoint, kept
	// opaque beyond display use.
	User json.RawMessage
}

// Profile is the display subset of the user snapshot.
type Profile struct {
	ID    any    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile decodes the display fields from the stored user snapshot.
func (s *Session) Profile() (*Profile, error) {
	if len(s.User) == 0 {
		return nil, fmt.Errorf("session has no user snapshot")
	}
	var profile Profile
	if err := json.Unmarshal(s.User, &profile); err != nil {
		return nil, fmt.Errorf("decode user snapshot: %w", err)
	}
	return &profile, nil
}

// Credentials is the login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
