package model

import "time"

type TokenPair struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

func (t TokenPair) Empty() bool {
	return t.Access == ""
}

// Session is stored as a single value so tokens and the resolved user are
// always replaced or cleared together.
type Session struct {
	Tokens     TokenPair
	User       *User
	Remember   bool
	VerifiedAt time.Time
}

func (s *Session) Authenticated() bool {
	return s != nil && !s.Tokens.Empty() && s.User != nil
}

func (s *Session) Role() Role {
	if !s.Authenticated() {
		return RoleUnknown
	}
	return s.User.Role
}
