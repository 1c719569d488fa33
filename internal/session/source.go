package session

import (
	"time"

	"github.com/makhanda-smiles/portal-api/internal/model"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleAdmin
}

// Source is where a client's identity comes from: Real or Demo.
type Source interface {
	isSource()
}

// Real is a session issued by the authentication provider.
type Real struct {
	Session *model.AuthSession
}

// Demo is a local-only session that never contacts the provider.
type Demo struct {
	Role Role
}

func (Real) isSource() {}
func (Demo) isSource() {}

type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Demo     bool   `json:"demo"`
}

var (
	demoPatient = Identity{ID: "demo-patient-123", Email: "demo.patient@test.com", FullName: "Demo Patient", Demo: true}
	demoAdmin   = Identity{ID: "demo-admin-123", Email: "demo.admin@test.com", FullName: "Demo Admin", Demo: true}
)

// State is one client's view of the session.
type State struct {
	Source  Source
	IsAdmin bool
	Loading bool
}

// Identity returns the signed-in identity, or nil.
func (s State) Identity() *Identity {
	switch src := s.Source.(type) {
	case Real:
		if src.Session == nil {
			return nil
		}
		return &Identity{
			ID:       src.Session.User.ID,
			Email:    src.Session.User.Email,
			FullName: src.Session.User.FullName,
		}
	case Demo:
		id := demoPatient
		if src.Role == RoleAdmin {
			id = demoAdmin
		}
		return &id
	}
	return nil
}

// Verified reports whether the state comes from a provider-issued session.
func (s State) Verified() bool {
	real, ok := s.Source.(Real)
	return ok && real.Session != nil
}

// DemoMode reports whether the state comes from a Demo source.
func (s State) DemoMode() bool {
	_, ok := s.Source.(Demo)
	return ok
}

// View is the JSON form of a State.
type View struct {
	Authenticated bool       `json:"authenticated"`
	Loading       bool       `json:"loading"`
	IsAdmin       bool       `json:"is_admin"`
	DemoMode      bool       `json:"demo_mode"`
	DemoRole      Role       `json:"demo_role,omitempty"`
	User          *Identity  `json:"user"`
	AccessToken   string     `json:"access_token,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func (s State) View() View {
	v := View{
		Loading:  s.Loading,
		IsAdmin:  s.IsAdmin,
		DemoMode: s.DemoMode(),
		User:     s.Identity(),
	}
	v.Authenticated = v.User != nil
	switch src := s.Source.(type) {
	case Demo:
		v.DemoRole = src.Role
	case Real:
		if src.Session != nil {
			expiresAt := src.Session.ExpiresAt
			v.ExpiresAt = &expiresAt
			v.AccessToken = src.Session.AccessToken
		}
	}
	return v
}
