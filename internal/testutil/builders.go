// Package testutil provides testing utilities and helpers for the plaza API.
package testutil

import (
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
)

// ProfileBuilder provides a fluent interface for building profiles in tests.
type ProfileBuilder struct {
	p domainauth.Profile
}

// NewProfile returns a builder seeded with the default new-user profile.
func NewProfile(userID string) *ProfileBuilder {
	p := domainauth.DefaultProfile(userID, userID+"@example.com")
	p.CreatedAt = TestTime()
	p.UpdatedAt = TestTime()
	return &ProfileBuilder{p: p}
}

// WithRole sets the stored role string verbatim.
func (b *ProfileBuilder) WithRole(role string) *ProfileBuilder {
	b.p.Role = role
	return b
}

// WithDepartment sets the department and optional specialization.
func (b *ProfileBuilder) WithDepartment(dept string, spec *string) *ProfileBuilder {
	b.p.Department = &dept
	b.p.DepartmentSpecialization = spec
	return b
}

// WithStatus sets the approval status.
func (b *ProfileBuilder) WithStatus(s domainauth.ApprovalStatus) *ProfileBuilder {
	b.p.ApprovalStatus = &s
	return b
}

// Approved marks the profile approved.
func (b *ProfileBuilder) Approved() *ProfileBuilder {
	return b.WithStatus(domainauth.ApprovalApproved)
}

// Build returns the profile.
func (b *ProfileBuilder) Build() domainauth.Profile {
	return b.p
}

// SessionBuilder builds sessions anchored at TestTime.
type SessionBuilder struct {
	s domainauth.Session
}

// NewSession returns a builder for a one-hour session.
func NewSession(id, userID string) *SessionBuilder {
	return &SessionBuilder{s: domainauth.Session{
		ID:        id,
		UserID:    userID,
		Email:     userID + "@example.com",
		IssuedAt:  TestTime(),
		ExpiresAt: TestTime().Add(time.Hour),
	}}
}

// ExpiresAt overrides the expiry.
func (b *SessionBuilder) ExpiresAt(t time.Time) *SessionBuilder {
	b.s.ExpiresAt = t
	return b
}

// Build returns the session.
func (b *SessionBuilder) Build() domainauth.Session {
	return b.s
}
