package auth

// AuthState is the published answer to "who is signed in and what can they do".
// It is a value; holders never share the maps or pointers with the writer.
type AuthState struct {
	Session                  *Session
	User                     *User
	UserRole                 *string
	UserDepartment           *string
	DepartmentSpecialization *string
	ApprovalStatus           *ApprovalStatus
	Flags                    RoleFlags
	Permissions              map[string]bool
	IsLoading                bool
}

// AnonymousState is the resolved signed-out state.
func AnonymousState() AuthState {
	return AuthState{Permissions: map[string]bool{}}
}

// LoadingState is the state before resolution completes.
func LoadingState() AuthState {
	return AuthState{Permissions: map[string]bool{}, IsLoading: true}
}

// StateForProfile builds the authenticated state for a session and its profile.
func StateForProfile(sess Session, p Profile) AuthState {
	role := p.Role
	status := p.EffectiveApprovalStatus()
	st := authenticated(sess)
	st.UserRole = &role
	st.UserDepartment = cloneString(p.Department)
	st.DepartmentSpecialization = cloneString(p.DepartmentSpecialization)
	st.ApprovalStatus = &status
	st.Flags = FlagsFor(ParseRole(role))
	st.Permissions = PermissionMap(ParseRole(role))
	return st
}

// FallbackState is what PolicyFailOpen publishes when the profile is unavailable.
func FallbackState(sess Session) AuthState {
	return StateForProfile(sess, DefaultProfile(sess.UserID, sess.Email))
}

// RolelessState is what PolicyFailClosed publishes when the profile is unavailable.
func RolelessState(sess Session) AuthState {
	return authenticated(sess)
}

func authenticated(sess Session) AuthState {
	s := sess
	u := UserOf(sess)
	return AuthState{
		Session:     &s,
		User:        &u,
		Permissions: map[string]bool{},
	}
}

// IsAuthenticated reports whether a user is present.
func (s AuthState) IsAuthenticated() bool { return s.User != nil }

// Role returns the parsed role, RoleUnknown when none is set.
func (s AuthState) Role() Role {
	if s.UserRole == nil {
		return RoleUnknown
	}
	return ParseRole(*s.UserRole)
}

// Can reports whether the published permissions grant c.
func (s AuthState) Can(c Capability) bool { return s.Permissions[string(c)] }

// IsApproved reports whether the user has completed onboarding.
func (s AuthState) IsApproved() bool {
	return s.ApprovalStatus != nil && *s.ApprovalStatus == ApprovalApproved
}

// Clone returns a deep copy safe to hand to readers.
func (s AuthState) Clone() AuthState {
	out := s
	if s.Session != nil {
		v := *s.Session
		out.Session = &v
	}
	if s.User != nil {
		v := *s.User
		out.User = &v
	}
	out.UserRole = cloneString(s.UserRole)
	out.UserDepartment = cloneString(s.UserDepartment)
	out.DepartmentSpecialization = cloneString(s.DepartmentSpecialization)
	if s.ApprovalStatus != nil {
		v := *s.ApprovalStatus
		out.ApprovalStatus = &v
	}
	out.Permissions = make(map[string]bool, len(s.Permissions))
	for k, v := range s.Permissions {
		out.Permissions[k] = v
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
