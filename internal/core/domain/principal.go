package domain

// Principal is the authenticated identity resolved for a single request.
type Principal struct {
	ExternalSubjectID string
	SessionID         string
	User              *User
}

// UserID returns the local user id, or "" when no user is attached.
func (p *Principal) UserID() string {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.ID
}
