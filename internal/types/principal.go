package types

// Principal is the resolved identity associated with a request after
// session resolution. A zero UserID means the request is anonymous.
type Principal struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Roles    []string `json:"roles,omitempty"`
}

// Anonymous is the principal assigned to requests without a valid session.
var Anonymous = &Principal{}

// IsAnonymous reports whether the principal carries no authenticated user.
func (p *Principal) IsAnonymous() bool {
	return p == nil || p.UserID == ""
}

// HasRole reports whether the principal carries the named role claim.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
