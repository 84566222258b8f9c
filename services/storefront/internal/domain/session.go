package domain

// Session is the observable effect of authentication on the cart.
type Session struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	UserID          string `json:"userId,omitempty"`
	Token           string `json:"-"`
}

func Anonymous() Session {
	return Session{}
}

// SameIdentity ignores the token so that token rotation is not a transition.
func (s Session) SameIdentity(other Session) bool {
	return s.IsAuthenticated == other.IsAuthenticated && s.UserID == other.UserID
}

func (s Session) Mode() CartMode {
	if s.IsAuthenticated {
		return ModeRemote
	}
	return ModeLocal
}
