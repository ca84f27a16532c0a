package entity

// Session is the authenticated caller of a request.
type Session struct {
	UID     string
	Token   string
	Profile *Profile
}

func (s *Session) Role() Role {
	if s == nil || s.Profile == nil {
		return ""
	}
	return s.Profile.UserType
}

func (s *Session) DisplayName() string {
	if s == nil || s.Profile == nil {
		return ""
	}
	return s.Profile.DisplayName()
}

// AuthTokens are issued by a successful password sign-in.
type AuthTokens struct {
	UID          string `json:"uid"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
