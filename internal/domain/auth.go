package domain

// LoginRequest is the body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
	Admin       *Admin `json:"admin"`
}

// AuthSession is what the identity provider returns for a password grant.
type AuthSession struct {
	UserID      string
	Email       string
	AccessToken string
}

// AuthUser is a newly registered identity.
type AuthUser struct {
	ID    string
	Email string
}
