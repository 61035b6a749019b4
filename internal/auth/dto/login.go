package dto

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MfaToken string `json:"mfaToken,omitempty"`
}

// LoginOutput is the success payload. When RequiresMfa is set, no tokens are
// present and the caller must retry with an mfaToken.
type LoginOutput struct {
	AccessToken  string      `json:"accessToken,omitempty"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	User         *UserOutput `json:"user,omitempty"`
	RequiresMfa  bool        `json:"requiresMfa,omitempty"`
	UserID       string      `json:"userId,omitempty"`
}
