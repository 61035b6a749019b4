package dto

type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type LogoutInput struct {
	RefreshToken string `json:"refreshToken"`
}
