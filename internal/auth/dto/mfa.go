package dto

type MfaSecretOutput struct {
	Secret        string `json:"secret"`
	EnrollmentURI string `json:"enrollmentUri"`
}

type MfaCodeInput struct {
	Token string `json:"token"`
}

type MfaVerifyOutput struct {
	Valid bool `json:"valid"`
}
