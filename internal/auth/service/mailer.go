package service

//go:generate mockgen -destination=../../mocks/mock_mailer.go -package=mocks github.com/razorvilla/calendar-app-sub001/internal/auth/service Mailer

// Mailer is the outbound notification collaborator. Calls are fire-and-forget
// from the auth flows' perspective: a send failure is logged, never returned
// to the caller.
type Mailer interface {
	SendVerificationEmail(to, token string) error
	SendPasswordResetEmail(to, token string) error
}
