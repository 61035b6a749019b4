package constant

const (
	DefaultAccessExpiryMin  = 15
	DefaultRefreshExpiryMin = 10080
	DefaultResetExpiryMin   = 60
	DefaultVerifyExpiryMin  = 1440

	DefaultLoginMaxAttempts   = 5
	DefaultLockoutDurationMin = 15

	PasswordMinLength = 8

	RefreshTokenBytes = 32
)
