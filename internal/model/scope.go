package model

// Scope carries the identity of the acting user through the request path.
type Scope struct {
	UserID   string // stable user id, e.g. "telegram_123456"
	Username string // chat handle without the leading "@", may be empty
	ChatID   int64  // transport chat id for replies
}

// Environment is the deployment environment name.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentProduction  Environment = "production"
)
