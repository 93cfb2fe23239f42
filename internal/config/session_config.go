package config

import "time"

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetTokenFileName() string {
	return "tokens.json"
}

func (Session) GetLoginPath() string {
	return "/login"
}

func (Session) GetHomePath() string {
	return "/"
}

type Notify struct{}

var _ NotifyConfig = Notify{}

// GetRateLimitMessage replaces the server's 429 text when set. Empty shows the server's message.
func (Notify) GetRateLimitMessage() string {
	return GetEnv("RATE_LIMIT_MESSAGE", "")
}

func (Notify) GetNotificationDuration() time.Duration {
	return 5 * time.Second
}
