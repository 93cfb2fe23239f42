package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	NotifyConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetAPIURL() string
	GetDataFolder() string
	GetLogLevel() string
	GetLogFile() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type SessionConfig interface {
	GetTokenFileName() string
	GetLoginPath() string
	GetHomePath() string
}

type NotifyConfig interface {
	GetRateLimitMessage() string
	GetNotificationDuration() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	Session
	Notify
}

func New() Config {
	return mainConfig{}
}
