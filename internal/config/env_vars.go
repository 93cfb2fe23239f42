package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	folderEnvVar   = "FOLDER"
	apiURLVar      = "API_URL"
	logLevelEnvVar = "LOG_LEVEL"
	logFileEnvVar  = "LOG_FILE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "5173")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Art Studio")
}

// GetAPIURL returns the base URL of the remote studio API (e.g., "https://api.example.com/api").
// Every endpoint path is appended to it verbatim.
func (EnvVars) GetAPIURL() string {
	return strings.TrimRight(GetEnv(apiURLVar, "http://localhost:5001/api"), "/")
}

// GetDataFolder is where the durable token file lives.
func (EnvVars) GetDataFolder() string {
	if folder := os.Getenv(folderEnvVar); folder != "" {
		return folder
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.studio"
	}
	return home + string(os.PathSeparator) + ".studio"
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, "info")
}

func (EnvVars) GetLogFile() string {
	return GetEnv(logFileEnvVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
