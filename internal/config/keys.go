package config

import (
	"net/url"
	"os"
)

// SecretSource represents where a secret setting comes from.
type SecretSource string

const (
	SourceEnv    SecretSource = "env"
	SourceConfig SecretSource = "config"
	SourceNone   SecretSource = "none"
)

// SecretStatus represents the status of a secret setting.
type SecretStatus struct {
	Name   string       `json:"name"`
	Source SecretSource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "tok...abc"
}

// CheckSecrets returns the status of every secret setting.
func CheckSecrets(cfg *Config) []SecretStatus {
	remote := checkSecret("Browser remote URL", cfg.Browser.RemoteURL, EnvPrefix+"_BROWSER_REMOTE_URL")
	if remote.IsSet {
		remote.Masked = maskURL(cfg.Browser.RemoteURL)
	}
	return []SecretStatus{
		remote,
		checkSecret("API token", cfg.API.Token, EnvPrefix+"_API_TOKEN"),
	}
}

// checkSecret checks if a value is set and where it came from.
func checkSecret(name, value, envVar string) SecretStatus {
	status := SecretStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		if os.Getenv(envVar) != "" {
			status.Source = SourceEnv
		} else {
			status.Source = SourceConfig
		}
		status.Masked = maskKey(value)
	} else {
		status.Source = SourceNone
	}

	return status
}

// maskKey masks a secret for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}

// maskURL keeps scheme and host of an endpoint and hides its path, query
// and credentials, where tokens usually live.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return maskKey(raw)
	}
	masked := u.Scheme + "://" + u.Host
	if u.User != nil || u.RawQuery != "" || (u.Path != "" && u.Path != "/") {
		masked += "/***"
	}
	return masked
}
