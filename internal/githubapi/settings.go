package githubapi

import (
	"errors"
	"strings"
)

const missingAccessTokenMessageConstant = "access token must not be empty"

// ErrMissingAccessToken indicates connection settings without a usable token.
var ErrMissingAccessToken = errors.New(missingAccessTokenMessageConstant)

// ConnectionSettings carries the credentials used to reach GitHub. An empty
// Hostname targets github.com; a non-empty value targets a GitHub Enterprise
// installation. The type is a plain value: two instances built from the same
// token and hostname compare equal.
type ConnectionSettings struct {
	AccessToken string
	Hostname    string
}

// NewConnectionSettings trims the provided values into a settings instance.
func NewConnectionSettings(accessToken string, hostname string) ConnectionSettings {
	return ConnectionSettings{
		AccessToken: strings.TrimSpace(accessToken),
		Hostname:    strings.TrimSpace(hostname),
	}
}

// Validate confirms the settings carry a non-empty access token.
func (settings ConnectionSettings) Validate() error {
	if len(strings.TrimSpace(settings.AccessToken)) == 0 {
		return ErrMissingAccessToken
	}
	return nil
}
