// Package githubauth resolves the GitHub access token from the process
// environment when no token has been persisted by setup.
package githubauth

import (
	"os"
	"strings"
)

// Environment variables consulted for a GitHub access token, in order of
// preference.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

var tokenEnvironmentVariables = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// ResolveToken returns the first non-blank token found in the process
// environment, or false when none of the variables carries one.
func ResolveToken() (string, bool) {
	for _, variableName := range tokenEnvironmentVariables {
		tokenValue := strings.TrimSpace(os.Getenv(variableName))
		if len(tokenValue) > 0 {
			return tokenValue, true
		}
	}
	return "", false
}
