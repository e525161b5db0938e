package githubauth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitfleet/gitfleet/internal/githubauth"
)

func TestResolveTokenPrefersCLIToken(testInstance *testing.T) {
	testInstance.Setenv(githubauth.EnvGitHubCLIToken, "primary")
	testInstance.Setenv(githubauth.EnvGitHubToken, "secondary")
	testInstance.Setenv(githubauth.EnvGitHubAPIToken, "tertiary")

	token, found := githubauth.ResolveToken()

	require.True(testInstance, found)
	require.Equal(testInstance, "primary", token)
}

func TestResolveTokenSkipsBlankValues(testInstance *testing.T) {
	testInstance.Setenv(githubauth.EnvGitHubCLIToken, "   ")
	testInstance.Setenv(githubauth.EnvGitHubToken, "")
	testInstance.Setenv(githubauth.EnvGitHubAPIToken, "fallback")

	token, found := githubauth.ResolveToken()

	require.True(testInstance, found)
	require.Equal(testInstance, "fallback", token)
}

func TestResolveTokenReportsAbsence(testInstance *testing.T) {
	testInstance.Setenv(githubauth.EnvGitHubCLIToken, "")
	testInstance.Setenv(githubauth.EnvGitHubToken, "")
	testInstance.Setenv(githubauth.EnvGitHubAPIToken, " ")

	token, found := githubauth.ResolveToken()

	require.False(testInstance, found)
	require.Empty(testInstance, token)
}
