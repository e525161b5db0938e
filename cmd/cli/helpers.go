package cli

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gitfleet/gitfleet/internal/bulk"
	"github.com/gitfleet/gitfleet/internal/config"
	"github.com/gitfleet/gitfleet/internal/githubapi"
	"github.com/gitfleet/gitfleet/internal/githubauth"
	"github.com/gitfleet/gitfleet/internal/setup"
)

const (
	missingAccessTokenMessageConstant  = "no GitHub access token configured; run \"gitfleet setup\" or export GITHUB_TOKEN"
	missingRepositoriesMessageConstant = "no repositories selected; run \"gitfleet setup\""
	batchPreparedMessageConstant       = "batch prepared"
	logFieldRepositoryCountFieldName   = "repository_count"
	logFieldHostnameFieldName          = "hostname"
	logFieldConfigurationPathFieldName = "configuration_path"
	promptIssueTitleConstant           = "Issue title: "
	promptPullRequestTitleConstant     = "Pull request title: "
	promptHeadBranchConstant           = "Head branch: "
	promptBaseBranchConstant           = "Base branch: "
	promptHeadPrefixConstant           = "Head prefix (account or org owning the head branch): "
	promptBranchNameConstant           = "Branch name: "
	flagTitleNameConstant              = "title"
	flagBodyNameConstant               = "body"
	flagLabelsNameConstant             = "labels"
	flagHeadNameConstant               = "head"
	flagBaseNameConstant               = "base"
	flagDraftNameConstant              = "draft"
	flagLinkNameConstant               = "link"
	flagInheritLabelsNameConstant      = "inherit-labels"
	flagPrefixNameConstant             = "prefix"
	flagDeleteBranchNameConstant       = "delete-branch"
	flagBranchNameConstant             = "branch"
	flagTitleUsageConstant             = "Title applied on every repository."
	flagBodyUsageConstant              = "Body text applied on every repository."
	flagLabelsUsageConstant            = "Comma-separated labels to attach."
	flagHeadUsageConstant              = "Branch carrying the changes."
	flagBaseUsageConstant              = "Branch the pull request targets."
	flagDraftUsageConstant             = "Open the pull request as a draft."
	flagLinkUsageConstant              = "Substring matched against open issue titles to compose closing references."
	flagInheritLabelsUsageConstant     = "Copy labels from linked issues onto the pull request."
	flagPrefixUsageConstant            = "Account or organization owning the head branch."
	flagDeleteBranchUsageConstant      = "Delete the head branch after a successful merge."
	flagBranchUsageConstant            = "Branch to delete on every repository."
	missingLoggerProviderMessage       = "command builder requires a logger provider"
	missingFleetConfigProviderMessage  = "command builder requires a fleet configuration path provider"
)

// Builder validation errors shared by the command builders.
var (
	ErrLoggerProviderNotConfigured          = errors.New(missingLoggerProviderMessage)
	ErrFleetConfigPathProviderNotConfigured = errors.New(missingFleetConfigProviderMessage)
)

// LoggerProvider supplies the structured logger resolved after configuration loading.
type LoggerProvider func() *zap.Logger

// FleetConfigPathProvider supplies the location of the persisted gitfleet configuration.
type FleetConfigPathProvider func() string

// OperationsFactory builds the per-repository operations surface for validated
// connection settings. Tests substitute fakes; the default builds a GitHub API client.
type OperationsFactory func(settings githubapi.ConnectionSettings) (bulk.GitHubOperations, error)

// AccountClientFactory builds the account surface exercised by the setup flow.
type AccountClientFactory func(settings githubapi.ConnectionSettings) (setup.AccountClient, error)

func defaultOperationsFactory(settings githubapi.ConnectionSettings) (bulk.GitHubOperations, error) {
	client, clientError := githubapi.NewClient(settings)
	if clientError != nil {
		return nil, clientError
	}
	return client, nil
}

func defaultAccountClientFactory(settings githubapi.ConnectionSettings) (setup.AccountClient, error) {
	client, clientError := githubapi.NewClient(settings)
	if clientError != nil {
		return nil, clientError
	}
	return client, nil
}

// batchDependencies bundles the collaborators a batch command needs at run time.
type batchDependencies struct {
	service       *bulk.Service
	configuration config.Configuration
	repositories  []string
}

// resolveBatchDependencies loads the persisted configuration, applies the
// environment token fallback, and wires the batch service against the
// command's output stream.
func resolveBatchDependencies(logger *zap.Logger, fleetConfigPath string, operationsFactory OperationsFactory, output io.Writer) (batchDependencies, error) {
	if operationsFactory == nil {
		operationsFactory = defaultOperationsFactory
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	store := config.NewStore(fleetConfigPath)
	configuration, loadError := store.Load()
	if loadError != nil {
		return batchDependencies{}, loadError
	}

	accessToken := strings.TrimSpace(configuration.AccessToken)
	if len(accessToken) == 0 {
		if environmentToken, tokenFound := githubauth.ResolveToken(); tokenFound {
			accessToken = environmentToken
		}
	}
	if len(accessToken) == 0 {
		return batchDependencies{}, errors.New(missingAccessTokenMessageConstant)
	}

	if len(configuration.SelectedRepositories) == 0 {
		return batchDependencies{}, errors.New(missingRepositoriesMessageConstant)
	}

	settings := githubapi.NewConnectionSettings(accessToken, configuration.Hostname)
	operations, factoryError := operationsFactory(settings)
	if factoryError != nil {
		return batchDependencies{}, factoryError
	}

	service, serviceError := bulk.NewService(logger, operations, bulk.NewWriterReporter(output))
	if serviceError != nil {
		return batchDependencies{}, serviceError
	}

	logger.Debug(
		batchPreparedMessageConstant,
		zap.Int(logFieldRepositoryCountFieldName, len(configuration.SelectedRepositories)),
		zap.String(logFieldHostnameFieldName, configuration.Hostname),
		zap.String(logFieldConfigurationPathFieldName, store.Path()),
	)

	return batchDependencies{
		service:       service,
		configuration: configuration,
		repositories:  configuration.SelectedRepositories,
	}, nil
}

// promptWhenBlank returns the flag value, prompting on the command's streams
// when the value is blank.
func promptWhenBlank(command *cobra.Command, flagValue string, prompt string) (string, error) {
	trimmedValue := strings.TrimSpace(flagValue)
	if len(trimmedValue) > 0 {
		return trimmedValue, nil
	}

	prompter := setup.NewIOPrompter(command.InOrStdin(), command.OutOrStdout())
	return prompter.PromptLine(prompt)
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	if logger := provider(); logger != nil {
		return logger
	}
	return zap.NewNop()
}
