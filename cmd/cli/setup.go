package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitfleet/gitfleet/internal/config"
	"github.com/gitfleet/gitfleet/internal/setup"
)

const (
	setupCommandUseConstant         = "setup"
	setupCommandShortConstant       = "Configure the GitHub connection and select target repositories"
	setupCommandLongConstant        = "Setup prompts for a GitHub access token and optional Enterprise hostname, verifies the connection, and records the repositories every other command operates on. Passing --repos skips the interactive selection."
	setupReposFlagNameConstant      = "repos"
	setupReposFlagUsageConstant     = "Comma-separated owner/name identifiers to select without the interactive finder."
	repositoryListSeparatorConstant = ","
)

// SetupCommandBuilder assembles the interactive connection setup command.
type SetupCommandBuilder struct {
	LoggerProvider          LoggerProvider
	FleetConfigPathProvider FleetConfigPathProvider
	AccountClientFactory    AccountClientFactory
	Selector                setup.RepositorySelector
}

// Build constructs the Cobra command.
func (builder *SetupCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, ErrLoggerProviderNotConfigured
	}
	if builder.FleetConfigPathProvider == nil {
		return nil, ErrFleetConfigPathProviderNotConfigured
	}

	var reposFlagValue string

	command := &cobra.Command{
		Use:   setupCommandUseConstant,
		Short: setupCommandShortConstant,
		Long:  setupCommandLongConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, reposFlagValue)
		},
	}

	command.Flags().StringVar(&reposFlagValue, setupReposFlagNameConstant, "", setupReposFlagUsageConstant)

	return command, nil
}

func (builder *SetupCommandBuilder) run(command *cobra.Command, reposFlagValue string) error {
	accountClientFactory := builder.AccountClientFactory
	if accountClientFactory == nil {
		accountClientFactory = defaultAccountClientFactory
	}

	selector := builder.Selector
	if requestedRepositories := parseRepositoryList(reposFlagValue); len(requestedRepositories) > 0 {
		selector = setup.ListSelector{Repositories: requestedRepositories}
	}
	if selector == nil {
		selector = setup.FuzzyRepositorySelector{}
	}

	prompter := setup.NewIOPrompter(command.InOrStdin(), command.OutOrStdout())
	store := config.NewStore(builder.FleetConfigPathProvider())
	reporter := commandReporter{command: command}

	service, serviceError := setup.NewService(
		resolveLogger(builder.LoggerProvider),
		prompter,
		selector,
		store,
		setup.ClientFactory(accountClientFactory),
		reporter,
	)
	if serviceError != nil {
		return serviceError
	}

	return service.Run(command.Context())
}

func parseRepositoryList(rawRepositories string) []string {
	repositories := []string{}
	for _, token := range strings.Split(rawRepositories, repositoryListSeparatorConstant) {
		trimmedToken := strings.TrimSpace(token)
		if len(trimmedToken) == 0 {
			continue
		}
		repositories = append(repositories, trimmedToken)
	}
	return repositories
}

type commandReporter struct {
	command *cobra.Command
}

func (reporter commandReporter) Printf(format string, arguments ...any) {
	fmt.Fprintf(reporter.command.OutOrStdout(), format, arguments...)
}
