package cli

import (
	"github.com/spf13/cobra"

	"github.com/gitfleet/gitfleet/internal/bulk"
)

const (
	createIssuesCommandUseConstant   = "create-issues"
	createIssuesCommandShortConstant = "Create the same issue on every configured repository"
	createIssuesCommandLongConstant  = "Create-issues opens one issue per configured repository, reporting a per-repository outcome line. Repositories with issues disabled are reported and skipped without aborting the batch."
)

// CreateIssuesCommandBuilder assembles the bulk issue creation command.
type CreateIssuesCommandBuilder struct {
	LoggerProvider          LoggerProvider
	FleetConfigPathProvider FleetConfigPathProvider
	OperationsFactory       OperationsFactory
}

// Build constructs the Cobra command.
func (builder *CreateIssuesCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, ErrLoggerProviderNotConfigured
	}
	if builder.FleetConfigPathProvider == nil {
		return nil, ErrFleetConfigPathProviderNotConfigured
	}

	var titleFlagValue string
	var bodyFlagValue string
	var labelsFlagValue string

	command := &cobra.Command{
		Use:   createIssuesCommandUseConstant,
		Short: createIssuesCommandShortConstant,
		Long:  createIssuesCommandLongConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, titleFlagValue, bodyFlagValue, labelsFlagValue)
		},
	}

	command.Flags().StringVar(&titleFlagValue, flagTitleNameConstant, "", flagTitleUsageConstant)
	command.Flags().StringVar(&bodyFlagValue, flagBodyNameConstant, "", flagBodyUsageConstant)
	command.Flags().StringVar(&labelsFlagValue, flagLabelsNameConstant, "", flagLabelsUsageConstant)

	return command, nil
}

func (builder *CreateIssuesCommandBuilder) run(command *cobra.Command, titleFlagValue string, bodyFlagValue string, labelsFlagValue string) error {
	title, promptError := promptWhenBlank(command, titleFlagValue, promptIssueTitleConstant)
	if promptError != nil {
		return promptError
	}

	dependencies, resolutionError := resolveBatchDependencies(
		resolveLogger(builder.LoggerProvider),
		builder.FleetConfigPathProvider(),
		builder.OperationsFactory,
		command.OutOrStdout(),
	)
	if resolutionError != nil {
		return resolutionError
	}

	descriptor := bulk.Issue{
		Title:  title,
		Body:   bodyFlagValue,
		Labels: bulk.ParseLabelList(labelsFlagValue),
	}

	_, executionError := dependencies.service.CreateIssues(command.Context(), descriptor, dependencies.repositories)
	return executionError
}
