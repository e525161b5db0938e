package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitfleet/gitfleet/internal/bulk"
)

const (
	createPullRequestsCommandUseConstant   = "create-prs"
	createPullRequestsCommandShortConstant = "Open the same pull request on every configured repository"
	createPullRequestsCommandLongConstant  = "Create-prs opens one pull request per configured repository. When --link is provided, open issues whose titles contain the link text are referenced in the body so the merge closes them, optionally inheriting their labels."
	defaultBaseBranchConstant              = "main"
)

// CreatePullRequestsCommandBuilder assembles the bulk pull request creation command.
type CreatePullRequestsCommandBuilder struct {
	LoggerProvider          LoggerProvider
	FleetConfigPathProvider FleetConfigPathProvider
	OperationsFactory       OperationsFactory
}

// Build constructs the Cobra command.
func (builder *CreatePullRequestsCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, ErrLoggerProviderNotConfigured
	}
	if builder.FleetConfigPathProvider == nil {
		return nil, ErrFleetConfigPathProviderNotConfigured
	}

	var titleFlagValue string
	var bodyFlagValue string
	var labelsFlagValue string
	var headFlagValue string
	var baseFlagValue string
	var draftFlagValue bool
	var linkFlagValue string
	var inheritLabelsFlagValue bool

	command := &cobra.Command{
		Use:   createPullRequestsCommandUseConstant,
		Short: createPullRequestsCommandShortConstant,
		Long:  createPullRequestsCommandLongConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, bulk.PullRequest{
				Title:         titleFlagValue,
				Body:          bodyFlagValue,
				Labels:        bulk.ParseLabelList(labelsFlagValue),
				Draft:         draftFlagValue,
				Link:          linkFlagValue,
				InheritLabels: inheritLabelsFlagValue,
				Head:          headFlagValue,
				Base:          baseFlagValue,
			})
		},
	}

	command.Flags().StringVar(&titleFlagValue, flagTitleNameConstant, "", flagTitleUsageConstant)
	command.Flags().StringVar(&bodyFlagValue, flagBodyNameConstant, "", flagBodyUsageConstant)
	command.Flags().StringVar(&labelsFlagValue, flagLabelsNameConstant, "", flagLabelsUsageConstant)
	command.Flags().StringVar(&headFlagValue, flagHeadNameConstant, "", flagHeadUsageConstant)
	command.Flags().StringVar(&baseFlagValue, flagBaseNameConstant, defaultBaseBranchConstant, flagBaseUsageConstant)
	command.Flags().BoolVar(&draftFlagValue, flagDraftNameConstant, false, flagDraftUsageConstant)
	command.Flags().StringVar(&linkFlagValue, flagLinkNameConstant, "", flagLinkUsageConstant)
	command.Flags().BoolVar(&inheritLabelsFlagValue, flagInheritLabelsNameConstant, false, flagInheritLabelsUsageConstant)

	return command, nil
}

func (builder *CreatePullRequestsCommandBuilder) run(command *cobra.Command, descriptor bulk.PullRequest) error {
	title, titlePromptError := promptWhenBlank(command, descriptor.Title, promptPullRequestTitleConstant)
	if titlePromptError != nil {
		return titlePromptError
	}
	descriptor.Title = title

	head, headPromptError := promptWhenBlank(command, descriptor.Head, promptHeadBranchConstant)
	if headPromptError != nil {
		return headPromptError
	}
	descriptor.Head = head

	descriptor.Confirmation = len(strings.TrimSpace(descriptor.Link)) > 0

	dependencies, resolutionError := resolveBatchDependencies(
		resolveLogger(builder.LoggerProvider),
		builder.FleetConfigPathProvider(),
		builder.OperationsFactory,
		command.OutOrStdout(),
	)
	if resolutionError != nil {
		return resolutionError
	}

	_, executionError := dependencies.service.CreatePullRequests(command.Context(), descriptor, dependencies.repositories)
	return executionError
}
