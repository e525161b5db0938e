package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitfleet/gitfleet/internal/bulk"
)

const (
	mergePullRequestsCommandUseConstant   = "merge-prs"
	mergePullRequestsCommandShortConstant = "Merge the matching open pull request on every configured repository"
	mergePullRequestsCommandLongConstant  = "Merge-prs merges the single open pull request matching the base branch and prefixed head branch on each configured repository. Repositories with zero or multiple matches are reported and skipped."
)

// MergePullRequestsCommandBuilder assembles the bulk pull request merge command.
type MergePullRequestsCommandBuilder struct {
	LoggerProvider          LoggerProvider
	FleetConfigPathProvider FleetConfigPathProvider
	OperationsFactory       OperationsFactory
}

// Build constructs the Cobra command.
func (builder *MergePullRequestsCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, ErrLoggerProviderNotConfigured
	}
	if builder.FleetConfigPathProvider == nil {
		return nil, ErrFleetConfigPathProviderNotConfigured
	}

	var baseFlagValue string
	var headFlagValue string
	var prefixFlagValue string
	var deleteBranchFlagValue bool

	command := &cobra.Command{
		Use:   mergePullRequestsCommandUseConstant,
		Short: mergePullRequestsCommandShortConstant,
		Long:  mergePullRequestsCommandLongConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, bulk.PullRequestMerge{
				Base:         baseFlagValue,
				Head:         headFlagValue,
				Prefix:       prefixFlagValue,
				DeleteBranch: deleteBranchFlagValue,
			})
		},
	}

	command.Flags().StringVar(&baseFlagValue, flagBaseNameConstant, defaultBaseBranchConstant, flagBaseUsageConstant)
	command.Flags().StringVar(&headFlagValue, flagHeadNameConstant, "", flagHeadUsageConstant)
	command.Flags().StringVar(&prefixFlagValue, flagPrefixNameConstant, "", flagPrefixUsageConstant)
	command.Flags().BoolVar(&deleteBranchFlagValue, flagDeleteBranchNameConstant, false, flagDeleteBranchUsageConstant)

	return command, nil
}

func (builder *MergePullRequestsCommandBuilder) run(command *cobra.Command, descriptor bulk.PullRequestMerge) error {
	head, headPromptError := promptWhenBlank(command, descriptor.Head, promptHeadBranchConstant)
	if headPromptError != nil {
		return headPromptError
	}
	descriptor.Head = head

	base, basePromptError := promptWhenBlank(command, descriptor.Base, promptBaseBranchConstant)
	if basePromptError != nil {
		return basePromptError
	}
	descriptor.Base = base

	if len(strings.TrimSpace(descriptor.Prefix)) == 0 {
		prefix, prefixPromptError := promptWhenBlank(command, descriptor.Prefix, promptHeadPrefixConstant)
		if prefixPromptError != nil {
			return prefixPromptError
		}
		descriptor.Prefix = prefix
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

	_, executionError := dependencies.service.MergePullRequests(command.Context(), descriptor, dependencies.repositories)
	return executionError
}
