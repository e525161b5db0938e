package cli

import (
	"github.com/spf13/cobra"
)

const (
	deleteBranchesCommandUseConstant   = "delete-branches"
	deleteBranchesCommandShortConstant = "Delete the same branch on every configured repository"
	deleteBranchesCommandLongConstant  = "Delete-branches removes the named branch from each configured repository, reporting a per-repository outcome line."
)

// DeleteBranchesCommandBuilder assembles the bulk branch deletion command.
type DeleteBranchesCommandBuilder struct {
	LoggerProvider          LoggerProvider
	FleetConfigPathProvider FleetConfigPathProvider
	OperationsFactory       OperationsFactory
}

// Build constructs the Cobra command.
func (builder *DeleteBranchesCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, ErrLoggerProviderNotConfigured
	}
	if builder.FleetConfigPathProvider == nil {
		return nil, ErrFleetConfigPathProviderNotConfigured
	}

	var branchFlagValue string

	command := &cobra.Command{
		Use:   deleteBranchesCommandUseConstant,
		Short: deleteBranchesCommandShortConstant,
		Long:  deleteBranchesCommandLongConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, branchFlagValue)
		},
	}

	command.Flags().StringVar(&branchFlagValue, flagBranchNameConstant, "", flagBranchUsageConstant)

	return command, nil
}

func (builder *DeleteBranchesCommandBuilder) run(command *cobra.Command, branchFlagValue string) error {
	branch, promptError := promptWhenBlank(command, branchFlagValue, promptBranchNameConstant)
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

	_, executionError := dependencies.service.DeleteBranches(command.Context(), branch, dependencies.repositories)
	return executionError
}
