package bulk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gitfleet/gitfleet/internal/githubapi"
)

const (
	outcomeLineTemplateConstant           = "%s: %s.\n"
	issueCreatedDetailConstant            = "issue created successfully"
	issuesDisabledMessageConstant         = "Issues are disabled for this repo"
	issuesDisabledHintSuffixConstant      = ". It may be a fork"
	pullRequestCreatedDetailConstant      = "PR created successfully"
	pullRequestMergedDetailConstant       = "PR merged successfully"
	pullRequestNotMergeableDetailConstant = "PR not mergeable, GitHub checks may be running"
	noOpenPullRequestTemplateConstant     = "no open PR found for %s:%s"
	branchDeletedDetailConstant           = "branch deleted successfully"
	closingReferencesTemplateConstant     = "%s\n\nCloses %s"
	closingReferenceTokenTemplateConstant = "#%d"
	invalidFieldTemplateConstant          = "Invalid field %s"
	detailSeparatorConstant               = ". "
	qualifiedHeadTemplateConstant         = "%s:%s"
	missingOperationsMessageConstant      = "bulk service requires github operations"
	missingReporterMessageConstant        = "bulk service requires a reporter"
	missingTitleMessageConstant           = "title must not be empty"
	missingBranchMessageConstant          = "branch must not be empty"
	missingBaseBranchMessageConstant      = "base branch must not be empty"
	outcomeLogMessageConstant             = "repository outcome"
	labelAttachWarningMessageConstant     = "unable to attach label"
	branchCleanupWarningMessageConstant   = "unable to delete merged branch"
	logFieldRepositoryConstant            = "repository"
	logFieldSuccessConstant               = "success"
	logFieldLabelConstant                 = "label"
)

// Validation errors shared by the bulk operations.
var (
	ErrOperationsNotConfigured = errors.New(missingOperationsMessageConstant)
	ErrReporterNotConfigured   = errors.New(missingReporterMessageConstant)
	ErrMissingTitle            = errors.New(missingTitleMessageConstant)
	ErrMissingBranch           = errors.New(missingBranchMessageConstant)
	ErrMissingBaseBranch       = errors.New(missingBaseBranchMessageConstant)
)

// GitHubOperations is the per-repository surface the runner drives. The
// production implementation is githubapi.Client; tests substitute fakes.
type GitHubOperations interface {
	CreateIssue(executionContext context.Context, repository string, title string, body string, labels []string) error
	ListOpenIssues(executionContext context.Context, repository string) ([]githubapi.IssueSummary, error)
	CreatePullRequest(executionContext context.Context, repository string, request githubapi.PullRequestRequest) (int, error)
	AddLabelToPullRequest(executionContext context.Context, repository string, number int, label string) error
	ListOpenPullRequests(executionContext context.Context, repository string, base string, qualifiedHead string) ([]githubapi.PullRequestSummary, error)
	MergePullRequest(executionContext context.Context, repository string, number int) error
	DeleteBranch(executionContext context.Context, repository string, branch string) error
}

// Outcome records the result of one operation attempt against one repository.
type Outcome struct {
	Repository string
	Success    bool
	Detail     string
}

// Service applies operation descriptors to every target repository in list
// order. Each attempt happens exactly once; remote failures are converted to
// failure outcomes and never abort the batch. The one exception is an
// unreachable host, which aborts immediately with the outcomes collected so
// far.
type Service struct {
	logger     *zap.Logger
	operations GitHubOperations
	reporter   Reporter
}

// NewService validates collaborators and constructs the batch runner.
func NewService(logger *zap.Logger, operations GitHubOperations, reporter Reporter) (*Service, error) {
	if operations == nil {
		return nil, ErrOperationsNotConfigured
	}
	if reporter == nil {
		return nil, ErrReporterNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{logger: logger, operations: operations, reporter: reporter}, nil
}

// CreateIssues opens the described issue on every repository.
func (service *Service) CreateIssues(executionContext context.Context, descriptor Issue, repositories []string) ([]Outcome, error) {
	if len(strings.TrimSpace(descriptor.Title)) == 0 {
		return nil, ErrMissingTitle
	}

	outcomes := make([]Outcome, 0, len(repositories))
	for _, repository := range repositories {
		creationError := service.operations.CreateIssue(executionContext, repository, descriptor.Title, descriptor.Body, descriptor.Labels)
		if creationError == nil {
			outcomes = append(outcomes, service.recordOutcome(repository, true, issueCreatedDetailConstant))
			continue
		}
		if isConnectivityFailure(creationError) {
			return outcomes, creationError
		}

		detail := failureDetail(creationError)
		if detail == issuesDisabledMessageConstant {
			detail += issuesDisabledHintSuffixConstant
		}
		outcomes = append(outcomes, service.recordOutcome(repository, false, detail))
	}

	return outcomes, nil
}

// CreatePullRequests opens the described pull request on every repository,
// optionally composing closing references from open issues whose titles
// contain the configured link substring.
func (service *Service) CreatePullRequests(executionContext context.Context, descriptor PullRequest, repositories []string) ([]Outcome, error) {
	if len(strings.TrimSpace(descriptor.Title)) == 0 {
		return nil, ErrMissingTitle
	}

	outcomes := make([]Outcome, 0, len(repositories))
	for _, repository := range repositories {
		outcome, fatalError := service.createSinglePullRequest(executionContext, descriptor, repository)
		if fatalError != nil {
			return outcomes, fatalError
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

func (service *Service) createSinglePullRequest(executionContext context.Context, descriptor PullRequest, repository string) (Outcome, error) {
	body := descriptor.Body
	labelSet := map[string]struct{}{}
	for _, label := range descriptor.Labels {
		labelSet[label] = struct{}{}
	}

	if descriptor.Confirmation {
		openIssues, listError := service.operations.ListOpenIssues(executionContext, repository)
		if listError != nil {
			if isConnectivityFailure(listError) {
				return Outcome{}, listError
			}
			return service.recordOutcome(repository, false, failureDetail(listError)), nil
		}

		closingReferences := []string{}
		for _, openIssue := range openIssues {
			if !strings.Contains(openIssue.Title, descriptor.Link) {
				continue
			}
			closingReferences = append(closingReferences, fmt.Sprintf(closingReferenceTokenTemplateConstant, openIssue.Number))
			if descriptor.InheritLabels {
				for _, issueLabel := range openIssue.Labels {
					labelSet[issueLabel] = struct{}{}
				}
			}
		}

		if len(closingReferences) > 0 {
			body = fmt.Sprintf(closingReferencesTemplateConstant, body, strings.Join(closingReferences, " "))
		}
	}

	pullRequestNumber, creationError := service.operations.CreatePullRequest(executionContext, repository, githubapi.PullRequestRequest{
		Title: descriptor.Title,
		Body:  body,
		Head:  descriptor.Head,
		Base:  descriptor.Base,
		Draft: descriptor.Draft,
	})
	if creationError != nil {
		if isConnectivityFailure(creationError) {
			return Outcome{}, creationError
		}
		return service.recordOutcome(repository, false, pullRequestFailureDetail(creationError)), nil
	}

	// The labels endpoint accepts one label per call in this integration.
	for _, label := range sortedLabels(labelSet) {
		labelError := service.operations.AddLabelToPullRequest(executionContext, repository, pullRequestNumber, label)
		if labelError == nil {
			continue
		}
		if isConnectivityFailure(labelError) {
			return Outcome{}, labelError
		}
		service.logger.Warn(
			labelAttachWarningMessageConstant,
			zap.String(logFieldRepositoryConstant, repository),
			zap.String(logFieldLabelConstant, label),
			zap.Error(labelError),
		)
	}

	return service.recordOutcome(repository, true, pullRequestCreatedDetailConstant), nil
}

// MergePullRequests merges the single open pull request matching the
// descriptor's base and qualified head on every repository. Zero matches and
// more than one match are both reported as no-match: an ambiguous result
// never triggers a merge.
func (service *Service) MergePullRequests(executionContext context.Context, descriptor PullRequestMerge, repositories []string) ([]Outcome, error) {
	if len(strings.TrimSpace(descriptor.Head)) == 0 {
		return nil, ErrMissingBranch
	}
	if len(strings.TrimSpace(descriptor.Base)) == 0 {
		return nil, ErrMissingBaseBranch
	}

	qualifiedHead := fmt.Sprintf(qualifiedHeadTemplateConstant, descriptor.Prefix, descriptor.Head)
	noMatchDetail := fmt.Sprintf(noOpenPullRequestTemplateConstant, descriptor.Base, descriptor.Head)

	outcomes := make([]Outcome, 0, len(repositories))
	for _, repository := range repositories {
		matches, listError := service.operations.ListOpenPullRequests(executionContext, repository, descriptor.Base, qualifiedHead)
		if listError != nil {
			if isConnectivityFailure(listError) {
				return outcomes, listError
			}
			outcomes = append(outcomes, service.recordOutcome(repository, false, failureDetail(listError)))
			continue
		}

		if len(matches) != 1 {
			outcomes = append(outcomes, service.recordOutcome(repository, false, noMatchDetail))
			continue
		}

		match := matches[0]
		if !match.Mergeable {
			outcomes = append(outcomes, service.recordOutcome(repository, false, pullRequestNotMergeableDetailConstant))
			continue
		}

		mergeError := service.operations.MergePullRequest(executionContext, repository, match.Number)
		if mergeError != nil {
			if isConnectivityFailure(mergeError) {
				return outcomes, mergeError
			}
			outcomes = append(outcomes, service.recordOutcome(repository, false, failureDetail(mergeError)))
			continue
		}

		if descriptor.DeleteBranch {
			if deletionError := service.operations.DeleteBranch(executionContext, repository, descriptor.Head); deletionError != nil {
				if isConnectivityFailure(deletionError) {
					return outcomes, deletionError
				}
				service.logger.Warn(
					branchCleanupWarningMessageConstant,
					zap.String(logFieldRepositoryConstant, repository),
					zap.Error(deletionError),
				)
			}
		}

		outcomes = append(outcomes, service.recordOutcome(repository, true, pullRequestMergedDetailConstant))
	}

	return outcomes, nil
}

// DeleteBranches removes the named branch from every repository.
func (service *Service) DeleteBranches(executionContext context.Context, branch string, repositories []string) ([]Outcome, error) {
	if len(strings.TrimSpace(branch)) == 0 {
		return nil, ErrMissingBranch
	}

	outcomes := make([]Outcome, 0, len(repositories))
	for _, repository := range repositories {
		deletionError := service.operations.DeleteBranch(executionContext, repository, branch)
		if deletionError == nil {
			outcomes = append(outcomes, service.recordOutcome(repository, true, branchDeletedDetailConstant))
			continue
		}
		if isConnectivityFailure(deletionError) {
			return outcomes, deletionError
		}
		outcomes = append(outcomes, service.recordOutcome(repository, false, failureDetail(deletionError)))
	}

	return outcomes, nil
}

func (service *Service) recordOutcome(repository string, success bool, detail string) Outcome {
	service.reporter.Printf(outcomeLineTemplateConstant, repository, detail)
	service.logger.Debug(
		outcomeLogMessageConstant,
		zap.String(logFieldRepositoryConstant, repository),
		zap.Bool(logFieldSuccessConstant, success),
	)

	return Outcome{Repository: repository, Success: success, Detail: detail}
}

// isConnectivityFailure reports whether the error means the host is
// unreachable. Connectivity failures abort the batch; every other remote
// failure stays a per-repository outcome.
func isConnectivityFailure(callError error) bool {
	var networkError *githubapi.NetworkError
	return errors.As(callError, &networkError)
}

// failureDetail renders the primary message of a classified remote failure.
func failureDetail(callError error) string {
	var remoteError *githubapi.RemoteError
	if errors.As(callError, &remoteError) {
		return remoteError.Message
	}
	return callError.Error()
}

// pullRequestFailureDetail aggregates the primary message with every
// field-level sub-error message, falling back to the field name when a
// sub-error carries no message.
func pullRequestFailureDetail(callError error) string {
	var remoteError *githubapi.RemoteError
	if !errors.As(callError, &remoteError) {
		return callError.Error()
	}

	detailParts := []string{remoteError.Message}
	for _, subError := range remoteError.SubErrors {
		if len(subError.Message) > 0 {
			detailParts = append(detailParts, subError.Message)
			continue
		}
		detailParts = append(detailParts, fmt.Sprintf(invalidFieldTemplateConstant, subError.Field))
	}

	return strings.Join(detailParts, detailSeparatorConstant)
}

func sortedLabels(labelSet map[string]struct{}) []string {
	labels := make([]string, 0, len(labelSet))
	for label := range labelSet {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
