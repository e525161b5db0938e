package bulk_test

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gitfleet/gitfleet/internal/bulk"
	"github.com/gitfleet/gitfleet/internal/githubapi"
)

const (
	firstRepositoryConstant    = "staticdev/first"
	secondRepositoryConstant   = "staticdev/second"
	thirdRepositoryConstant    = "staticdev/third"
	issueTitleConstant         = "my title"
	issueBodyConstant          = "my body"
	linkSubstringConstant      = "issue title"
	headBranchConstant         = "feature"
	baseBranchConstant         = "main"
	headPrefixConstant         = "staticdev"
	issuesDisabledTextConstant = "Issues are disabled for this repo"
	protectedBranchMessage     = "Cannot delete a branch protected by branch protection rules"
)

type issueCreationCall struct {
	repository string
	title      string
	body       string
	labels     []string
}

type pullRequestCreationCall struct {
	repository string
	request    githubapi.PullRequestRequest
}

type labelAttachmentCall struct {
	repository string
	number     int
	label      string
}

type fakeGitHubOperations struct {
	issueCreationErrors    map[string]error
	issueCreations         []issueCreationCall
	openIssues             map[string][]githubapi.IssueSummary
	openIssuesErrors       map[string]error
	pullRequestNumber      int
	pullRequestErrors      map[string]error
	pullRequestCreations   []pullRequestCreationCall
	labelAttachmentErrors  map[string]error
	labelAttachments       []labelAttachmentCall
	openPullRequests       map[string][]githubapi.PullRequestSummary
	openPullRequestsErrors map[string]error
	receivedHeadFilters    []string
	mergeErrors            map[string]error
	mergedPullRequests     []int
	branchDeletionErrors   map[string]error
	deletedBranches        []string
}

func (operations *fakeGitHubOperations) CreateIssue(_ context.Context, repository string, title string, body string, labels []string) error {
	operations.issueCreations = append(operations.issueCreations, issueCreationCall{repository: repository, title: title, body: body, labels: labels})
	return operations.issueCreationErrors[repository]
}

func (operations *fakeGitHubOperations) ListOpenIssues(_ context.Context, repository string) ([]githubapi.IssueSummary, error) {
	if listError := operations.openIssuesErrors[repository]; listError != nil {
		return nil, listError
	}
	return operations.openIssues[repository], nil
}

func (operations *fakeGitHubOperations) CreatePullRequest(_ context.Context, repository string, request githubapi.PullRequestRequest) (int, error) {
	operations.pullRequestCreations = append(operations.pullRequestCreations, pullRequestCreationCall{repository: repository, request: request})
	if creationError := operations.pullRequestErrors[repository]; creationError != nil {
		return 0, creationError
	}
	return operations.pullRequestNumber, nil
}

func (operations *fakeGitHubOperations) AddLabelToPullRequest(_ context.Context, repository string, number int, label string) error {
	operations.labelAttachments = append(operations.labelAttachments, labelAttachmentCall{repository: repository, number: number, label: label})
	return operations.labelAttachmentErrors[label]
}

func (operations *fakeGitHubOperations) ListOpenPullRequests(_ context.Context, repository string, _ string, qualifiedHead string) ([]githubapi.PullRequestSummary, error) {
	operations.receivedHeadFilters = append(operations.receivedHeadFilters, qualifiedHead)
	if listError := operations.openPullRequestsErrors[repository]; listError != nil {
		return nil, listError
	}
	return operations.openPullRequests[repository], nil
}

func (operations *fakeGitHubOperations) MergePullRequest(_ context.Context, repository string, number int) error {
	if mergeError := operations.mergeErrors[repository]; mergeError != nil {
		return mergeError
	}
	operations.mergedPullRequests = append(operations.mergedPullRequests, number)
	return nil
}

func (operations *fakeGitHubOperations) DeleteBranch(_ context.Context, repository string, branch string) error {
	if deletionError := operations.branchDeletionErrors[repository]; deletionError != nil {
		return deletionError
	}
	operations.deletedBranches = append(operations.deletedBranches, repository+":"+branch)
	return nil
}

func newBulkService(testInstance *testing.T, operations bulk.GitHubOperations, output *bytes.Buffer) *bulk.Service {
	testInstance.Helper()

	service, creationError := bulk.NewService(zap.NewNop(), operations, bulk.NewWriterReporter(output))
	require.NoError(testInstance, creationError)
	return service
}

func TestNewServiceValidatesCollaborators(testInstance *testing.T) {
	_, missingOperationsError := bulk.NewService(zap.NewNop(), nil, bulk.NewWriterReporter(&bytes.Buffer{}))
	require.ErrorIs(testInstance, missingOperationsError, bulk.ErrOperationsNotConfigured)

	_, missingReporterError := bulk.NewService(zap.NewNop(), &fakeGitHubOperations{}, nil)
	require.ErrorIs(testInstance, missingReporterError, bulk.ErrReporterNotConfigured)
}

func TestCreateIssuesProducesOrderedOutcomes(testInstance *testing.T) {
	operations := &fakeGitHubOperations{
		issueCreationErrors: map[string]error{
			secondRepositoryConstant: &githubapi.RemoteError{Message: "Server Error"},
		},
	}
	output := &bytes.Buffer{}
	service := newBulkService(testInstance, operations, output)

	descriptor := bulk.Issue{Title: issueTitleConstant, Body: issueBodyConstant, Labels: []string{"bug"}}
	repositories := []string{firstRepositoryConstant, secondRepositoryConstant, thirdRepositoryConstant}

	outcomes, runError := service.CreateIssues(context.Background(), descriptor, repositories)
	require.NoError(testInstance, runError)
	require.Len(testInstance, outcomes, len(repositories))

	for outcomeIndex, outcome := range outcomes {
		require.Equal(testInstance, repositories[outcomeIndex], outcome.Repository)
	}
	require.True(testInstance, outcomes[0].Success)
	require.False(testInstance, outcomes[1].Success)
	require.Equal(testInstance, "Server Error", outcomes[1].Detail)
	require.True(testInstance, outcomes[2].Success)

	expectedOutput := firstRepositoryConstant + ": issue created successfully.\n" +
		secondRepositoryConstant + ": Server Error.\n" +
		thirdRepositoryConstant + ": issue created successfully.\n"
	require.Equal(testInstance, expectedOutput, output.String())
}

func TestCreateIssuesDisabledRepositoryHint(testInstance *testing.T) {
	operations := &fakeGitHubOperations{
		issueCreationErrors: map[string]error{
			firstRepositoryConstant: &githubapi.RemoteError{Message: issuesDisabledTextConstant},
		},
	}
	output := &bytes.Buffer{}
	service := newBulkService(testInstance, operations, output)

	outcomes, runError := service.CreateIssues(context.Background(), bulk.Issue{Title: issueTitleConstant}, []string{firstRepositoryConstant})
	require.NoError(testInstance, runError)
	require.Len(testInstance, outcomes, 1)
	require.Contains(testInstance, outcomes[0].Detail, "may be a fork")
	require.Equal(testInstance, firstRepositoryConstant+": "+issuesDisabledTextConstant+". It may be a fork.\n", output.String())
}

func TestCreateIssuesUnreachableHostAbortsBatch(testInstance *testing.T) {
	networkFailure := &githubapi.NetworkError{Cause: &url.Error{Op: "Post", URL: "https://api.github.com", Err: errors.New("no route to host")}}
	operations := &fakeGitHubOperations{
		issueCreationErrors: map[string]error{
			secondRepositoryConstant: networkFailure,
		},
	}
	output := &bytes.Buffer{}
	service := newBulkService(testInstance, operations, output)

	repositories := []string{firstRepositoryConstant, secondRepositoryConstant, thirdRepositoryConstant}

	outcomes, runError := service.CreateIssues(context.Background(), bulk.Issue{Title: issueTitleConstant}, repositories)
	require.ErrorIs(testInstance, runError, networkFailure)
	require.Len(testInstance, outcomes, 1)
	require.Equal(testInstance, firstRepositoryConstant+": issue created successfully.\n", output.String())
}

func TestCreateIssuesRequiresTitle(testInstance *testing.T) {
	service := newBulkService(testInstance, &fakeGitHubOperations{}, &bytes.Buffer{})

	_, runError := service.CreateIssues(context.Background(), bulk.Issue{Title: "  "}, []string{firstRepositoryConstant})
	require.ErrorIs(testInstance, runError, bulk.ErrMissingTitle)
}

func TestCreatePullRequestsComposesClosingReferences(testInstance *testing.T) {
	operations := &fakeGitHubOperations{
		pullRequestNumber: 42,
		openIssues: map[string][]githubapi.IssueSummary{
			firstRepositoryConstant: {
				{Number: 3, Title: "my issue title here", Labels: []string{"bug"}},
				{Number: 5, Title: "unrelated", Labels: []string{"question"}},
				{Number: 7, Title: "another issue title match", Labels: []string{"documentation"}},
			},
		},
	}
	output := &bytes.Buffer{}
	service := newBulkService(testInstance, operations, output)

	descriptor := bulk.PullRequest{
		Title:         issueTitleConstant,
		Body:          issueBodyConstant,
		Labels:        []string{"tests"},
		Link:          linkSubstringConstant,
		InheritLabels: true,
		Head:          headBranchConstant,
		Base:          baseBranchConstant,
		Confirmation:  true,
	}

	outcomes, runError := service.CreatePullRequests(context.Background(), descriptor, []string{firstRepositoryConstant})
	require.NoError(testInstance, runError)
	require.Len(testInstance, outcomes, 1)
	require.True(testInstance, outcomes[0].Success)

	require.Len(testInstance, operations.pullRequestCreations, 1)
	createdRequest := operations.pullRequestCreations[0].request
	require.True(testInstance, strings.HasSuffix(createdRequest.Body, "Closes #3 #7"))
	require.Equal(testInstance, issueBodyConstant+"\n\nCloses #3 #7", createdRequest.Body)
	require.Equal(testInstance, headBranchConstant, createdRequest.Head)
	require.Equal(testInstance, baseBranchConstant, createdRequest.Base)

	attachedLabels := make([]string, 0, len(operations.labelAttachments))
	for _, attachment := range operations.labelAttachments {
		require.Equal(testInstance, 42, attachment.number)
		attachedLabels = append(attachedLabels, attachment.label)
	}
	require.Equal(testInstance, []string{"bug", "documentation", "tests"}, attachedLabels)
}

func TestCreatePullRequestsWithoutConfirmationSkipsIssueLookup(testInstance *testing.T) {
	operations := &fakeGitHubOperations{
		pullRequestNumber: 9,
		openIssuesErrors: map[string]error{
			firstRepositoryConstant: &githubapi.RemoteError{Message: "should not be called"},
		},
	}
	service := newBulkService(testInstance, operations, &bytes.Buffer{})

	descriptor := bulk.PullRequest{Title: issueTitleConstant, Body: issueBodyConstant, Head: headBranchConstant, Base: baseBranchConstant}

	outcomes, runError := service.CreatePullRequests(context.Background(), descriptor, []string{firstRepositoryConstant})
	require.NoError(testInstance, runError)
	require.True(testInstance, outcomes[0].Success)
	require.Equal(testInstance, issueBodyConstant, operations.pullRequestCreations[0].request.Body)
}

func TestCreatePullRequestsAggregatesFieldErrors(testInstance *testing.T) {
	operations := &fakeGitHubOperations{
		pullRequestErrors: map[string]error{
			firstRepositoryConstant: &githubapi.RemoteError{
				Message: "Validation Failed",
				SubErrors: []githubapi.RemoteSubError{
					{Message: "No commits between main and feature"},
					{Field: "base"},
				},
			},
		},
	}
	output := &bytes.Buffer{}
	service := newBulkService(testInstance, operations, output)

	descriptor := bulk.PullRequest{Title: issueTitleConstant, Head: headBranchConstant, Base: baseBranchConstant}

	outcomes, runError := service.CreatePullRequests(context.Background(), descriptor, []string{firstRepositoryConstant})
	require.NoError(testInstance, runError)
	require.False(testInstance, outcomes[0].Success)
	require.Equal(testInstance, "Validation Failed. No commits between main and feature. Invalid field base", outcomes[0].Detail)
	require.Empty(testInstance, operations.labelAttachments)
}

func TestCreatePullRequestsLabelFailureIsWarningOnly(testInstance *testing.T) {
	operations := &fakeGitHubOperations{
		pullRequestNumber: 9,
		labelAttachmentErrors: map[string]error{
			"tests": &githubapi.RemoteError{Message: "Label does not exist"},
		},
	}

	observedCore, observedLogs := observer.New(zap.WarnLevel)
	service, creationError := bulk.NewService(zap.New(observedCore), operations, bulk.NewWriterReporter(&bytes.Buffer{}))
	require.NoError(testInstance, creationError)

	descriptor := bulk.PullRequest{Title: issueTitleConstant, Labels: []string{"tests"}, Head: headBranchConstant, Base: baseBranchConstant}

	outcomes, runError := service.CreatePullRequests(context.Background(), descriptor, []string{firstRepositoryConstant})
	require.NoError(testInstance, runError)
	require.Len(testInstance, outcomes, 1)
	require.True(testInstance, outcomes[0].Success)
	require.Equal(testInstance, "PR created successfully", outcomes[0].Detail)

	warningEntries := observedLogs.FilterMessage("unable to attach label").All()
	require.Len(testInstance, warningEntries, 1)
}

func TestMergePullRequestsMatching(testInstance *testing.T) {
	noMatchDetail := "no open PR found for " + baseBranchConstant + ":" + headBranchConstant

	testCases := []struct {
		name            string
		matches         []githubapi.PullRequestSummary
		expectedSuccess bool
		expectedDetail  string
		expectedMerges  []int
	}{
		{
			name:            "zero_matches_reports_no_open_pr",
			matches:         nil,
			expectedSuccess: false,
			expectedDetail:  noMatchDetail,
			expectedMerges:  nil,
		},
		{
			name:            "single_mergeable_match_merges",
			matches:         []githubapi.PullRequestSummary{{Number: 11, Mergeable: true}},
			expectedSuccess: true,
			expectedDetail:  "PR merged successfully",
			expectedMerges:  []int{11},
		},
		{
			name:            "single_unmergeable_match_reports_checks",
			matches:         []githubapi.PullRequestSummary{{Number: 11, Mergeable: false}},
			expectedSuccess: false,
			expectedDetail:  "PR not mergeable, GitHub checks may be running",
			expectedMerges:  nil,
		},
		{
			name: "multiple_matches_treated_as_no_match",
			matches: []githubapi.PullRequestSummary{
				{Number: 11, Mergeable: true},
				{Number: 12, Mergeable: true},
			},
			expectedSuccess: false,
			expectedDetail:  noMatchDetail,
			expectedMerges:  nil,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			operations := &fakeGitHubOperations{
				openPullRequests: map[string][]githubapi.PullRequestSummary{
					firstRepositoryConstant: testCase.matches,
				},
			}
			service := newBulkService(subtest, operations, &bytes.Buffer{})

			descriptor := bulk.PullRequestMerge{Base: baseBranchConstant, Head: headBranchConstant, Prefix: headPrefixConstant}

			outcomes, runError := service.MergePullRequests(context.Background(), descriptor, []string{firstRepositoryConstant})
			require.NoError(subtest, runError)
			require.Len(subtest, outcomes, 1)
			require.Equal(subtest, testCase.expectedSuccess, outcomes[0].Success)
			require.Equal(subtest, testCase.expectedDetail, outcomes[0].Detail)
			require.Equal(subtest, testCase.expectedMerges, operations.mergedPullRequests)
			require.Equal(subtest, []string{headPrefixConstant + ":" + headBranchConstant}, operations.receivedHeadFilters)
		})
	}
}

func TestMergePullRequestsDeletesHeadBranchWhenRequested(testInstance *testing.T) {
	operations := &fakeGitHubOperations{
		openPullRequests: map[string][]githubapi.PullRequestSummary{
			firstRepositoryConstant: {{Number: 11, Mergeable: true}},
		},
	}
	service := newBulkService(testInstance, operations, &bytes.Buffer{})

	descriptor := bulk.PullRequestMerge{Base: baseBranchConstant, Head: headBranchConstant, Prefix: headPrefixConstant, DeleteBranch: true}

	outcomes, runError := service.MergePullRequests(context.Background(), descriptor, []string{firstRepositoryConstant})
	require.NoError(testInstance, runError)
	require.True(testInstance, outcomes[0].Success)
	require.Equal(testInstance, []string{firstRepositoryConstant + ":" + headBranchConstant}, operations.deletedBranches)
}

func TestDeleteBranchesReportsVerbatimFailureAndContinues(testInstance *testing.T) {
	operations := &fakeGitHubOperations{
		branchDeletionErrors: map[string]error{
			firstRepositoryConstant: &githubapi.RemoteError{Message: protectedBranchMessage},
		},
	}
	output := &bytes.Buffer{}
	service := newBulkService(testInstance, operations, output)

	outcomes, runError := service.DeleteBranches(context.Background(), headBranchConstant, []string{firstRepositoryConstant, secondRepositoryConstant})
	require.NoError(testInstance, runError)
	require.Len(testInstance, outcomes, 2)
	require.False(testInstance, outcomes[0].Success)
	require.Equal(testInstance, protectedBranchMessage, outcomes[0].Detail)
	require.True(testInstance, outcomes[1].Success)

	expectedOutput := firstRepositoryConstant + ": " + protectedBranchMessage + ".\n" +
		secondRepositoryConstant + ": branch deleted successfully.\n"
	require.Equal(testInstance, expectedOutput, output.String())
}

func TestDeleteBranchesRequiresBranch(testInstance *testing.T) {
	service := newBulkService(testInstance, &fakeGitHubOperations{}, &bytes.Buffer{})

	_, runError := service.DeleteBranches(context.Background(), " ", []string{firstRepositoryConstant})
	require.ErrorIs(testInstance, runError, bulk.ErrMissingBranch)
}
