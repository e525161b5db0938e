package githubapi

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v68/github"
)

const (
	enterpriseBaseURLTemplateConstant   = "https://%s/api/v3/"
	enterpriseUploadURLTemplateConstant = "https://%s/api/uploads/"
	enterpriseURLErrorTemplateConstant  = "configuring enterprise endpoints: %w"
	invalidRepositoryTemplateConstant   = "invalid repository identifier %q: expected owner/name"
	branchReferenceTemplateConstant     = "heads/%s"
	openStateValueConstant              = "open"
	repositoryPageSizeConstant          = 100
)

// IssueSummary is the subset of an issue the batch runner inspects when
// composing closing references.
type IssueSummary struct {
	Number int
	Title  string
	Labels []string
}

// PullRequestRequest carries the fields of a pull-request creation call.
type PullRequestRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
	Draft bool
}

// PullRequestSummary describes one open pull request matched by base and
// head. Mergeable mirrors the remote-computed flag; it stays false while the
// remote is still computing mergeability.
type PullRequestSummary struct {
	Number    int
	Mergeable bool
}

// Client exposes the repository operations gitfleet applies in bulk. Every
// method classifies remote failures through ClassifyError before returning.
type Client struct {
	rest *gh.Client
}

// NewClient builds a Client for the provided connection settings. A non-empty
// hostname switches the REST endpoints to the enterprise installation.
func NewClient(settings ConnectionSettings) (*Client, error) {
	if validationError := settings.Validate(); validationError != nil {
		return nil, validationError
	}

	restClient := gh.NewClient(nil).WithAuthToken(settings.AccessToken)

	if len(settings.Hostname) > 0 {
		baseURL := fmt.Sprintf(enterpriseBaseURLTemplateConstant, settings.Hostname)
		uploadURL := fmt.Sprintf(enterpriseUploadURLTemplateConstant, settings.Hostname)

		enterpriseClient, enterpriseError := restClient.WithEnterpriseURLs(baseURL, uploadURL)
		if enterpriseError != nil {
			return nil, fmt.Errorf(enterpriseURLErrorTemplateConstant, enterpriseError)
		}
		restClient = enterpriseClient
	}

	return &Client{rest: restClient}, nil
}

// CurrentUserLogin resolves the username owning the access token.
func (client *Client) CurrentUserLogin(executionContext context.Context) (string, error) {
	authenticatedUser, _, lookupError := client.rest.Users.Get(executionContext, "")
	if lookupError != nil {
		return "", ClassifyError(lookupError)
	}
	return authenticatedUser.GetLogin(), nil
}

// ListRepositoryFullNames enumerates the full "owner/name" identifiers of
// every repository visible to the authenticated user.
func (client *Client) ListRepositoryFullNames(executionContext context.Context) ([]string, error) {
	listOptions := &gh.RepositoryListByAuthenticatedUserOptions{
		ListOptions: gh.ListOptions{PerPage: repositoryPageSizeConstant},
	}

	fullNames := []string{}
	for {
		repositories, response, listError := client.rest.Repositories.ListByAuthenticatedUser(executionContext, listOptions)
		if listError != nil {
			return nil, ClassifyError(listError)
		}

		for _, repository := range repositories {
			fullNames = append(fullNames, repository.GetFullName())
		}

		if response.NextPage == 0 {
			break
		}
		listOptions.Page = response.NextPage
	}

	return fullNames, nil
}

// CreateIssue opens an issue on the repository.
func (client *Client) CreateIssue(executionContext context.Context, repository string, title string, body string, labels []string) error {
	owner, name, splitError := splitRepository(repository)
	if splitError != nil {
		return splitError
	}

	issueRequest := &gh.IssueRequest{
		Title:  gh.Ptr(title),
		Body:   gh.Ptr(body),
		Labels: &labels,
	}

	_, _, creationError := client.rest.Issues.Create(executionContext, owner, name, issueRequest)
	return ClassifyError(creationError)
}

// ListOpenIssues returns every open issue of the repository. Pull requests
// surfaced by the issues endpoint are skipped.
func (client *Client) ListOpenIssues(executionContext context.Context, repository string) ([]IssueSummary, error) {
	owner, name, splitError := splitRepository(repository)
	if splitError != nil {
		return nil, splitError
	}

	listOptions := &gh.IssueListByRepoOptions{
		State:       openStateValueConstant,
		ListOptions: gh.ListOptions{PerPage: repositoryPageSizeConstant},
	}

	summaries := []IssueSummary{}
	for {
		issues, response, listError := client.rest.Issues.ListByRepo(executionContext, owner, name, listOptions)
		if listError != nil {
			return nil, ClassifyError(listError)
		}

		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}

			labelNames := make([]string, 0, len(issue.Labels))
			for _, label := range issue.Labels {
				labelNames = append(labelNames, label.GetName())
			}

			summaries = append(summaries, IssueSummary{
				Number: issue.GetNumber(),
				Title:  issue.GetTitle(),
				Labels: labelNames,
			})
		}

		if response.NextPage == 0 {
			break
		}
		listOptions.Page = response.NextPage
	}

	return summaries, nil
}

// CreatePullRequest opens a pull request and returns its number.
func (client *Client) CreatePullRequest(executionContext context.Context, repository string, request PullRequestRequest) (int, error) {
	owner, name, splitError := splitRepository(repository)
	if splitError != nil {
		return 0, splitError
	}

	newPullRequest := &gh.NewPullRequest{
		Title: gh.Ptr(request.Title),
		Body:  gh.Ptr(request.Body),
		Head:  gh.Ptr(request.Head),
		Base:  gh.Ptr(request.Base),
		Draft: gh.Ptr(request.Draft),
	}

	createdPullRequest, _, creationError := client.rest.PullRequests.Create(executionContext, owner, name, newPullRequest)
	if creationError != nil {
		return 0, ClassifyError(creationError)
	}

	return createdPullRequest.GetNumber(), nil
}

// AddLabelToPullRequest attaches a single label to the pull request. The
// labels endpoint accepts one label per call in this integration, so callers
// iterate.
func (client *Client) AddLabelToPullRequest(executionContext context.Context, repository string, number int, label string) error {
	owner, name, splitError := splitRepository(repository)
	if splitError != nil {
		return splitError
	}

	_, _, labelError := client.rest.Issues.AddLabelsToIssue(executionContext, owner, name, number, []string{label})
	return ClassifyError(labelError)
}

// ListOpenPullRequests returns the open pull requests matching the exact base
// branch and fully-qualified head reference. The list endpoint omits the
// mergeable flag, so each match is fetched individually to populate it.
func (client *Client) ListOpenPullRequests(executionContext context.Context, repository string, base string, qualifiedHead string) ([]PullRequestSummary, error) {
	owner, name, splitError := splitRepository(repository)
	if splitError != nil {
		return nil, splitError
	}

	listOptions := &gh.PullRequestListOptions{
		State: openStateValueConstant,
		Base:  base,
		Head:  qualifiedHead,
	}

	matches, _, listError := client.rest.PullRequests.List(executionContext, owner, name, listOptions)
	if listError != nil {
		return nil, ClassifyError(listError)
	}

	summaries := make([]PullRequestSummary, 0, len(matches))
	for _, match := range matches {
		detailedPullRequest, _, lookupError := client.rest.PullRequests.Get(executionContext, owner, name, match.GetNumber())
		if lookupError != nil {
			return nil, ClassifyError(lookupError)
		}

		summaries = append(summaries, PullRequestSummary{
			Number:    detailedPullRequest.GetNumber(),
			Mergeable: detailedPullRequest.GetMergeable(),
		})
	}

	return summaries, nil
}

// MergePullRequest merges the pull request identified by number.
func (client *Client) MergePullRequest(executionContext context.Context, repository string, number int) error {
	owner, name, splitError := splitRepository(repository)
	if splitError != nil {
		return splitError
	}

	_, _, mergeError := client.rest.PullRequests.Merge(executionContext, owner, name, number, "", nil)
	return ClassifyError(mergeError)
}

// DeleteBranch removes the git reference "heads/{branch}".
func (client *Client) DeleteBranch(executionContext context.Context, repository string, branch string) error {
	owner, name, splitError := splitRepository(repository)
	if splitError != nil {
		return splitError
	}

	reference := fmt.Sprintf(branchReferenceTemplateConstant, branch)
	_, deletionError := client.rest.Git.DeleteRef(executionContext, owner, name, reference)
	return ClassifyError(deletionError)
}

func splitRepository(repository string) (string, string, error) {
	owner, name, found := strings.Cut(repository, "/")
	if !found || len(owner) == 0 || len(name) == 0 {
		return "", "", fmt.Errorf(invalidRepositoryTemplateConstant, repository)
	}
	return owner, name, nil
}
