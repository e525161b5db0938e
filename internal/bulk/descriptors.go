package bulk

import "strings"

const labelSeparatorConstant = ","

// Issue describes a bulk issue-creation request.
type Issue struct {
	Title  string
	Body   string
	Labels []string
}

// PullRequest describes a bulk pull-request-creation request. Link holds an
// issue-title substring; when Confirmation is set, open issues whose titles
// contain it are referenced for auto-closing, and InheritLabels additionally
// unions their labels into the pull request's label set.
type PullRequest struct {
	Title         string
	Body          string
	Labels        []string
	Draft         bool
	Link          string
	InheritLabels bool
	Head          string
	Base          string
	Confirmation  bool
}

// PullRequestMerge describes a bulk merge request. Prefix qualifies the head
// branch with its owning account or organisation, since plain branch names
// are ambiguous across forks.
type PullRequestMerge struct {
	Base         string
	Head         string
	Prefix       string
	DeleteBranch bool
}

// ParseLabelList splits a comma-separated label string into trimmed non-empty
// tokens, preserving their order. Blank input yields an empty list.
func ParseLabelList(rawLabels string) []string {
	labels := []string{}
	for _, token := range strings.Split(rawLabels, labelSeparatorConstant) {
		trimmedToken := strings.TrimSpace(token)
		if len(trimmedToken) == 0 {
			continue
		}
		labels = append(labels, trimmedToken)
	}
	return labels
}
