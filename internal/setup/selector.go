package setup

import (
	"errors"

	"github.com/ktr0731/go-fuzzyfinder"
)

const noVisibleRepositoriesMessageConstant = "none of the requested repositories are visible to this account"

// RepositorySelector picks the target repositories from the full names
// visible to the authenticated user.
type RepositorySelector interface {
	SelectRepositories(fullNames []string) ([]string, error)
}

// FuzzyRepositorySelector presents a fuzzy-finder multi-select over the
// repository full names. Cancelling the finder yields an empty selection.
type FuzzyRepositorySelector struct{}

// SelectRepositories runs the interactive multi-select.
func (FuzzyRepositorySelector) SelectRepositories(fullNames []string) ([]string, error) {
	selectedIndexes, findError := fuzzyfinder.FindMulti(
		fullNames,
		func(itemIndex int) string {
			return fullNames[itemIndex]
		},
	)
	if findError != nil {
		if errors.Is(findError, fuzzyfinder.ErrAbort) {
			return nil, nil
		}
		return nil, findError
	}

	selectedRepositories := make([]string, 0, len(selectedIndexes))
	for _, selectedIndex := range selectedIndexes {
		selectedRepositories = append(selectedRepositories, fullNames[selectedIndex])
	}

	return selectedRepositories, nil
}

// ListSelector is the non-interactive selector: it returns a fixed selection,
// restricted to the names the account can actually see.
type ListSelector struct {
	Repositories []string
}

// SelectRepositories intersects the fixed selection with the visible names,
// preserving the fixed selection's order. An empty intersection is an error
// rather than an empty selection, so a non-interactive run terminates instead
// of re-prompting.
func (selector ListSelector) SelectRepositories(fullNames []string) ([]string, error) {
	visibleNames := make(map[string]struct{}, len(fullNames))
	for _, fullName := range fullNames {
		visibleNames[fullName] = struct{}{}
	}

	selectedRepositories := make([]string, 0, len(selector.Repositories))
	for _, repository := range selector.Repositories {
		if _, visible := visibleNames[repository]; visible {
			selectedRepositories = append(selectedRepositories, repository)
		}
	}

	if len(selectedRepositories) == 0 {
		return nil, errors.New(noVisibleRepositoriesMessageConstant)
	}

	return selectedRepositories, nil
}
