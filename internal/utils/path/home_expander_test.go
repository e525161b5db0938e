package pathutils_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/gitfleet/gitfleet/internal/utils/path"
)

const fakeHomeDirectoryConstant = "/home/fleet"

func TestHomeExpanderExpand(testInstance *testing.T) {
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return fakeHomeDirectoryConstant, nil
	})

	testCases := []struct {
		name          string
		candidatePath string
		expectedPath  string
	}{
		{name: "bare_tilde", candidatePath: "~", expectedPath: fakeHomeDirectoryConstant},
		{name: "tilde_prefix", candidatePath: "~/.config/gitfleet/config.yaml", expectedPath: filepath.Join(fakeHomeDirectoryConstant, ".config", "gitfleet", "config.yaml")},
		{name: "absolute_path_untouched", candidatePath: "/etc/gitfleet.yaml", expectedPath: "/etc/gitfleet.yaml"},
		{name: "relative_path_untouched", candidatePath: "config.yaml", expectedPath: "config.yaml"},
		{name: "empty_path_untouched", candidatePath: "", expectedPath: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expectedPath, expander.Expand(testCase.candidatePath))
		})
	}
}
