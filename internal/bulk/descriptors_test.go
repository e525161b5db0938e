package bulk_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitfleet/gitfleet/internal/bulk"
)

func TestParseLabelList(testInstance *testing.T) {
	testCases := []struct {
		name           string
		rawLabels      string
		expectedLabels []string
	}{
		{name: "trims_tokens", rawLabels: "a, b ,c", expectedLabels: []string{"a", "b", "c"}},
		{name: "empty_input", rawLabels: "", expectedLabels: []string{}},
		{name: "blank_input", rawLabels: "   ", expectedLabels: []string{}},
		{name: "drops_empty_tokens", rawLabels: "bug,,enhancement,", expectedLabels: []string{"bug", "enhancement"}},
		{name: "single_label", rawLabels: "help wanted", expectedLabels: []string{"help wanted"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expectedLabels, bulk.ParseLabelList(testCase.rawLabels))
		})
	}
}
