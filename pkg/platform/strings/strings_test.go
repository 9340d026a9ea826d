package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNonBlankLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: []string{},
		},
		{
			name:     "only whitespace",
			input:    " \n\t\n  ",
			expected: []string{},
		},
		{
			name:     "trims and drops blank lines",
			input:    "KING\n\n  DARRYL LAUD ABOAGYE  \n",
			expected: []string{"KING", "DARRYL LAUD ABOAGYE"},
		},
		{
			name:     "handles carriage returns",
			input:    "Sex\r\nM\r\n",
			expected: []string{"Sex", "M"},
		},
		{
			name:     "keeps duplicates and order",
			input:    "M\nF\nM",
			expected: []string{"M", "F", "M"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NonBlankLines(tt.input))
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "Darryl Laud", CollapseWhitespace("  Darryl \t  Laud \n"))
	assert.Equal(t, "", CollapseWhitespace("   "))
	assert.Equal(t, "darryl laud", NormalizeLower(" DARRYL   Laud"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("NATIONALITY / Nationalité", "nationality"))
	assert.False(t, ContainsFold("Surname", "nation"))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"localhost:9092", "broker:9092"}, SplitList(" localhost:9092, broker:9092,,localhost:9092"))
}

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"foo", "bar", "foo", "baz", "bar"},
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "combined: trim, dedupe, remove empty",
			input:    []string{"  foo ", "bar", "foo", "", "  ", "bar"},
			expected: []string{"foo", "bar"},
		},
		{
			name:     "preserves case",
			input:    []string{"Foo", "foo", "FOO"},
			expected: []string{"Foo", "foo", "FOO"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	assert.Equal(t, []string{"eng", "fra"}, DedupeAndTrimLower([]string{" ENG", "fra", "eng "}))
}
