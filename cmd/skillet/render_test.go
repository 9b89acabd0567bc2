package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplateArgs(t *testing.T) {
	tests := []struct {
		name          string
		pairs         []string
		expected      map[string]string
		expectedError string
	}{
		{
			name:     "empty",
			pairs:    nil,
			expected: nil,
		},
		{
			name:  "single pair",
			pairs: []string{"subject=release notes"},
			expected: map[string]string{
				"subject": "release notes",
			},
		},
		{
			name:  "value containing equals",
			pairs: []string{"query=a=b"},
			expected: map[string]string{
				"query": "a=b",
			},
		},
		{
			name:  "empty value",
			pairs: []string{"subject="},
			expected: map[string]string{
				"subject": "",
			},
		},
		{
			name:          "missing equals",
			pairs:         []string{"subject"},
			expectedError: `expected key=value, got "subject"`,
		},
		{
			name:          "empty key",
			pairs:         []string{"=value"},
			expectedError: `expected key=value, got "=value"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := parseTemplateArgs(tt.pairs)
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, args)
		})
	}
}
