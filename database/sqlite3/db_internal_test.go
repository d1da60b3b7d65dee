package sqlite3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithPragmas(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		dsn      string
		expected string
	}{
		{
			name:     "plain file",
			dsn:      "file:posts.db",
			expected: "file:posts.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		},
		{
			name:     "existing query",
			dsn:      "file::memory:?cache=shared",
			expected: "file::memory:?cache=shared&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		},
		{
			name:     "caller busy timeout wins",
			dsn:      "file:posts.db?_pragma=busy_timeout(100)",
			expected: "file:posts.db?_pragma=busy_timeout(100)&_pragma=journal_mode(WAL)",
		},
		{
			name:     "all pragmas set",
			dsn:      "posts.db?_pragma=busy_timeout(1)&_pragma=journal_mode(DELETE)",
			expected: "posts.db?_pragma=busy_timeout(1)&_pragma=journal_mode(DELETE)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, withPragmas(tt.dsn))
		})
	}
}
