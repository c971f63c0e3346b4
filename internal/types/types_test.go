package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tcases := []struct {
		name     string
		page     int
		limit    int
		total    int
		expected int
	}{
		{name: "empty", page: 1, limit: 20, total: 0, expected: 0},
		{name: "exact fit", page: 1, limit: 20, total: 40, expected: 2},
		{name: "partial last page", page: 2, limit: 20, total: 41, expected: 3},
		{name: "zero limit", page: 1, limit: 0, total: 10, expected: 0},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.page, tc.limit, tc.total)
			assert.Equal(t, tc.expected, p.Pages, "expected page count to match")
			assert.Equal(t, tc.page, p.Page)
			assert.Equal(t, tc.limit, p.Limit)
			assert.Equal(t, tc.total, p.Total)
		})
	}
}
