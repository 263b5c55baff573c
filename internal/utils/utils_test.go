package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/soundshare-api/internal/constants"
)

func TestGeneratePerishableToken(t *testing.T) {
	a, err := GeneratePerishableToken()
	require.NoError(t, err)
	b, err := GeneratePerishableToken()
	require.NoError(t, err)

	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b)
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		query  string
		page   int
		limit  int
		offset int
	}{
		{"defaults", "", 1, constants.DefaultPageSize, 0},
		{"explicit", "?page=3&limit=10", 3, 10, 20},
		{"page below minimum", "?page=0&limit=10", 1, 10, 0},
		{"limit above maximum", "?page=2&limit=1000", 2, constants.DefaultPageSize, constants.DefaultPageSize},
		{"malformed", "?page=abc&limit=x", 1, constants.DefaultPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)

			params := GetPaginationParams(c)
			assert.Equal(t, tt.page, params.Page)
			assert.Equal(t, tt.limit, params.Limit)
			assert.Equal(t, tt.offset, params.Offset)
		})
	}
}

func TestNewPaginationParams(t *testing.T) {
	params := NewPaginationParams(4, 25)
	assert.Equal(t, PaginationParams{Page: 4, Limit: 25, Offset: 75}, params)

	params = NewPaginationParams(-2, 0)
	assert.Equal(t, PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}, params)
}
