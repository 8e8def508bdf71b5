package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		query string
		want  PaginationParams
	}{
		{"defaults", "", PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}},
		{"explicit", "?page=3&limit=5&sort=price&order=asc", PaginationParams{Page: 3, Limit: 5, Sort: "price", Order: "asc"}},
		{"out of range", "?page=-1&limit=1000&order=sideways", PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/books"+tt.query, nil)
			assert.Equal(t, tt.want, GetPaginationParams(c))
		})
	}
}

func TestCreatePaginationResult(t *testing.T) {
	result := CreatePaginationResult([]int{1, 2}, 41, PaginationParams{Page: 2, Limit: 20})
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, 2, result.Page)
	assert.EqualValues(t, 41, result.Total)
}
