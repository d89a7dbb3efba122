package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name              string
		page, limit       int
		wantPage, wantLim int
		wantOffset        int
	}{
		{"defaults", 0, 0, 1, 20, 0},
		{"third page", 3, 10, 3, 10, 20},
		{"limit capped", 1, 500, 1, 100, 0},
		{"negative", -2, -5, 1, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLim, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/audit-logs?page=2&limit=abc", nil)

	p := Parse(c)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)

	meta := p.Meta(45)
	assert.Equal(t, int64(45), meta.Total)
	assert.Equal(t, 2, meta.Page)
}
