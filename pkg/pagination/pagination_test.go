package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parse(query string) *PageParams {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/tenants?"+query, nil)
	return ParsePageParams(c)
}

func TestParsePageParams(t *testing.T) {
	p := parse("")
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)

	p = parse("page=3&page_size=5")
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 10, p.Offset())
	assert.Equal(t, 5, p.Limit())

	p = parse("page=-2&page_size=1000")
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)
}

func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(2, 10, 25)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrev)

	info = NewPageInfo(1, 10, 0)
	assert.Equal(t, 0, info.TotalPages)
	assert.False(t, info.HasNext)
}
