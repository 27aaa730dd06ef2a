package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func runMiddleware(header string) (*httptest.ResponseRecorder, string) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		c.Request.Header.Set(headerKey, header)
	}
	Middleware()(c)
	return rec, Value(c)
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	rec, id := runMiddleware("req-42")
	assert.Equal(t, "req-42", id)
	assert.Equal(t, "req-42", rec.Header().Get(headerKey))
}

func TestMiddlewareReplacesOversizedID(t *testing.T) {
	_, id := runMiddleware(strings.Repeat("x", maxLength+1))
	assert.Len(t, id, 36)
}
