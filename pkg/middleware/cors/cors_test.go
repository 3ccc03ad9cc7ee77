package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(origins []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowedOrigin(t *testing.T) {
	rec := serve([]string{"http://app.test/"}, http.MethodGet, "http://app.test")
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSRejectedOrigin(t *testing.T) {
	rec := serve([]string{"http://app.test"}, http.MethodGet, "http://evil.test")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	rec := serve(nil, http.MethodOptions, "http://any.test")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://any.test", rec.Header().Get("Access-Control-Allow-Origin"))
}
