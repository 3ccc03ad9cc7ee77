package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ksohaib16/Test-Generator/internal/middleware"
	"github.com/Ksohaib16/Test-Generator/internal/models"
	"github.com/Ksohaib16/Test-Generator/internal/service"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
	"github.com/Ksohaib16/Test-Generator/pkg/response"
)

// currentUser returns the session claims or writes a 401.
func currentUser(c *gin.Context) (*models.SessionClaims, bool) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body and leaves dest at its zero value.
func bindOptionalJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
