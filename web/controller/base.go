// Package controller provides the HTTP handlers of the blog: public pages,
// authentication, post administration and the JSON API.
package controller

import (
	"net/http"
	"strconv"

	"github.com/quillpress/blog/database/model"
	"github.com/quillpress/blog/web/locale"
	"github.com/quillpress/blog/web/session"

	"github.com/gin-gonic/gin"
)

// BaseController provides common functionality for all controllers.
type BaseController struct{}

// currentUser returns the user loaded for this request, or nil.
func (a *BaseController) currentUser(c *gin.Context) *model.User {
	return session.GetLoginUser(c)
}

// paramId parses the :id route parameter. Non-numeric ids render a 404.
func (a *BaseController) paramId(c *gin.Context) (int, bool) {
	id, err := parsePositive(c.Param("id"))
	if err != nil {
		RenderError(c, http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func parsePositive(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}

// I18nWeb retrieves an internationalized message for the web interface based on the current locale.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	return locale.FromContext(c, name, params...)
}
