package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/quillpress/blog/database/model"
	"github.com/quillpress/blog/database/repository"
	"github.com/quillpress/blog/logger"
	"github.com/quillpress/blog/web/entity"
	"github.com/quillpress/blog/web/service"
	"github.com/quillpress/blog/web/session"

	"github.com/gin-gonic/gin"
)

// ErrorRenderer writes an error page for status and aborts the request.
type ErrorRenderer func(c *gin.Context, status int)

// LoadUser resolves the session's user id to the current user record.
// Sessions that point at a deleted user are cleared.
func LoadUser(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := session.GetLoginUserId(c)
		if id == 0 {
			c.Next()
			return
		}

		user, err := users.GetUser(c.Request.Context(), id)
		switch {
		case err == nil:
			session.SetCurrentUser(c, user)
		case errors.Is(err, repository.ErrNotFound):
			logger.Warningf("session refers to missing user %d, clearing", id)
			if err := session.ClearSession(c); err != nil {
				logger.Warning("clear session err:", err)
			}
		default:
			logger.Warning("load session user err:", err)
		}
		c.Next()
	}
}

// AdminOnly lets administrators through. Anonymous users are sent to the
// login page; everyone else gets a 403 page.
func AdminOnly(render ErrorRenderer) gin.HandlerFunc {
	return policy(service.AdminOnly, render)
}

func LoginRequired(render ErrorRenderer) gin.HandlerFunc {
	return policy(service.LoginRequired, render)
}

func policy(decide func(*model.User) service.Decision, render ErrorRenderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := session.GetLoginUser(c)
		switch decide(user) {
		case service.Allowed:
			c.Next()
		case service.Unauthenticated:
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
		default:
			logger.Warningf("user %d denied access to %s", user.Id, c.Request.URL.Path)
			render(c, http.StatusForbidden)
			c.Abort()
		}
	}
}

// TokenAuth authenticates API requests with an "Authorization: Bearer" JWT.
func TokenAuth(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.Msg{Msg: "bearer token is required"})
			return
		}

		user, err := tokens.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, service.ErrInvalidToken) {
				logger.Warning("token auth err:", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, entity.Msg{Msg: service.ErrInvalidToken.Error()})
			return
		}
		session.SetCurrentUser(c, user)
		c.Next()
	}
}
