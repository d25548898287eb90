package session

import (
	"encoding/gob"
	"net/http"

	"github.com/quillpress/blog/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CookieName = "blog"

	loginUserId = "LOGIN_USER_ID"
	contextUser = "blog.user"
)

// Flash categories.
const (
	FlashError = "error"
	FlashInfo  = "info"
)

func init() {
	gob.Register([]any{})
}

// SetLoginUser stores the user id only; the user itself is reloaded on every request.
func SetLoginUser(c *gin.Context, user *model.User) error {
	s := sessions.Default(c)
	s.Set(loginUserId, user.Id)
	return s.Save()
}

func cookieOptions(maxAge int) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetMaxAge changes the cookie lifetime. It takes effect on the next Save.
func SetMaxAge(c *gin.Context, maxAge int) {
	sessions.Default(c).Options(cookieOptions(maxAge))
}

// GetLoginUserId returns the id stored at login, or 0.
func GetLoginUserId(c *gin.Context) int {
	s := sessions.Default(c)
	if obj := s.Get(loginUserId); obj != nil {
		if id, ok := obj.(int); ok {
			return id
		}
	}
	return 0
}

// SetCurrentUser attaches the user loaded for this request.
func SetCurrentUser(c *gin.Context, user *model.User) {
	c.Set(contextUser, user)
}

func GetLoginUser(c *gin.Context) *model.User {
	if obj, ok := c.Get(contextUser); ok {
		if user, ok := obj.(*model.User); ok {
			return user
		}
	}
	return nil
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != nil
}

func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(cookieOptions(-1))
	if err := s.Save(); err != nil {
		return err
	}
	c.Set(contextUser, nil)
	return nil
}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func AddFlash(c *gin.Context, category, message string) error {
	s := sessions.Default(c)
	s.AddFlash(message, category)
	return s.Save()
}

// Flashes pops the pending messages of every category. It returns nil when
// the session middleware has not run for this request.
func Flashes(c *gin.Context) []Flash {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	s := sessions.Default(c)
	var flashes []Flash
	for _, category := range []string{FlashError, FlashInfo} {
		for _, msg := range s.Flashes(category) {
			if text, ok := msg.(string); ok {
				flashes = append(flashes, Flash{Category: category, Message: text})
			}
		}
	}
	if len(flashes) > 0 {
		_ = s.Save()
	}
	return flashes
}
