package controller

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/quillpress/blog/config"
	"github.com/quillpress/blog/logger"
	"github.com/quillpress/blog/web/entity"
	"github.com/quillpress/blog/web/locale"
	"github.com/quillpress/blog/web/session"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// jsonObj sends a JSON response with an object and error status.
func jsonObj(c *gin.Context, obj any, err error) {
	jsonMsgObj(c, "", obj, err)
}

// jsonMsgObj sends a JSON response with a message, object, and error status.
func jsonMsgObj(c *gin.Context, msg string, obj any, err error) {
	m := entity.Msg{
		Obj: obj,
	}
	if err == nil {
		m.Success = true
		if msg != "" {
			m.Msg = msg
		}
		c.JSON(http.StatusOK, m)
		return
	}
	m.Success = false
	m.Msg = msg
	logger.Warning(msg, err)
	c.JSON(http.StatusInternalServerError, m)
}

// pureJsonMsg sends a pure JSON message response with custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
	})
}

// html renders an HTML template with HTTP 200.
func html(c *gin.Context, name string, title string, data gin.H) {
	htmlStatus(c, http.StatusOK, name, title, data)
}

// htmlStatus renders an HTML template with the common page context: the
// current user, pending flash messages and the request language.
func htmlStatus(c *gin.Context, status int, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["request_uri"] = c.Request.RequestURI
	data["lang"] = c.GetString(locale.ContextKey)
	user := session.GetLoginUser(c)
	data["user"] = user
	data["is_admin"] = user.IsAdmin()
	data["flashes"] = session.Flashes(c)
	if _, ok := data["errors"]; !ok {
		data["errors"] = map[string]string{}
	}
	c.HTML(status, name, getContext(data))
}

// getContext adds version and other context data to the provided gin.H.
func getContext(h gin.H) gin.H {
	a := gin.H{
		"cur_ver": config.GetVersion(),
	}
	for key, value := range h {
		a[key] = value
	}
	return a
}

var errorMessages = map[int]string{
	http.StatusForbidden:       "pages.error.forbidden",
	http.StatusNotFound:        "pages.error.notFound",
	http.StatusTooManyRequests: "messages.tooManyRequests",
}

// RenderError writes the error page for status and aborts the request.
func RenderError(c *gin.Context, status int) {
	msg, ok := errorMessages[status]
	if !ok {
		msg = "pages.error.internal"
	}
	htmlStatus(c, status, "error.html", "siteName", gin.H{
		"status":  status,
		"message": msg,
	})
	c.Abort()
}

// serverError logs err and renders the 500 page.
func serverError(c *gin.Context, err error) {
	logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	RenderError(c, http.StatusInternalServerError)
}

func flash(c *gin.Context, category, key string) {
	if err := session.AddFlash(c, category, I18nWeb(c, key)); err != nil {
		logger.Warning("Unable to save flash message:", err)
	}
}

// formErrors turns a binding error into localized messages keyed by struct
// field name.
func formErrors(c *gin.Context, err error) map[string]string {
	errs := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["form"] = I18nWeb(c, "validation.invalid")
		return errs
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "email", "url":
			errs[fe.Field()] = I18nWeb(c, "validation."+fe.Tag())
		case "max":
			errs[fe.Field()] = I18nWeb(c, "validation.max", "Param=="+fe.Param())
		default:
			errs[fe.Field()] = I18nWeb(c, "validation.invalid")
		}
	}
	return errs
}
