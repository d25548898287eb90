package controller

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/quillpress/blog/database/model"
	"github.com/quillpress/blog/database/repository"
	"github.com/quillpress/blog/logger"
	"github.com/quillpress/blog/web/entity"
	"github.com/quillpress/blog/web/service"
	"github.com/quillpress/blog/web/session"

	"github.com/gin-gonic/gin"
)

// AuthController handles registration, login and logout.
type AuthController struct {
	BaseController

	userService   *service.UserService
	sessionMaxAge int
}

// NewAuthController registers the auth routes. sessionMaxAge is in minutes.
func NewAuthController(g *gin.RouterGroup, userService *service.UserService, sessionMaxAge int) *AuthController {
	a := &AuthController{userService: userService, sessionMaxAge: sessionMaxAge}
	a.initRouter(g)
	return a
}

func (a *AuthController) initRouter(g *gin.RouterGroup) {
	g.GET("/register", a.registerPage)
	g.POST("/register", a.register)
	g.GET("/login", a.loginPage)
	g.POST("/login", a.login)
	g.GET("/logout", a.logout)
}

func (a *AuthController) registerPage(c *gin.Context) {
	html(c, "register.html", "pages.register.title", gin.H{"form": entity.RegisterForm{}})
}

func (a *AuthController) register(c *gin.Context) {
	var form entity.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		html(c, "register.html", "pages.register.title", gin.H{"form": form, "errors": formErrors(c, err)})
		return
	}

	user, err := a.userService.Register(c.Request.Context(), form.Email, form.Password, form.Name)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		flash(c, session.FlashError, "messages.alreadyRegistered")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	} else if err != nil {
		serverError(c, err)
		return
	}

	if !a.startSession(c, user) {
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (a *AuthController) loginPage(c *gin.Context) {
	html(c, "login.html", "pages.login.title", gin.H{"form": entity.LoginForm{}})
}

func (a *AuthController) login(c *gin.Context) {
	var form entity.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		html(c, "login.html", "pages.login.title", gin.H{"form": form, "errors": formErrors(c, err)})
		return
	}

	user, err := a.userService.Login(c.Request.Context(), form.Email, form.Password)
	switch {
	case errors.Is(err, service.ErrUnknownEmail):
		logger.Warningf("login with unknown email, IP: \"%s\"", getRemoteIp(c))
		flash(c, session.FlashError, "messages.unknownEmail")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	case errors.Is(err, service.ErrInvalidPassword):
		logger.Warningf("wrong password for \"%s\", IP: \"%s\"", template.HTMLEscapeString(form.Email), getRemoteIp(c))
		flash(c, session.FlashError, "messages.wrongPassword")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	case err != nil:
		serverError(c, err)
		return
	}

	if !a.startSession(c, user) {
		return
	}
	logger.Infof("user %d logged in successfully, Ip Address: %s", user.Id, getRemoteIp(c))
	c.Redirect(http.StatusSeeOther, "/")
}

func (a *AuthController) startSession(c *gin.Context, user *model.User) bool {
	session.SetMaxAge(c, a.sessionMaxAge*60)
	if err := session.SetLoginUser(c, user); err != nil {
		serverError(c, err)
		return false
	}
	session.SetCurrentUser(c, user)
	return true
}

func (a *AuthController) logout(c *gin.Context) {
	if user := a.currentUser(c); user != nil {
		logger.Infof("user %d logged out successfully", user.Id)
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("Unable to save session after clearing:", err)
	}
	c.Redirect(http.StatusFound, "/")
}
