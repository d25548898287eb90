package controller

import (
	"errors"
	"net/http"

	"github.com/quillpress/blog/web/entity"
	"github.com/quillpress/blog/web/middleware"
	"github.com/quillpress/blog/web/service"

	"github.com/gin-gonic/gin"
)

// APIController exposes posts and comments as JSON under /api.
type APIController struct {
	BaseController

	postService  *service.PostService
	userService  *service.UserService
	tokenService *service.TokenService
}

func NewAPIController(g *gin.RouterGroup, postService *service.PostService, userService *service.UserService, tokenService *service.TokenService) *APIController {
	a := &APIController{
		postService:  postService,
		userService:  userService,
		tokenService: tokenService,
	}
	a.initRouter(g)
	return a
}

func (a *APIController) initRouter(g *gin.RouterGroup) {
	g.GET("/posts", a.listPosts)
	g.GET("/posts/:id", a.getPost)
	g.POST("/token", a.token)

	authed := g.Group("", middleware.TokenAuth(a.tokenService))
	authed.POST("/posts/:id/comments", a.addComment)
}

func (a *APIController) listPosts(c *gin.Context) {
	posts, err := a.postService.ListPosts(c.Request.Context())
	jsonObj(c, posts, err)
}

func (a *APIController) apiId(c *gin.Context) (int, bool) {
	id, err := parsePositive(c.Param("id"))
	if err != nil {
		pureJsonMsg(c, http.StatusNotFound, false, I18nWeb(c, "messages.notFound"))
		return 0, false
	}
	return id, true
}

func (a *APIController) getPost(c *gin.Context) {
	id, ok := a.apiId(c)
	if !ok {
		return
	}
	post, err := a.postService.GetPost(c.Request.Context(), id)
	if service.IsNotFound(err) {
		pureJsonMsg(c, http.StatusNotFound, false, I18nWeb(c, "messages.notFound"))
		return
	}
	jsonObj(c, post, err)
}

func (a *APIController) token(c *gin.Context) {
	var form entity.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "validation.invalid"))
		return
	}

	user, err := a.userService.Login(c.Request.Context(), form.Email, form.Password)
	if errors.Is(err, service.ErrUnknownEmail) || errors.Is(err, service.ErrInvalidPassword) {
		pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "messages.invalidCredentials"))
		return
	} else if err != nil {
		jsonObj(c, nil, err)
		return
	}

	token, err := a.tokenService.Issue(user)
	jsonMsgObj(c, I18nWeb(c, "messages.obtain"), gin.H{"token": token}, err)
}

func (a *APIController) addComment(c *gin.Context) {
	id, ok := a.apiId(c)
	if !ok {
		return
	}

	var form entity.CommentForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, entity.Msg{Msg: I18nWeb(c, "validation.invalid"), Obj: formErrors(c, err)})
		return
	}

	comment, err := a.postService.AddComment(c.Request.Context(), a.currentUser(c), id, form.Comment)
	switch {
	case service.IsNotFound(err):
		pureJsonMsg(c, http.StatusNotFound, false, I18nWeb(c, "messages.notFound"))
	case errors.Is(err, service.ErrEmptyField):
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "validation.required"))
	case err != nil:
		jsonObj(c, nil, err)
	default:
		c.JSON(http.StatusCreated, entity.Msg{Success: true, Msg: I18nWeb(c, "messages.create"), Obj: comment})
	}
}
