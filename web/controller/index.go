package controller

import (
	"github.com/quillpress/blog/web/service"

	"github.com/gin-gonic/gin"
)

// IndexController serves the post list and the static pages.
type IndexController struct {
	BaseController

	postService *service.PostService
}

func NewIndexController(g *gin.RouterGroup, postService *service.PostService) *IndexController {
	a := &IndexController{postService: postService}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/about", a.about)
	g.GET("/contact", a.contact)
}

func (a *IndexController) index(c *gin.Context) {
	posts, err := a.postService.ListPosts(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	html(c, "index.html", "siteName", gin.H{"posts": posts})
}

func (a *IndexController) about(c *gin.Context) {
	html(c, "about.html", "pages.about.title", nil)
}

func (a *IndexController) contact(c *gin.Context) {
	html(c, "contact.html", "pages.contact.title", nil)
}
