package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/quillpress/blog/database/model"
	"github.com/quillpress/blog/database/repository"
	"github.com/quillpress/blog/web/entity"
	"github.com/quillpress/blog/web/middleware"
	"github.com/quillpress/blog/web/service"
	"github.com/quillpress/blog/web/session"

	"github.com/gin-gonic/gin"
)

const auditResourcePost = "post"

// PostController shows posts, takes comments and, for administrators,
// creates, edits and deletes posts.
type PostController struct {
	BaseController

	postService *service.PostService
}

// NewPostController registers the public post routes on g and the
// administrative ones on admin.
func NewPostController(g *gin.RouterGroup, admin *gin.RouterGroup, postService *service.PostService) *PostController {
	a := &PostController{postService: postService}
	a.initRouter(g, admin)
	return a
}

func (a *PostController) initRouter(g *gin.RouterGroup, admin *gin.RouterGroup) {
	g.GET("/post/:id", a.show)
	g.POST("/post/:id", a.comment)

	admin.GET("/new-post", a.newPostPage)
	admin.POST("/new-post", a.newPost)
	admin.GET("/edit-post/:id", a.editPostPage)
	admin.POST("/edit-post/:id", a.editPost)
	admin.GET("/delete/:id", a.deletePost)
}

// loadPost fetches the post named by :id, rendering 404 or 500 on failure.
func (a *PostController) loadPost(c *gin.Context) (*model.BlogPost, bool) {
	id, ok := a.paramId(c)
	if !ok {
		return nil, false
	}
	post, err := a.postService.GetPost(c.Request.Context(), id)
	if service.IsNotFound(err) {
		RenderError(c, http.StatusNotFound)
		return nil, false
	} else if err != nil {
		serverError(c, err)
		return nil, false
	}
	return post, true
}

func (a *PostController) renderPost(c *gin.Context, post *model.BlogPost, form entity.CommentForm, errs map[string]string) {
	html(c, "post.html", "siteName", gin.H{
		"post":   post,
		"form":   form,
		"errors": errs,
	})
}

func (a *PostController) show(c *gin.Context) {
	post, ok := a.loadPost(c)
	if !ok {
		return
	}
	a.renderPost(c, post, entity.CommentForm{}, nil)
}

func (a *PostController) comment(c *gin.Context) {
	post, ok := a.loadPost(c)
	if !ok {
		return
	}

	var form entity.CommentForm
	if err := c.ShouldBind(&form); err != nil {
		a.renderPost(c, post, form, formErrors(c, err))
		return
	}

	user := a.currentUser(c)
	if service.LoginRequired(user) != service.Allowed {
		flash(c, session.FlashError, "messages.loginFirst")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	_, err := a.postService.AddComment(c.Request.Context(), user, post.Id, form.Comment)
	if errors.Is(err, service.ErrEmptyField) {
		a.renderPost(c, post, form, map[string]string{"Comment": I18nWeb(c, "validation.required")})
		return
	} else if err != nil {
		serverError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, postUrl(post.Id))
}

func postInput(form entity.PostForm) service.PostInput {
	return service.PostInput{
		Title:    form.Title,
		Subtitle: form.Subtitle,
		ImgUrl:   form.ImgUrl,
		Body:     form.Body,
	}
}

func (a *PostController) renderPostForm(c *gin.Context, form entity.PostForm, postId int, errs map[string]string) {
	title := "pages.makePost.newTitle"
	if postId > 0 {
		title = "pages.makePost.editTitle"
	}
	html(c, "make-post.html", title, gin.H{
		"form":    form,
		"post_id": postId,
		"errors":  errs,
	})
}

// postFormError re-renders the form for errors the user can fix and reports
// whether err was handled that way.
func (a *PostController) postFormError(c *gin.Context, form entity.PostForm, postId int, err error) bool {
	switch {
	case errors.Is(err, repository.ErrDuplicateTitle):
		a.renderPostForm(c, form, postId, map[string]string{"Title": I18nWeb(c, "messages.duplicateTitle")})
	case errors.Is(err, service.ErrEmptyField):
		a.renderPostForm(c, form, postId, map[string]string{"form": I18nWeb(c, "validation.required")})
	default:
		return false
	}
	return true
}

func (a *PostController) newPostPage(c *gin.Context) {
	a.renderPostForm(c, entity.PostForm{}, 0, nil)
}

func (a *PostController) newPost(c *gin.Context) {
	var form entity.PostForm
	if err := c.ShouldBind(&form); err != nil {
		a.renderPostForm(c, form, 0, formErrors(c, err))
		return
	}

	post, err := a.postService.CreatePost(c.Request.Context(), a.currentUser(c), postInput(form))
	if err != nil {
		if !a.postFormError(c, form, 0, err) {
			serverError(c, err)
		}
		return
	}

	middleware.RecordAudit(c, middleware.AuditEntry{
		Action:     service.ActionCreate,
		Resource:   auditResourcePost,
		ResourceId: post.Id,
		Details:    map[string]any{"title": post.Title},
	})
	c.Redirect(http.StatusSeeOther, "/")
}

func (a *PostController) editPostPage(c *gin.Context) {
	post, ok := a.loadPost(c)
	if !ok {
		return
	}
	a.renderPostForm(c, entity.PostForm{
		Title:    post.Title,
		Subtitle: post.Subtitle,
		ImgUrl:   post.ImgUrl,
		Body:     post.Body,
	}, post.Id, nil)
}

func (a *PostController) editPost(c *gin.Context) {
	post, ok := a.loadPost(c)
	if !ok {
		return
	}

	var form entity.PostForm
	if err := c.ShouldBind(&form); err != nil {
		a.renderPostForm(c, form, post.Id, formErrors(c, err))
		return
	}

	updated, err := a.postService.UpdatePost(c.Request.Context(), post.Id, postInput(form))
	if service.IsNotFound(err) {
		RenderError(c, http.StatusNotFound)
		return
	} else if err != nil {
		if !a.postFormError(c, form, post.Id, err) {
			serverError(c, err)
		}
		return
	}

	middleware.RecordAudit(c, middleware.AuditEntry{
		Action:     service.ActionUpdate,
		Resource:   auditResourcePost,
		ResourceId: updated.Id,
		Details:    map[string]any{"title": updated.Title, "previousTitle": post.Title},
	})
	c.Redirect(http.StatusSeeOther, postUrl(updated.Id))
}

func (a *PostController) deletePost(c *gin.Context) {
	id, ok := a.paramId(c)
	if !ok {
		return
	}

	err := a.postService.DeletePost(c.Request.Context(), id)
	if service.IsNotFound(err) {
		RenderError(c, http.StatusNotFound)
		return
	} else if err != nil {
		serverError(c, err)
		return
	}

	middleware.RecordAudit(c, middleware.AuditEntry{
		Action:     service.ActionDelete,
		Resource:   auditResourcePost,
		ResourceId: id,
	})
	c.Redirect(http.StatusFound, "/")
}

func postUrl(id int) string {
	return fmt.Sprintf("/post/%d", id)
}
