// Package entity defines the request and response shapes of the web layer.
package entity

// Msg represents a standard API response message with success status, message text, and optional data object.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}

type RegisterForm struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=100"`
	Password string `json:"password" form:"password" binding:"required,max=100"`
	Name     string `json:"name" form:"name" binding:"required,max=1000"`
}

type LoginForm struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type CommentForm struct {
	Comment string `json:"comment" form:"comment" binding:"required,max=500"`
}

// PostForm is used for both creating and editing a post.
type PostForm struct {
	Title    string `json:"title" form:"title" binding:"required,max=250"`
	Subtitle string `json:"subtitle" form:"subtitle" binding:"required,max=250"`
	ImgUrl   string `json:"img_url" form:"img_url" binding:"required,url,max=250"`
	Body     string `json:"body" form:"body" binding:"required"`
}
