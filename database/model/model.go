// Package model defines the gorm entities persisted by the blog.
package model

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleReader Role = "reader"
)

// PostDateLayout is the layout of BlogPost.Date.
const PostDateLayout = "January 02, 2006"

// User is serialized publicly as an author, so only id and name are exported
// to JSON.
type User struct {
	Id       int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Email    string `json:"-" gorm:"size:100;uniqueIndex;not null"`
	Password string `json:"-" gorm:"size:255;not null"`
	Name     string `json:"name" gorm:"size:1000"`
	Role     Role   `json:"-" gorm:"size:16;not null;default:reader"`

	Posts    []BlogPost `json:"-" gorm:"foreignKey:AuthorId"`
	Comments []Comment  `json:"-" gorm:"foreignKey:AuthorId"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type BlogPost struct {
	Id       int    `json:"id" gorm:"primaryKey;autoIncrement"`
	AuthorId int    `json:"authorId" gorm:"not null;index"`
	Author   *User  `json:"author,omitempty" gorm:"foreignKey:AuthorId"`
	Title    string `json:"title" gorm:"size:250;uniqueIndex;not null"`
	Subtitle string `json:"subtitle" gorm:"size:250;not null"`
	Date     string `json:"date" gorm:"size:250;not null"`
	Body     string `json:"body" gorm:"type:text;not null"`
	ImgUrl   string `json:"imgUrl" gorm:"size:250;not null"`

	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:PostId"`
}

func (BlogPost) TableName() string {
	return "blog_posts"
}

type Comment struct {
	Id       int    `json:"id" gorm:"primaryKey;autoIncrement"`
	AuthorId int    `json:"authorId" gorm:"not null;index"`
	Author   *User  `json:"author,omitempty" gorm:"foreignKey:AuthorId"`
	PostId   int    `json:"postId" gorm:"not null;index"`
	Text     string `json:"text" gorm:"size:500;not null"`
}

// AuditLog records an administrative change.
type AuditLog struct {
	Id         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId     int       `json:"userId" gorm:"index"`
	Email      string    `json:"email"`
	Action     string    `json:"action"`   // CREATE, UPDATE, DELETE
	Resource   string    `json:"resource"` // post
	ResourceId int       `json:"resourceId"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"userAgent"`
	Details    string    `json:"details" gorm:"type:text"`
	Timestamp  time.Time `json:"timestamp" gorm:"index"`
}
