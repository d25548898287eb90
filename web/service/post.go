package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/quillpress/blog/database/model"
	"github.com/quillpress/blog/database/repository"
	"github.com/quillpress/blog/logger"
	"github.com/quillpress/blog/web/cache"
)

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title    string
	Subtitle string
	ImgUrl   string
	Body     string
}

func (in PostInput) trimmed() PostInput {
	return PostInput{
		Title:    strings.TrimSpace(in.Title),
		Subtitle: strings.TrimSpace(in.Subtitle),
		ImgUrl:   strings.TrimSpace(in.ImgUrl),
		Body:     in.Body,
	}
}

func (in PostInput) validate() error {
	if in.Title == "" || in.Subtitle == "" || in.ImgUrl == "" || strings.TrimSpace(in.Body) == "" {
		return ErrEmptyField
	}
	return nil
}

type PostService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	cache    *cache.Cache
	location *time.Location
	now      func() time.Time
}

// NewPostService builds the service. c may be nil, in which case reads go
// straight to the repositories.
func NewPostService(posts repository.PostRepository, comments repository.CommentRepository, c *cache.Cache, loc *time.Location) *PostService {
	if loc == nil {
		loc = time.Local
	}
	return &PostService{
		posts:    posts,
		comments: comments,
		cache:    c,
		location: loc,
		now:      time.Now,
	}
}

// SetClock replaces the time source used to date new posts.
func (s *PostService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *PostService) ListPosts(ctx context.Context) ([]model.BlogPost, error) {
	var posts []model.BlogPost
	err := s.cache.GetOrSet(ctx, cache.KeyPostsAll, &posts, cache.TTLPosts, func() error {
		var err error
		posts, err = s.posts.List(ctx)
		return err
	})
	return posts, err
}

// GetPost returns the post with its author and comments.
func (s *PostService) GetPost(ctx context.Context, id int) (*model.BlogPost, error) {
	post := &model.BlogPost{}
	err := s.cache.GetOrSet(ctx, cache.KeyPost(id), post, cache.TTLPosts, func() error {
		p, err := s.posts.GetById(ctx, id)
		if err != nil {
			return err
		}
		*post = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) CreatePost(ctx context.Context, author *model.User, in PostInput) (*model.BlogPost, error) {
	if author == nil {
		return nil, ErrLoginRequired
	}
	in = in.trimmed()
	if err := in.validate(); err != nil {
		return nil, err
	}
	post := &model.BlogPost{
		AuthorId: author.Id,
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Date:     s.now().In(s.location).Format(model.PostDateLayout),
		Body:     in.Body,
		ImgUrl:   in.ImgUrl,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Author = author
	s.invalidate(ctx)
	return post, nil
}

// UpdatePost overwrites the editable fields. Author and date are kept.
func (s *PostService) UpdatePost(ctx context.Context, id int, in PostInput) (*model.BlogPost, error) {
	in = in.trimmed()
	if err := in.validate(); err != nil {
		return nil, err
	}
	post, err := s.posts.GetById(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Title = in.Title
	post.Subtitle = in.Subtitle
	post.ImgUrl = in.ImgUrl
	post.Body = in.Body
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return post, nil
}

// DeletePost removes the post together with its comments.
func (s *PostService) DeletePost(ctx context.Context, id int) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *PostService) AddComment(ctx context.Context, author *model.User, postId int, text string) (*model.Comment, error) {
	if author == nil {
		return nil, ErrLoginRequired
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyField
	}
	if _, err := s.posts.GetById(ctx, postId); err != nil {
		return nil, err
	}
	comment := &model.Comment{
		AuthorId: author.Id,
		PostId:   postId,
		Text:     text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = author
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.KeyPost(postId)); err != nil {
			logger.Warning("invalidate post cache err:", err)
		}
	}
	return comment, nil
}

func (s *PostService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidatePosts(ctx); err != nil {
		logger.Warning("invalidate posts cache err:", err)
	}
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
