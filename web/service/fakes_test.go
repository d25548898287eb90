package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quillpress/blog/database/model"
	"github.com/quillpress/blog/database/repository"
)

// memStore is an in-memory stand-in for the gorm repositories.
type memStore struct {
	mu       sync.Mutex
	users    map[int]model.User
	posts    map[int]model.BlogPost
	comments map[int]model.Comment
	audit    []model.AuditLog
	nextId   int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int]model.User{},
		posts:    map[int]model.BlogPost{},
		comments: map[int]model.Comment{},
	}
}

func (m *memStore) id() int {
	m.nextId++
	return m.nextId
}

func (m *memStore) repositories() *repository.Repositories {
	return &repository.Repositories{
		Users:    memUsers{m},
		Posts:    memPosts{m},
		Comments: memComments{m},
		Audit:    memAudit{m},
	}
}

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.Id = r.id()
	r.users[user.Id] = *user
	return nil
}

func (r memUsers) GetById(_ context.Context, id int) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) List(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Id < users[j].Id })
	return users, nil
}

func (r memUsers) CountByRole(_ context.Context, role model.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (r memUsers) UpdateRole(_ context.Context, id int, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	r.users[id] = u
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, id int, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	r.users[id] = u
	return nil
}

func (r memUsers) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, p := range r.posts {
		if p.AuthorId == id {
			return repository.ErrUserHasContent
		}
	}
	for _, c := range r.comments {
		if c.AuthorId == id {
			return repository.ErrUserHasContent
		}
	}
	delete(r.users, id)
	return nil
}

type memPosts struct{ *memStore }

func (r memPosts) Create(_ context.Context, post *model.BlogPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.Title == post.Title {
			return repository.ErrDuplicateTitle
		}
	}
	post.Id = r.id()
	stored := *post
	stored.Author = nil
	stored.Comments = nil
	r.posts[post.Id] = stored
	return nil
}

func (r memPosts) GetById(_ context.Context, id int) (*model.BlogPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if author, ok := r.users[p.AuthorId]; ok {
		p.Author = &author
	}
	p.Comments = r.commentsOf(id)
	return &p, nil
}

func (r memPosts) List(_ context.Context) ([]model.BlogPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	posts := make([]model.BlogPost, 0, len(r.posts))
	for _, p := range r.posts {
		if author, ok := r.users[p.AuthorId]; ok {
			p.Author = &author
		}
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Id < posts[j].Id })
	return posts, nil
}

func (r memPosts) Update(_ context.Context, post *model.BlogPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.posts[post.Id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, p := range r.posts {
		if p.Id != post.Id && p.Title == post.Title {
			return repository.ErrDuplicateTitle
		}
	}
	stored.Title = post.Title
	stored.Subtitle = post.Subtitle
	stored.ImgUrl = post.ImgUrl
	stored.Body = post.Body
	r.posts[post.Id] = stored
	return nil
}

func (r memPosts) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return repository.ErrNotFound
	}
	for cid, c := range r.comments {
		if c.PostId == id {
			delete(r.comments, cid)
		}
	}
	delete(r.posts, id)
	return nil
}

type memComments struct{ *memStore }

func (r memComments) Create(_ context.Context, comment *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[comment.PostId]; !ok {
		return repository.ErrForeignKey
	}
	comment.Id = r.id()
	stored := *comment
	stored.Author = nil
	r.comments[comment.Id] = stored
	return nil
}

func (r memComments) ListByPost(_ context.Context, postId int) ([]model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commentsOf(postId), nil
}

// commentsOf expects mu to be held.
func (m *memStore) commentsOf(postId int) []model.Comment {
	comments := make([]model.Comment, 0)
	for _, c := range m.comments {
		if c.PostId == postId {
			if author, ok := m.users[c.AuthorId]; ok {
				c.Author = &author
			}
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].Id < comments[j].Id })
	return comments
}

type memAudit struct{ *memStore }

func (r memAudit) Create(_ context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.Id = r.id()
	r.audit = append(r.audit, *entry)
	return nil
}

func (r memAudit) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.audit[:0]
	var n int64
	for _, e := range r.audit {
		if e.Timestamp.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.audit = kept
	return n, nil
}
