package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"

	"github.com/quillpress/blog/database/model"
	"github.com/quillpress/blog/database/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

// legacyHash builds a werkzeug style pbkdf2 hash.
func legacyHash(t *testing.T, password string) string {
	t.Helper()
	digest := pbkdf2.Key([]byte(password), []byte("saltsalt"), 1000, 32, sha256.New)
	return "pbkdf2:sha256:1000$saltsalt$" + hex.EncodeToString(digest)
}

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	store := newMemStore()
	users := NewUserService(store.repositories().Users)
	ctx := context.Background()

	alice, err := users.Register(ctx, "alice@example.com", "secret", "Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.Id)
	assert.Equal(t, model.RoleAdmin, alice.Role)
	assert.NotEqual(t, "secret", alice.Password)

	bob, err := users.Register(ctx, "bob@example.com", "secret", "Bob")
	require.NoError(t, err)
	assert.Equal(t, 2, bob.Id)
	assert.Equal(t, model.RoleReader, bob.Role)
}

func TestConcurrentRegisterMakesOneAdmin(t *testing.T) {
	users := NewUserService(newMemStore().repositories().Users)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := users.Register(ctx, fmt.Sprintf("user%d@example.com", i), "secret", "User")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 8)
	admins := 0
	for _, u := range all {
		if u.Role == model.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemStore()
	users := NewUserService(store.repositories().Users)
	ctx := context.Background()

	_, err := users.Register(ctx, "alice@example.com", "secret", "Alice")
	require.NoError(t, err)
	_, err = users.Register(ctx, " alice@example.com ", "other", "Alice 2")
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	all, err := users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegisterRequiresFields(t *testing.T) {
	users := NewUserService(newMemStore().repositories().Users)
	_, err := users.Register(context.Background(), "", "secret", "x")
	assert.ErrorIs(t, err, ErrEmptyField)
	_, err = users.Register(context.Background(), "a@example.com", "", "x")
	assert.ErrorIs(t, err, ErrEmptyField)
}

func TestLogin(t *testing.T) {
	users := NewUserService(newMemStore().repositories().Users)
	ctx := context.Background()
	_, err := users.Register(ctx, "alice@example.com", "secret", "Alice")
	require.NoError(t, err)

	_, err = users.Login(ctx, "nobody@example.com", "secret")
	assert.ErrorIs(t, err, ErrUnknownEmail)

	_, err = users.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	user, err := users.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	store := newMemStore()
	repos := store.repositories()
	users := NewUserService(repos.Users)
	ctx := context.Background()

	hash := legacyHash(t, "secret")
	require.NoError(t, repos.Users.Create(ctx, &model.User{Email: "old@example.com", Password: hash, Role: model.RoleReader}))

	user, err := users.Login(ctx, "old@example.com", "secret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, user.Password)

	stored, err := repos.Users.GetByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	assert.NotContains(t, stored.Password, "pbkdf2")

	_, err = users.Login(ctx, "old@example.com", "secret")
	assert.NoError(t, err)
}

func TestSetRole(t *testing.T) {
	users := NewUserService(newMemStore().repositories().Users)
	ctx := context.Background()
	_, err := users.Register(ctx, "alice@example.com", "secret", "Alice")
	require.NoError(t, err)
	_, err = users.Register(ctx, "bob@example.com", "secret", "Bob")
	require.NoError(t, err)

	_, err = users.SetRole(ctx, "bob@example.com", "owner")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = users.SetRole(ctx, "carol@example.com", "admin")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	bob, err := users.SetRole(ctx, "bob@example.com", "ADMIN")
	require.NoError(t, err)
	assert.True(t, bob.IsAdmin())
}

func TestDeleteUser(t *testing.T) {
	store := newMemStore()
	repos := store.repositories()
	users := NewUserService(repos.Users)
	posts := NewPostService(repos.Posts, repos.Comments, nil, nil)
	ctx := context.Background()

	alice, err := users.Register(ctx, "alice@example.com", "secret", "Alice")
	require.NoError(t, err)
	_, err = users.Register(ctx, "bob@example.com", "secret", "Bob")
	require.NoError(t, err)
	_, err = posts.CreatePost(ctx, alice, samplePost("Hello"))
	require.NoError(t, err)

	assert.ErrorIs(t, users.DeleteUser(ctx, "alice@example.com"), repository.ErrUserHasContent)
	require.NoError(t, users.DeleteUser(ctx, "bob@example.com"))
	assert.ErrorIs(t, users.DeleteUser(ctx, "bob@example.com"), repository.ErrNotFound)
}
