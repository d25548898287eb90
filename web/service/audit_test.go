package service

import (
	"context"
	"testing"
	"time"

	"github.com/quillpress/blog/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userFixture = model.User{Id: 42, Email: "admin@example.com", Role: model.RoleAdmin}

func TestAuditLogAction(t *testing.T) {
	store := newMemStore()
	audit := NewAuditLogService(store.repositories().Audit)
	ctx := context.Background()

	err := audit.LogAction(ctx, &userFixture, ActionDelete, "post", 3, "127.0.0.1", "test", map[string]any{"title": "Hello"})
	require.NoError(t, err)

	require.Len(t, store.audit, 1)
	entry := store.audit[0]
	assert.Equal(t, 42, entry.UserId)
	assert.Equal(t, "admin@example.com", entry.Email)
	assert.Equal(t, ActionDelete, entry.Action)
	assert.JSONEq(t, `{"title":"Hello"}`, entry.Details)
}

func TestAuditCleanOldLogs(t *testing.T) {
	store := newMemStore()
	audit := NewAuditLogService(store.repositories().Audit)
	ctx := context.Background()

	store.audit = []model.AuditLog{
		{Id: 1, Action: ActionCreate, Timestamp: time.Now().AddDate(0, 0, -120)},
		{Id: 2, Action: ActionUpdate, Timestamp: time.Now().AddDate(0, 0, -1)},
	}

	_, err := audit.CleanOldLogs(ctx, 0)
	assert.Error(t, err)

	n, err := audit.CleanOldLogs(ctx, 90)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	require.Len(t, store.audit, 1)
	assert.Equal(t, 2, store.audit[0].Id)
}
