package service

import (
	"context"
	"testing"
	"time"

	"threadline/internal/models"
	"threadline/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityResolver_NoThreads(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")

	items := NewActivityResolver(repository.NewThreadRepository(db)).Activity(t.Context(), alice.ID)
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestActivityResolver_ThreadsWithoutReplies(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	seedRoots(t, db, alice, 3)

	items := NewActivityResolver(repository.NewThreadRepository(db)).Activity(t.Context(), alice.ID)
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestActivityResolver_DirectRepliesFromOthers(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	root := createRoot(t, db, alice, "root", time.Now())
	fromBob := createReply(t, db, bob, root, "from bob")
	createReply(t, db, alice, root, "self reply")
	fromCarol := createReply(t, db, carol, fromBob, "reply to bob, not to alice")
	aliceOnCarol := createReply(t, db, alice, fromCarol, "alice answers carol")
	bobOnAlice := createReply(t, db, bob, aliceOnCarol, "bob answers alice deep in the tree")

	items := NewActivityResolver(repository.NewThreadRepository(db)).Activity(t.Context(), alice.ID)

	got := map[uint]models.ActivityItem{}
	for _, it := range items {
		got[it.ReplyID] = it
	}
	require.Len(t, got, 2)
	assert.Equal(t, root.ID, got[fromBob.ID].ParentID)
	assert.Equal(t, "from bob", got[fromBob.ID].Text)
	assert.Equal(t, bob.ID, got[fromBob.ID].Author.ID)
	assert.Equal(t, aliceOnCarol.ID, got[bobOnAlice.ID].ParentID)
	for _, it := range items {
		assert.NotEqual(t, alice.ID, it.Author.ID)
	}
}

func TestActivityResolver_StoreErrorDegrades(t *testing.T) {
	repo := noopThreadRepo()
	repo.idsByAuthorFn = func(_ context.Context, _ uint) ([]uint, error) { return []uint{1}, nil }
	repo.childIDsFn = func(_ context.Context, _ []uint) (map[uint][]uint, error) { return nil, errStoreDown }

	items := NewActivityResolver(repo).Activity(t.Context(), 1)
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestActivityResolver_NewestFirst(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := noopThreadRepo()
	repo.idsByAuthorFn = func(_ context.Context, _ uint) ([]uint, error) { return []uint{1, 2}, nil }
	repo.childIDsFn = func(_ context.Context, _ []uint) (map[uint][]uint, error) {
		return map[uint][]uint{1: {10, 11}, 2: {12}}, nil
	}
	repo.findByIDsFn = func(_ context.Context, _ []uint) ([]*models.Thread, error) {
		return []*models.Thread{
			{ID: 10, AuthorID: 5, CreatedAt: base},
			{ID: 11, AuthorID: 6, CreatedAt: base.Add(2 * time.Hour)},
			{ID: 12, AuthorID: 7, CreatedAt: base.Add(time.Hour)},
		}, nil
	}

	items := NewActivityResolver(repo).Activity(t.Context(), 1)
	require.Len(t, items, 3)
	assert.Equal(t, []uint{11, 12, 10}, []uint{items[0].ReplyID, items[1].ReplyID, items[2].ReplyID})
	assert.Equal(t, uint(2), items[1].ParentID)
}
