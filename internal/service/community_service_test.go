package service

import (
	"context"
	"testing"
	"time"

	"threadline/internal/models"
	"threadline/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCommunityService(db *gorm.DB) *CommunityService {
	return NewCommunityService(
		repository.NewCommunityRepository(db),
		repository.NewUserRepository(db),
		repository.NewThreadRepository(db),
		20,
	)
}

func TestCommunityService_CreateAssignsOwnerAndID(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner")
	svc := newCommunityService(db)

	c, err := svc.Create(t.Context(), owner.ID, CommunityInput{Name: "Gophers", Username: " Gophers "})
	require.NoError(t, err)
	assert.Equal(t, "gophers", c.Username)
	assert.NotEmpty(t, c.ExternalID)
	assert.Equal(t, owner.ID, c.CreatedByID)
	require.Len(t, c.Members, 1)
	assert.Equal(t, owner.ID, c.Members[0].ID)

	_, err = svc.Create(t.Context(), owner.ID, CommunityInput{Name: "Again", Username: "gophers"})
	assertAppCode(t, err, models.CodeConflict)

	_, err = svc.Create(t.Context(), 0, CommunityInput{Name: "Anon", Username: "anon"})
	assertAppCode(t, err, models.CodeUnauthorized)
}

func TestCommunityService_UpdateOwnerOnly(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner")
	other := createUser(t, db, "other")
	svc := newCommunityService(db)
	c, err := svc.Create(t.Context(), owner.ID, CommunityInput{Name: "Gophers", Username: "gophers"})
	require.NoError(t, err)

	_, err = svc.Update(t.Context(), other.ID, c.ID, CommunityInput{Name: "Mine", Username: "mine"})
	assertAppCode(t, err, models.CodeForbidden)

	updated, err := svc.Update(t.Context(), owner.ID, c.ID, CommunityInput{Name: "Go Devs", Username: "go_devs", Bio: "all things Go"})
	require.NoError(t, err)
	assert.Equal(t, "Go Devs", updated.Name)
	assert.Equal(t, "go_devs", updated.Username)
	assert.Equal(t, c.ExternalID, updated.ExternalID)
}

func TestCommunityService_Membership(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner")
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	svc := newCommunityService(db)
	c, err := svc.Create(t.Context(), owner.ID, CommunityInput{Name: "Gophers", Username: "gophers"})
	require.NoError(t, err)

	require.NoError(t, svc.AddMember(t.Context(), alice.ID, c.ID, alice.ID))
	assertAppCode(t, svc.AddMember(t.Context(), alice.ID, c.ID, alice.ID), models.CodeConflict)
	assertAppCode(t, svc.AddMember(t.Context(), alice.ID, c.ID, bob.ID), models.CodeForbidden)
	require.NoError(t, svc.AddMember(t.Context(), owner.ID, c.ID, bob.ID))
	assertAppCode(t, svc.AddMember(t.Context(), owner.ID, c.ID, 999), models.CodeNotFound)

	ids, err := repository.NewUserRepository(db).CommunityIDs(t.Context(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID}, ids)

	assertAppCode(t, svc.RemoveMember(t.Context(), alice.ID, c.ID, bob.ID), models.CodeForbidden)
	assertAppCode(t, svc.RemoveMember(t.Context(), owner.ID, c.ID, owner.ID), models.CodeValidation)
	require.NoError(t, svc.RemoveMember(t.Context(), alice.ID, c.ID, alice.ID))
	require.NoError(t, svc.RemoveMember(t.Context(), owner.ID, c.ID, bob.ID))
	assertAppCode(t, svc.RemoveMember(t.Context(), owner.ID, c.ID, bob.ID), models.CodeNotFound)
}

func TestCommunityService_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner")
	alice := createUser(t, db, "alice")
	svc := newCommunityService(db)
	threads := newThreadService(db)
	c, err := svc.Create(t.Context(), owner.ID, CommunityInput{Name: "Gophers", Username: "gophers"})
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(t.Context(), alice.ID, c.ID, alice.ID))

	inside, err := threads.CreateThread(t.Context(), CreateThreadInput{AuthorID: alice.ID, Text: "inside", CommunityID: &c.ID})
	require.NoError(t, err)
	reply := createReply(t, db, owner, inside, "reply")
	outside := createRoot(t, db, alice, "outside", time.Now())

	_, err = svc.Delete(t.Context(), alice.ID, c.ID)
	assertAppCode(t, err, models.CodeForbidden)

	removed, err := svc.Delete(t.Context(), owner.ID, c.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{inside.ID, reply.ID}, removed)

	_, err = svc.Get(t.Context(), c.ID)
	assertAppCode(t, err, models.CodeNotFound)

	ids, err := repository.NewUserRepository(db).CommunityIDs(t.Context(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	survivor, err := repository.NewThreadRepository(db).GetByID(t.Context(), outside.ID)
	require.NoError(t, err)
	assert.Equal(t, "outside", survivor.Text)
}

func TestCommunityService_Search(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner")
	svc := newCommunityService(db)
	for _, h := range []string{"gophers", "rustaceans", "go_nuts"} {
		_, err := svc.Create(t.Context(), owner.ID, CommunityInput{Name: h, Username: h})
		require.NoError(t, err)
	}

	page := svc.Search(t.Context(), "go", 1, 1)
	assert.Len(t, page.Items, 1)
	assert.True(t, page.HasNext)

	all := svc.Search(t.Context(), "", 1, 10)
	assert.Len(t, all.Items, 3)
	assert.False(t, all.HasNext)
}

func TestCommunityService_Search_Degrades(t *testing.T) {
	repo := noopCommunityRepo()
	repo.searchFn = func(_ context.Context, _ string, _, _ int) ([]*models.Community, int64, error) {
		return nil, 0, errStoreDown
	}
	svc := NewCommunityService(repo, noopUserRepo(), noopThreadRepo(), 20)

	page := svc.Search(t.Context(), "x", 1, 10)
	require.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}
