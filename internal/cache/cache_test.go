package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

type cachedUser struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestAside_FetchesOnceThenHits(t *testing.T) {
	useMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			calls++
			*dest = cachedUser{ID: 1, Name: "ada"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, "user", UserKey(1), &first, UserTTL, fetch(&first)))
	var second cachedUser
	require.NoError(t, Aside(ctx, "user", UserKey(1), &second, UserTTL, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestAside_DoesNotCacheFetchErrors(t *testing.T) {
	mr := useMiniredis(t)
	var dest cachedUser
	err := Aside(context.Background(), "user", UserKey(2), &dest, UserTTL, func() error {
		return errors.New("store down")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists(UserKey(2)))
}

func TestAside_WithoutRedisAlwaysFetches(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest cachedUser
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), "user", UserKey(3), &dest, UserTTL, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestInvalidateUser(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()
	require.NoError(t, SetJSON(ctx, UserKey(4), cachedUser{ID: 4}, UserTTL))
	require.NoError(t, SetJSON(ctx, UserExternalKey("ext_4"), cachedUser{ID: 4}, UserTTL))

	InvalidateUser(ctx, 4, "ext_4")

	assert.False(t, mr.Exists(UserKey(4)))
	assert.False(t, mr.Exists(UserExternalKey("ext_4")))
}

func TestFeedGeneration(t *testing.T) {
	useMiniredis(t)
	ctx := context.Background()

	gen, ok := FeedGeneration(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(0), gen)

	BumpFeedGeneration(ctx)
	gen, ok = FeedGeneration(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(1), gen)
	assert.NotEqual(t, FeedPageKey(0, 1, 20), FeedPageKey(gen, 1, 20))
}

func TestWSTicket_SingleUse(t *testing.T) {
	useMiniredis(t)
	ctx := context.Background()

	ticket, err := IssueWSTicket(ctx, 12)
	require.NoError(t, err)

	userID, ok := RedeemWSTicket(ctx, ticket)
	require.True(t, ok)
	assert.Equal(t, uint(12), userID)

	_, ok = RedeemWSTicket(ctx, ticket)
	assert.False(t, ok)
}

func TestWSTicket_NoRedis(t *testing.T) {
	SetClient(nil)
	_, err := IssueWSTicket(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCacheUnavailable)
}
