package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix         = "user:%d"
	UserExternalKeyPrefix = "user:ext:%s"
	FeedPageKeyPrefix     = "feed:g%d:p%d:s%d"
	FeedGenerationKey     = "feed:generation"
	WSTicketKeyPrefix     = "ws_ticket:%s"
)

const (
	UserTTL     = 5 * time.Minute
	FeedPageTTL = 2 * time.Minute
	WSTicketTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func UserExternalKey(externalID string) string {
	return fmt.Sprintf(UserExternalKeyPrefix, externalID)
}

func FeedPageKey(generation int64, page, size int) string {
	return fmt.Sprintf(FeedPageKeyPrefix, generation, page, size)
}

func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketKeyPrefix, ticket)
}

// InvalidateUser drops both cached lookups of a user.
func InvalidateUser(ctx context.Context, userID uint, externalID string) {
	keys := []string{UserKey(userID)}
	if externalID != "" {
		keys = append(keys, UserExternalKey(externalID))
	}
	Invalidate(ctx, keys...)
}

// FeedGeneration returns the current feed generation. Cached feed pages are keyed by it,
// so bumping the generation retires every page at once.
func FeedGeneration(ctx context.Context) (int64, bool) {
	if client == nil {
		return 0, false
	}
	gen, err := client.Get(ctx, FeedGenerationKey).Int64()
	if err != nil {
		if isNil(err) {
			return 0, true
		}
		return 0, false
	}
	return gen, true
}

// BumpFeedGeneration retires all cached feed pages.
func BumpFeedGeneration(ctx context.Context) {
	if client == nil {
		return
	}
	if err := client.Incr(ctx, FeedGenerationKey).Err(); err != nil {
		Invalidate(ctx, FeedGenerationKey)
	}
}
