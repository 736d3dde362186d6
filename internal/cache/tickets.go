package cache

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCacheUnavailable is returned by operations that cannot work without Redis.
var ErrCacheUnavailable = errors.New("cache unavailable")

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// IssueWSTicket stores a single-use websocket ticket for userID and returns it.
func IssueWSTicket(ctx context.Context, userID uint) (string, error) {
	if client == nil {
		return "", ErrCacheUnavailable
	}
	ticket := uuid.NewString()
	if err := client.Set(ctx, WSTicketKey(ticket), userID, WSTicketTTL).Err(); err != nil {
		return "", err
	}
	return ticket, nil
}

// RedeemWSTicket consumes ticket and returns the user it was issued to.
func RedeemWSTicket(ctx context.Context, ticket string) (uint, bool) {
	if client == nil || ticket == "" {
		return 0, false
	}
	raw, err := client.GetDel(ctx, WSTicketKey(ticket)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
