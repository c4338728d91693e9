package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
)

// AccountLock serializes profile writers across instances with one
// SET NX PX key per account. The lock is advisory: callers fall back to
// the repositories' conditional writes when acquisition fails, so a
// crashed holder only delays writers until the TTL expires.
type AccountLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAccountLock(client *redis.Client, ttl time.Duration) *AccountLock {
	return &AccountLock{client: client, ttl: ttl}
}

func (l *AccountLock) Lock(ctx context.Context, accountID string) (func(), error) {
	key := "profile:lock:" + accountID
	token := xid.New().String()
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func() {
				// Only the holder's token may release, so an expired
				// lock reclaimed by another writer stays theirs.
				_ = releaseScript.Run(context.Background(), l.client, []string{key}, token).Err()
			}
			return release, nil
		}
		if time.Now().After(deadline) {
			return nil, context.DeadlineExceeded
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)
