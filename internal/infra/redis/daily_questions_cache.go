package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"lectio-quiz-service/internal/app"
	"lectio-quiz-service/internal/domain"
)

// DailyQuestionsCache is a cache-aside wrapper around a
// DailyQuestionsRepository. Sets are stored as JSON:
//
//	SET daily:{id}          {set}
//	SET daily:date:{day}    {id}
//
// Content is immutable per date, so the TTL only bounds memory; a small
// jitter spreads expirations.
type DailyQuestionsCache struct {
	client *redis.Client
	inner  app.DailyQuestionsRepository
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewDailyQuestionsCache(client *redis.Client, inner app.DailyQuestionsRepository, ttl time.Duration) *DailyQuestionsCache {
	return &DailyQuestionsCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *DailyQuestionsCache) FindByID(ctx context.Context, id string) (domain.DailyQuestions, error) {
	if set, ok := c.cachedByID(ctx, id); ok {
		return set, nil
	}

	result, err, _ := c.sf.Do("id:"+id, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if set, ok := c.cachedByID(ctx, id); ok {
			return set, nil
		}
		set, err := c.inner.FindByID(ctx, id)
		if err != nil {
			return domain.DailyQuestions{}, err
		}
		c.store(ctx, set)
		return set, nil
	})
	if err != nil {
		return domain.DailyQuestions{}, err
	}
	return result.(domain.DailyQuestions), nil
}

func (c *DailyQuestionsCache) FindByDate(ctx context.Context, date time.Time) (domain.DailyQuestions, error) {
	day := dayKey(date)
	if id, err := c.client.Get(ctx, c.dateKey(day)).Result(); err == nil && id != "" {
		if set, ok := c.cachedByID(ctx, id); ok {
			return set, nil
		}
	}

	result, err, _ := c.sf.Do("date:"+day, func() (interface{}, error) {
		set, err := c.inner.FindByDate(ctx, date)
		if err != nil {
			return domain.DailyQuestions{}, err
		}
		c.store(ctx, set)
		return set, nil
	})
	if err != nil {
		return domain.DailyQuestions{}, err
	}
	return result.(domain.DailyQuestions), nil
}

func (c *DailyQuestionsCache) Create(ctx context.Context, set domain.DailyQuestions) (domain.DailyQuestions, error) {
	created, err := c.inner.Create(ctx, set)
	if err != nil {
		return domain.DailyQuestions{}, err
	}
	c.store(ctx, created)
	return created, nil
}

func (c *DailyQuestionsCache) cachedByID(ctx context.Context, id string) (domain.DailyQuestions, bool) {
	raw, err := c.client.Get(ctx, c.idKey(id)).Bytes()
	if err != nil || len(raw) == 0 {
		return domain.DailyQuestions{}, false
	}
	var set domain.DailyQuestions
	if err := json.Unmarshal(raw, &set); err != nil {
		return domain.DailyQuestions{}, false
	}
	return set, true
}

// store caches both lookup paths, best effort.
func (c *DailyQuestionsCache) store(ctx context.Context, set domain.DailyQuestions) {
	raw, err := json.Marshal(set)
	if err != nil {
		return
	}
	ttl := c.ttlWithJitter()
	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.idKey(set.ID), raw, ttl)
	pipe.Set(ctx, c.dateKey(dayKey(set.Date)), set.ID, ttl)
	_, _ = pipe.Exec(ctx)
}

func (c *DailyQuestionsCache) idKey(id string) string {
	return "daily:" + id
}

func (c *DailyQuestionsCache) dateKey(day string) string {
	return "daily:date:" + day
}

func dayKey(date time.Time) string {
	return domain.DayOf(date).Format("2006-01-02")
}

func (c *DailyQuestionsCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
