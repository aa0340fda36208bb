package coachservice

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// replyCache remembers recent answers and collapses concurrent identical requests
// into a single provider call.
type replyCache struct {
	lru   *expirable.LRU[string, ChatResponse]
	group singleflight.Group
}

// newReplyCache returns nil when size is not positive, which disables caching.
func newReplyCache(size int, ttl time.Duration) *replyCache {
	if size <= 0 {
		return nil
	}
	return &replyCache{lru: expirable.NewLRU[string, ChatResponse](size, nil, ttl)}
}

func cacheKey(req ChatRequest) string {
	h := sha256.New()
	for _, part := range []string{req.UserID, req.Context, req.Message} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// do returns a cached response for key, or runs fn once for all concurrent callers.
// Only successful responses are stored. shared reports whether the result did not
// come from this caller's own fn run.
func (c *replyCache) do(key string, fn func() (ChatResponse, error)) (resp ChatResponse, shared bool, err error) {
	if cached, ok := c.lru.Get(key); ok {
		return cached, true, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		resp, err := fn()
		if err != nil {
			return ChatResponse{}, err
		}
		c.lru.Add(key, resp)
		return resp, nil
	})
	return v.(ChatResponse), shared, err
}

func (c *replyCache) len() int {
	return c.lru.Len()
}
