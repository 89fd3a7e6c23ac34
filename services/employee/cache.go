package employee

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qore-hq/qore-backend/cache"
	"github.com/qore-hq/qore-backend/services/logging"
)

const (
	cacheVersionKey = "employees:ver"
	cacheTTL        = 5 * time.Minute
)

// queryCache is a read-through cache for employee reads. Keys carry a version
// stamp; bumping the version on any write orphans every cached entry at once,
// and the orphans age out on their TTL.
type queryCache struct {
	store  cache.Store
	logger *logging.Service
}

func newQueryCache(store cache.Store, logger *logging.Service) *queryCache {
	return &queryCache{store: store, logger: logger}
}

func (c *queryCache) version(ctx context.Context) int64 {
	raw, err := c.store.Get(ctx, cacheVersionKey)
	if err != nil {
		return 0
	}
	var ver int64
	if _, err := fmt.Sscanf(raw, "%d", &ver); err != nil {
		return 0
	}
	return ver
}

func (c *queryCache) key(ctx context.Context, suffix string) string {
	return fmt.Sprintf("employees:v%d:%s", c.version(ctx), suffix)
}

func listKeySuffix(params ListParams) string {
	raw, _ := json.Marshal(params)
	sum := sha256.Sum256(raw)
	return "list:" + hex.EncodeToString(sum[:16])
}

func (c *queryCache) get(ctx context.Context, suffix string, out any) bool {
	raw, err := c.store.Get(ctx, c.key(ctx, suffix))
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) && c.logger != nil {
			c.logger.Warn("employee cache read failed", zap.String("suffix", suffix), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false
	}
	return true
}

func (c *queryCache) set(ctx context.Context, suffix string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, c.key(ctx, suffix), string(raw), cacheTTL); err != nil && c.logger != nil {
		c.logger.Warn("employee cache write failed", zap.String("suffix", suffix), zap.Error(err))
	}
}

// invalidate bumps the version stamp. Failures are logged only; the database
// remains the source of truth either way.
func (c *queryCache) invalidate(ctx context.Context) {
	if _, err := c.store.Incr(ctx, cacheVersionKey); err != nil && c.logger != nil {
		c.logger.Warn("employee cache invalidation failed", zap.Error(err))
	}
}
