/*
 * @module service/enrichment/cache_test
 * @description 任务结果缓存单元测试，覆盖键生成与降级行为
 * @architecture 测试层
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 */

package enrichment

import (
	"context"
	"testing"
	"time"

	"enrichhub-service/service/models"

	"github.com/stretchr/testify/assert"
)

// TestCacheKey_Deterministic 相同输入产生相同键，不同输入产生不同键
func TestCacheKey_Deterministic(t *testing.T) {
	cache := NewTaskResultCache(nil, time.Hour)

	key := cache.cacheKey("classification", "venue-1")
	assert.Equal(t, key, cache.cacheKey("classification", "venue-1"))
	assert.NotEqual(t, key, cache.cacheKey("classification", "venue-2"))
	assert.NotEqual(t, key, cache.cacheKey("demographics", "venue-1"))
	assert.Contains(t, key, "enrichhub:task:")
}

// TestCache_DisabledIsTransparent redis为nil时读写均为安全空操作
func TestCache_DisabledIsTransparent(t *testing.T) {
	cache := NewTaskResultCache(nil, time.Hour)
	ctx := context.Background()

	assert.Nil(t, cache.Get(ctx, "classification", "venue-1"))

	// 不应panic
	cache.Put(ctx, "venue-1", &models.TaskResult{TaskName: "classification"})
	cache.Put(ctx, "venue-1", nil)
}
