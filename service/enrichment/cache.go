/*
 * @module service/enrichment/cache
 * @description 任务结果缓存，以任务名与场所标识的摘要为键缓存富化结果，降低重复计算
 * @architecture 业务服务层 - 缓存
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 键计算 -> 缓存查询 -> 未命中执行任务 -> 结果回写
 * @rules 缓存不可用或未命中时透明降级为直接执行；缓存读写失败不影响富化流程
 * @dependencies client/connectors, crypto/md5
 * @refs service/enrichment/pipeline.go
 */

package enrichment

import (
	"context"
	"crypto/md5"
	"fmt"
	"log/slog"
	"time"

	"enrichhub-service/client/connectors"
	"enrichhub-service/service/models"
)

// TaskResultCache 任务结果缓存
type TaskResultCache struct {
	redis *connectors.RedisConnector
	ttl   time.Duration
}

// NewTaskResultCache 创建任务结果缓存，redis为nil时缓存整体禁用
func NewTaskResultCache(redis *connectors.RedisConnector, ttl time.Duration) *TaskResultCache {
	return &TaskResultCache{redis: redis, ttl: ttl}
}

// cacheKey 由任务名与场所标识生成摘要键
func (c *TaskResultCache) cacheKey(taskName, identity string) string {
	digest := md5.Sum([]byte(fmt.Sprintf("task_result:%s:%s", taskName, identity)))
	return fmt.Sprintf("enrichhub:task:%x", digest)
}

// Get 查询缓存，未命中或缓存不可用时返回nil
func (c *TaskResultCache) Get(ctx context.Context, taskName, identity string) *models.TaskResult {
	if c.redis == nil || !c.redis.IsConnected() {
		return nil
	}

	var result models.TaskResult
	if err := c.redis.GetJSON(ctx, c.cacheKey(taskName, identity), &result); err != nil {
		return nil
	}
	return &result
}

// Put 写入缓存，失败只记录日志
func (c *TaskResultCache) Put(ctx context.Context, identity string, result *models.TaskResult) {
	if c.redis == nil || !c.redis.IsConnected() || result == nil {
		return
	}

	key := c.cacheKey(result.TaskName, identity)
	if err := c.redis.SetJSON(ctx, key, result, c.ttl); err != nil {
		slog.Debug("任务结果缓存写入失败", "task", result.TaskName, "error", err)
	}
}
