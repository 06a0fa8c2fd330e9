/*
 * @module service/enrichment/config
 * @description 富化流水线配置，启动时从环境变量构造一次后注入，运行期不可变
 * @architecture 业务服务层 - 配置
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 环境变量读取 -> 配置校验 -> 注入流水线
 * @rules 置信度阈值决定任务结果是否持久化；批大小即批内并发上限
 * @dependencies github.com/spf13/cast
 * @refs service/init.go, service/enrichment/pipeline.go
 */

package enrichment

import (
	"os"
	"time"

	"github.com/spf13/cast"
)

// 配置默认值
const (
	DefaultConfidenceThreshold = 0.3
	DefaultBatchSize           = 10
	DefaultCacheTTL            = 24 * time.Hour
)

// Config 富化流水线配置
type Config struct {
	// ConfidenceThreshold 任务结果持久化的最低置信度
	ConfidenceThreshold float64
	// BatchSize 批处理分片大小，同时是批内并发上限
	BatchSize int
	// EnabledTasks 启用的任务名集合，为空时全部启用
	EnabledTasks []string
	// CacheTTL 任务结果缓存的过期时间
	CacheTTL time.Duration
}

// ConfigFromEnv 从环境变量加载配置，非法值回落到默认值
func ConfigFromEnv() Config {
	cfg := Config{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		BatchSize:           DefaultBatchSize,
		CacheTTL:            DefaultCacheTTL,
	}

	if v := os.Getenv("ENRICH_CONFIDENCE_THRESHOLD"); v != "" {
		if threshold, err := cast.ToFloat64E(v); err == nil && threshold >= 0 && threshold <= 1 {
			cfg.ConfidenceThreshold = threshold
		}
	}
	if v := os.Getenv("ENRICH_BATCH_SIZE"); v != "" {
		if size, err := cast.ToIntE(v); err == nil && size > 0 {
			cfg.BatchSize = size
		}
	}
	if v := os.Getenv("ENRICH_ENABLED_TASKS"); v != "" {
		cfg.EnabledTasks = cast.ToStringSlice(v)
	}
	if v := os.Getenv("ENRICH_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil && ttl > 0 {
			cfg.CacheTTL = ttl
		}
	}
	return cfg
}

// TaskEnabled 判断任务是否启用，EnabledTasks为空时全部启用
func (c Config) TaskEnabled(name string) bool {
	if len(c.EnabledTasks) == 0 {
		return true
	}
	for _, t := range c.EnabledTasks {
		if t == name {
			return true
		}
	}
	return false
}
