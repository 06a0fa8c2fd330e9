/*
 * @module service/rate_limiter/redis_rate_limiter_test
 * @description 限流器规则匹配与Key构造的单元测试
 * @architecture 测试层
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 */

package rate_limiter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAllow_NoRule 未配置规则的操作直接放行，不访问Redis
func TestAllow_NoRule(t *testing.T) {
	limiter := &PipelineRateLimiter{
		rules: map[string]RateLimitRule{
			"batch_enrich": {Operation: "batch_enrich", TimeWindow: 60, MaxRequests: 10},
		},
	}

	result, err := limiter.Allow(context.Background(), "single_enrich")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, -1, result.Limit)
	assert.Equal(t, "single_enrich", result.Operation)
}

// TestDefaultRules 默认规则覆盖批量富化与全量流水线
func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()

	operations := make(map[string]RateLimitRule, len(rules))
	for _, rule := range rules {
		operations[rule.Operation] = rule
	}

	require.Contains(t, operations, "batch_enrich")
	require.Contains(t, operations, "run_pipeline")
	assert.Greater(t, operations["batch_enrich"].MaxRequests, operations["run_pipeline"].MaxRequests,
		"全量流水线的限制应比批量富化更严格")
}

// TestCounterKey_WindowAligned 同一窗口内Key稳定，不同操作Key不同
func TestCounterKey_WindowAligned(t *testing.T) {
	limiter := &PipelineRateLimiter{}

	rule := RateLimitRule{Operation: "batch_enrich", TimeWindow: 3600, MaxRequests: 10}
	window := time.Now().Unix() / 3600
	expected := fmt.Sprintf("enrichhub:rate_limit:batch_enrich:%d", window)
	assert.Equal(t, expected, limiter.counterKey(rule))

	other := RateLimitRule{Operation: "run_pipeline", TimeWindow: 3600, MaxRequests: 2}
	assert.NotEqual(t, limiter.counterKey(rule), limiter.counterKey(other))
}

// TestReset_NoRule 未知操作的重置是空操作
func TestReset_NoRule(t *testing.T) {
	limiter := &PipelineRateLimiter{rules: map[string]RateLimitRule{}}
	assert.NoError(t, limiter.Reset(context.Background(), "unknown"))
}
