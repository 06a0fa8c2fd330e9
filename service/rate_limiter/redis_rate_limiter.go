/*
 * @module service/rate_limiter/redis_rate_limiter
 * @description 基于Redis的固定窗口限流器，保护批量富化与全量流水线等高成本操作
 * @architecture 工具层 - 提供分布式限流能力
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 检查操作规则 -> Redis计数 -> 判断是否超限
 * @rules 使用Lua脚本保证INCR与EXPIRE的原子性
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/init.go, api/controllers/enrichment_controller.go
 */

package rate_limiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"enrichhub-service/service/models"

	"github.com/go-redis/redis/v8"
)

// RateLimitResult 限流检查结果
type RateLimitResult struct {
	Allowed   bool   `json:"allowed"`   // 是否允许请求
	Limit     int    `json:"limit"`     // 窗口内最大请求数
	Remaining int    `json:"remaining"` // 剩余额度
	ResetAt   int64  `json:"reset_at"`  // 窗口重置时间（Unix时间戳）
	Operation string `json:"operation"` // 受限操作名
	Message   string `json:"message"`   // 提示信息
}

// RateLimitRule 单个操作的限流规则
type RateLimitRule struct {
	Operation   string // 操作名，如 batch_enrich / run_pipeline
	TimeWindow  int    // 时间窗口（秒）
	MaxRequests int    // 窗口内最大请求数
}

// DefaultRules 高成本富化操作的默认限流规则
func DefaultRules() []RateLimitRule {
	return []RateLimitRule{
		{Operation: "batch_enrich", TimeWindow: 60, MaxRequests: 10},
		{Operation: "run_pipeline", TimeWindow: 300, MaxRequests: 2},
	}
}

// PipelineRateLimiter Redis固定窗口限流器
type PipelineRateLimiter struct {
	client *redis.Client
	rules  map[string]RateLimitRule
}

// NewPipelineRateLimiter 根据注入的配置创建限流器
func NewPipelineRateLimiter(config *models.RedisConfig, rules []RateLimitRule) (*PipelineRateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Address,
		Password:     config.Password,
		DB:           config.Database,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	ruleMap := make(map[string]RateLimitRule, len(rules))
	for _, rule := range rules {
		ruleMap[rule.Operation] = rule
	}

	slog.Info("流水线限流器初始化成功",
		"redis_addr", config.Address,
		"rule_count", len(ruleMap))

	return &PipelineRateLimiter{
		client: client,
		rules:  ruleMap,
	}, nil
}

// counterScript 原子地读取计数、判断超限并在首次请求时设置过期
const counterScript = `
	local key = KEYS[1]
	local max_requests = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = redis.call('GET', key)
	if current == false then
		current = 0
	else
		current = tonumber(current)
	end

	if current >= max_requests then
		local ttl = redis.call('TTL', key)
		if ttl == -1 then
			ttl = window
		end
		return {0, current, ttl}
	end

	local new_count = redis.call('INCR', key)
	if new_count == 1 then
		redis.call('EXPIRE', key, window)
	end

	local ttl = redis.call('TTL', key)
	if ttl == -1 then
		ttl = window
	end

	return {1, new_count, ttl}
`

// Allow 检查操作是否超过限流，未配置规则的操作直接放行
func (l *PipelineRateLimiter) Allow(ctx context.Context, operation string) (*RateLimitResult, error) {
	rule, ok := l.rules[operation]
	if !ok {
		return &RateLimitResult{
			Allowed:   true,
			Limit:     -1,
			Remaining: -1,
			Operation: operation,
			Message:   "无限流规则",
		}, nil
	}

	key := l.counterKey(rule)
	raw, err := l.client.Eval(ctx, counterScript, []string{key}, rule.MaxRequests, rule.TimeWindow).Result()
	if err != nil {
		return nil, fmt.Errorf("限流检查失败: %w", err)
	}

	values := raw.([]interface{})
	allowed := values[0].(int64) == 1
	count := int(values[1].(int64))
	ttl := int(values[2].(int64))

	remaining := rule.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}

	message := "允许请求"
	if !allowed {
		message = fmt.Sprintf("操作 %s 超过限流限制", operation)
	}

	return &RateLimitResult{
		Allowed:   allowed,
		Limit:     rule.MaxRequests,
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Duration(ttl) * time.Second).Unix(),
		Operation: operation,
		Message:   message,
	}, nil
}

// counterKey 以操作名和当前窗口编号构造计数Key
func (l *PipelineRateLimiter) counterKey(rule RateLimitRule) string {
	window := time.Now().Unix() / int64(rule.TimeWindow)
	return fmt.Sprintf("enrichhub:rate_limit:%s:%d", rule.Operation, window)
}

// Reset 清除操作的当前窗口计数，仅用于测试或管理
func (l *PipelineRateLimiter) Reset(ctx context.Context, operation string) error {
	rule, ok := l.rules[operation]
	if !ok {
		return nil
	}
	return l.client.Del(ctx, l.counterKey(rule)).Err()
}

// Close 关闭Redis客户端
func (l *PipelineRateLimiter) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}
