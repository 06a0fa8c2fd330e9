/*
 * @module client/connectors/redis_connector
 * @description Redis连接器，为任务结果缓存提供键值读写能力
 * @architecture 适配器模式 - 封装第三方Redis客户端，提供统一的接口
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 连接建立 -> 键值读写 -> 连接断开
 * @rules 缓存值统一JSON序列化；读未命中返回 redis.Nil 原样上抛由调用方判定
 * @dependencies github.com/go-redis/redis/v8, encoding/json
 * @refs service/enrichment/cache.go
 */
package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"enrichhub-service/service/models"

	"github.com/go-redis/redis/v8"
)

// RedisConfig 类型别名，保持对模型层定义的单一来源
type RedisConfig = models.RedisConfig

// RedisConnector Redis连接器结构体
type RedisConnector struct {
	config      *RedisConfig
	client      *redis.Client
	mutex       sync.RWMutex
	isConnected bool
	stats       models.ConnectorStatistics
}

// NewRedisConnector 创建Redis连接器
func NewRedisConnector(config *RedisConfig) *RedisConnector {
	return &RedisConnector{
		config: config,
		stats:  models.ConnectorStatistics{ConnectorType: "redis", ConnectionStatus: "disconnected"},
	}
}

// Connect 建立Redis连接
func (rc *RedisConnector) Connect() error {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	if rc.isConnected {
		return nil
	}

	rc.client = redis.NewClient(&redis.Options{
		Addr:         rc.config.Address,
		Password:     rc.config.Password,
		DB:           rc.config.Database,
		PoolSize:     rc.config.PoolSize,
		MinIdleConns: rc.config.MinIdleConns,
		DialTimeout:  rc.config.DialTimeout,
		ReadTimeout:  rc.config.ReadTimeout,
		WriteTimeout: rc.config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.client.Ping(ctx).Err(); err != nil {
		rc.client = nil
		return fmt.Errorf("连接Redis失败: %w", err)
	}

	rc.isConnected = true
	rc.stats.ConnectionStatus = "connected"
	slog.Info("Redis连接器已连接", "addr", rc.config.Address, "db", rc.config.Database)
	return nil
}

// Disconnect 断开Redis连接
func (rc *RedisConnector) Disconnect() error {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	if !rc.isConnected {
		return nil
	}
	if err := rc.client.Close(); err != nil {
		return fmt.Errorf("关闭Redis连接失败: %w", err)
	}
	rc.client = nil
	rc.isConnected = false
	rc.stats.ConnectionStatus = "disconnected"
	slog.Info("Redis连接器已断开连接")
	return nil
}

// SetJSON 写入JSON序列化后的值
func (rc *RedisConnector) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	client := rc.currentClient()
	if client == nil {
		return fmt.Errorf("Redis连接器未连接")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("序列化缓存值失败: %w", err)
	}
	if err := client.Set(ctx, key, data, expiration).Err(); err != nil {
		rc.recordError(err)
		return fmt.Errorf("写入Redis失败: %w", err)
	}

	rc.mutex.Lock()
	rc.stats.MessagesProduced++
	rc.stats.LastActivity = time.Now()
	rc.mutex.Unlock()
	return nil
}

// GetJSON 读取并反序列化值，未命中时返回 redis.Nil
func (rc *RedisConnector) GetJSON(ctx context.Context, key string, target interface{}) error {
	client := rc.currentClient()
	if client == nil {
		return fmt.Errorf("Redis连接器未连接")
	}

	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			rc.recordError(err)
		}
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("反序列化缓存值失败: %w", err)
	}
	return nil
}

// Delete 删除键
func (rc *RedisConnector) Delete(ctx context.Context, keys ...string) error {
	client := rc.currentClient()
	if client == nil {
		return fmt.Errorf("Redis连接器未连接")
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		rc.recordError(err)
		return fmt.Errorf("删除Redis键失败: %w", err)
	}
	return nil
}

func (rc *RedisConnector) currentClient() *redis.Client {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()
	return rc.client
}

func (rc *RedisConnector) recordError(err error) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()
	rc.stats.ErrorCount++
	rc.stats.LastError = err.Error()
}

// IsConnected 返回连接状态
func (rc *RedisConnector) IsConnected() bool {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()
	return rc.isConnected
}

// GetStatistics 获取连接器统计信息
func (rc *RedisConnector) GetStatistics() models.ConnectorStatistics {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()
	return rc.stats
}
