/*
 * @module client/connectors/kafka_connector
 * @description Kafka连接器，负责富化与质量事件的消息生产
 * @architecture 客户端连接层
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 连接建立 -> 按主题惰性创建生产者 -> 消息发送 -> 连接关闭
 * @rules 每个主题复用同一个Writer；消息值统一JSON序列化
 * @dependencies github.com/segmentio/kafka-go
 * @refs service/event/event_service.go
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

	"github.com/segmentio/kafka-go"
)

// 类型别名，保持对模型层定义的单一来源
type KafkaConfig = models.KafkaConfig
type KafkaMessage = models.KafkaMessage

// KafkaConnector Kafka连接器
type KafkaConnector struct {
	config      *KafkaConfig
	writers     map[string]*kafka.Writer
	mutex       sync.RWMutex
	isConnected bool
	stats       models.ConnectorStatistics
}

// NewKafkaConnector 创建Kafka连接器
func NewKafkaConnector(config *KafkaConfig) *KafkaConnector {
	return &KafkaConnector{
		config:  config,
		writers: make(map[string]*kafka.Writer),
		stats:   models.ConnectorStatistics{ConnectorType: "kafka", ConnectionStatus: "disconnected"},
	}
}

// Connect 建立Kafka连接
func (kc *KafkaConnector) Connect() error {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()

	if kc.isConnected {
		return nil
	}
	if len(kc.config.Brokers) == 0 {
		return fmt.Errorf("Kafka broker地址列表为空")
	}

	// 连通性探测
	timeout := kc.config.ConnectionTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", kc.config.Brokers[0])
	if err != nil {
		return fmt.Errorf("连接Kafka失败: %w", err)
	}
	conn.Close()

	kc.isConnected = true
	kc.stats.ConnectionStatus = "connected"
	slog.Info("Kafka连接器已连接", "brokers", kc.config.Brokers)
	return nil
}

// Disconnect 断开Kafka连接
func (kc *KafkaConnector) Disconnect() error {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()

	if !kc.isConnected {
		return nil
	}

	for topic, writer := range kc.writers {
		if err := writer.Close(); err != nil {
			slog.Error("关闭Kafka生产者失败", "topic", topic, "error", err)
		}
	}
	kc.writers = make(map[string]*kafka.Writer)
	kc.isConnected = false
	kc.stats.ConnectionStatus = "disconnected"
	slog.Info("Kafka连接器已断开连接")
	return nil
}

// writerFor 按主题获取生产者，不存在时创建
func (kc *KafkaConnector) writerFor(topic string) *kafka.Writer {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()

	if writer, ok := kc.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(kc.config.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequiredAcks(kc.config.RequiredAcks),
		Async:        kc.config.Async,
	}
	if kc.config.BatchSize > 0 {
		writer.BatchSize = kc.config.BatchSize
	}
	if kc.config.BatchTimeout > 0 {
		writer.BatchTimeout = kc.config.BatchTimeout
	}
	if kc.config.MaxRetries > 0 {
		writer.MaxAttempts = kc.config.MaxRetries
	}
	kc.writers[topic] = writer
	return writer
}

// ProduceMessage 发送消息，消息值JSON序列化
func (kc *KafkaConnector) ProduceMessage(ctx context.Context, message *KafkaMessage) error {
	if !kc.IsConnected() {
		return fmt.Errorf("Kafka连接器未连接")
	}

	value, err := kc.serializeValue(message.Value)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	kafkaMsg := kafka.Message{
		Key:   []byte(message.Key),
		Value: value,
	}
	for k, v := range message.Headers {
		kafkaMsg.Headers = append(kafkaMsg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	if err := kc.writerFor(message.Topic).WriteMessages(ctx, kafkaMsg); err != nil {
		kc.recordError(err)
		return fmt.Errorf("发送Kafka消息失败 topic=%s: %w", message.Topic, err)
	}

	kc.mutex.Lock()
	kc.stats.MessagesProduced++
	kc.stats.LastActivity = time.Now()
	kc.mutex.Unlock()
	return nil
}

// serializeValue 消息值序列化
func (kc *KafkaConnector) serializeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

func (kc *KafkaConnector) recordError(err error) {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()
	kc.stats.ErrorCount++
	kc.stats.LastError = err.Error()
}

// IsConnected 返回连接状态
func (kc *KafkaConnector) IsConnected() bool {
	kc.mutex.RLock()
	defer kc.mutex.RUnlock()
	return kc.isConnected
}

// GetStatistics 获取连接器统计信息
func (kc *KafkaConnector) GetStatistics() models.ConnectorStatistics {
	kc.mutex.RLock()
	defer kc.mutex.RUnlock()
	return kc.stats
}
