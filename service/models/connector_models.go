/*
 * @module service/models/connector_models
 * @description 客户端连接器相关模型定义，包含Kafka、MQTT、Redis连接器的配置和消息结构
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 模型定义 -> 连接器配置 -> 消息发布/缓存读写
 * @rules 连接器配置从环境变量构造一次后注入，运行期不可变
 * @dependencies time
 * @refs client/connectors, service/event
 */

package models

import (
	"time"
)

// Kafka相关模型

// KafkaConfig Kafka配置信息
type KafkaConfig struct {
	Brokers           []string      `json:"brokers"`            // Kafka broker地址列表
	GroupID           string        `json:"group_id"`           // 消费者组ID
	ConnectionTimeout time.Duration `json:"connection_timeout"` // 连接超时时间
	BatchSize         int           `json:"batch_size"`         // 生产者批量大小
	BatchTimeout      time.Duration `json:"batch_timeout"`      // 生产者批量超时时间
	RequiredAcks      int           `json:"required_acks"`      // 确认模式
	MaxRetries        int           `json:"max_retries"`        // 最大重试次数
	Async             bool          `json:"async"`              // 是否异步发送
}

// KafkaMessage Kafka消息结构体
type KafkaMessage struct {
	Topic     string            `json:"topic"`     // 主题
	Key       string            `json:"key"`       // 消息键
	Value     interface{}       `json:"value"`     // 消息值
	Headers   map[string]string `json:"headers"`   // 消息头
	Timestamp time.Time         `json:"timestamp"` // 时间戳
}

// MessageHandler Kafka消息处理函数类型
type MessageHandler func(*KafkaMessage) error

// MQTT相关模型

// MQTTConfig MQTT配置信息
type MQTTConfig struct {
	Broker               string        `json:"broker"`                 // MQTT broker地址
	ClientID             string        `json:"client_id"`              // 客户端ID
	Username             string        `json:"username"`               // 用户名
	Password             string        `json:"password"`               // 密码
	CleanSession         bool          `json:"clean_session"`          // 清理会话
	KeepAlive            time.Duration `json:"keep_alive"`             // 保持连接时间
	QoS                  byte          `json:"qos"`                    // 发布QoS级别
	AutoReconnect        bool          `json:"auto_reconnect"`         // 自动重连
	MaxReconnectInterval time.Duration `json:"max_reconnect_interval"` // 最大重连间隔
}

// MQTTMessage MQTT消息结构体
type MQTTMessage struct {
	Topic     string    `json:"topic"`     // 主题
	Payload   []byte    `json:"payload"`   // 消息载荷
	QoS       byte      `json:"qos"`       // 服务质量
	Retained  bool      `json:"retained"`  // 是否保留
	Timestamp time.Time `json:"timestamp"` // 时间戳
}

// MQTTMessageHandler MQTT消息处理函数类型
type MQTTMessageHandler func(*MQTTMessage) error

// Redis相关模型

// RedisConfig Redis配置信息
type RedisConfig struct {
	Address      string        `json:"address"`        // Redis地址
	Password     string        `json:"password"`       // 密码
	Database     int           `json:"database"`       // 数据库号
	PoolSize     int           `json:"pool_size"`      // 连接池大小
	MinIdleConns int           `json:"min_idle_conns"` // 最小空闲连接
	DialTimeout  time.Duration `json:"dial_timeout"`   // 拨号超时
	ReadTimeout  time.Duration `json:"read_timeout"`   // 读取超时
	WriteTimeout time.Duration `json:"write_timeout"`  // 写入超时
}

// ConnectorStatistics 连接器统计信息
type ConnectorStatistics struct {
	ConnectorType    string    `json:"connector_type"`    // 连接器类型
	ConnectionStatus string    `json:"connection_status"` // 连接状态
	MessagesProduced int64     `json:"messages_produced"` // 已生产消息数
	ErrorCount       int64     `json:"error_count"`       // 错误计数
	LastError        string    `json:"last_error"`        // 最后错误
	LastActivity     time.Time `json:"last_activity"`     // 最后活动时间
}
