/*
 * @module client/connectors/mqtt_connector
 * @description MQTT连接器，向运维侧主题推送富化与质量事件通知
 * @architecture 适配器模式 - 封装第三方MQTT客户端，提供统一的接口
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 连接建立 -> 消息发布 -> 连接断开
 * @rules 消息载荷统一JSON序列化；连接丢失时由客户端按配置自动重连
 * @dependencies github.com/eclipse/paho.mqtt.golang
 * @refs service/event/event_service.go
 */

package connectors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"enrichhub-service/service/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConnector MQTT连接器
type MQTTConnector struct {
	config      *models.MQTTConfig
	client      mqtt.Client
	mutex       sync.RWMutex
	isConnected bool
	stats       models.ConnectorStatistics
}

// NewMQTTConnector 创建MQTT连接器
func NewMQTTConnector(config *models.MQTTConfig) *MQTTConnector {
	connector := &MQTTConnector{
		config: config,
		stats:  models.ConnectorStatistics{ConnectorType: "mqtt", ConnectionStatus: "disconnected"},
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.SetCleanSession(config.CleanSession)
	if config.KeepAlive > 0 {
		opts.SetKeepAlive(config.KeepAlive)
	}
	opts.SetAutoReconnect(config.AutoReconnect)
	if config.MaxReconnectInterval > 0 {
		opts.SetMaxReconnectInterval(config.MaxReconnectInterval)
	}
	opts.SetOnConnectHandler(connector.onConnected)
	opts.SetConnectionLostHandler(connector.onConnectionLost)

	connector.client = mqtt.NewClient(opts)
	return connector
}

// Connect 建立MQTT连接
func (mc *MQTTConnector) Connect() error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if mc.isConnected {
		return nil
	}

	if token := mc.client.Connect(); token.Wait() && token.Error() != nil {
		mc.stats.ErrorCount++
		mc.stats.LastError = token.Error().Error()
		return fmt.Errorf("MQTT连接失败: %w", token.Error())
	}

	mc.isConnected = true
	mc.stats.ConnectionStatus = "connected"
	slog.Info("MQTT连接器已连接", "broker", mc.config.Broker, "client_id", mc.config.ClientID)
	return nil
}

// Disconnect 断开MQTT连接
func (mc *MQTTConnector) Disconnect() error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if !mc.isConnected {
		return nil
	}

	// 等待250ms让在途消息发送完成
	mc.client.Disconnect(250)
	mc.isConnected = false
	mc.stats.ConnectionStatus = "disconnected"
	slog.Info("MQTT连接器已断开连接")
	return nil
}

// Publish 发布消息，载荷按原样发送（调用方负责序列化）或JSON化
func (mc *MQTTConnector) Publish(message *models.MQTTMessage) error {
	if !mc.IsConnected() {
		return fmt.Errorf("MQTT客户端未连接")
	}

	qos := message.QoS
	if qos == 0 {
		qos = mc.config.QoS
	}

	token := mc.client.Publish(message.Topic, qos, message.Retained, message.Payload)
	if token.Wait() && token.Error() != nil {
		mc.recordError(token.Error())
		return fmt.Errorf("发布MQTT消息失败 topic=%s: %w", message.Topic, token.Error())
	}

	mc.mutex.Lock()
	mc.stats.MessagesProduced++
	mc.stats.LastActivity = time.Now()
	mc.mutex.Unlock()
	return nil
}

// PublishJSON 将值JSON序列化后发布
func (mc *MQTTConnector) PublishJSON(topic string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("序列化MQTT载荷失败: %w", err)
	}
	return mc.Publish(&models.MQTTMessage{
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}

// onConnected 连接建立回调
func (mc *MQTTConnector) onConnected(client mqtt.Client) {
	mc.mutex.Lock()
	mc.isConnected = true
	mc.stats.ConnectionStatus = "connected"
	mc.mutex.Unlock()
	slog.Debug("MQTT连接已建立", "broker", mc.config.Broker)
}

// onConnectionLost 连接丢失回调
func (mc *MQTTConnector) onConnectionLost(client mqtt.Client, err error) {
	mc.mutex.Lock()
	mc.isConnected = false
	mc.stats.ConnectionStatus = "disconnected"
	mc.stats.ErrorCount++
	mc.stats.LastError = err.Error()
	mc.mutex.Unlock()
	slog.Warn("MQTT连接丢失", "broker", mc.config.Broker, "error", err)
}

func (mc *MQTTConnector) recordError(err error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	mc.stats.ErrorCount++
	mc.stats.LastError = err.Error()
}

// IsConnected 返回连接状态
func (mc *MQTTConnector) IsConnected() bool {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	return mc.isConnected
}

// GetStatistics 获取连接器统计信息
func (mc *MQTTConnector) GetStatistics() models.ConnectorStatistics {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	return mc.stats
}
