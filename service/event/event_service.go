/*
 * @module service/event/event_service
 * @description 事件发布服务，将富化完成与质量评估事件推送到Kafka与MQTT
 * @architecture 事件驱动架构 - 业务服务层
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 业务事件产生 -> 事件封装 -> Kafka/MQTT发布
 * @rules 事件发布失败只记录日志，不影响业务主流程；连接器可为nil（对应通道禁用）
 * @dependencies client/connectors
 * @refs service/enrichment/pipeline.go, service/data_quality/quality_scheduler.go
 */

package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"enrichhub-service/client/connectors"
	"enrichhub-service/service/models"
)

// 事件主题常量
const (
	TopicEnrichmentCompleted = "enrichhub.enrichment.completed"
	TopicQualityAssessment   = "enrichhub.quality.assessment"
)

// EventService 事件发布服务
type EventService struct {
	kafka *connectors.KafkaConnector
	mqtt  *connectors.MQTTConnector
}

// NewEventService 创建事件发布服务，任一连接器可为nil
func NewEventService(kafka *connectors.KafkaConnector, mqtt *connectors.MQTTConnector) *EventService {
	return &EventService{kafka: kafka, mqtt: mqtt}
}

// PublishEnrichmentCompleted 发布场所富化完成事件
func (s *EventService) PublishEnrichmentCompleted(ctx context.Context, result *models.EnrichmentResult) error {
	payload := map[string]interface{}{
		"event_type":      "enrichment_completed",
		"venue_id":        result.VenueID,
		"success":         result.Success,
		"error_count":     len(result.Errors),
		"warning_count":   len(result.Warnings),
		"data_collected":  result.DataCollected,
		"processing_time": result.ProcessingTime.Milliseconds(),
		"timestamp":       time.Now().UTC(),
	}
	return s.publish(ctx, TopicEnrichmentCompleted, result.VenueID, payload)
}

// PublishQualityAssessment 发布质量评估完成事件
func (s *EventService) PublishQualityAssessment(ctx context.Context, assessment *models.QualityAssessment) error {
	payload := map[string]interface{}{
		"event_type":    "quality_assessment",
		"assessment_id": assessment.ID,
		"dataset_name":  assessment.DatasetName,
		"trigger_type":  assessment.TriggerType,
		"total_records": assessment.TotalRecords,
		"quality_score": assessment.QualityScore,
		"error_count":   assessment.ErrorCount,
		"warning_count": assessment.WarningCount,
		"timestamp":     time.Now().UTC(),
	}
	return s.publish(ctx, TopicQualityAssessment, assessment.ID, payload)
}

// publish 向所有启用的通道发布事件，失败只记录不上抛中断
func (s *EventService) publish(ctx context.Context, topic, key string, payload map[string]interface{}) error {
	var firstErr error

	if s.kafka != nil && s.kafka.IsConnected() {
		err := s.kafka.ProduceMessage(ctx, &connectors.KafkaMessage{
			Topic:     topic,
			Key:       key,
			Value:     payload,
			Timestamp: time.Now(),
		})
		if err != nil {
			slog.Error("Kafka事件发布失败", "topic", topic, "error", err)
			firstErr = err
		}
	}

	if s.mqtt != nil && s.mqtt.IsConnected() {
		if err := s.mqtt.PublishJSON(topic, payload); err != nil {
			slog.Error("MQTT事件发布失败", "topic", topic, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		return fmt.Errorf("事件发布部分失败: %w", firstErr)
	}
	return nil
}
