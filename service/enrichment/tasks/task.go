/*
 * @module service/enrichment/tasks/task
 * @description 富化任务接口定义，每个任务独立产出带置信度的结果或返回错误
 * @architecture 业务服务层 - 任务抽象
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 流水线调用 -> 任务执行 -> TaskResult/错误
 * @rules 任务自行负责重试与超时，流水线不做自动重试；任务失败不影响同一场所的其他任务
 * @dependencies context
 * @refs service/enrichment/pipeline.go
 */

package tasks

import (
	"context"

	"enrichhub-service/service/models"
)

// 任务名称常量，与持久化层的分发逻辑保持一致
const (
	TaskClassification = "classification"
	TaskDemographics   = "demographics"
	TaskFootprint      = "footprint"
)

// Task 富化任务接口
type Task interface {
	// Name 返回任务名称，用于结果分发与错误标注
	Name() string
	// Run 对单个场所执行富化，返回带置信度的结果或错误
	Run(ctx context.Context, venue *models.Venue) (*models.TaskResult, error)
}

// DefaultTasks 返回内置任务集合，顺序即执行顺序
func DefaultTasks() []Task {
	return []Task{
		NewConceptClassifier(),
		NewDemographicEstimator(),
		NewFootprintLocator(),
	}
}
