/*
 * @module service/enrichment/tasks/tasks_test
 * @description 富化任务单元测试，覆盖分类、人口统计与建筑估算
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 场所输入 -> 任务执行 -> 结果与置信度验证
 * @rules 不依赖数据库，纯内存任务执行
 * @dependencies testing, stretchr/testify
 * @refs classifier.go, demographics.go, footprint.go
 */

package tasks

import (
	"context"
	"testing"

	"enrichhub-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConceptClassifier_KeywordMatch 关键词命中的业态分类
func TestConceptClassifier_KeywordMatch(t *testing.T) {
	classifier := NewConceptClassifier()

	cases := []struct {
		name       string
		concept    string
		confidence float64
	}{
		{"Big Sports Bar", "sports_bar", 0.55},
		{"The Wine Cellar", "wine_bar", 0.7},
		{"Downtown Grill & Kitchen", "restaurant", 0.7},
		{"Hotel Lobby Lounge", "cocktail_lounge", 0.55},
	}

	for _, tc := range cases {
		result, err := classifier.Run(context.Background(), &models.Venue{LocationName: tc.name})
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.concept, result.Data["concept_type"], tc.name)
		assert.InDelta(t, tc.confidence, result.Confidence, 0.001, tc.name)
		assert.Equal(t, "keyword_classifier", result.DataSource)
	}
}

// TestConceptClassifier_Fallback 无关键词命中时给出低置信度兜底
func TestConceptClassifier_Fallback(t *testing.T) {
	classifier := NewConceptClassifier()

	result, err := classifier.Run(context.Background(), &models.Venue{LocationName: "Plain Corner Tavern"})
	require.NoError(t, err)

	assert.Equal(t, "general_bar", result.Data["concept_type"])
	assert.Less(t, result.Confidence, 0.3)
}

// TestConceptClassifier_EmptyName 名称为空时任务失败
func TestConceptClassifier_EmptyName(t *testing.T) {
	classifier := NewConceptClassifier()

	_, err := classifier.Run(context.Background(), &models.Venue{LocationName: "  "})
	assert.Error(t, err)
}

// TestConceptClassifier_Deterministic 相同输入产出相同结果
func TestConceptClassifier_Deterministic(t *testing.T) {
	classifier := NewConceptClassifier()
	venue := &models.Venue{LocationName: "Wine & Cocktail Cellar Lounge"}

	first, err := classifier.Run(context.Background(), venue)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := classifier.Run(context.Background(), venue)
		require.NoError(t, err)
		assert.Equal(t, first.Data["concept_type"], again.Data["concept_type"])
		assert.Equal(t, first.Confidence, again.Confidence)
	}
}

// TestDemographicEstimator 邮编派生的确定性估算
func TestDemographicEstimator(t *testing.T) {
	estimator := NewDemographicEstimator()
	venue := &models.Venue{LocationZip: "78701"}

	result, err := estimator.Run(context.Background(), venue)
	require.NoError(t, err)

	assert.Equal(t, "zip_demographics", result.DataSource)
	assert.Equal(t, 0.6, result.Confidence)
	assert.Greater(t, result.Data["population_1_mile"].(float64), 0.0)
	assert.Greater(t, result.Data["median_income"].(float64), 0.0)

	// 同一邮编的估算恒定
	again, err := estimator.Run(context.Background(), venue)
	require.NoError(t, err)
	assert.Equal(t, result.Data, again.Data)
}

// TestDemographicEstimator_ZipPlusFour 5+4邮编取前5位
func TestDemographicEstimator_ZipPlusFour(t *testing.T) {
	estimator := NewDemographicEstimator()

	short, err := estimator.Run(context.Background(), &models.Venue{LocationZip: "78701"})
	require.NoError(t, err)
	long, err := estimator.Run(context.Background(), &models.Venue{LocationZip: "78701-1234"})
	require.NoError(t, err)

	assert.Equal(t, short.Data, long.Data)
}

// TestDemographicEstimator_InvalidZip 无效邮编任务失败
func TestDemographicEstimator_InvalidZip(t *testing.T) {
	estimator := NewDemographicEstimator()

	for _, zip := range []string{"", "7701", "abcde"} {
		_, err := estimator.Run(context.Background(), &models.Venue{LocationZip: zip})
		assert.Error(t, err, "邮编 %q 应导致任务失败", zip)
	}
}

// TestDemographicEstimator_CoordinatesRaiseConfidence 有坐标时置信度更高
func TestDemographicEstimator_CoordinatesRaiseConfidence(t *testing.T) {
	estimator := NewDemographicEstimator()
	lat, lng := 30.27, -97.74

	result, err := estimator.Run(context.Background(), &models.Venue{
		LocationZip: "78701",
		Latitude:    &lat,
		Longitude:   &lng,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.75, result.Confidence)
}

// TestFootprintLocator_ReceiptsHeuristic 按营业额推算面积并夹取边界
func TestFootprintLocator_ReceiptsHeuristic(t *testing.T) {
	locator := NewFootprintLocator()

	cases := []struct {
		receipts float64
		sqft     float64
	}{
		{1500000, 10000},
		{60000, 800},     // 低于下限夹取
		{9000000, 20000}, // 高于上限夹取
	}

	for _, tc := range cases {
		result, err := locator.Run(context.Background(), &models.Venue{
			LocationAddress: "123 Main St",
			TotalReceipts:   tc.receipts,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.sqft, result.Data["square_footage"], "营业额 %.0f", tc.receipts)
		assert.Equal(t, 0.55, result.Confidence)
		assert.Equal(t, "commercial", result.Data["property_type"])
	}
}

// TestFootprintLocator_NoReceipts 无营业额时给出保守低置信度估算
func TestFootprintLocator_NoReceipts(t *testing.T) {
	locator := NewFootprintLocator()

	result, err := locator.Run(context.Background(), &models.Venue{
		LocationAddress: "123 Main St",
		TotalReceipts:   0,
	})
	require.NoError(t, err)

	assert.Equal(t, 800.0, result.Data["square_footage"])
	assert.Less(t, result.Confidence, 0.3)
}

// TestFootprintLocator_EmptyAddress 地址为空时任务失败
func TestFootprintLocator_EmptyAddress(t *testing.T) {
	locator := NewFootprintLocator()

	_, err := locator.Run(context.Background(), &models.Venue{TotalReceipts: 100000})
	assert.Error(t, err)
}

// TestDefaultTasks 默认任务集的顺序与名称
func TestDefaultTasks(t *testing.T) {
	tasks := DefaultTasks()

	require.Len(t, tasks, 3)
	assert.Equal(t, TaskClassification, tasks[0].Name())
	assert.Equal(t, TaskDemographics, tasks[1].Name())
	assert.Equal(t, TaskFootprint, tasks[2].Name())
}
