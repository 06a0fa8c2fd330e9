/*
 * @module service/data_quality/reporter_test
 * @description 质量报告生成器单元测试，覆盖问题排行、建议阈值与JSON导出
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试数据输入 -> 报告生成 -> 排行与建议验证
 * @rules 不依赖数据库
 * @dependencies testing, stretchr/testify
 * @refs reporter.go
 */

package data_quality

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"enrichhub-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildReport_HealthyDataset 健康数据集输出唯一一条正向建议
func TestBuildReport_HealthyDataset(t *testing.T) {
	reporter := NewQualityReporter(nil, nil)

	records := []map[string]interface{}{validRecord(), validRecord()}
	// 避免两条相同记录触发重复检测建议
	records[1]["location_name"] = "Another Venue"

	report := reporter.BuildReport(records)

	assert.Empty(t, report.TopIssues)
	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, "数据质量状况良好，无需立即处理", report.Recommendations[0])
}

// TestBuildReport_CleansesBeforeAnalysis 报告生成前先清洗记录
func TestBuildReport_CleansesBeforeAnalysis(t *testing.T) {
	reporter := NewQualityReporter(nil, nil)

	// 原始邮编带9位数字，清洗后为5+4格式可通过格式校验
	record := validRecord()
	record["location_zip"] = "787011234"
	record["location_state"] = " tx "

	report := reporter.BuildReport([]map[string]interface{}{record})

	assert.Equal(t, 0, report.ErrorCount)
	assert.Empty(t, report.TopIssues)
}

// TestRankIssues_SortedAndCapped 问题排行按次数降序且最多10条
func TestRankIssues_SortedAndCapped(t *testing.T) {
	reporter := NewQualityReporter(nil, nil)

	var records []map[string]interface{}
	// 5条记录缺地址，3条记录邮编非法；名称各不相同以避免触发重复检测
	for i := 0; i < 5; i++ {
		r := validRecord()
		r["location_name"] = fmt.Sprintf("Venue A%d", i)
		r["location_address"] = ""
		records = append(records, r)
	}
	for i := 0; i < 3; i++ {
		r := validRecord()
		r["location_name"] = fmt.Sprintf("Venue B%d", i)
		r["location_zip"] = "bad-zip"
		records = append(records, r)
	}

	report := reporter.BuildReport(records)

	require.NotEmpty(t, report.TopIssues)
	assert.LessOrEqual(t, len(report.TopIssues), 10)
	// 次数降序
	for i := 1; i < len(report.TopIssues); i++ {
		assert.GreaterOrEqual(t, report.TopIssues[i-1].Count, report.TopIssues[i].Count)
	}
	assert.Equal(t, "required_location_address", report.TopIssues[0].RuleName)
	assert.Equal(t, 5, report.TopIssues[0].Count)
}

// TestBuildRecommendations_Thresholds 阈值触发的改进建议
func TestBuildRecommendations_Thresholds(t *testing.T) {
	reporter := NewQualityReporter(nil, nil)

	// 大量缺失与违规使各项评分跌破阈值
	var records []map[string]interface{}
	for i := 0; i < 4; i++ {
		records = append(records, map[string]interface{}{
			"location_name":  "",
			"location_state": "XX",
			"total_receipts": -1.0,
		})
	}

	report := reporter.BuildReport(records)

	assert.Less(t, report.QualityScore, 0.7)
	assert.Less(t, report.CompletenessScore, 0.8)
	assert.Less(t, report.AccuracyScore, 0.9)

	joined := ""
	for _, rec := range report.Recommendations {
		joined += rec + "\n"
	}
	assert.Contains(t, joined, "整体质量评分")
	assert.Contains(t, joined, "完整性评分")
	assert.Contains(t, joined, "准确性评分")
	assert.Contains(t, joined, "缺失模式")
	assert.NotContains(t, joined, "数据质量状况良好")
}

// TestBuildRecommendations_FieldErrorRate 字段违规率超过10%生成字段级建议
func TestBuildRecommendations_FieldErrorRate(t *testing.T) {
	reporter := NewQualityReporter(nil, nil)

	var records []map[string]interface{}
	for i := 0; i < 9; i++ {
		records = append(records, validRecord())
	}
	bad := validRecord()
	bad["location_state"] = "ZZ"
	records = append(records, bad)

	report := reporter.BuildReport(records)

	joined := ""
	for _, rec := range report.Recommendations {
		joined += rec + "\n"
	}
	// 1/10 = 10%，不超过阈值则不触发；字段违规率必须严格大于10%
	assert.NotContains(t, joined, "location_state")
}

// TestBuildRecommendations_WarningsNotInErrorRate warning级违规不推高字段级建议的违规率
func TestBuildRecommendations_WarningsNotInErrorRate(t *testing.T) {
	reporter := NewQualityReporter(nil, nil)

	var records []map[string]interface{}
	for i := 0; i < 10; i++ {
		r := validRecord()
		r["location_name"] = fmt.Sprintf("Venue %d", i)
		records = append(records, r)
	}
	// 3/10的记录纬度越界，仅产生warning
	for i := 0; i < 3; i++ {
		records[i]["latitude"] = 200.0
	}

	report := reporter.BuildReport(records)

	assert.Equal(t, 3, report.WarningCount)
	assert.Empty(t, report.ErrorsByField)
	joined := ""
	for _, rec := range report.Recommendations {
		joined += rec + "\n"
	}
	assert.NotContains(t, joined, "'latitude'")
}

// TestAssessmentFromReport 报告转评估记录
func TestAssessmentFromReport(t *testing.T) {
	reporter := NewQualityReporter(nil, nil)

	record := validRecord()
	record["location_zip"] = "bad"
	report := reporter.BuildReport([]map[string]interface{}{record})

	assessment := AssessmentFromReport("venues", "manual", report)

	assert.Equal(t, "venues", assessment.DatasetName)
	assert.Equal(t, "manual", assessment.TriggerType)
	assert.Equal(t, report.QualityScore, assessment.QualityScore)
	assert.Equal(t, report.TotalRecords, assessment.TotalRecords)
	assert.NotEmpty(t, assessment.TopIssues)
	assert.NotEmpty(t, assessment.Recommendations)
}

// TestExportJSON 报告导出为JSON文件
func TestExportJSON(t *testing.T) {
	reporter := NewQualityReporter(nil, nil)
	report := reporter.BuildReport([]map[string]interface{}{validRecord()})

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, reporter.ExportJSON(report, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded models.QualityReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.TotalRecords, decoded.TotalRecords)
	assert.Equal(t, report.QualityScore, decoded.QualityScore)
}
