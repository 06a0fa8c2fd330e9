/*
 * @module service/data_quality/analyzer_test
 * @description 质量分析器单元测试，覆盖评分计算、离群值、重复记录与缺失模式
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试数据输入 -> 质量分析 -> 报告验证
 * @rules 不依赖数据库，纯内存记录分析
 * @dependencies testing, stretchr/testify
 * @refs analyzer.go
 */

package data_quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAnalyze_EmptyDataset 空数据集全部评分为1.0
func TestAnalyze_EmptyDataset(t *testing.T) {
	analyzer := NewQualityAnalyzer(nil)

	report := analyzer.Analyze(nil)

	assert.Equal(t, 0, report.TotalRecords)
	assert.Equal(t, 1.0, report.QualityScore)
	assert.Equal(t, 1.0, report.CompletenessScore)
	assert.Equal(t, 1.0, report.AccuracyScore)
	assert.Equal(t, 1.0, report.ConsistencyScore)
	assert.Equal(t, 1.0, report.TimelinessScore)
	assert.Empty(t, report.Outliers)
	assert.Empty(t, report.Duplicates)
	assert.Empty(t, report.MissingPatterns)
}

// TestAnalyze_CleanDataset 无违规数据集的评分
func TestAnalyze_CleanDataset(t *testing.T) {
	analyzer := NewQualityAnalyzer(nil)

	records := []map[string]interface{}{validRecord(), validRecord()}
	report := analyzer.Analyze(records)

	assert.Equal(t, 2, report.TotalRecords)
	assert.Equal(t, 0, report.ErrorCount)
	assert.Equal(t, 0, report.WarningCount)
	assert.Equal(t, 1.0, report.QualityScore)
	assert.Equal(t, 1.0, report.CompletenessScore)
	assert.Equal(t, 1.0, report.AccuracyScore)
	assert.Equal(t, 1.0, report.ConsistencyScore)
}

// TestAnalyze_ScorePenalty error记1.0、warning记0.5的惩罚公式
func TestAnalyze_ScorePenalty(t *testing.T) {
	analyzer := NewQualityAnalyzer(nil)

	// 缺失必填地址 -> 1个error；同时城市一致性规则因地址缺失被跳过
	bad := validRecord()
	bad["location_address"] = ""

	report := analyzer.Analyze([]map[string]interface{}{bad})

	assert.Equal(t, 1, report.ErrorCount)
	assert.Equal(t, 0, report.WarningCount)
	// 1条记录 × 12条规则，惩罚 = 1.0/12
	expected := 1.0 - 1.0/float64(report.RulesEvaluated)
	assert.InDelta(t, expected, report.QualityScore, 0.001)
	assert.Less(t, report.AccuracyScore, 1.0)
	assert.Equal(t, 1, report.ErrorsByField["location_address"])
	assert.Equal(t, 1, report.ErrorsByType["error_required_location_address"])
}

// TestAnalyze_SeveritySplitByField error与warning按字段分开计数
func TestAnalyze_SeveritySplitByField(t *testing.T) {
	analyzer := NewQualityAnalyzer(nil)

	record := validRecord()
	record["location_zip"] = "bad-zip" // 格式校验error
	record["latitude"] = 200.0         // 范围校验warning

	report := analyzer.Analyze([]map[string]interface{}{record})

	assert.Equal(t, 1, report.ErrorsByField["location_zip"])
	assert.NotContains(t, report.ErrorsByField, "latitude")
	assert.Equal(t, 1, report.WarningsByField["latitude"])
	assert.NotContains(t, report.WarningsByField, "location_zip")
	assert.Equal(t, 1, report.ErrorsByType["error_zip_code_format"])
	assert.Equal(t, 1, report.ErrorsByType["warning_latitude_range"])
}

// TestAnalyze_CompletenessScore 完整性评分为关键字段非空比例均值
func TestAnalyze_CompletenessScore(t *testing.T) {
	analyzer := NewQualityAnalyzer(nil)

	complete := validRecord()
	halfEmpty := validRecord()
	halfEmpty["location_city"] = ""

	report := analyzer.Analyze([]map[string]interface{}{complete, halfEmpty})

	// 6个关键字段中5个全满，1个字段有一半缺失：(5*1.0 + 0.5) / 6
	assert.InDelta(t, (5.0+0.5)/6.0, report.CompletenessScore, 0.001)
}

// TestConsistencyScore_MissingCountsAgainst 一致性评分以全部记录数为分母，字段缺失视为不一致
func TestConsistencyScore_MissingCountsAgainst(t *testing.T) {
	analyzer := NewQualityAnalyzer(nil)

	complete := validRecord()
	noState := validRecord()
	noState["location_state"] = ""

	report := analyzer.Analyze([]map[string]interface{}{complete, noState})

	// 城市一致比例 2/2，州代码一致比例 1/2
	assert.Equal(t, 0.75, report.ConsistencyScore)
}

// TestDetectOutliers_IQR 超过10个非空样本时执行IQR检测
func TestDetectOutliers_IQR(t *testing.T) {
	analyzer := NewQualityAnalyzer(nil)

	var records []map[string]interface{}
	for i := 0; i < 10; i++ {
		r := validRecord()
		r["total_receipts"] = 100000.0 + float64(i)
		records = append(records, r)
	}
	extreme := validRecord()
	extreme["total_receipts"] = 10000000.0
	records = append(records, extreme)

	report := analyzer.Analyze(records)

	info, ok := report.Outliers["total_receipts"]
	require.True(t, ok, "应检出total_receipts的离群值")
	assert.Equal(t, 1, info.OutlierCount)
	assert.Contains(t, info.OutlierValues, 10000000.0)
	assert.Equal(t, []int{10}, report.OutlierRecordIdx)
}

// TestDetectOutliers_TooFewSamples 样本数不超过10时跳过检测
func TestDetectOutliers_TooFewSamples(t *testing.T) {
	analyzer := NewQualityAnalyzer(nil)

	var records []map[string]interface{}
	for i := 0; i < 9; i++ {
		r := validRecord()
		r["total_receipts"] = 100000.0
		records = append(records, r)
	}
	extreme := validRecord()
	extreme["total_receipts"] = 10000000.0
	records = append(records, extreme)

	report := analyzer.Analyze(records)

	assert.NotContains(t, report.Outliers, "total_receipts")
	assert.Empty(t, report.OutlierRecordIdx)
}

// TestDetectDuplicates 按名称、地址、城市元组精确分组
func TestDetectDuplicates(t *testing.T) {
	analyzer := NewQualityAnalyzer(nil)

	a := validRecord()
	b := validRecord()
	c := validRecord()
	c["location_name"] = "Another Bar"

	report := analyzer.Analyze([]map[string]interface{}{a, b, c})

	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, 2, report.Duplicates[0].Count)
	assert.ElementsMatch(t, []int{0, 1}, report.Duplicates[0].Indexes)
}

// TestMineMissingPatterns 缺失字段数大于1才计入模式
func TestMineMissingPatterns(t *testing.T) {
	analyzer := NewQualityAnalyzer(nil)

	// 只缺1个字段的记录不计入
	singleMissing := validRecord()
	singleMissing["location_zip"] = ""

	doubleMissing1 := validRecord()
	doubleMissing1["location_city"] = ""
	doubleMissing1["location_zip"] = nil

	doubleMissing2 := validRecord()
	doubleMissing2["location_city"] = ""
	doubleMissing2["location_zip"] = ""

	report := analyzer.Analyze([]map[string]interface{}{singleMissing, doubleMissing1, doubleMissing2})

	require.Len(t, report.MissingPatterns, 1)
	assert.Equal(t, []string{"location_city", "location_zip"}, report.MissingPatterns[0].Fields)
	assert.Equal(t, 2, report.MissingPatterns[0].Count)
	assert.Equal(t, []int{1, 2}, report.MissingPatterns[0].Indexes)
}

// TestPercentile 线性插值分位数
func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	assert.Equal(t, 3.0, percentile(sorted, 0.5))
	assert.Equal(t, 2.0, percentile(sorted, 0.25))
	assert.Equal(t, 4.0, percentile(sorted, 0.75))
	assert.Equal(t, 1.0, percentile(sorted, 0))
	assert.Equal(t, 5.0, percentile(sorted, 1))
	assert.Equal(t, 7.0, percentile([]float64{7}, 0.5))
}
