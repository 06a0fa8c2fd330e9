/*
 * @module service/data_quality/analyzer
 * @description 数据集质量分析器，计算五维质量评分并执行离群值、重复记录与缺失模式分析
 * @architecture 业务服务层 - 分析引擎
 * @documentReference ai_docs/data_quality_engine_impl.md
 * @stateFlow 记录集 -> 验证引擎评估 -> 评分计算 -> 统计分析 -> 质量报告骨架
 * @rules 全部评分统一为0-1区间并保留3位小数；空数据集的质量分与完整性分为1.0；
 *        非空值不足（<=10）的数值字段跳过离群值检测
 * @dependencies github.com/spf13/cast
 * @refs service/data_quality/validator.go, service/data_quality/reporter.go
 */

package data_quality

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"enrichhub-service/service/models"

	"github.com/spf13/cast"
)

// 分析涉及的固定字段集
var (
	// keyFields 完整性评分与缺失模式分析的关键字段
	keyFields = []string{
		"location_name", "location_address", "location_city",
		"location_state", "location_zip", "total_receipts",
	}

	// outlierFields 离群值检测的数值字段
	outlierFields = []string{
		"total_receipts", "latitude", "longitude",
		"population_1_mile", "square_footage",
	}

	// duplicateKeyFields 重复记录判定字段元组
	duplicateKeyFields = []string{"location_name", "location_address", "location_city"}
)

// minOutlierSamples 离群值检测要求的最小非空样本数（不含）
const minOutlierSamples = 10

// QualityAnalyzer 数据集质量分析器
type QualityAnalyzer struct {
	engine *ValidationEngine
}

// NewQualityAnalyzer 创建质量分析器
func NewQualityAnalyzer(engine *ValidationEngine) *QualityAnalyzer {
	if engine == nil {
		engine = NewValidationEngine(nil, nil)
	}
	return &QualityAnalyzer{engine: engine}
}

// Engine 返回底层验证引擎
func (a *QualityAnalyzer) Engine() *ValidationEngine {
	return a.engine
}

// Analyze 对记录集执行完整质量分析，返回未含建议与问题排行的报告骨架
func (a *QualityAnalyzer) Analyze(records []map[string]interface{}) *models.QualityReport {
	report := &models.QualityReport{
		GeneratedAt:     time.Now(),
		TotalRecords:    len(records),
		RulesEvaluated:  a.engine.EnabledRuleCount(),
		TimelinessScore: 1.0,
		ErrorsByField:   map[string]int{},
		WarningsByField: map[string]int{},
		ErrorsByType:    map[string]int{},
		Outliers:        map[string]models.FieldOutlierInfo{},
	}

	if len(records) == 0 {
		report.QualityScore = 1.0
		report.CompletenessScore = 1.0
		report.AccuracyScore = 1.0
		report.ConsistencyScore = 1.0
		return report
	}

	results := a.engine.ValidateRecords(records)
	report.DetailedResults = results

	for _, r := range results {
		if r.Passed {
			continue
		}
		switch r.Severity {
		case models.SeverityError:
			report.ErrorCount++
			report.ErrorsByField[r.Field]++
		case models.SeverityWarning:
			report.WarningCount++
			report.WarningsByField[r.Field]++
		default:
			report.InfoCount++
		}
		report.ErrorsByType[r.Severity+"_"+r.RuleName]++
	}

	report.QualityScore = a.qualityScore(len(records), report.ErrorCount, report.WarningCount)
	report.CompletenessScore = a.completenessScore(records)
	report.AccuracyScore = a.accuracyScore(results)
	report.ConsistencyScore = a.consistencyScore(records)

	report.Outliers, report.OutlierRecordIdx = a.detectOutliers(records)
	report.Duplicates = a.detectDuplicates(records)
	report.MissingPatterns = a.mineMissingPatterns(records)

	return report
}

// qualityScore 综合质量评分：error记1.0、warning记0.5，按记录数×规则数归一
func (a *QualityAnalyzer) qualityScore(totalRecords, errorCount, warningCount int) float64 {
	denominator := float64(totalRecords * a.engine.EnabledRuleCount())
	if denominator == 0 {
		return 1.0
	}
	penalty := (float64(errorCount)*1.0 + float64(warningCount)*0.5) / denominator
	return round3(math.Max(0, 1-penalty))
}

// completenessScore 完整性评分：关键字段非空比例的均值
func (a *QualityAnalyzer) completenessScore(records []map[string]interface{}) float64 {
	total := float64(len(records))
	var sum float64
	for _, field := range keyFields {
		nullCount := 0
		for _, record := range records {
			if isEmptyValue(record[field]) {
				nullCount++
			}
		}
		sum += 1 - float64(nullCount)/total
	}
	return round3(sum / float64(len(keyFields)))
}

// accuracyScore 准确性评分：通过的评估次数占全部评估次数的比例
func (a *QualityAnalyzer) accuracyScore(results []models.ValidationResult) float64 {
	if len(results) == 0 {
		return 1.0
	}
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return round3(float64(passed) / float64(len(results)))
}

// consistencyScore 一致性评分：城市包含于地址的记录比例与州代码长度恰为2的记录比例的均值
// 两个比例均以全部记录数为分母，城市或州代码缺失的记录视为不一致
func (a *QualityAnalyzer) consistencyScore(records []map[string]interface{}) float64 {
	cityConsistent, stateConsistent := 0, 0

	for _, record := range records {
		city := strings.TrimSpace(cast.ToString(record["location_city"]))
		address := cast.ToString(record["location_address"])
		if city != "" && address != "" &&
			strings.Contains(strings.ToLower(address), strings.ToLower(city)) {
			cityConsistent++
		}

		state := strings.TrimSpace(cast.ToString(record["location_state"]))
		if len(state) == 2 {
			stateConsistent++
		}
	}

	total := float64(len(records))
	cityScore := float64(cityConsistent) / total
	stateScore := float64(stateConsistent) / total
	return round3((cityScore + stateScore) / 2)
}

// detectOutliers 基于IQR的离群值检测，返回按字段的检测结果与去重后的记录索引并集
func (a *QualityAnalyzer) detectOutliers(records []map[string]interface{}) (map[string]models.FieldOutlierInfo, []int) {
	outliers := map[string]models.FieldOutlierInfo{}
	flagged := map[int]bool{}

	for _, field := range outlierFields {
		type sample struct {
			index int
			value float64
		}
		var samples []sample
		for i, record := range records {
			v, ok := record[field]
			if !ok || v == nil {
				continue
			}
			f, err := cast.ToFloat64E(v)
			if err != nil {
				continue
			}
			samples = append(samples, sample{index: i, value: f})
		}

		// 样本不足时跳过该字段，避免稀疏数据误报
		if len(samples) <= minOutlierSamples {
			continue
		}

		values := make([]float64, len(samples))
		for i, s := range samples {
			values[i] = s.value
		}
		sort.Float64s(values)

		q1 := percentile(values, 0.25)
		q3 := percentile(values, 0.75)
		iqr := q3 - q1
		lower := q1 - 1.5*iqr
		upper := q3 + 1.5*iqr

		info := models.FieldOutlierInfo{
			Field:      field,
			LowerBound: lower,
			UpperBound: upper,
		}
		for _, s := range samples {
			if s.value < lower || s.value > upper {
				info.OutlierCount++
				info.OutlierValues = append(info.OutlierValues, s.value)
				flagged[s.index] = true
			}
		}
		if info.OutlierCount > 0 {
			outliers[field] = info
		}
	}

	indexes := make([]int, 0, len(flagged))
	for i := range flagged {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	return outliers, indexes
}

// detectDuplicates 按名称、地址、城市的精确元组分组，组内成员全部标记为重复
func (a *QualityAnalyzer) detectDuplicates(records []map[string]interface{}) []models.DuplicateGroup {
	groups := map[string][]int{}
	for i, record := range records {
		parts := make([]string, len(duplicateKeyFields))
		for j, field := range duplicateKeyFields {
			parts[j] = cast.ToString(record[field])
		}
		key := strings.Join(parts, "|")
		groups[key] = append(groups[key], i)
	}

	var duplicates []models.DuplicateGroup
	for key, indexes := range groups {
		if len(indexes) > 1 {
			duplicates = append(duplicates, models.DuplicateGroup{
				Key:     key,
				Count:   len(indexes),
				Indexes: indexes,
			})
		}
	}
	sort.Slice(duplicates, func(i, j int) bool {
		return duplicates[i].Key < duplicates[j].Key
	})
	return duplicates
}

// mineMissingPatterns 缺失模式挖掘：缺失字段数大于1的记录按排序拼接的字段组合分桶，
// 每个模式携带命中记录的索引列表
func (a *QualityAnalyzer) mineMissingPatterns(records []map[string]interface{}) []models.MissingPattern {
	buckets := map[string][]string{}
	members := map[string][]int{}
	for i, record := range records {
		var missing []string
		for _, field := range keyFields {
			if isEmptyValue(record[field]) {
				missing = append(missing, field)
			}
		}
		if len(missing) <= 1 {
			continue
		}
		sort.Strings(missing)
		key := strings.Join(missing, ",")
		buckets[key] = missing
		members[key] = append(members[key], i)
	}

	var patterns []models.MissingPattern
	for key, fields := range buckets {
		patterns = append(patterns, models.MissingPattern{
			Fields:  fields,
			Count:   len(members[key]),
			Indexes: members[key],
		})
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		return fmt.Sprint(patterns[i].Fields) < fmt.Sprint(patterns[j].Fields)
	})
	return patterns
}

// percentile 线性插值分位数，输入必须已排序
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// round3 保留3位小数
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
