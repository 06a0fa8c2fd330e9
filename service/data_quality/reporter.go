/*
 * @module service/data_quality/reporter
 * @description 质量报告生成器，汇总分析结果生成问题排行与改进建议，支持导出JSON报告
 * @architecture 业务服务层 - 报告层
 * @documentReference ai_docs/data_quality_engine_impl.md
 * @stateFlow 记录清洗 -> 质量分析 -> 问题聚合排序 -> 建议生成 -> 报告输出
 * @rules 问题排行按出现次数降序且最多10条；无任何阈值触发时必须输出一条正向建议
 * @dependencies encoding/json, log/slog
 * @refs service/data_quality/analyzer.go, service/data_quality/quality_scheduler.go
 */

package data_quality

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"enrichhub-service/service/models"
)

// 建议生成的固定阈值
const (
	qualityThreshold      = 0.7
	completenessThreshold = 0.8
	accuracyThreshold     = 0.9
	fieldErrorRateLimit   = 0.10
	outlierRateLimit      = 0.05
)

// QualityReporter 质量报告生成器
type QualityReporter struct {
	analyzer *QualityAnalyzer
	cleanser *DataCleanser
}

// NewQualityReporter 创建报告生成器
func NewQualityReporter(analyzer *QualityAnalyzer, cleanser *DataCleanser) *QualityReporter {
	if analyzer == nil {
		analyzer = NewQualityAnalyzer(nil)
	}
	if cleanser == nil {
		cleanser = NewDataCleanser()
	}
	return &QualityReporter{analyzer: analyzer, cleanser: cleanser}
}

// BuildReport 清洗记录集后执行分析，生成带问题排行与建议的完整报告
func (r *QualityReporter) BuildReport(records []map[string]interface{}) *models.QualityReport {
	cleaned := r.cleanser.CleanRecords(records)
	report := r.analyzer.Analyze(cleaned)

	report.TopIssues = r.rankIssues(report)
	report.Recommendations = r.buildRecommendations(report)

	slog.Info("质量报告生成完成",
		"total_records", report.TotalRecords,
		"quality_score", report.QualityScore,
		"errors", report.ErrorCount,
		"warnings", report.WarningCount)
	return report
}

// rankIssues 聚合验证失败、离群值组与重复组，按出现次数降序取前10
func (r *QualityReporter) rankIssues(report *models.QualityReport) []models.IssueSummary {
	type issueKey struct {
		rule  string
		field string
	}
	grouped := map[issueKey]*models.IssueSummary{}

	for _, result := range report.DetailedResults {
		if result.Passed {
			continue
		}
		key := issueKey{rule: result.RuleName, field: result.Field}
		if existing, ok := grouped[key]; ok {
			existing.Count++
			continue
		}
		grouped[key] = &models.IssueSummary{
			RuleName: result.RuleName,
			Field:    result.Field,
			Severity: result.Severity,
			Message:  result.Message,
			Count:    1,
		}
	}

	var issues []models.IssueSummary
	for _, summary := range grouped {
		issues = append(issues, *summary)
	}

	for field, info := range report.Outliers {
		issues = append(issues, models.IssueSummary{
			RuleName: "outlier_detection",
			Field:    field,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("字段 '%s' 存在 %d 个离群值", field, info.OutlierCount),
			Count:    info.OutlierCount,
		})
	}
	for _, group := range report.Duplicates {
		issues = append(issues, models.IssueSummary{
			RuleName: "duplicate_detection",
			Field:    "location_name",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("发现 %d 条重复记录: %s", group.Count, group.Key),
			Count:    group.Count,
		})
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Count != issues[j].Count {
			return issues[i].Count > issues[j].Count
		}
		return issues[i].RuleName < issues[j].RuleName
	})

	if len(issues) > 10 {
		issues = issues[:10]
	}
	return issues
}

// buildRecommendations 按固定阈值生成改进建议；无建议时输出一条正向建议
func (r *QualityReporter) buildRecommendations(report *models.QualityReport) []string {
	var recommendations []string
	total := report.TotalRecords

	if report.QualityScore < qualityThreshold {
		recommendations = append(recommendations,
			fmt.Sprintf("整体质量评分 %.3f 低于 %.1f，建议优先修复error级违规", report.QualityScore, qualityThreshold))
	}
	if report.CompletenessScore < completenessThreshold {
		recommendations = append(recommendations,
			fmt.Sprintf("完整性评分 %.3f 低于 %.1f，建议补全关键字段的缺失值", report.CompletenessScore, completenessThreshold))
	}
	if report.AccuracyScore < accuracyThreshold {
		recommendations = append(recommendations,
			fmt.Sprintf("准确性评分 %.3f 低于 %.1f，建议核查格式与取值范围违规", report.AccuracyScore, accuracyThreshold))
	}

	if total > 0 {
		// 只统计error级违规，warning不推高字段违规率
		var errorFields []string
		for field, count := range report.ErrorsByField {
			if float64(count) > float64(total)*fieldErrorRateLimit {
				errorFields = append(errorFields, field)
			}
		}
		sort.Strings(errorFields)
		for _, field := range errorFields {
			recommendations = append(recommendations,
				fmt.Sprintf("字段 '%s' 的error级违规率超过 10%%，建议排查该字段的数据来源", field))
		}

		if float64(len(report.OutlierRecordIdx)) > float64(total)*outlierRateLimit {
			recommendations = append(recommendations,
				fmt.Sprintf("离群记录占比超过 5%%（%d/%d），建议人工复核极端值", len(report.OutlierRecordIdx), total))
		}
	}

	if len(report.MissingPatterns) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("检测到 %d 种多字段缺失模式，建议检查上游采集流程", len(report.MissingPatterns)))
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, "数据质量状况良好，无需立即处理")
	}
	return recommendations
}

// ExportJSON 将报告导出为JSON文件
func (r *QualityReporter) ExportJSON(report *models.QualityReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化质量报告失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入质量报告文件失败: %w", err)
	}
	slog.Info("质量报告已导出", "path", path)
	return nil
}
