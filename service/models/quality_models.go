/*
 * @module service/models/quality_models
 * @description 数据质量模型，包含验证规则、验证结果、质量报告与质量评估持久化记录
 * @architecture 数据模型层
 * @documentReference ai_docs/data_quality_engine_impl.md
 * @stateFlow 规则定义 -> 规则执行 -> 质量分析 -> 报告生成 -> 评估入库
 * @rules 规则类型与严重级别使用固定枚举；质量评分统一为 0-1 区间
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/data_quality/
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 验证规则类型常量
const (
	RuleTypeCompleteness = "completeness"
	RuleTypeFormat       = "format"
	RuleTypeRange        = "range"
	RuleTypeConsistency  = "consistency"
	RuleTypeCustom       = "custom"
)

// 验证严重级别常量
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// ValidationRule 验证规则定义
type ValidationRule struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Field       string `json:"field"`
	RuleType    string `json:"rule_type"` // completeness, format, range, consistency, custom
	Severity    string `json:"severity"`  // error, warning, info
	// 规则参数，按类型解释：format 取 pattern/allowed_values，
	// range 取 min_value/max_value，consistency 取 reference_field，
	// custom 取 script
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Enabled    bool                   `json:"enabled"`
}

// ValidationResult 单条记录单条规则的验证结果
type ValidationResult struct {
	RuleName    string      `json:"rule_name"`
	Field       string      `json:"field"`
	Passed      bool        `json:"passed"`
	Severity    string      `json:"severity"`
	Message     string      `json:"message,omitempty"`
	ActualValue interface{} `json:"actual_value,omitempty"`
	RecordIndex int         `json:"record_index"`
}

// FieldOutlierInfo 字段离群值检测结果
type FieldOutlierInfo struct {
	Field         string    `json:"field"`
	OutlierCount  int       `json:"outlier_count"`
	LowerBound    float64   `json:"lower_bound"`
	UpperBound    float64   `json:"upper_bound"`
	OutlierValues []float64 `json:"outlier_values"`
}

// DuplicateGroup 重复记录组
type DuplicateGroup struct {
	Key     string `json:"key"`
	Count   int    `json:"count"`
	Indexes []int  `json:"indexes"`
}

// MissingPattern 缺失数据组合模式
type MissingPattern struct {
	Fields  []string `json:"fields"`
	Count   int      `json:"count"`
	Indexes []int    `json:"indexes"`
}

// QualityReport 数据集质量报告
type QualityReport struct {
	GeneratedAt       time.Time                  `json:"generated_at"`
	TotalRecords      int                        `json:"total_records"`
	RulesEvaluated    int                        `json:"rules_evaluated"`
	QualityScore      float64                    `json:"quality_score"`
	CompletenessScore float64                    `json:"completeness_score"`
	AccuracyScore     float64                    `json:"accuracy_score"`
	ConsistencyScore  float64                    `json:"consistency_score"`
	TimelinessScore   float64                    `json:"timeliness_score"`
	ErrorCount        int                        `json:"error_count"`
	WarningCount      int                        `json:"warning_count"`
	InfoCount         int                        `json:"info_count"`
	ErrorsByField     map[string]int             `json:"errors_by_field"`
	WarningsByField   map[string]int             `json:"warnings_by_field"`
	ErrorsByType      map[string]int             `json:"errors_by_type"`
	TopIssues         []IssueSummary             `json:"top_issues"`
	Outliers          map[string]FieldOutlierInfo `json:"outliers"`
	OutlierRecordIdx  []int                      `json:"outlier_record_indexes"`
	Duplicates        []DuplicateGroup           `json:"duplicates"`
	MissingPatterns   []MissingPattern           `json:"missing_patterns"`
	Recommendations   []string                   `json:"recommendations"`
	DetailedResults   []ValidationResult         `json:"detailed_results,omitempty"`
}

// IssueSummary 单类问题的聚合条目
type IssueSummary struct {
	RuleName string `json:"rule_name"`
	Field    string `json:"field"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Count    int    `json:"count"`
}

// QualityAssessment 质量评估持久化记录
type QualityAssessment struct {
	ID                string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	DatasetName       string    `gorm:"type:varchar(100);not null;index" json:"dataset_name"`
	TriggerType       string    `gorm:"type:varchar(20);not null" json:"trigger_type"` // scheduled, manual
	TotalRecords      int       `json:"total_records"`
	QualityScore      float64   `json:"quality_score"`
	CompletenessScore float64   `json:"completeness_score"`
	AccuracyScore     float64   `json:"accuracy_score"`
	ConsistencyScore  float64   `json:"consistency_score"`
	TimelinessScore   float64   `json:"timeliness_score"`
	ErrorCount        int       `json:"error_count"`
	WarningCount      int       `json:"warning_count"`
	TopIssues         JSONBArray `gorm:"type:jsonb" json:"top_issues"`
	Recommendations   JSONBStringArray `gorm:"type:jsonb" json:"recommendations"`
	ReportDetail      JSONB     `gorm:"type:jsonb" json:"report_detail,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func (QualityAssessment) TableName() string {
	return "quality_assessments"
}

func (q *QualityAssessment) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return nil
}
