/*
 * @module service/models/enrichment_models
 * @description 富化任务相关模型，包含概念分类、人口统计、建筑面积结果与富化作业记录
 * @architecture 数据模型层
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 作业创建(pending) -> 执行(running) -> 完成(completed)/失败(failed)
 * @rules 作业状态单向流转，终态作业不允许再次处理；任务结果按场所覆盖式持久化
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/enrichment/, service/enrichment/tasks/
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 富化作业状态常量
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// 富化作业类型常量
const (
	JobTypeFullEnrichment = "full_enrichment"
)

// IsTerminalJobStatus 判断作业状态是否为终态
func IsTerminalJobStatus(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

// ConceptClassification 场所业态分类结果模型
type ConceptClassification struct {
	ID            string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	VenueID       string    `gorm:"type:varchar(50);not null;index" json:"venue_id"`
	ConceptType   string    `gorm:"type:varchar(50);not null" json:"concept_type"`
	Confidence    float64   `json:"confidence"`
	MatchedTerms  JSONBStringArray `gorm:"type:jsonb" json:"matched_terms"`
	DataSource    string    `gorm:"type:varchar(50)" json:"data_source"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ConceptClassification) TableName() string {
	return "concept_classifications"
}

func (c *ConceptClassification) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// DemographicData 场所周边人口统计结果模型
type DemographicData struct {
	ID                 string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	VenueID            string    `gorm:"type:varchar(50);not null;index" json:"venue_id"`
	Population1Mile    *float64  `json:"population_1_mile,omitempty"`
	Population3Mile    *float64  `json:"population_3_mile,omitempty"`
	MedianIncome       *float64  `json:"median_income,omitempty"`
	Confidence         float64   `json:"confidence"`
	DataSource         string    `gorm:"type:varchar(50)" json:"data_source"`
	CreatedAt          time.Time `json:"created_at"`
}

func (DemographicData) TableName() string {
	return "demographic_data"
}

func (d *DemographicData) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// FootprintData 场所建筑信息结果模型
type FootprintData struct {
	ID            string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	VenueID       string    `gorm:"type:varchar(50);not null;index" json:"venue_id"`
	SquareFootage *float64  `json:"square_footage,omitempty"`
	PropertyType  string    `gorm:"type:varchar(50)" json:"property_type"`
	YearBuilt     *int      `json:"year_built,omitempty"`
	Confidence    float64   `json:"confidence"`
	DataSource    string    `gorm:"type:varchar(50)" json:"data_source"`
	CreatedAt     time.Time `json:"created_at"`
}

func (FootprintData) TableName() string {
	return "footprint_data"
}

func (f *FootprintData) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// EnrichmentJob 富化作业模型
type EnrichmentJob struct {
	ID             string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	VenueID        string     `gorm:"type:varchar(50);index" json:"venue_id,omitempty"`
	JobType        string     `gorm:"type:varchar(50);not null" json:"job_type"` // full_enrichment
	Status         string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Progress       int        `gorm:"default:0" json:"progress"` // 0-100
	Config         JSONB      `gorm:"type:jsonb" json:"config,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorMessage   string     `gorm:"type:text" json:"error_message,omitempty"`
	ResultsSummary JSONB      `gorm:"type:jsonb" json:"results_summary,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (EnrichmentJob) TableName() string {
	return "enrichment_jobs"
}

func (j *EnrichmentJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	return nil
}

// TaskResult 单个富化任务的输出
type TaskResult struct {
	TaskName   string                 `json:"task_name"`
	DataSource string                 `json:"data_source"`
	Confidence float64                `json:"confidence"`
	Data       map[string]interface{} `json:"data"`
}

// EnrichmentResult 单个场所富化结果，仅在调用链内传递，不单独落库
type EnrichmentResult struct {
	VenueID        string          `json:"venue_id"`
	Success        bool            `json:"success"`
	Errors         []string        `json:"errors"`
	Warnings       []string        `json:"warnings"`
	ProcessingTime time.Duration   `json:"processing_time"`
	DataCollected  map[string]bool `json:"data_collected"`
}

// PipelineStats 流水线聚合统计
type PipelineStats struct {
	TotalVenues       int            `json:"total_venues"`
	SuccessfulVenues  int            `json:"successful_venues"`
	FailedVenues      int            `json:"failed_venues"`
	TotalTime         time.Duration  `json:"total_time"`
	AverageTime       time.Duration  `json:"average_time"`
	DataSourceCounts  map[string]int `json:"data_source_counts"`
	ErrorTypeCounts   map[string]int `json:"error_type_counts"`
}

// EnrichmentStats 富化覆盖率与作业统计
type EnrichmentStats struct {
	TotalVenues     int64            `json:"total_venues"`
	TaskCoverage    map[string]int64 `json:"task_coverage"`
	JobCountsByType map[string]int64 `json:"job_counts_by_type"`
	JobCountsByStat map[string]int64 `json:"job_counts_by_status"`
}
