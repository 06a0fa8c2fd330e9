/*
 * @module service/data_quality/quality_scheduler
 * @description 质量评估调度器，按cron表达式周期性对场所数据集执行质量评估并入库
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/data_quality_engine_impl.md
 * @stateFlow 启动调度器 -> 定时触发 -> 分布式锁防重 -> 评估执行 -> 评估入库/事件发布
 * @rules 多实例部署时同一时刻只允许一个实例执行评估；手动触发与定时触发共用同一执行路径
 * @dependencies github.com/robfig/cron/v3, service/distributed_lock
 * @refs service/data_quality/reporter.go, service/database/entity_store.go
 */

package data_quality

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"enrichhub-service/service/database"
	"enrichhub-service/service/distributed_lock"
	"enrichhub-service/service/models"

	"github.com/robfig/cron/v3"
)

// assessmentLockTTL 评估执行锁的过期时间
const assessmentLockTTL = 30 * time.Minute

// QualityEventPublisher 质量评估事件发布接口
type QualityEventPublisher interface {
	PublishQualityAssessment(ctx context.Context, assessment *models.QualityAssessment) error
}

// AssessmentScheduler 质量评估调度器
type AssessmentScheduler struct {
	store            *database.EntityStore
	reporter         *QualityReporter
	publisher        QualityEventPublisher
	cron             *cron.Cron
	ctx              context.Context
	cancel           context.CancelFunc
	schedulerStarted bool
	distributedLock  distributed_lock.DistributedLock
	cronExpression   string
	datasetName      string
}

// NewAssessmentScheduler 创建质量评估调度器，publisher 可为 nil
func NewAssessmentScheduler(store *database.EntityStore, reporter *QualityReporter, publisher QualityEventPublisher, cronExpression, datasetName string) *AssessmentScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &AssessmentScheduler{
		store:          store,
		reporter:       reporter,
		publisher:      publisher,
		cron:           cron.New(cron.WithSeconds()),
		ctx:            ctx,
		cancel:         cancel,
		cronExpression: cronExpression,
		datasetName:    datasetName,
	}
}

// SetDistributedLock 设置分布式锁
func (s *AssessmentScheduler) SetDistributedLock(lock distributed_lock.DistributedLock) {
	s.distributedLock = lock
	if lock != nil {
		slog.Info("质量评估调度器已启用分布式锁")
	}
}

// StartScheduler 启动调度器
func (s *AssessmentScheduler) StartScheduler() error {
	if s.schedulerStarted {
		return fmt.Errorf("调度器已经启动")
	}

	if s.cronExpression != "" {
		_, err := s.cron.AddFunc(s.cronExpression, s.runScheduledAssessment)
		if err != nil {
			slog.Error("添加质量评估Cron任务失败",
				"cron_expression", s.cronExpression,
				"error", err,
				"help", "Cron表达式需要6个字段（秒 分 时 日 月 周），例如：0 0 2 * * *（每天凌晨2点）")
			return fmt.Errorf("添加质量评估Cron任务失败: %w", err)
		}
		slog.Info("质量评估Cron任务已注册", "cron_expression", s.cronExpression)
	}

	s.cron.Start()
	s.schedulerStarted = true
	slog.Info("质量评估调度器启动完成", "dataset", s.datasetName)
	return nil
}

// StopScheduler 停止调度器
func (s *AssessmentScheduler) StopScheduler() {
	if !s.schedulerStarted {
		return
	}
	s.cancel()
	s.cron.Stop()
	s.schedulerStarted = false
	slog.Info("质量评估调度器已停止")
}

// runScheduledAssessment 定时触发的评估执行（带分布式锁防重）
func (s *AssessmentScheduler) runScheduledAssessment() {
	if s.distributedLock != nil {
		lockKey := fmt.Sprintf("quality_assessment:%s", s.datasetName)
		locked, err := s.distributedLock.TryLock(s.ctx, lockKey, assessmentLockTTL)
		if err != nil {
			slog.Error("获取分布式锁失败", "dataset", s.datasetName, "error", err)
			return
		}
		if !locked {
			slog.Warn("质量评估正在其他实例执行，跳过", "dataset", s.datasetName)
			return
		}
		defer func() {
			if unlockErr := s.distributedLock.Unlock(s.ctx, lockKey); unlockErr != nil {
				slog.Error("释放分布式锁失败", "dataset", s.datasetName, "error", unlockErr)
			}
		}()
	}

	if _, err := s.RunAssessment(s.ctx, "scheduled"); err != nil {
		slog.Error("定时质量评估执行失败", "dataset", s.datasetName, "error", err)
	}
}

// RunAssessment 执行一次完整的数据集质量评估并持久化结果
func (s *AssessmentScheduler) RunAssessment(ctx context.Context, triggerType string) (*models.QualityAssessment, error) {
	slog.Info("开始执行数据集质量评估", "dataset", s.datasetName, "trigger", triggerType)

	records, err := s.store.FetchQualityRecords(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("加载质量评估记录失败: %w", err)
	}

	report := s.reporter.BuildReport(records)
	assessment := AssessmentFromReport(s.datasetName, triggerType, report)

	if err := s.store.SaveAssessment(ctx, assessment); err != nil {
		return nil, err
	}

	s.persistVenueScores(ctx, records, report)

	if s.publisher != nil {
		if err := s.publisher.PublishQualityAssessment(ctx, assessment); err != nil {
			// 事件发布失败不影响评估结果
			slog.Error("发布质量评估事件失败", "assessment_id", assessment.ID, "error", err)
		}
	}

	slog.Info("数据集质量评估完成",
		"dataset", s.datasetName,
		"assessment_id", assessment.ID,
		"quality_score", assessment.QualityScore)
	return assessment, nil
}

// persistVenueScores 将逐记录质量得分回写到场所，失败只记录日志
func (s *AssessmentScheduler) persistVenueScores(ctx context.Context, records []map[string]interface{}, report *models.QualityReport) {
	if report.RulesEvaluated == 0 {
		return
	}

	penalties := make(map[int]float64)
	for _, result := range report.DetailedResults {
		if result.Passed {
			continue
		}
		switch result.Severity {
		case models.SeverityError:
			penalties[result.RecordIndex] += 1.0
		case models.SeverityWarning:
			penalties[result.RecordIndex] += 0.5
		}
	}

	for idx, record := range records {
		venueID, ok := record["id"].(string)
		if !ok || venueID == "" {
			continue
		}
		score := 1.0 - penalties[idx]/float64(report.RulesEvaluated)
		if score < 0 {
			score = 0
		}
		if err := s.store.UpdateVenueQualityScore(ctx, venueID, score); err != nil {
			slog.Error("回写场所质量评分失败", "venue_id", venueID, "error", err)
		}
	}
}

// AssessmentFromReport 将质量报告转换为可持久化的评估记录
func AssessmentFromReport(datasetName, triggerType string, report *models.QualityReport) *models.QualityAssessment {
	topIssues := make(models.JSONBArray, 0, len(report.TopIssues))
	for _, issue := range report.TopIssues {
		topIssues = append(topIssues, models.JSONB{
			"rule_name": issue.RuleName,
			"field":     issue.Field,
			"severity":  issue.Severity,
			"message":   issue.Message,
			"count":     issue.Count,
		})
	}

	return &models.QualityAssessment{
		DatasetName:       datasetName,
		TriggerType:       triggerType,
		TotalRecords:      report.TotalRecords,
		QualityScore:      report.QualityScore,
		CompletenessScore: report.CompletenessScore,
		AccuracyScore:     report.AccuracyScore,
		ConsistencyScore:  report.ConsistencyScore,
		TimelinessScore:   report.TimelinessScore,
		ErrorCount:        report.ErrorCount,
		WarningCount:      report.WarningCount,
		TopIssues:         topIssues,
		Recommendations:   models.JSONBStringArray(report.Recommendations),
		ReportDetail: models.JSONB{
			"errors_by_field":      report.ErrorsByField,
			"warnings_by_field":    report.WarningsByField,
			"errors_by_type":       report.ErrorsByType,
			"outlier_field_count":  len(report.Outliers),
			"outlier_record_count": len(report.OutlierRecordIdx),
			"duplicate_groups":     len(report.Duplicates),
			"missing_patterns":     len(report.MissingPatterns),
		},
	}
}
