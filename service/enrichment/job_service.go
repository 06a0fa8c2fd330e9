/*
 * @module service/enrichment/job_service
 * @description 富化作业生命周期管理：创建、状态流转、执行与结果归档
 * @architecture 业务服务层
 * @documentReference ai_docs/enrichment_job_lifecycle.md
 * @stateFlow pending -> running -> completed/failed；终态作业不可重复处理
 * @rules 作业不存在时只记录日志不产生副作用；不支持的作业类型直接置为failed；
 *        状态变更与时间戳写入同一次更新，避免半更新状态
 * @dependencies service/database, service/enrichment/pipeline
 * @refs api/controllers/enrichment_controller.go
 */

package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"enrichhub-service/service/database"
	"enrichhub-service/service/models"
)

// JobService 富化作业服务
type JobService struct {
	store    *database.EntityStore
	pipeline *Pipeline
	metrics  *PipelineMetrics
}

// NewJobService 创建富化作业服务；metrics可为nil
func NewJobService(store *database.EntityStore, pipeline *Pipeline, metrics *PipelineMetrics) *JobService {
	return &JobService{
		store:    store,
		pipeline: pipeline,
		metrics:  metrics,
	}
}

// CreateJob 创建pending状态的富化作业
func (s *JobService) CreateJob(ctx context.Context, venueID, jobType string, config models.JSONB) (*models.EnrichmentJob, error) {
	if venueID == "" {
		return nil, fmt.Errorf("venue_id不能为空")
	}
	if jobType == "" {
		jobType = models.JobTypeFullEnrichment
	}

	job := &models.EnrichmentJob{
		VenueID: venueID,
		JobType: jobType,
		Status:  models.JobStatusPending,
		Config:  config,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("创建富化作业失败: %w", err)
	}
	slog.Info("富化作业已创建", "job_id", job.ID, "venue_id", venueID, "job_type", jobType)
	return job, nil
}

// ProcessJob 执行作业：pending -> running -> completed/failed
// 作业不存在时记录日志并返回错误，不产生任何副作用；终态作业拒绝重复处理
func (s *JobService) ProcessJob(ctx context.Context, jobID string) (*models.EnrichmentJob, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		slog.Error("富化作业不存在，跳过处理", "job_id", jobID, "error", err)
		return nil, err
	}
	if models.IsTerminalJobStatus(job.Status) {
		return nil, fmt.Errorf("作业 %s 已处于终态 %s，不可重复处理", jobID, job.Status)
	}

	startedAt := time.Now()
	progress := 10
	if err := s.store.UpdateJobStatus(ctx, jobID, database.JobStatusUpdate{
		Status:    models.JobStatusRunning,
		Progress:  &progress,
		StartedAt: &startedAt,
	}); err != nil {
		return nil, fmt.Errorf("作业状态更新为running失败: %w", err)
	}

	result := s.executeJob(ctx, job)
	if err := s.finishJob(ctx, jobID, result); err != nil {
		return nil, err
	}
	return s.store.GetJob(ctx, jobID)
}

// executeJob 按作业类型分发；未知类型合成失败结果且不触发任何任务
func (s *JobService) executeJob(ctx context.Context, job *models.EnrichmentJob) *models.EnrichmentResult {
	if job.JobType == models.JobTypeFullEnrichment {
		return s.pipeline.EnrichVenue(ctx, job.VenueID)
	}
	return &models.EnrichmentResult{
		VenueID:       job.VenueID,
		Success:       false,
		Errors:        []string{fmt.Sprintf("UnsupportedJobType: 不支持的作业类型 %s", job.JobType)},
		Warnings:      []string{},
		DataCollected: map[string]bool{},
	}
}

// finishJob 根据执行结果把作业置为completed或failed，并归档结果摘要
func (s *JobService) finishJob(ctx context.Context, jobID string, result *models.EnrichmentResult) error {
	completedAt := time.Now()
	progress := 100
	update := database.JobStatusUpdate{
		Progress:    &progress,
		CompletedAt: &completedAt,
	}

	if result.Success {
		update.Status = models.JobStatusCompleted
		update.ResultsSummary = models.JSONB{
			"data_collected":     result.DataCollected,
			"warnings":           result.Warnings,
			"processing_time_ms": result.ProcessingTime.Milliseconds(),
		}
	} else {
		update.Status = models.JobStatusFailed
		errorMessage := strings.Join(result.Errors, "; ")
		update.ErrorMessage = &errorMessage
		update.ResultsSummary = models.JSONB{
			"errors":   result.Errors,
			"warnings": result.Warnings,
		}
	}

	if err := s.store.UpdateJobStatus(ctx, jobID, update); err != nil {
		return fmt.Errorf("作业结果归档失败: %w", err)
	}
	s.metrics.ObserveJobFinished(update.Status)
	slog.Info("富化作业处理完成", "job_id", jobID, "status", update.Status)
	return nil
}

// GetJob 查询单个作业
func (s *JobService) GetJob(ctx context.Context, jobID string) (*models.EnrichmentJob, error) {
	return s.store.GetJob(ctx, jobID)
}

// ListJobs 按状态分页查询作业
func (s *JobService) ListJobs(ctx context.Context, status string, limit, offset int) ([]models.EnrichmentJob, int64, error) {
	return s.store.ListJobs(ctx, status, limit, offset)
}

// GetStats 汇总富化覆盖率与作业统计
func (s *JobService) GetStats(ctx context.Context) (*models.EnrichmentStats, error) {
	return s.store.GetEnrichmentStats(ctx)
}
