/*
 * @module service/enrichment/pipeline
 * @description 富化流水线，协调单场所富化、有界并发批处理与全量流水线统计
 * @architecture 业务服务层 - 编排器
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 加载场所 -> 顺序执行启用任务 -> 阈值判定与持久化 -> 结果聚合
 * @rules 单场所内任务严格顺序执行且相互隔离；任一任务错误使整体success=false但不中断其余任务；
 *        批处理结果顺序与输入一致；流水线自身不做重试，重试归任务实现负责
 * @dependencies service/database, service/enrichment/tasks
 * @refs service/enrichment/job_service.go, service/init.go
 */

package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"enrichhub-service/service/database"
	"enrichhub-service/service/enrichment/tasks"
	"enrichhub-service/service/models"
)

// EnrichmentEventPublisher 富化完成事件发布接口
type EnrichmentEventPublisher interface {
	PublishEnrichmentCompleted(ctx context.Context, result *models.EnrichmentResult) error
}

// Pipeline 富化流水线
type Pipeline struct {
	store     *database.EntityStore
	tasks     []tasks.Task
	config    Config
	cache     *TaskResultCache
	publisher EnrichmentEventPublisher
	metrics   *PipelineMetrics
}

// NewPipeline 创建富化流水线；cache、publisher、metrics均可为nil
func NewPipeline(store *database.EntityStore, taskList []tasks.Task, config Config, cache *TaskResultCache, publisher EnrichmentEventPublisher, metrics *PipelineMetrics) *Pipeline {
	if len(taskList) == 0 {
		taskList = tasks.DefaultTasks()
	}
	if cache == nil {
		cache = NewTaskResultCache(nil, config.CacheTTL)
	}
	return &Pipeline{
		store:     store,
		tasks:     taskList,
		config:    config,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
	}
}

// EnrichVenue 对单个场所执行全部启用任务
// 场所不存在时返回带NotFound错误的失败结果，不执行任何任务
func (p *Pipeline) EnrichVenue(ctx context.Context, venueID string) *models.EnrichmentResult {
	start := time.Now()
	result := &models.EnrichmentResult{
		VenueID:       venueID,
		Errors:        []string{},
		Warnings:      []string{},
		DataCollected: map[string]bool{},
	}

	venue, err := p.store.GetVenue(ctx, venueID)
	if err != nil {
		if errors.Is(err, database.ErrVenueNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("NotFound: 场所 %s 不存在", venueID))
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("StoreError: 加载场所 %s 失败: %v", venueID, err))
		}
		result.ProcessingTime = time.Since(start)
		p.metrics.ObserveEnrichment(false, result.ProcessingTime)
		return result
	}

	// 任务严格顺序执行，单个任务失败不影响后续任务
	for _, task := range p.tasks {
		if !p.config.TaskEnabled(task.Name()) {
			continue
		}
		p.runTask(ctx, task, venue, result)
	}

	result.Success = len(result.Errors) == 0
	result.ProcessingTime = time.Since(start)
	p.metrics.ObserveEnrichment(result.Success, result.ProcessingTime)

	if p.publisher != nil {
		if err := p.publisher.PublishEnrichmentCompleted(ctx, result); err != nil {
			slog.Debug("富化完成事件发布失败", "venue_id", venueID, "error", err)
		}
	}
	return result
}

// runTask 执行单个任务：缓存命中则跳过计算，阈值以下只告警不持久化
func (p *Pipeline) runTask(ctx context.Context, task tasks.Task, venue *models.Venue, result *models.EnrichmentResult) {
	identity := venue.CacheIdentity()

	taskResult := p.cache.Get(ctx, task.Name(), identity)
	if taskResult == nil {
		var err error
		taskResult, err = task.Run(ctx, venue)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", task.Name(), err))
			p.metrics.ObserveTaskError(task.Name())
			return
		}
		p.cache.Put(ctx, identity, taskResult)
	}

	if taskResult.Confidence < p.config.ConfidenceThreshold {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("任务 %s 置信度 %.2f 低于阈值 %.2f，结果未持久化",
				task.Name(), taskResult.Confidence, p.config.ConfidenceThreshold))
		return
	}

	if err := p.store.PersistTaskResult(ctx, venue.ID, *taskResult); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", task.Name(), err))
		p.metrics.ObserveTaskError(task.Name())
		return
	}
	result.DataCollected[task.Name()] = true
}

// EnrichBatch 有界并发地富化一批场所，返回结果顺序与输入一致
// 单个条目的panic转为该条目的失败结果，不影响批内其余条目
func (p *Pipeline) EnrichBatch(ctx context.Context, venueIDs []string) []*models.EnrichmentResult {
	results := make([]*models.EnrichmentResult, len(venueIDs))
	if len(venueIDs) == 0 {
		return results
	}

	concurrency := p.config.BatchSize
	if concurrency <= 0 || concurrency > len(venueIDs) {
		concurrency = len(venueIDs)
	}
	semaphore := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, id := range venueIDs {
		wg.Add(1)
		go func(index int, venueID string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			defer func() {
				if r := recover(); r != nil {
					slog.Error("批处理条目异常", "venue_id", venueID, "panic", r)
					results[index] = &models.EnrichmentResult{
						VenueID:       venueID,
						Success:       false,
						Errors:        []string{fmt.Sprintf("BatchItemCrash: %v", r)},
						Warnings:      []string{},
						DataCollected: map[string]bool{},
					}
				}
			}()

			results[index] = p.EnrichVenue(ctx, venueID)
		}(i, id)
	}
	wg.Wait()
	return results
}

// RunFullPipeline 加载至多limit个场所，按固定批大小顺序分片处理并聚合统计
func (p *Pipeline) RunFullPipeline(ctx context.Context, limit int) (*models.PipelineStats, error) {
	start := time.Now()

	venueIDs, err := p.store.ListVenueIDs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("加载场所ID列表失败: %w", err)
	}

	slog.Info("全量富化流水线启动", "venues", len(venueIDs), "batch_size", p.config.BatchSize)

	var allResults []*models.EnrichmentResult
	batchSize := p.config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	for offset := 0; offset < len(venueIDs); offset += batchSize {
		end := offset + batchSize
		if end > len(venueIDs) {
			end = len(venueIDs)
		}
		allResults = append(allResults, p.EnrichBatch(ctx, venueIDs[offset:end])...)
	}

	stats := buildPipelineStats(allResults, time.Since(start))
	slog.Info("全量富化流水线完成",
		"total", stats.TotalVenues,
		"successful", stats.SuccessfulVenues,
		"failed", stats.FailedVenues,
		"total_time", stats.TotalTime)
	return stats, nil
}

// buildPipelineStats 聚合流水线统计：任务贡献直方图与按首个冒号前缀归类的错误直方图
func buildPipelineStats(results []*models.EnrichmentResult, totalTime time.Duration) *models.PipelineStats {
	stats := &models.PipelineStats{
		TotalVenues:      len(results),
		TotalTime:        totalTime,
		DataSourceCounts: map[string]int{},
		ErrorTypeCounts:  map[string]int{},
	}

	for _, result := range results {
		if result == nil {
			continue
		}
		if result.Success {
			stats.SuccessfulVenues++
		} else {
			stats.FailedVenues++
		}
		for taskName, collected := range result.DataCollected {
			if collected {
				stats.DataSourceCounts[taskName]++
			}
		}
		for _, errText := range result.Errors {
			errType := strings.TrimSpace(strings.SplitN(errText, ":", 2)[0])
			stats.ErrorTypeCounts[errType]++
		}
	}

	if stats.TotalVenues > 0 {
		stats.AverageTime = totalTime / time.Duration(stats.TotalVenues)
	}
	return stats
}
