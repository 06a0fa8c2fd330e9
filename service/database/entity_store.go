/*
 * @module service/database/entity_store
 * @description 场所实体存储，封装场所、富化结果、作业与质量评估的数据库访问
 * @architecture 数据访问层 - 仓储模式
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 富化流水线 -> 实体存储 -> PostgreSQL
 * @rules 任务结果按场所覆盖式写入；作业状态更新必须在单条UPDATE内完成
 * @dependencies gorm.io/gorm, github.com/spf13/cast
 * @refs service/enrichment/, service/data_quality/
 */

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"enrichhub-service/service/models"

	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// ErrVenueNotFound 场所不存在
var ErrVenueNotFound = errors.New("venue not found")

// ErrJobNotFound 作业不存在
var ErrJobNotFound = errors.New("enrichment job not found")

// EntityStore 场所实体存储
type EntityStore struct {
	db *gorm.DB
}

// NewEntityStore 创建实体存储实例
func NewEntityStore(db *gorm.DB) *EntityStore {
	return &EntityStore{db: db}
}

// DB 暴露底层连接，供只读统计查询使用
func (s *EntityStore) DB() *gorm.DB {
	return s.db
}

// GetVenue 按ID查询场所，携带已富化的关联数据
func (s *EntityStore) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	var venue models.Venue
	err := s.db.WithContext(ctx).
		Preload("Classifications").
		Preload("Demographics").
		Preload("Footprints").
		First(&venue, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询场所失败: %w", err)
	}
	return &venue, nil
}

// CreateVenue 新建场所
func (s *EntityStore) CreateVenue(ctx context.Context, venue *models.Venue) error {
	if err := s.db.WithContext(ctx).Create(venue).Error; err != nil {
		return fmt.Errorf("创建场所失败: %w", err)
	}
	return nil
}

// ListVenueIDs 查询活跃场所ID列表，limit<=0 时不限制数量
func (s *EntityStore) ListVenueIDs(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	query := s.db.WithContext(ctx).Model(&models.Venue{}).
		Where("is_active = ?", true).
		Order("total_receipts DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("查询场所ID列表失败: %w", err)
	}
	return ids, nil
}

// ListVenues 分页查询场所
func (s *EntityStore) ListVenues(ctx context.Context, limit, offset int) ([]models.Venue, int64, error) {
	var venues []models.Venue
	var total int64

	if err := s.db.WithContext(ctx).Model(&models.Venue{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计场所数量失败: %w", err)
	}
	err := s.db.WithContext(ctx).
		Order("total_receipts DESC").
		Limit(limit).Offset(offset).
		Find(&venues).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询场所列表失败: %w", err)
	}
	return venues, total, nil
}

// PersistTaskResult 持久化单个富化任务结果，按任务名分发并覆盖旧记录
func (s *EntityStore) PersistTaskResult(ctx context.Context, venueID string, result models.TaskResult) error {
	switch result.TaskName {
	case "classification":
		return s.replaceClassification(ctx, venueID, result)
	case "demographics":
		return s.replaceDemographics(ctx, venueID, result)
	case "footprint":
		return s.replaceFootprint(ctx, venueID, result)
	default:
		return fmt.Errorf("未知的富化任务: %s", result.TaskName)
	}
}

func (s *EntityStore) replaceClassification(ctx context.Context, venueID string, result models.TaskResult) error {
	record := models.ConceptClassification{
		VenueID:     venueID,
		ConceptType: cast.ToString(result.Data["concept_type"]),
		Confidence:  result.Confidence,
		DataSource:  result.DataSource,
	}
	if terms, ok := result.Data["matched_terms"]; ok {
		record.MatchedTerms = cast.ToStringSlice(terms)
	}
	return s.replaceForVenue(ctx, venueID, &models.ConceptClassification{}, &record)
}

func (s *EntityStore) replaceDemographics(ctx context.Context, venueID string, result models.TaskResult) error {
	record := models.DemographicData{
		VenueID:    venueID,
		Confidence: result.Confidence,
		DataSource: result.DataSource,
	}
	if v, ok := result.Data["population_1_mile"]; ok {
		f := cast.ToFloat64(v)
		record.Population1Mile = &f
	}
	if v, ok := result.Data["population_3_mile"]; ok {
		f := cast.ToFloat64(v)
		record.Population3Mile = &f
	}
	if v, ok := result.Data["median_income"]; ok {
		f := cast.ToFloat64(v)
		record.MedianIncome = &f
	}
	return s.replaceForVenue(ctx, venueID, &models.DemographicData{}, &record)
}

func (s *EntityStore) replaceFootprint(ctx context.Context, venueID string, result models.TaskResult) error {
	record := models.FootprintData{
		VenueID:      venueID,
		PropertyType: cast.ToString(result.Data["property_type"]),
		Confidence:   result.Confidence,
		DataSource:   result.DataSource,
	}
	if v, ok := result.Data["square_footage"]; ok {
		f := cast.ToFloat64(v)
		record.SquareFootage = &f
	}
	if v, ok := result.Data["year_built"]; ok {
		y := cast.ToInt(v)
		record.YearBuilt = &y
	}
	return s.replaceForVenue(ctx, venueID, &models.FootprintData{}, &record)
}

// replaceForVenue 在同一事务内删除场所的旧记录并写入新记录
func (s *EntityStore) replaceForVenue(ctx context.Context, venueID string, model interface{}, record interface{}) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("venue_id = ?", venueID).Delete(model).Error; err != nil {
			return fmt.Errorf("删除旧富化记录失败: %w", err)
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("写入富化记录失败: %w", err)
		}
		return nil
	})
}

// UpdateVenueQualityScore 更新场所的质量评分
func (s *EntityStore) UpdateVenueQualityScore(ctx context.Context, venueID string, score float64) error {
	err := s.db.WithContext(ctx).Model(&models.Venue{}).
		Where("id = ?", venueID).
		Update("data_quality_score", score).Error
	if err != nil {
		return fmt.Errorf("更新质量评分失败: %w", err)
	}
	return nil
}

// CreateJob 创建富化作业，初始状态为pending
func (s *EntityStore) CreateJob(ctx context.Context, job *models.EnrichmentJob) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("创建富化作业失败: %w", err)
	}
	return nil
}

// GetJob 按ID查询作业
func (s *EntityStore) GetJob(ctx context.Context, id string) (*models.EnrichmentJob, error) {
	var job models.EnrichmentJob
	err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询富化作业失败: %w", err)
	}
	return &job, nil
}

// JobStatusUpdate 作业状态更新内容
type JobStatusUpdate struct {
	Status         string
	Progress       *int
	ErrorMessage   *string
	ResultsSummary models.JSONB
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// UpdateJobStatus 更新作业状态，单条UPDATE保证状态流转原子可见
func (s *EntityStore) UpdateJobStatus(ctx context.Context, jobID string, update JobStatusUpdate) error {
	values := map[string]interface{}{"status": update.Status}
	if update.Progress != nil {
		values["progress"] = *update.Progress
	}
	if update.ErrorMessage != nil {
		values["error_message"] = *update.ErrorMessage
	}
	if update.ResultsSummary != nil {
		values["results_summary"] = update.ResultsSummary
	}
	if update.StartedAt != nil {
		values["started_at"] = *update.StartedAt
	}
	if update.CompletedAt != nil {
		values["completed_at"] = *update.CompletedAt
	}

	result := s.db.WithContext(ctx).Model(&models.EnrichmentJob{}).
		Where("id = ?", jobID).
		Updates(values)
	if result.Error != nil {
		return fmt.Errorf("更新作业状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// ListJobs 按状态分页查询作业，status为空时查询全部
func (s *EntityStore) ListJobs(ctx context.Context, status string, limit, offset int) ([]models.EnrichmentJob, int64, error) {
	var jobs []models.EnrichmentJob
	var total int64

	query := s.db.WithContext(ctx).Model(&models.EnrichmentJob{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计作业数量失败: %w", err)
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&jobs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询作业列表失败: %w", err)
	}
	return jobs, total, nil
}

// SaveAssessment 保存质量评估记录
func (s *EntityStore) SaveAssessment(ctx context.Context, assessment *models.QualityAssessment) error {
	if err := s.db.WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("保存质量评估失败: %w", err)
	}
	return nil
}

// ListAssessments 查询最近的质量评估记录
func (s *EntityStore) ListAssessments(ctx context.Context, datasetName string, limit int) ([]models.QualityAssessment, error) {
	var assessments []models.QualityAssessment
	query := s.db.WithContext(ctx).Model(&models.QualityAssessment{})
	if datasetName != "" {
		query = query.Where("dataset_name = ?", datasetName)
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&assessments).Error
	if err != nil {
		return nil, fmt.Errorf("查询质量评估记录失败: %w", err)
	}
	return assessments, nil
}

// FetchQualityRecords 组装质量分析用的记录集：场所字段加上已富化的扩展字段
func (s *EntityStore) FetchQualityRecords(ctx context.Context, limit int) ([]map[string]interface{}, error) {
	var venues []models.Venue
	query := s.db.WithContext(ctx).
		Preload("Classifications").
		Preload("Demographics").
		Preload("Footprints").
		Order("total_receipts DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&venues).Error; err != nil {
		return nil, fmt.Errorf("查询质量分析记录失败: %w", err)
	}

	records := make([]map[string]interface{}, 0, len(venues))
	for i := range venues {
		v := &venues[i]
		record := v.AsRecord()
		if len(v.Classifications) > 0 {
			record["concept_type"] = v.Classifications[0].ConceptType
			record["concept_confidence"] = v.Classifications[0].Confidence
		}
		if len(v.Demographics) > 0 && v.Demographics[0].Population1Mile != nil {
			record["population_1_mile"] = *v.Demographics[0].Population1Mile
		}
		if len(v.Footprints) > 0 && v.Footprints[0].SquareFootage != nil {
			record["square_footage"] = *v.Footprints[0].SquareFootage
		}
		records = append(records, record)
	}
	return records, nil
}

// GetEnrichmentStats 统计富化覆盖率与作业分布
func (s *EntityStore) GetEnrichmentStats(ctx context.Context) (*models.EnrichmentStats, error) {
	stats := &models.EnrichmentStats{
		TaskCoverage:    map[string]int64{},
		JobCountsByType: map[string]int64{},
		JobCountsByStat: map[string]int64{},
	}

	if err := s.db.WithContext(ctx).Model(&models.Venue{}).Count(&stats.TotalVenues).Error; err != nil {
		return nil, fmt.Errorf("统计场所总数失败: %w", err)
	}

	coverage := map[string]interface{}{
		"classification": &models.ConceptClassification{},
		"demographics":   &models.DemographicData{},
		"footprint":      &models.FootprintData{},
	}
	for task, model := range coverage {
		var count int64
		if err := s.db.WithContext(ctx).Model(model).Distinct("venue_id").Count(&count).Error; err != nil {
			return nil, fmt.Errorf("统计任务覆盖率失败: %w", err)
		}
		stats.TaskCoverage[task] = count
	}

	type groupCount struct {
		Key   string
		Count int64
	}
	var byType []groupCount
	err := s.db.WithContext(ctx).Model(&models.EnrichmentJob{}).
		Select("job_type as key, count(*) as count").
		Group("job_type").Scan(&byType).Error
	if err != nil {
		return nil, fmt.Errorf("统计作业类型分布失败: %w", err)
	}
	for _, g := range byType {
		stats.JobCountsByType[g.Key] = g.Count
	}

	var byStatus []groupCount
	err = s.db.WithContext(ctx).Model(&models.EnrichmentJob{}).
		Select("status as key, count(*) as count").
		Group("status").Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("统计作业状态分布失败: %w", err)
	}
	for _, g := range byStatus {
		stats.JobCountsByStat[g.Key] = g.Count
	}

	return stats, nil
}
