/*
 * @module service/database/entity_store_test
 * @description 实体存储层单元测试，覆盖场所、富化结果与作业的持久化语义
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试数据写入 -> 存储操作 -> 数据库状态验证
 * @rules 使用内存sqlite数据库
 * @dependencies testing, stretchr/testify, testutil
 * @refs entity_store.go
 */

package database

import (
	"context"
	"testing"
	"time"

	"enrichhub-service/service/models"
	"enrichhub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*EntityStore, *testutil.TestDataFactory) {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	return NewEntityStore(tdb.DB), testutil.NewTestDataFactory(tdb.DB)
}

// TestGetVenue_NotFound 不存在的场所返回哨兵错误
func TestGetVenue_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.GetVenue(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrVenueNotFound)
}

// TestCreateVenue_InactivePersisted 非活跃标记在创建时落库，不被列默认值覆盖
func TestCreateVenue_InactivePersisted(t *testing.T) {
	store, factory := newTestStore(t)

	inactive := factory.CreateVenue(testutil.WithVenueInactive())

	loaded, err := store.GetVenue(context.Background(), inactive.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.IsActive)
	assert.False(t, *loaded.IsActive)
}

// TestListVenueIDs_ActiveOrdered 只返回活跃场所且按营业额降序
func TestListVenueIDs_ActiveOrdered(t *testing.T) {
	store, factory := newTestStore(t)

	small := factory.CreateVenue(testutil.WithVenueReceipts(1000))
	big := factory.CreateVenue(testutil.WithVenueReceipts(500000))
	factory.CreateVenue(testutil.WithVenueInactive())

	ids, err := store.ListVenueIDs(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, ids, 2)
	assert.Equal(t, big.ID, ids[0])
	assert.Equal(t, small.ID, ids[1])

	limited, err := store.ListVenueIDs(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{big.ID}, limited)
}

// TestPersistTaskResult_Replace 同任务重复持久化时覆盖旧记录
func TestPersistTaskResult_Replace(t *testing.T) {
	store, factory := newTestStore(t)
	venue := factory.CreateVenue()

	first := models.TaskResult{
		TaskName:   "classification",
		DataSource: "keyword_classifier",
		Confidence: 0.55,
		Data: map[string]interface{}{
			"concept_type":  "sports_bar",
			"matched_terms": []string{"sports"},
		},
	}
	require.NoError(t, store.PersistTaskResult(context.Background(), venue.ID, first))

	second := first
	second.Confidence = 0.7
	second.Data = map[string]interface{}{
		"concept_type":  "wine_bar",
		"matched_terms": []string{"wine", "cellar"},
	}
	require.NoError(t, store.PersistTaskResult(context.Background(), venue.ID, second))

	loaded, err := store.GetVenue(context.Background(), venue.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Classifications, 1, "旧分类记录应被覆盖")
	assert.Equal(t, "wine_bar", loaded.Classifications[0].ConceptType)
	assert.Equal(t, 0.7, loaded.Classifications[0].Confidence)
}

// TestPersistTaskResult_UnknownTask 未知任务名报错
func TestPersistTaskResult_UnknownTask(t *testing.T) {
	store, factory := newTestStore(t)
	venue := factory.CreateVenue()

	err := store.PersistTaskResult(context.Background(), venue.ID, models.TaskResult{TaskName: "geocoding"})
	assert.Error(t, err)
}

// TestUpdateJobStatus 状态更新写入时间戳与归档字段
func TestUpdateJobStatus(t *testing.T) {
	store, factory := newTestStore(t)
	venue := factory.CreateVenue()
	job := factory.CreateEnrichmentJob(venue.ID)

	started := time.Now()
	progress := 10
	require.NoError(t, store.UpdateJobStatus(context.Background(), job.ID, JobStatusUpdate{
		Status:    models.JobStatusRunning,
		Progress:  &progress,
		StartedAt: &started,
	}))

	loaded, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, loaded.Status)
	assert.Equal(t, 10, loaded.Progress)
	assert.NotNil(t, loaded.StartedAt)
	assert.Nil(t, loaded.CompletedAt)
}

// TestUpdateJobStatus_NotFound 更新不存在的作业返回哨兵错误
func TestUpdateJobStatus_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.UpdateJobStatus(context.Background(), "missing", JobStatusUpdate{
		Status: models.JobStatusRunning,
	})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

// TestFetchQualityRecords_MergesEnrichment 质量记录合并已富化的扩展字段
func TestFetchQualityRecords_MergesEnrichment(t *testing.T) {
	store, factory := newTestStore(t)
	venue := factory.CreateVenue()

	require.NoError(t, store.PersistTaskResult(context.Background(), venue.ID, models.TaskResult{
		TaskName:   "classification",
		DataSource: "keyword_classifier",
		Confidence: 0.55,
		Data:       map[string]interface{}{"concept_type": "sports_bar"},
	}))
	require.NoError(t, store.PersistTaskResult(context.Background(), venue.ID, models.TaskResult{
		TaskName:   "footprint",
		DataSource: "county_records",
		Confidence: 0.55,
		Data:       map[string]interface{}{"square_footage": 10000.0, "property_type": "commercial"},
	}))

	records, err := store.FetchQualityRecords(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, venue.LocationName, record["location_name"])
	assert.Equal(t, "sports_bar", record["concept_type"])
	assert.Equal(t, 0.55, record["concept_confidence"])
	assert.Equal(t, 10000.0, record["square_footage"])
	assert.NotContains(t, record, "population_1_mile")
}

// TestGetEnrichmentStats 覆盖率与作业分布统计
func TestGetEnrichmentStats(t *testing.T) {
	store, factory := newTestStore(t)
	a := factory.CreateVenue()
	b := factory.CreateVenue()

	require.NoError(t, store.PersistTaskResult(context.Background(), a.ID, models.TaskResult{
		TaskName:   "classification",
		DataSource: "keyword_classifier",
		Confidence: 0.55,
		Data:       map[string]interface{}{"concept_type": "sports_bar"},
	}))

	factory.CreateEnrichmentJob(a.ID)
	factory.CreateEnrichmentJob(b.ID, testutil.WithJobStatus(models.JobStatusCompleted))

	stats, err := store.GetEnrichmentStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalVenues)
	assert.Equal(t, int64(1), stats.TaskCoverage["classification"])
	assert.Equal(t, int64(0), stats.TaskCoverage["demographics"])
	assert.Equal(t, int64(2), stats.JobCountsByType[models.JobTypeFullEnrichment])
	assert.Equal(t, int64(1), stats.JobCountsByStat[models.JobStatusPending])
	assert.Equal(t, int64(1), stats.JobCountsByStat[models.JobStatusCompleted])
}

// TestSaveAndListAssessments 评估记录保存与按数据集查询
func TestSaveAndListAssessments(t *testing.T) {
	store, _ := newTestStore(t)

	assessment := &models.QualityAssessment{
		DatasetName:  "venues",
		TriggerType:  "manual",
		QualityScore: 0.95,
		TotalRecords: 100,
	}
	require.NoError(t, store.SaveAssessment(context.Background(), assessment))
	assert.NotEmpty(t, assessment.ID)

	listed, err := store.ListAssessments(context.Background(), "venues", 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 0.95, listed[0].QualityScore)

	other, err := store.ListAssessments(context.Background(), "other", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}
