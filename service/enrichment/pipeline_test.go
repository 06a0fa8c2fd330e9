/*
 * @module service/enrichment/pipeline_test
 * @description 富化流水线单元测试，覆盖单场所富化、批处理隔离与流水线统计
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试数据准备 -> 流水线执行 -> 结果与落库验证
 * @rules 使用内存sqlite数据库，不依赖外部服务
 * @dependencies testing, stretchr/testify, testutil
 * @refs pipeline.go
 */

package enrichment

import (
	"context"
	"strings"
	"testing"
	"time"

	"enrichhub-service/service/database"
	"enrichhub-service/service/models"
	"enrichhub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		BatchSize:           2,
		CacheTTL:            time.Hour,
	}
}

func newTestPipeline(t *testing.T) (*Pipeline, *database.EntityStore, *testutil.TestDataFactory) {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	store := database.NewEntityStore(tdb.DB)
	pipeline := NewPipeline(store, nil, testConfig(), nil, nil, nil)
	return pipeline, store, testutil.NewTestDataFactory(tdb.DB)
}

// TestEnrichVenue_NotFound 场所不存在时返回失败结果且不执行任何任务
func TestEnrichVenue_NotFound(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t)

	result := pipeline.EnrichVenue(context.Background(), "no-such-venue")

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "NotFound:"))
	assert.Empty(t, result.DataCollected)
	assert.Empty(t, result.Warnings)
	assert.Greater(t, result.ProcessingTime, time.Duration(0))
}

// TestEnrichVenue_StoreErrorTagged 存储层故障与场所不存在使用不同的错误类型
func TestEnrichVenue_StoreErrorTagged(t *testing.T) {
	tdb := testutil.NewTestDB()
	store := database.NewEntityStore(tdb.DB)
	pipeline := NewPipeline(store, nil, testConfig(), nil, nil, nil)

	// 关闭底层连接模拟数据库故障
	tdb.Close()

	result := pipeline.EnrichVenue(context.Background(), "any-venue")

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "StoreError:"), result.Errors[0])
	assert.False(t, strings.HasPrefix(result.Errors[0], "NotFound:"))
}

// TestEnrichVenue_AllTasksPersisted 有效场所执行全部任务并持久化结果
func TestEnrichVenue_AllTasksPersisted(t *testing.T) {
	pipeline, store, factory := newTestPipeline(t)
	venue := factory.CreateVenue(testutil.WithVenueName("Big Sports Bar"))

	result := pipeline.EnrichVenue(context.Background(), venue.ID)

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.True(t, result.DataCollected["classification"])
	assert.True(t, result.DataCollected["demographics"])
	assert.True(t, result.DataCollected["footprint"])

	// 分类结果落库验证
	loaded, err := store.GetVenue(context.Background(), venue.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Classifications, 1)
	assert.Equal(t, "sports_bar", loaded.Classifications[0].ConceptType)
	require.Len(t, loaded.Demographics, 1)
	require.Len(t, loaded.Footprints, 1)
}

// TestEnrichVenue_LowConfidenceWarning 置信度低于阈值时只告警不持久化
func TestEnrichVenue_LowConfidenceWarning(t *testing.T) {
	pipeline, store, factory := newTestPipeline(t)
	// 名称无业态关键词，分类任务产出低置信度兜底结果
	venue := factory.CreateVenue(testutil.WithVenueName("Plain Corner Tavern"))

	result := pipeline.EnrichVenue(context.Background(), venue.ID)

	assert.True(t, result.Success, "低置信度不算失败")
	assert.NotEmpty(t, result.Warnings)
	assert.False(t, result.DataCollected["classification"])
	assert.True(t, result.DataCollected["demographics"])

	loaded, err := store.GetVenue(context.Background(), venue.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Classifications, "低置信度结果不应落库")
}

// TestEnrichVenue_TaskErrorIsolated 单任务失败不影响其余任务
func TestEnrichVenue_TaskErrorIsolated(t *testing.T) {
	pipeline, store, factory := newTestPipeline(t)
	venue := factory.CreateVenue(
		testutil.WithVenueName("Big Sports Bar"),
		testutil.WithVenueZip(""),
	)

	result := pipeline.EnrichVenue(context.Background(), venue.ID)

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "demographics:"))
	// 其余任务正常执行并持久化
	assert.True(t, result.DataCollected["classification"])
	assert.True(t, result.DataCollected["footprint"])

	loaded, err := store.GetVenue(context.Background(), venue.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Classifications, 1)
	assert.Empty(t, loaded.Demographics)
}

// TestEnrichVenue_DisabledTask 未启用的任务不执行
func TestEnrichVenue_DisabledTask(t *testing.T) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	store := database.NewEntityStore(tdb.DB)
	factory := testutil.NewTestDataFactory(tdb.DB)

	config := testConfig()
	config.EnabledTasks = []string{"classification"}
	pipeline := NewPipeline(store, nil, config, nil, nil, nil)

	venue := factory.CreateVenue(testutil.WithVenueName("Big Sports Bar"))
	result := pipeline.EnrichVenue(context.Background(), venue.ID)

	assert.True(t, result.Success)
	assert.True(t, result.DataCollected["classification"])
	assert.NotContains(t, result.DataCollected, "demographics")
	assert.NotContains(t, result.DataCollected, "footprint")
}

// TestEnrichBatch_OrderAndIsolation 批处理结果顺序与输入一致，失败条目不影响其余条目
func TestEnrichBatch_OrderAndIsolation(t *testing.T) {
	pipeline, _, factory := newTestPipeline(t)
	first := factory.CreateVenue(testutil.WithVenueName("Big Sports Bar"))
	second := factory.CreateVenue(testutil.WithVenueName("Wine Cellar"))

	ids := []string{first.ID, "missing-venue", second.ID}
	results := pipeline.EnrichBatch(context.Background(), ids)

	require.Len(t, results, 3)
	assert.Equal(t, first.ID, results[0].VenueID)
	assert.Equal(t, "missing-venue", results[1].VenueID)
	assert.Equal(t, second.ID, results[2].VenueID)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
}

// TestEnrichBatch_Empty 空输入返回空结果集
func TestEnrichBatch_Empty(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t)

	results := pipeline.EnrichBatch(context.Background(), nil)
	assert.Empty(t, results)
}

// TestRunFullPipeline_Stats 全量流水线的统计聚合
func TestRunFullPipeline_Stats(t *testing.T) {
	pipeline, _, factory := newTestPipeline(t)
	factory.CreateVenue(testutil.WithVenueName("Big Sports Bar"))
	factory.CreateVenue(testutil.WithVenueName("Wine Cellar"))
	// 缺失邮编的场所触发demographics任务错误
	factory.CreateVenue(
		testutil.WithVenueName("Downtown Grill"),
		testutil.WithVenueZip(""),
	)
	// 非活跃场所不参与流水线
	factory.CreateVenue(testutil.WithVenueInactive())

	stats, err := pipeline.RunFullPipeline(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalVenues)
	assert.Equal(t, 2, stats.SuccessfulVenues)
	assert.Equal(t, 1, stats.FailedVenues)
	// 任务贡献直方图：3个场所全部完成分类，2个完成人口统计
	assert.Equal(t, 3, stats.DataSourceCounts["classification"])
	assert.Equal(t, 2, stats.DataSourceCounts["demographics"])
	assert.Equal(t, 3, stats.DataSourceCounts["footprint"])
	// 错误按首个冒号前的类型归类
	assert.Equal(t, 1, stats.ErrorTypeCounts["demographics"])
	assert.Greater(t, stats.TotalTime, time.Duration(0))
	assert.Greater(t, stats.AverageTime, time.Duration(0))
}

// TestBuildPipelineStats_ErrorTypeKeys 错误类型直方图的键为首个冒号前的文本
func TestBuildPipelineStats_ErrorTypeKeys(t *testing.T) {
	results := []*models.EnrichmentResult{
		{Success: false, Errors: []string{"NotFound: 场所 x 不存在"}},
		{Success: false, Errors: []string{"demographics: 缺少有效邮编", "footprint: 地址为空"}},
		{Success: true, DataCollected: map[string]bool{"classification": true}},
	}

	stats := buildPipelineStats(results, time.Second)

	assert.Equal(t, 3, stats.TotalVenues)
	assert.Equal(t, 1, stats.SuccessfulVenues)
	assert.Equal(t, 2, stats.FailedVenues)
	assert.Equal(t, 1, stats.ErrorTypeCounts["NotFound"])
	assert.Equal(t, 1, stats.ErrorTypeCounts["demographics"])
	assert.Equal(t, 1, stats.ErrorTypeCounts["footprint"])
	assert.Equal(t, 1, stats.DataSourceCounts["classification"])
}
