/*
 * @module service/data_quality/quality_scheduler_test
 * @description 质量评估调度器单元测试，覆盖评估执行、入库与场所评分回写
 * @architecture 测试层
 * @documentReference ai_docs/data_quality_engine_impl.md
 */

package data_quality

import (
	"context"
	"testing"

	"enrichhub-service/service/database"
	"enrichhub-service/service/models"
	"enrichhub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) (*AssessmentScheduler, *database.EntityStore, *testutil.TestDataFactory) {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	store := database.NewEntityStore(tdb.DB)
	engine := NewValidationEngine(nil, NewRuleScriptExecutor())
	reporter := NewQualityReporter(NewQualityAnalyzer(engine), NewDataCleanser())
	scheduler := NewAssessmentScheduler(store, reporter, nil, "", "venues")
	return scheduler, store, testutil.NewTestDataFactory(tdb.DB)
}

// TestRunAssessment_PersistsAssessment 手动评估入库并返回评估记录
func TestRunAssessment_PersistsAssessment(t *testing.T) {
	scheduler, store, factory := newTestScheduler(t)
	factory.CreateVenue(testutil.WithVenueName("Clean Sports Bar"))

	assessment, err := scheduler.RunAssessment(context.Background(), "manual")
	require.NoError(t, err)

	assert.NotEmpty(t, assessment.ID)
	assert.Equal(t, "venues", assessment.DatasetName)
	assert.Equal(t, "manual", assessment.TriggerType)
	assert.Equal(t, 1, assessment.TotalRecords)

	listed, err := store.ListAssessments(context.Background(), "venues", 10)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

// TestRunAssessment_WritesVenueScores 评估完成后逐场所回写质量评分
func TestRunAssessment_WritesVenueScores(t *testing.T) {
	scheduler, store, factory := newTestScheduler(t)

	clean := factory.CreateVenue(testutil.WithVenueName("Clean Sports Bar"))
	require.NoError(t, store.DB().Model(&models.Venue{}).
		Where("id = ?", clean.ID).
		Update("location_address", "123 Main St Austin").Error)

	dirty := factory.CreateVenue(testutil.WithVenueName("Dirty Tavern"))
	require.NoError(t, store.DB().Model(&models.Venue{}).
		Where("id = ?", dirty.ID).
		Update("location_zip", "bad-zip").Error)

	_, err := scheduler.RunAssessment(context.Background(), "manual")
	require.NoError(t, err)

	cleanLoaded, err := store.GetVenue(context.Background(), clean.ID)
	require.NoError(t, err)
	dirtyLoaded, err := store.GetVenue(context.Background(), dirty.ID)
	require.NoError(t, err)

	require.NotNil(t, cleanLoaded.DataQualityScore)
	require.NotNil(t, dirtyLoaded.DataQualityScore)
	assert.Equal(t, 1.0, *cleanLoaded.DataQualityScore)
	assert.Less(t, *dirtyLoaded.DataQualityScore, 1.0)
}

// TestStartScheduler_InvalidCron 非法cron表达式启动失败
func TestStartScheduler_InvalidCron(t *testing.T) {
	scheduler, _, _ := newTestScheduler(t)
	scheduler.cronExpression = "not-a-cron"

	err := scheduler.StartScheduler()
	assert.Error(t, err)
}

// TestStartScheduler_Twice 重复启动返回错误
func TestStartScheduler_Twice(t *testing.T) {
	scheduler, _, _ := newTestScheduler(t)

	require.NoError(t, scheduler.StartScheduler())
	defer scheduler.StopScheduler()

	assert.Error(t, scheduler.StartScheduler())
}
