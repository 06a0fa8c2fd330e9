/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"enrichhub-service/service/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.Venue{},
		&models.ConceptClassification{},
		&models.DemographicData{},
		&models.FootprintData{},
		&models.EnrichmentJob{},
		&models.QualityAssessment{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	// 清空所有表的数据
	tables := []string{
		"venues",
		"concept_classifications",
		"demographic_data",
		"footprint_data",
		"enrichment_jobs",
		"quality_assessments",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// VenueOption 场所选项函数类型
type VenueOption func(*models.Venue)

// WithVenueName 指定场所名称
func WithVenueName(name string) VenueOption {
	return func(v *models.Venue) { v.LocationName = name }
}

// WithVenueZip 指定场所邮编
func WithVenueZip(zip string) VenueOption {
	return func(v *models.Venue) { v.LocationZip = zip }
}

// WithVenueReceipts 指定场所经营额
func WithVenueReceipts(total float64) VenueOption {
	return func(v *models.Venue) { v.TotalReceipts = total }
}

// WithVenueCoordinates 指定场所经纬度
func WithVenueCoordinates(lat, lng float64) VenueOption {
	return func(v *models.Venue) {
		v.Latitude = &lat
		v.Longitude = &lng
	}
}

// WithVenueInactive 标记场所为非活跃
func WithVenueInactive() VenueOption {
	return func(v *models.Venue) { v.IsActive = boolPtr(false) }
}

// CreateVenue 创建测试场所
func (f *TestDataFactory) CreateVenue(opts ...VenueOption) *models.Venue {
	venue := &models.Venue{
		ID:              generateID("venue"),
		TaxpayerNumber:  "32000000000",
		TaxpayerName:    "TEST HOLDINGS LLC",
		LocationName:    "Test Sports Bar " + generateSuffix(),
		LocationAddress: "123 Main St",
		LocationCity:    "Austin",
		LocationState:   "TX",
		LocationZip:     "78701",
		LocationCounty:  "Travis",
		LiquorReceipts:  50000,
		WineReceipts:    20000,
		BeerReceipts:    30000,
		TotalReceipts:   100000,
		IsActive:        boolPtr(true),
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	// 应用选项
	for _, opt := range opts {
		opt(venue)
	}

	err := f.DB.Create(venue).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test venue: %v", err))
	}

	return venue
}

// EnrichmentJobOption 富化作业选项函数类型
type EnrichmentJobOption func(*models.EnrichmentJob)

// WithJobStatus 指定作业状态
func WithJobStatus(status string) EnrichmentJobOption {
	return func(j *models.EnrichmentJob) { j.Status = status }
}

// WithJobType 指定作业类型
func WithJobType(jobType string) EnrichmentJobOption {
	return func(j *models.EnrichmentJob) { j.JobType = jobType }
}

// CreateEnrichmentJob 创建测试富化作业
func (f *TestDataFactory) CreateEnrichmentJob(venueID string, opts ...EnrichmentJobOption) *models.EnrichmentJob {
	job := &models.EnrichmentJob{
		ID:        generateID("job"),
		VenueID:   venueID,
		JobType:   models.JobTypeFullEnrichment,
		Status:    models.JobStatusPending,
		Config:    models.JSONB{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	// 应用选项
	for _, opt := range opts {
		opt(job)
	}

	err := f.DB.Create(job).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test enrichment job: %v", err))
	}

	return job
}

// VenueRecord 构造用于校验和分析的通用记录，不落库
func VenueRecord(overrides map[string]interface{}) map[string]interface{} {
	record := map[string]interface{}{
		"location_name":    "Test Sports Bar",
		"location_address": "123 Main St Austin",
		"location_city":    "Austin",
		"location_state":   "TX",
		"location_zip":     "78701",
		"total_receipts":   100000.0,
		"latitude":         30.27,
		"longitude":        -97.74,
	}
	for k, v := range overrides {
		record[k] = v
	}
	return record
}

// 辅助函数
func boolPtr(b bool) *bool {
	return &b
}

func generateID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), generateSuffix())
}

func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// TestConfig 测试配置
type TestConfig struct {
	Database struct {
		Driver string
		DSN    string
	}
	Timeout time.Duration
	Cleanup bool
}

// DefaultTestConfig 默认测试配置
func DefaultTestConfig() *TestConfig {
	return &TestConfig{
		Database: struct {
			Driver string
			DSN    string
		}{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
		Timeout: 30 * time.Second,
		Cleanup: true,
	}
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
