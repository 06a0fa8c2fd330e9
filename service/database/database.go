/*
 * @module service/database/database
 * @description 数据库连接与迁移模块，负责建立PostgreSQL连接并同步表结构
 * @architecture 数据访问层
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow 应用启动 -> 建立连接 -> 自动迁移 -> 提供 *gorm.DB
 * @rules 连接参数全部来自环境变量，DATABASE_URL 优先于分离变量
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs service/init.go
 */

package database

import (
	"fmt"
	"os"

	"enrichhub-service/service/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB 根据环境变量建立数据库连接
func InitDB() (*gorm.DB, error) {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "enrichhub")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
			host, port, user, password, dbname, sslmode, schema)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	return db, nil
}

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Venue{},
		&models.ConceptClassification{},
		&models.DemographicData{},
		&models.FootprintData{},
		&models.EnrichmentJob{},
		&models.QualityAssessment{},
	)
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
