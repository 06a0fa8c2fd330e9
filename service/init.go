/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、连接器装配、富化与质量服务初始化
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 应用启动时执行初始化流程：数据库 -> 迁移 -> 连接器 -> 业务服务 -> 调度器
 * @rules 数据库是硬依赖，连接失败直接退出；Kafka/MQTT/Redis为可选依赖，连接失败降级运行
 * @dependencies gorm.io/gorm, enrichhub-service/client/connectors
 * @refs dev_docs/model.md
 */

package service

import (
	"log"
	"os"
	"strconv"

	"enrichhub-service/client/connectors"
	"enrichhub-service/logger"
	"enrichhub-service/service/data_quality"
	"enrichhub-service/service/database"
	"enrichhub-service/service/distributed_lock"
	"enrichhub-service/service/enrichment"
	"enrichhub-service/service/enrichment/tasks"
	"enrichhub-service/service/event"
	"enrichhub-service/service/models"
	"enrichhub-service/service/rate_limiter"

	"gorm.io/gorm"
)

var (
	DB                        *gorm.DB
	GlobalEntityStore         *database.EntityStore
	GlobalKafkaConnector      *connectors.KafkaConnector
	GlobalMQTTConnector       *connectors.MQTTConnector
	GlobalRedisConnector      *connectors.RedisConnector
	GlobalEventService        *event.EventService
	GlobalPipeline            *enrichment.Pipeline
	GlobalJobService          *enrichment.JobService
	GlobalValidationEngine    *data_quality.ValidationEngine
	GlobalDataCleanser        *data_quality.DataCleanser
	GlobalQualityReporter     *data_quality.QualityReporter
	GlobalAssessmentScheduler *data_quality.AssessmentScheduler
	GlobalRateLimiter         *rate_limiter.PipelineRateLimiter
	GlobalExternalQuerier     *database.ExternalQuerier
)

func init() {
	logger.InitLogger()
	initDatabase()
	runMigrations()
	initConnectors()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var err error
	DB, err = database.InitDB()
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	log.Println("数据库连接成功")
}

// runMigrations 运行数据库迁移
func runMigrations() {
	log.Println("开始运行数据库迁移...")
	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")
}

// initConnectors 初始化消息与缓存连接器，连接失败不阻断启动
func initConnectors() {
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		GlobalKafkaConnector = connectors.NewKafkaConnector(&connectors.KafkaConfig{
			Brokers: []string{brokers},
			GroupID: getEnvWithDefault("KAFKA_GROUP_ID", "enrichhub-service"),
		})
		if err := GlobalKafkaConnector.Connect(); err != nil {
			log.Printf("Kafka连接失败，事件发布降级: %v", err)
		}
	}

	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		GlobalMQTTConnector = connectors.NewMQTTConnector(&models.MQTTConfig{
			Broker:   broker,
			ClientID: getEnvWithDefault("MQTT_CLIENT_ID", "enrichhub-service"),
			Username: os.Getenv("MQTT_USERNAME"),
			Password: os.Getenv("MQTT_PASSWORD"),
		})
		if err := GlobalMQTTConnector.Connect(); err != nil {
			log.Printf("MQTT连接失败，事件发布降级: %v", err)
		}
	}

	if address := os.Getenv("REDIS_ADDRESS"); address != "" {
		redisDB, _ := strconv.Atoi(getEnvWithDefault("REDIS_DB", "0"))
		GlobalRedisConnector = connectors.NewRedisConnector(&connectors.RedisConfig{
			Address:  address,
			Password: os.Getenv("REDIS_PASSWORD"),
			Database: redisDB,
		})
		if err := GlobalRedisConnector.Connect(); err != nil {
			log.Printf("Redis连接失败，任务缓存与分布式锁降级: %v", err)
			GlobalRedisConnector = nil
		}
	}
}

// initServices 初始化业务服务
func initServices() {
	GlobalEntityStore = database.NewEntityStore(DB)
	GlobalEventService = event.NewEventService(GlobalKafkaConnector, GlobalMQTTConnector)

	// 富化流水线与作业服务
	enrichConfig := enrichment.ConfigFromEnv()
	metrics := enrichment.NewPipelineMetrics(nil)
	var taskCache *enrichment.TaskResultCache
	if GlobalRedisConnector != nil {
		taskCache = enrichment.NewTaskResultCache(GlobalRedisConnector, enrichConfig.CacheTTL)
	}
	GlobalPipeline = enrichment.NewPipeline(GlobalEntityStore, tasks.DefaultTasks(), enrichConfig, taskCache, GlobalEventService, metrics)
	GlobalJobService = enrichment.NewJobService(GlobalEntityStore, GlobalPipeline, metrics)

	// 数据质量服务
	GlobalValidationEngine = data_quality.NewValidationEngine(nil, data_quality.NewRuleScriptExecutor())
	GlobalDataCleanser = data_quality.NewDataCleanser()
	analyzer := data_quality.NewQualityAnalyzer(GlobalValidationEngine)
	GlobalQualityReporter = data_quality.NewQualityReporter(analyzer, GlobalDataCleanser)

	// 质量评估调度器，多实例部署时用Redis分布式锁避免重复评估
	cronExpression := getEnvWithDefault("QUALITY_ASSESSMENT_CRON", "0 0 2 * * *")
	datasetName := getEnvWithDefault("QUALITY_DATASET_NAME", "venues")
	GlobalAssessmentScheduler = data_quality.NewAssessmentScheduler(
		GlobalEntityStore, GlobalQualityReporter, GlobalEventService, cronExpression, datasetName)

	if address := os.Getenv("REDIS_ADDRESS"); address != "" && GlobalRedisConnector != nil {
		redisDB, _ := strconv.Atoi(getEnvWithDefault("REDIS_DB", "0"))
		redisConfig := &models.RedisConfig{
			Address:  address,
			Password: os.Getenv("REDIS_PASSWORD"),
			Database: redisDB,
		}

		lock, err := distributed_lock.NewRedisLock(redisConfig)
		if err != nil {
			log.Printf("分布式锁初始化失败，质量评估调度不加锁运行: %v", err)
		} else {
			GlobalAssessmentScheduler.SetDistributedLock(lock)
		}

		// 批量富化与全量流水线属于高成本操作，用限流器保护
		limiter, err := rate_limiter.NewPipelineRateLimiter(redisConfig, rate_limiter.DefaultRules())
		if err != nil {
			log.Printf("限流器初始化失败，高成本操作不限流运行: %v", err)
		} else {
			GlobalRateLimiter = limiter
		}
	}

	if err := GlobalAssessmentScheduler.StartScheduler(); err != nil {
		log.Printf("质量评估调度器启动失败: %v", err)
	}

	// 可选的外部数据集源，用于对外部表执行质量分析
	if dsn := os.Getenv("EXTERNAL_DATASET_DSN"); dsn != "" {
		querier, err := database.NewExternalQuerier(dsn)
		if err != nil {
			log.Printf("外部数据源初始化失败，外部质量分析不可用: %v", err)
		} else {
			GlobalExternalQuerier = querier
		}
	}

	log.Println("服务初始化完成")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
