/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs dev_docs/model.md
 */

package api

import (
	"enrichhub-service/api/controllers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 场所管理
	r.Route("/venues", func(r chi.Router) {
		venueController := controllers.NewVenueController()
		r.Post("/", venueController.CreateVenue)
		r.Get("/", venueController.ListVenues)
		r.Get("/{id}", venueController.GetVenue)
	})

	// 富化流水线与作业管理
	r.Route("/enrichment", func(r chi.Router) {
		enrichmentController := controllers.NewEnrichmentController()

		// 富化执行
		r.Post("/venues/{id}/enrich", enrichmentController.EnrichVenue)
		r.Post("/batch", enrichmentController.EnrichBatch)
		r.Post("/pipeline", enrichmentController.RunPipeline)

		// 作业生命周期
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", enrichmentController.CreateJob)
			r.Get("/", enrichmentController.ListJobs)
			r.Get("/{id}", enrichmentController.GetJob)
			r.Post("/{id}/process", enrichmentController.ProcessJob)
		})

		// 富化统计
		r.Get("/stats", enrichmentController.GetStats)
	})

	// 数据质量管理
	r.Route("/quality", func(r chi.Router) {
		qualityController := controllers.NewQualityController()

		// 校验规则与执行
		r.Get("/rules", qualityController.GetRules)
		r.Post("/validate", qualityController.ValidateRecords)
		r.Post("/cleanse", qualityController.CleanseRecords)

		// 质量报告
		r.Post("/report", qualityController.GenerateReport)
		r.Post("/report/external", qualityController.GenerateExternalReport)

		// 质量评估
		r.Route("/assessments", func(r chi.Router) {
			r.Post("/", qualityController.RunAssessment)
			r.Get("/", qualityController.ListAssessments)
		})
	})
}
