/*
 * @module api/controllers/quality_controller
 * @description 数据质量控制器，提供质量评估、规则查询、记录校验与清洗接口
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/quality_assessment_impl.md
 * @stateFlow 请求接收 -> 业务逻辑处理 -> 响应返回
 * @rules 统一的错误处理和响应格式，参数验证
 * @dependencies enrichhub-service/service, github.com/go-chi/render
 * @refs service/data_quality/
 */

package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"enrichhub-service/service"
	"enrichhub-service/service/data_quality"
	"enrichhub-service/service/database"

	"github.com/go-chi/render"
)

// QualityController 数据质量控制器
type QualityController struct {
	store           *database.EntityStore
	reporter        *data_quality.QualityReporter
	engine          *data_quality.ValidationEngine
	cleanser        *data_quality.DataCleanser
	scheduler       *data_quality.AssessmentScheduler
	externalQuerier *database.ExternalQuerier
}

// NewQualityController 创建数据质量控制器实例
func NewQualityController() *QualityController {
	return &QualityController{
		store:           service.GlobalEntityStore,
		reporter:        service.GlobalQualityReporter,
		engine:          service.GlobalValidationEngine,
		cleanser:        service.GlobalDataCleanser,
		scheduler:       service.GlobalAssessmentScheduler,
		externalQuerier: service.GlobalExternalQuerier,
	}
}

// RecordsRequest 携带记录列表的请求体
type RecordsRequest struct {
	Records []map[string]interface{} `json:"records"`
}

// GenerateReportRequest 质量报告生成请求
type GenerateReportRequest struct {
	Limit int `json:"limit"`
}

// ExternalReportRequest 外部数据集质量报告请求
type ExternalReportRequest struct {
	Table string `json:"table"`
	Limit int    `json:"limit"`
}

// GetRules 获取校验规则列表
// @Summary 获取数据校验规则列表
// @Description 返回当前生效的全部校验规则定义
// @Tags 数据质量
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.ValidationRule}
// @Router /quality/rules [get]
func (c *QualityController) GetRules(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("查询成功", c.engine.Rules()))
}

// ValidateRecords 校验记录
// @Summary 校验一批记录
// @Description 对请求体中的记录执行全部启用规则，返回校验结果明细
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param request body RecordsRequest true "待校验记录"
// @Success 200 {object} APIResponse{data=[]models.ValidationResult}
// @Failure 400 {object} APIResponse
// @Router /quality/validate [post]
func (c *QualityController) ValidateRecords(w http.ResponseWriter, r *http.Request) {
	var req RecordsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("请求参数格式错误:%s", err.Error()), nil))
		return
	}

	results := c.engine.ValidateRecords(req.Records)
	render.JSON(w, r, SuccessResponse("校验完成", results))
}

// CleanseRecords 清洗记录
// @Summary 清洗一批记录
// @Description 对请求体中的记录执行标准化清洗，返回清洗后的记录
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param request body RecordsRequest true "待清洗记录"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /quality/cleanse [post]
func (c *QualityController) CleanseRecords(w http.ResponseWriter, r *http.Request) {
	var req RecordsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("请求参数格式错误:%s", err.Error()), nil))
		return
	}

	cleaned := c.cleanser.CleanRecords(req.Records)
	render.JSON(w, r, SuccessResponse("清洗完成", cleaned))
}

// GenerateReport 生成质量报告
// @Summary 生成数据质量报告
// @Description 加载至多limit条场所记录（0为全部），清洗后分析并返回完整质量报告
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param request body GenerateReportRequest true "报告参数"
// @Success 200 {object} APIResponse{data=models.QualityReport}
// @Failure 500 {object} APIResponse
// @Router /quality/report [post]
func (c *QualityController) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req GenerateReportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("请求参数格式错误:%s", err.Error()), nil))
		return
	}

	records, err := c.store.FetchQualityRecords(r.Context(), req.Limit)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse(err.Error(), nil))
		return
	}

	report := c.reporter.BuildReport(records)
	render.JSON(w, r, SuccessResponse("报告生成成功", report))
}

// GenerateExternalReport 对外部数据集生成质量报告
// @Summary 对外部数据集生成质量报告
// @Description 从配置的外部PostgreSQL数据源拉取指定表的记录并执行质量分析
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param request body ExternalReportRequest true "外部报告参数"
// @Success 200 {object} APIResponse{data=models.QualityReport}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /quality/report/external [post]
func (c *QualityController) GenerateExternalReport(w http.ResponseWriter, r *http.Request) {
	if c.externalQuerier == nil {
		render.JSON(w, r, BadRequestResponse("外部数据源未配置", nil))
		return
	}

	var req ExternalReportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("请求参数格式错误:%s", err.Error()), nil))
		return
	}
	if req.Table == "" {
		render.JSON(w, r, BadRequestResponse("table不能为空", nil))
		return
	}

	records, err := c.externalQuerier.FetchRecords(r.Context(), req.Table, req.Limit)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse(err.Error(), nil))
		return
	}

	report := c.reporter.BuildReport(records)
	render.JSON(w, r, SuccessResponse("报告生成成功", report))
}

// RunAssessment 手动触发质量评估
// @Summary 手动触发质量评估
// @Description 对全量场所记录执行一次质量评估并持久化评估结果
// @Tags 数据质量
// @Produce json
// @Success 200 {object} APIResponse{data=models.QualityAssessment}
// @Failure 500 {object} APIResponse
// @Router /quality/assessments [post]
func (c *QualityController) RunAssessment(w http.ResponseWriter, r *http.Request) {
	assessment, err := c.scheduler.RunAssessment(r.Context(), "manual")
	if err != nil {
		render.JSON(w, r, InternalErrorResponse(err.Error(), nil))
		return
	}
	render.JSON(w, r, SuccessResponse("质量评估完成", assessment))
}

// ListAssessments 获取历史评估列表
// @Summary 获取质量评估历史
// @Description 按时间倒序返回历史质量评估记录
// @Tags 数据质量
// @Produce json
// @Param dataset query string false "数据集名称"
// @Param limit query int false "返回条数" default(20)
// @Success 200 {object} APIResponse{data=[]models.QualityAssessment}
// @Failure 500 {object} APIResponse
// @Router /quality/assessments [get]
func (c *QualityController) ListAssessments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	dataset := r.URL.Query().Get("dataset")

	assessments, err := c.store.ListAssessments(r.Context(), dataset, limit)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse(err.Error(), nil))
		return
	}
	render.JSON(w, r, SuccessResponse("查询成功", assessments))
}
