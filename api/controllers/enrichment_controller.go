/*
 * @module api/controllers/enrichment_controller
 * @description 富化API控制器，提供单场所富化、批量富化、全量流水线与作业管理接口
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow HTTP请求处理流程
 * @rules 统一的错误处理和响应格式，参数验证
 * @dependencies enrichhub-service/service, github.com/go-chi/render
 * @refs service/enrichment/
 */

package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"enrichhub-service/service"
	"enrichhub-service/service/enrichment"
	"enrichhub-service/service/models"
	"enrichhub-service/service/rate_limiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// EnrichmentController 富化控制器
type EnrichmentController struct {
	pipeline    *enrichment.Pipeline
	jobService  *enrichment.JobService
	rateLimiter *rate_limiter.PipelineRateLimiter
}

// NewEnrichmentController 创建富化控制器实例
func NewEnrichmentController() *EnrichmentController {
	return &EnrichmentController{
		pipeline:    service.GlobalPipeline,
		jobService:  service.GlobalJobService,
		rateLimiter: service.GlobalRateLimiter,
	}
}

// allowOperation 检查高成本操作的限流，限流器未启用时直接放行
func (c *EnrichmentController) allowOperation(w http.ResponseWriter, r *http.Request, operation string) bool {
	if c.rateLimiter == nil {
		return true
	}
	result, err := c.rateLimiter.Allow(r.Context(), operation)
	if err != nil {
		// 限流器故障时放行，不阻断业务
		return true
	}
	if !result.Allowed {
		render.JSON(w, r, TooManyRequestsResponse(result.Message, result))
		return false
	}
	return true
}

// EnrichBatchRequest 批量富化请求
type EnrichBatchRequest struct {
	VenueIDs []string `json:"venue_ids"`
}

// RunPipelineRequest 全量流水线请求
type RunPipelineRequest struct {
	Limit int `json:"limit"`
}

// CreateJobRequest 创建富化作业请求
type CreateJobRequest struct {
	VenueID string       `json:"venue_id"`
	JobType string       `json:"job_type"`
	Config  models.JSONB `json:"config"`
}

// EnrichVenue 富化单个场所
// @Summary 富化单个场所
// @Description 对指定场所执行全部启用的富化任务，返回富化结果
// @Tags 富化
// @Produce json
// @Param id path string true "场所ID"
// @Success 200 {object} APIResponse{data=models.EnrichmentResult}
// @Failure 400 {object} APIResponse
// @Router /enrichment/venues/{id}/enrich [post]
func (c *EnrichmentController) EnrichVenue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		render.JSON(w, r, BadRequestResponse("ID参数不能为空", nil))
		return
	}

	result := c.pipeline.EnrichVenue(r.Context(), id)
	render.JSON(w, r, SuccessResponse("富化完成", result))
}

// EnrichBatch 批量富化
// @Summary 批量富化场所
// @Description 对一批场所并发执行富化，返回与输入顺序一致的结果列表
// @Tags 富化
// @Accept json
// @Produce json
// @Param request body EnrichBatchRequest true "批量富化请求"
// @Success 200 {object} APIResponse{data=[]models.EnrichmentResult}
// @Failure 400 {object} APIResponse
// @Failure 429 {object} APIResponse
// @Router /enrichment/batch [post]
func (c *EnrichmentController) EnrichBatch(w http.ResponseWriter, r *http.Request) {
	var req EnrichBatchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("请求参数格式错误:%s", err.Error()), nil))
		return
	}
	if len(req.VenueIDs) == 0 {
		render.JSON(w, r, BadRequestResponse("venue_ids不能为空", nil))
		return
	}
	if !c.allowOperation(w, r, "batch_enrich") {
		return
	}

	results := c.pipeline.EnrichBatch(r.Context(), req.VenueIDs)
	render.JSON(w, r, SuccessResponse("批量富化完成", results))
}

// RunPipeline 运行全量富化流水线
// @Summary 运行全量富化流水线
// @Description 加载至多limit个活跃场所，分批富化并返回流水线统计
// @Tags 富化
// @Accept json
// @Produce json
// @Param request body RunPipelineRequest true "流水线参数"
// @Success 200 {object} APIResponse{data=models.PipelineStats}
// @Failure 429 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /enrichment/pipeline [post]
func (c *EnrichmentController) RunPipeline(w http.ResponseWriter, r *http.Request) {
	var req RunPipelineRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("请求参数格式错误:%s", err.Error()), nil))
		return
	}
	if !c.allowOperation(w, r, "run_pipeline") {
		return
	}

	stats, err := c.pipeline.RunFullPipeline(r.Context(), req.Limit)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse(err.Error(), nil))
		return
	}
	render.JSON(w, r, SuccessResponse("流水线执行完成", stats))
}

// CreateJob 创建富化作业
// @Summary 创建富化作业
// @Description 创建pending状态的富化作业
// @Tags 富化作业
// @Accept json
// @Produce json
// @Param request body CreateJobRequest true "作业信息"
// @Success 200 {object} APIResponse{data=models.EnrichmentJob}
// @Failure 400 {object} APIResponse
// @Router /enrichment/jobs [post]
func (c *EnrichmentController) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("请求参数格式错误:%s", err.Error()), nil))
		return
	}

	job, err := c.jobService.CreateJob(r.Context(), req.VenueID, req.JobType, req.Config)
	if err != nil {
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}
	render.JSON(w, r, SuccessResponse("作业创建成功", job))
}

// ProcessJob 处理富化作业
// @Summary 处理富化作业
// @Description 执行指定作业：pending -> running -> completed/failed
// @Tags 富化作业
// @Produce json
// @Param id path string true "作业ID"
// @Success 200 {object} APIResponse{data=models.EnrichmentJob}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /enrichment/jobs/{id}/process [post]
func (c *EnrichmentController) ProcessJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		render.JSON(w, r, BadRequestResponse("ID参数不能为空", nil))
		return
	}

	job, err := c.jobService.ProcessJob(r.Context(), id)
	if err != nil {
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}
	render.JSON(w, r, SuccessResponse("作业处理完成", job))
}

// GetJob 获取作业详情
// @Summary 获取富化作业详情
// @Description 根据ID获取作业详细信息
// @Tags 富化作业
// @Produce json
// @Param id path string true "作业ID"
// @Success 200 {object} APIResponse{data=models.EnrichmentJob}
// @Failure 404 {object} APIResponse
// @Router /enrichment/jobs/{id} [get]
func (c *EnrichmentController) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		render.JSON(w, r, BadRequestResponse("ID参数不能为空", nil))
		return
	}

	job, err := c.jobService.GetJob(r.Context(), id)
	if err != nil {
		render.JSON(w, r, NotFoundResponse("富化作业不存在", nil))
		return
	}
	render.JSON(w, r, SuccessResponse("查询成功", job))
}

// ListJobs 分页获取作业列表
// @Summary 获取富化作业列表
// @Description 分页获取作业列表，支持按状态筛选
// @Tags 富化作业
// @Produce json
// @Param page query int false "页码" default(1)
// @Param size query int false "每页大小" default(10)
// @Param status query string false "作业状态" Enums(pending,running,completed,failed)
// @Success 200 {object} PaginatedResponse{data=[]models.EnrichmentJob}
// @Failure 500 {object} APIResponse
// @Router /enrichment/jobs [get]
func (c *EnrichmentController) ListJobs(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}
	status := r.URL.Query().Get("status")

	jobs, total, err := c.jobService.ListJobs(r.Context(), status, size, (page-1)*size)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse(err.Error(), nil))
		return
	}
	render.JSON(w, r, SuccessPaginatedResponse("查询成功", jobs, total, page, size))
}

// GetStats 获取富化统计
// @Summary 获取富化统计信息
// @Description 汇总场所总量、各任务覆盖率与作业状态分布
// @Tags 富化
// @Produce json
// @Success 200 {object} APIResponse{data=models.EnrichmentStats}
// @Failure 500 {object} APIResponse
// @Router /enrichment/stats [get]
func (c *EnrichmentController) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.jobService.GetStats(r.Context())
	if err != nil {
		render.JSON(w, r, InternalErrorResponse(err.Error(), nil))
		return
	}
	render.JSON(w, r, SuccessResponse("查询成功", stats))
}
