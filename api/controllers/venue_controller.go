/*
 * @module api/controllers/venue_controller
 * @description 场所API控制器，提供场所的创建与查询接口
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/enrichment_pipeline_impl.md
 * @stateFlow HTTP请求处理流程
 * @rules 统一的错误处理和响应格式，参数验证
 * @dependencies enrichhub-service/service, github.com/go-chi/render
 * @refs service/database/entity_store.go
 */

package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"enrichhub-service/service"
	"enrichhub-service/service/database"
	"enrichhub-service/service/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// VenueController 场所控制器
type VenueController struct {
	store *database.EntityStore
}

// NewVenueController 创建场所控制器实例
func NewVenueController() *VenueController {
	return &VenueController{store: service.GlobalEntityStore}
}

// CreateVenue 创建场所
// @Summary 创建场所
// @Description 创建新的场所记录
// @Tags 场所
// @Accept json
// @Produce json
// @Param venue body models.Venue true "场所信息"
// @Success 200 {object} APIResponse{data=models.Venue}
// @Failure 400 {object} APIResponse
// @Router /venues [post]
func (c *VenueController) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var req models.Venue
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("请求参数格式错误:%s", err.Error()), nil))
		return
	}
	if req.LocationName == "" {
		render.JSON(w, r, BadRequestResponse("location_name不能为空", nil))
		return
	}

	if err := c.store.CreateVenue(r.Context(), &req); err != nil {
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}
	render.JSON(w, r, SuccessResponse("创建成功", &req))
}

// GetVenue 获取场所详情
// @Summary 获取场所详情
// @Description 根据ID获取场所详细信息，包含已富化的关联数据
// @Tags 场所
// @Produce json
// @Param id path string true "场所ID"
// @Success 200 {object} APIResponse{data=models.Venue}
// @Failure 404 {object} APIResponse
// @Router /venues/{id} [get]
func (c *VenueController) GetVenue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		render.JSON(w, r, BadRequestResponse("ID参数不能为空", nil))
		return
	}

	venue, err := c.store.GetVenue(r.Context(), id)
	if err != nil {
		render.JSON(w, r, NotFoundResponse("场所不存在", nil))
		return
	}
	render.JSON(w, r, SuccessResponse("查询成功", venue))
}

// ListVenues 分页获取场所列表
// @Summary 获取场所列表
// @Description 分页获取场所列表
// @Tags 场所
// @Produce json
// @Param page query int false "页码" default(1)
// @Param size query int false "每页大小" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.Venue}
// @Failure 500 {object} APIResponse
// @Router /venues [get]
func (c *VenueController) ListVenues(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}

	venues, total, err := c.store.ListVenues(r.Context(), size, (page-1)*size)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse(err.Error(), nil))
		return
	}
	render.JSON(w, r, SuccessPaginatedResponse("查询成功", venues, total, page, size))
}
