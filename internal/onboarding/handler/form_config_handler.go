package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
	"github.com/bitfantasy/onboard/internal/onboarding/service"
)

// FormConfigHandler 表单配置处理器
type FormConfigHandler struct {
	svc *service.FormConfigService
}

func NewFormConfigHandler(svc *service.FormConfigService) *FormConfigHandler {
	return &FormConfigHandler{svc: svc}
}

// Create POST /form-configs
func (h *FormConfigHandler) Create(c *gin.Context) {
	var req service.CreateFormConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	config, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, config)
}

// Get GET /form-configs/:id
func (h *FormConfigHandler) Get(c *gin.Context) {
	config, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, config)
}

// GetActive GET /form-configs/active?entity_type=&geography=
func (h *FormConfigHandler) GetActive(c *gin.Context) {
	entityType := c.Query("entity_type")
	geography := c.Query("geography")
	if entityType == "" || geography == "" {
		BadRequest(c, "entity_type和geography为必填参数")
		return
	}

	config, err := h.svc.GetActive(c.Request.Context(), entityType, geography)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, config)
}

// ListVersions GET /form-configs/versions?entity_type=&geography=
func (h *FormConfigHandler) ListVersions(c *gin.Context) {
	configs, err := h.svc.ListVersions(c.Request.Context(), c.Query("entity_type"), c.Query("geography"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, configs)
}

// UpdateMetadataRequest 更新表单配置元数据请求
type UpdateMetadataRequest struct {
	Title  string `json:"title"`
	Active *bool  `json:"active"`
}

// UpdateMetadata PATCH /form-configs/:id
// 只能改标题和启用标志，分区定义发布后不可变
func (h *FormConfigHandler) UpdateMetadata(c *gin.Context) {
	var req UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := h.svc.UpdateMetadata(c.Request.Context(), c.Param("id"), req.Title, req.Active); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// ValidateRequest 服务端校验请求
type ValidateRequest struct {
	FormData entity.JSONB `json:"form_data"`
	// Step 为nil时做整表校验
	Step *int `json:"step"`
}

// Validate POST /form-configs/:id/validate
// 把纯函数校验暴露给任意渲染层
func (h *FormConfigHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	config, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}

	if req.Step != nil {
		result, err := h.svc.ValidateStep(config, *req.Step, req.FormData)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		Success(c, result)
		return
	}

	result, err := h.svc.ValidateForm(config, req.FormData)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Success(c, result)
}

// Visibility POST /form-configs/:id/visibility
// 按提交的数据包返回字段/分区可见性
func (h *FormConfigHandler) Visibility(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	config, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}

	vis, _, err := h.svc.ResolveVisibility(config, req.FormData)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Success(c, vis)
}
