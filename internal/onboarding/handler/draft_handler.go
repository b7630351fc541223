package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/onboard/internal/onboarding/service"
)

// DraftHandler 草稿处理器
type DraftHandler struct {
	svc *service.DraftService
}

func NewDraftHandler(svc *service.DraftService) *DraftHandler {
	return &DraftHandler{svc: svc}
}

// Create POST /drafts
func (h *DraftHandler) Create(c *gin.Context) {
	var req service.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	draft, err := h.svc.Save(c.Request.Context(), GetOrgID(c), GetUserID(c), "", &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, draft)
}

// Update PUT /drafts/:id
// 必须携带expected_version，版本不符返回40900
func (h *DraftHandler) Update(c *gin.Context) {
	var req service.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	draft, err := h.svc.Save(c.Request.Context(), GetOrgID(c), GetUserID(c), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, draft)
}

// Get GET /drafts/:id
func (h *DraftHandler) Get(c *gin.Context) {
	draft, err := h.svc.Load(c.Request.Context(), GetOrgID(c), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, draft)
}

// List GET /drafts?form_config_id=&mine=1
func (h *DraftHandler) List(c *gin.Context) {
	createdBy := ""
	if c.Query("mine") == "1" {
		createdBy = GetUserID(c)
	}

	summaries, err := h.svc.ListSummaries(c.Request.Context(), GetOrgID(c), createdBy, c.Query("form_config_id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, summaries)
}

// Export GET /drafts/export
func (h *DraftHandler) Export(c *gin.Context) {
	f, err := h.svc.ExportSummaries(c.Request.Context(), GetOrgID(c), "", c.Query("form_config_id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\"onboarding_drafts.xlsx\"")
	c.Header("Content-Transfer-Encoding", "binary")
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, err.Error())
	}
}

// SubmitRequest 提交请求
type SubmitRequest struct {
	ExpectedVersion int `json:"expected_version"`
}

// Submit POST /drafts/:id/submit
// 整表校验不通过时返回400并附带错误分布，不发生状态流转
func (h *DraftHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), GetOrgID(c), c.Param("id"), req.ExpectedVersion)
	if err != nil {
		ServiceError(c, err)
		return
	}
	if !result.IsValid {
		c.JSON(400, Response{
			Code:    40001,
			Message: "表单校验未通过",
			Data:    result,
		})
		return
	}
	Success(c, result)
}

// Delete DELETE /drafts/:id
// 幂等：不存在或不属于调用方也返回成功
func (h *DraftHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetOrgID(c), c.Param("id")); err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, nil)
}
