package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
	"github.com/bitfantasy/onboard/internal/shared/storage"
)

// UploadHandler 文件上传处理器
type UploadHandler struct {
	store *storage.ObjectStore
}

// NewUploadHandler 创建文件上传处理器
func NewUploadHandler(store *storage.ObjectStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// Upload 处理文档类型字段的文件上传
// POST /uploads
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "无法解析上传文件: "+err.Error())
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		// 也尝试获取单文件
		files = form.File["file"]
	}
	if len(files) == 0 {
		BadRequest(c, "没有上传文件")
		return
	}

	var uploaded []entity.UploadedDocument

	for _, fileHeader := range files {
		src, err := fileHeader.Open()
		if err != nil {
			InternalError(c, "读取上传文件失败: "+err.Error())
			return
		}

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		objectID, err := h.store.Put(c.Request.Context(), src, fileHeader.Size, fileHeader.Filename, contentType)
		src.Close()
		if err != nil {
			InternalError(c, "保存上传文件失败: "+err.Error())
			return
		}

		uploaded = append(uploaded, entity.UploadedDocument{
			ObjectID:   objectID,
			FileName:   fileHeader.Filename,
			Size:       fileHeader.Size,
			MimeType:   contentType,
			UploadedAt: time.Now(),
		})
	}

	Success(c, uploaded)
}

// PresignedURL 获取文档的临时下载地址
// GET /uploads/url?object_id=
func (h *UploadHandler) PresignedURL(c *gin.Context) {
	objectID := c.Query("object_id")
	if objectID == "" {
		BadRequest(c, "object_id不能为空")
		return
	}

	url, err := h.store.PresignedGet(c.Request.Context(), objectID, 15*time.Minute)
	if err != nil {
		InternalError(c, "生成下载地址失败: "+err.Error())
		return
	}
	Success(c, gin.H{"url": url})
}
