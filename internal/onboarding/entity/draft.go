package entity

import (
	"time"
)

// 申请状态
const (
	StatusDraft           = "draft"
	StatusSubmitted       = "submitted"
	StatusInReview        = "in_review"
	StatusPendingSupplier = "pending_supplier"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

// StatusWritable 返回该状态下草稿层是否允许写入
func StatusWritable(status string) bool {
	switch status {
	case StatusDraft, StatusPendingSupplier:
		return true
	default:
		return false
	}
}

// StatusTerminal 返回该状态是否为终态（审批结束，停止轮询）
func StatusTerminal(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// OnboardingDraft 入驻申请草稿
// Version 用于乐观锁：写入时必须携带读取到的版本号，成功后版本号+1
type OnboardingDraft struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	FormConfigID string    `json:"form_config_id" gorm:"size:32;not null;index"`
	OrgID        string    `json:"org_id" gorm:"size:32;not null;index:idx_onboarding_drafts_scope"`
	CreatedBy    string    `json:"created_by" gorm:"size:32;not null;index:idx_onboarding_drafts_scope"`
	Status       string    `json:"status" gorm:"size:20;not null;default:draft"`
	CurrentStep  int       `json:"current_step" gorm:"not null;default:0"`
	Version      int       `json:"version" gorm:"not null;default:1"`
	FormData     JSONB     `json:"form_data" gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (OnboardingDraft) TableName() string {
	return "onboarding_drafts"
}

// DraftSummary 草稿摘要，用于"继续填写"列表
type DraftSummary struct {
	ID          string    `json:"id"`
	FormTitle   string    `json:"form_title"`
	Status      string    `json:"status"`
	CurrentStep int       `json:"current_step"`
	TotalSteps  int       `json:"total_steps"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UploadedDocument 文档类型字段的值：只保存对象标识和元数据，不搬运字节
type UploadedDocument struct {
	ObjectID   string    `json:"object_id"`
	FileName   string    `json:"file_name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}
