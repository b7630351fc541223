package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
	"gorm.io/gorm"
)

// DraftRepository 入驻草稿仓库
type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// Create 创建草稿，初始版本固定为1
func (r *DraftRepository) Create(ctx context.Context, draft *entity.OnboardingDraft) error {
	draft.Status = entity.StatusDraft
	draft.Version = 1
	return r.db.WithContext(ctx).Create(draft).Error
}

// FindByIDScoped 按归属组织取草稿，不区分"不存在"和"不属于你"
func (r *DraftRepository) FindByIDScoped(ctx context.Context, id, orgID string) (*entity.OnboardingDraft, error) {
	var draft entity.OnboardingDraft
	err := r.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &draft, nil
}

// UpdateWithVersion 带乐观锁的整包写入
//
// 单条条件UPDATE完成比较和写入：只有归属、状态、版本全部匹配才落盘，
// 版本号在同一语句里+1，不存在并发读者看到新版本旧数据的窗口。
// 零行命中时再查一次当前记录，区分不存在、状态不可写、版本冲突三种拒绝。
func (r *DraftRepository) UpdateWithVersion(ctx context.Context, draft *entity.OnboardingDraft, expectedVersion int, expectedStatus string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&entity.OnboardingDraft{}).
		Where("id = ? AND org_id = ? AND status = ? AND version = ?",
			draft.ID, draft.OrgID, expectedStatus, expectedVersion).
		Updates(map[string]interface{}{
			"form_data":    draft.FormData,
			"current_step": draft.CurrentStep,
			"status":       expectedStatus,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var current entity.OnboardingDraft
		err := r.db.WithContext(ctx).
			Select("version", "status").
			Where("id = ? AND org_id = ?", draft.ID, draft.OrgID).
			First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if current.Status != expectedStatus {
			return ErrNotEditable
		}
		return ErrVersionConflict
	}
	draft.Version = expectedVersion + 1
	draft.Status = expectedStatus
	draft.UpdatedAt = now
	return nil
}

// UpdateStatus 状态流转（如提交），同样走乐观锁
func (r *DraftRepository) UpdateStatus(ctx context.Context, id, orgID, fromStatus, toStatus string, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&entity.OnboardingDraft{}).
		Where("id = ? AND org_id = ? AND status = ? AND version = ?",
			id, orgID, fromStatus, expectedVersion).
		Updates(map[string]interface{}{
			"status":     toStatus,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// FindByScope 某组织的草稿列表，最近更新在前
func (r *DraftRepository) FindByScope(ctx context.Context, orgID, createdBy, formConfigID string, statuses []string) ([]entity.OnboardingDraft, error) {
	query := r.db.WithContext(ctx).Where("org_id = ?", orgID)
	if createdBy != "" {
		query = query.Where("created_by = ?", createdBy)
	}
	if formConfigID != "" {
		query = query.Where("form_config_id = ?", formConfigID)
	}
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var drafts []entity.OnboardingDraft
	err := query.Order("updated_at DESC").Find(&drafts).Error
	return drafts, err
}

// Delete 幂等删除：不存在、不属于、状态不符都静默跳过
func (r *DraftRepository) Delete(ctx context.Context, id, orgID string) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND org_id = ? AND status = ?", id, orgID, entity.StatusDraft).
		Delete(&entity.OnboardingDraft{}).Error
}
