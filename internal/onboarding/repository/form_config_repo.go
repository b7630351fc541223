package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
	"gorm.io/gorm"
)

// FormConfigRepository 表单配置仓库
type FormConfigRepository struct {
	db *gorm.DB
}

func NewFormConfigRepository(db *gorm.DB) *FormConfigRepository {
	return &FormConfigRepository{db: db}
}

// FindByID 根据ID查找表单配置
func (r *FormConfigRepository) FindByID(ctx context.Context, id string) (*entity.FormConfig, error) {
	var config entity.FormConfig
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &config, nil
}

// FindActiveByScope 按(实体类型, 地区)取最新的启用版本
func (r *FormConfigRepository) FindActiveByScope(ctx context.Context, entityType, geography string) (*entity.FormConfig, error) {
	var config entity.FormConfig
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND geography = ? AND active = true", entityType, geography).
		Order("version DESC").
		First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &config, nil
}

// NextVersion 该作用域下一个版本号
func (r *FormConfigRepository) NextVersion(ctx context.Context, entityType, geography string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&entity.FormConfig{}).
		Where("entity_type = ? AND geography = ?", entityType, geography).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Create 创建表单配置（发布即不可变，新版本为新行）
func (r *FormConfigRepository) Create(ctx context.Context, config *entity.FormConfig) error {
	return r.db.WithContext(ctx).Create(config).Error
}

// UpdateMetadata 只允许改元数据：标题和启用标志，分区定义不可变
func (r *FormConfigRepository) UpdateMetadata(ctx context.Context, id, title string, active *bool) error {
	updates := map[string]interface{}{}
	if title != "" {
		updates["title"] = title
	}
	if active != nil {
		updates["active"] = *active
	}
	if len(updates) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&entity.FormConfig{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindVersions 列出某作用域的全部版本，新版本在前
func (r *FormConfigRepository) FindVersions(ctx context.Context, entityType, geography string) ([]entity.FormConfig, error) {
	var configs []entity.FormConfig
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND geography = ?", entityType, geography).
		Order("version DESC").
		Find(&configs).Error
	return configs, err
}
