package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict 乐观锁失败：携带的版本号与存储版本不一致
	ErrVersionConflict = errors.New("version conflict")
	// ErrNotEditable 记录已不在可写状态
	ErrNotEditable = errors.New("record not editable")
)

// Repositories 入驻模块仓库集合
type Repositories struct {
	FormConfig *FormConfigRepository
	Draft      *DraftRepository
}

// NewRepositories 创建入驻模块仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		FormConfig: NewFormConfigRepository(db),
		Draft:      NewDraftRepository(db),
	}
}
