package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// 字段类型
const (
	FieldTypeText        = "text"
	FieldTypeTextarea    = "textarea"
	FieldTypeNumber      = "number"
	FieldTypeEmail       = "email"
	FieldTypeTel         = "tel"
	FieldTypeDate        = "date"
	FieldTypeSelect      = "select"
	FieldTypeMultiSelect = "multi-select"
	FieldTypeRadio       = "radio"
	FieldTypeCheckbox    = "checkbox"
	FieldTypeDocument    = "document-upload"
)

// 可见性规则条件
const (
	ConditionEquals      = "equals"
	ConditionNotEquals   = "notEquals"
	ConditionContains    = "contains"
	ConditionGreaterThan = "greaterThan"
	ConditionLessThan    = "lessThan"
	ConditionIsEmpty     = "isEmpty"
	ConditionIsNotEmpty  = "isNotEmpty"
)

// 可见性规则组合方式
const (
	MatchAll = "all"
	MatchAny = "any"
)

// VisibilityRule 单条可见性规则：依赖字段的值满足条件时命中
type VisibilityRule struct {
	DependsOn string      `json:"dependsOn"`
	Condition string      `json:"condition"`
	Value     interface{} `json:"value,omitempty"`
}

// VisibilityConfig 可见性配置（规范形态）
type VisibilityConfig struct {
	Match string           `json:"match"`
	Rules []VisibilityRule `json:"rules"`
}

// FieldValidation 字段校验约束
type FieldValidation struct {
	MinLength      *int     `json:"minLength,omitempty"`
	MaxLength      *int     `json:"maxLength,omitempty"`
	Min            *float64 `json:"min,omitempty"`
	Max            *float64 `json:"max,omitempty"`
	Pattern        string   `json:"pattern,omitempty"`
	PatternMessage string   `json:"patternMessage,omitempty"`
}

// FieldOption 枚举选项
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field 表单字段定义
type Field struct {
	Key         string           `json:"key"`
	Label       string           `json:"label"`
	Type        string           `json:"type"`
	Required    bool             `json:"required"`
	Options     []FieldOption    `json:"options,omitempty"`
	DocTypeID   string           `json:"docTypeId,omitempty"`
	Validation  *FieldValidation `json:"validation,omitempty"`
	Visibility  json.RawMessage  `json:"visibility,omitempty"`
	IsSensitive bool             `json:"isSensitive,omitempty"`
}

// Section 表单分区，对应向导的一个步骤
type Section struct {
	Key        string          `json:"key"`
	Label      string          `json:"label"`
	Order      int             `json:"order"`
	Visibility json.RawMessage `json:"visibility,omitempty"`
	Fields     []Field         `json:"fields"`
}

// FormConfig 表单配置：按(实体类型, 地区)维度的版本化表单定义
// 一旦发布版本不可变，新版本为新行
type FormConfig struct {
	ID         string          `json:"id" gorm:"primaryKey;size:32"`
	EntityType string          `json:"entity_type" gorm:"size:50;not null;index:idx_form_configs_scope"`
	Geography  string          `json:"geography" gorm:"size:50;not null;index:idx_form_configs_scope"`
	Version    int             `json:"version" gorm:"not null;default:1"`
	Title      string          `json:"title" gorm:"size:200;not null"`
	Active     bool            `json:"active" gorm:"default:true"`
	Sections   json.RawMessage `json:"sections" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedBy  string          `json:"created_by" gorm:"size:32;not null"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (FormConfig) TableName() string {
	return "onboarding_form_configs"
}

// ParseSections 解析分区定义并按Order排序
func (f *FormConfig) ParseSections() ([]Section, error) {
	if len(f.Sections) == 0 {
		return nil, nil
	}
	var sections []Section
	if err := json.Unmarshal(f.Sections, &sections); err != nil {
		return nil, fmt.Errorf("parse form config sections: %w", err)
	}
	for i := 1; i < len(sections); i++ {
		for j := i; j > 0 && sections[j].Order < sections[j-1].Order; j-- {
			sections[j], sections[j-1] = sections[j-1], sections[j]
		}
	}
	return sections, nil
}

// FieldByKey 按key查找字段
func FieldByKey(sections []Section, key string) (*Field, bool) {
	for si := range sections {
		for fi := range sections[si].Fields {
			if sections[si].Fields[fi].Key == key {
				return &sections[si].Fields[fi], true
			}
		}
	}
	return nil, false
}
