package validation

import (
	"regexp"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
)

// FieldSchema 从字段类型和约束袋推导出的校验描述符
type FieldSchema struct {
	Key            string
	Label          string
	Type           string
	Required       bool
	MinLength      *int
	MaxLength      *int
	Min            *float64
	Max            *float64
	Pattern        *regexp.Regexp
	PatternMessage string
	// Options 枚举值白名单，为空表示不限
	Options []string
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	telPattern   = regexp.MustCompile(`^\+?[\d\s\-()]{5,20}$`)
)

// BuildFieldSchema 构建字段校验描述符
// 非法的正则约束静默忽略，坏配置不能让校验崩溃
func BuildFieldSchema(field entity.Field) FieldSchema {
	schema := FieldSchema{
		Key:      field.Key,
		Label:    field.Label,
		Type:     field.Type,
		Required: field.Required,
	}
	if schema.Label == "" {
		schema.Label = field.Key
	}

	for _, opt := range field.Options {
		schema.Options = append(schema.Options, opt.Value)
	}

	v := field.Validation
	if v == nil {
		return schema
	}
	schema.MinLength = v.MinLength
	schema.MaxLength = v.MaxLength
	schema.Min = v.Min
	schema.Max = v.Max
	if v.Pattern != "" {
		if re, err := regexp.Compile(v.Pattern); err == nil {
			schema.Pattern = re
			schema.PatternMessage = v.PatternMessage
		}
	}
	return schema
}
