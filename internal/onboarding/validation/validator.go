package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
	"github.com/bitfantasy/onboard/internal/onboarding/visibility"
)

// StepResult 单步校验结果
type StepResult struct {
	IsValid bool `json:"is_valid"`
	// Errors 字段key → 错误文案，校验错误只返回不抛出
	Errors map[string]string `json:"errors"`
	// FirstErrorField 按字段声明顺序第一个出错的key，调用方用于聚焦
	FirstErrorField string `json:"first_error_field,omitempty"`
}

// FormResult 整表校验结果：按分区分组的错误分布加扁平错误表
type FormResult struct {
	IsValid    bool                         `json:"is_valid"`
	Errors     map[string]string            `json:"errors"`
	StepErrors map[string]map[string]string `json:"step_errors"`
}

// ValidateStep 校验一个向导步骤（一个分区）的字段
// 可见性表中标记为false的字段完全跳过：隐藏字段无论什么值都不影响有效性
func ValidateStep(stepIndex int, formData map[string]interface{}, sections []entity.Section, vis *visibility.Map) StepResult {
	result := StepResult{IsValid: true, Errors: map[string]string{}}
	if stepIndex < 0 || stepIndex >= len(sections) {
		return result
	}

	for _, field := range sections[stepIndex].Fields {
		if vis != nil {
			if visible, ok := vis.Fields[field.Key]; ok && !visible {
				continue
			}
		}
		if msg := validateField(BuildFieldSchema(field), formData[field.Key]); msg != "" {
			result.Errors[field.Key] = msg
			result.IsValid = false
			if result.FirstErrorField == "" {
				result.FirstErrorField = field.Key
			}
		}
	}
	return result
}

// ValidateForm 对每个步骤执行ValidateStep并聚合
func ValidateForm(formData map[string]interface{}, sections []entity.Section, vis *visibility.Map) FormResult {
	result := FormResult{
		IsValid:    true,
		Errors:     map[string]string{},
		StepErrors: map[string]map[string]string{},
	}
	for i, section := range sections {
		step := ValidateStep(i, formData, sections, vis)
		result.StepErrors[section.Key] = step.Errors
		for key, msg := range step.Errors {
			result.Errors[key] = msg
		}
		if !step.IsValid {
			result.IsValid = false
		}
	}
	return result
}

func validateField(schema FieldSchema, value interface{}) string {
	if valueAbsent(schema.Type, value) {
		if schema.Required {
			return fmt.Sprintf("%s为必填项", schema.Label)
		}
		return ""
	}

	switch schema.Type {
	case entity.FieldTypeNumber:
		return validateNumber(schema, value)
	case entity.FieldTypeDate:
		return validateDate(schema, value)
	case entity.FieldTypeEmail:
		s, ok := value.(string)
		if !ok || !emailPattern.MatchString(s) {
			return fmt.Sprintf("%s格式不正确", schema.Label)
		}
		return validateString(schema, s)
	case entity.FieldTypeTel:
		s, ok := value.(string)
		if !ok || !telPattern.MatchString(s) {
			return fmt.Sprintf("%s格式不正确", schema.Label)
		}
		return ""
	case entity.FieldTypeMultiSelect:
		return validateMultiSelect(schema, value)
	case entity.FieldTypeSelect, entity.FieldTypeRadio:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("%s格式不正确", schema.Label)
		}
		if len(schema.Options) > 0 && !optionAllowed(schema.Options, s) {
			return fmt.Sprintf("%s不是有效选项", schema.Label)
		}
		return ""
	case entity.FieldTypeCheckbox:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("%s格式不正确", schema.Label)
		}
		return ""
	case entity.FieldTypeDocument:
		return validateDocument(schema, value)
	default:
		// text / textarea 以及未知类型按字符串处理
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("%s格式不正确", schema.Label)
		}
		return validateString(schema, s)
	}
}

// valueAbsent 值是否视为"未填"；number字段的空字符串也算未填
func valueAbsent(fieldType string, value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}

func validateString(schema FieldSchema, s string) string {
	length := len([]rune(s))
	if schema.MinLength != nil && length < *schema.MinLength {
		return fmt.Sprintf("%s至少%d个字符", schema.Label, *schema.MinLength)
	}
	if schema.MaxLength != nil && length > *schema.MaxLength {
		return fmt.Sprintf("%s最多%d个字符", schema.Label, *schema.MaxLength)
	}
	if schema.Pattern != nil && !schema.Pattern.MatchString(s) {
		if schema.PatternMessage != "" {
			return schema.PatternMessage
		}
		return fmt.Sprintf("%s格式不正确", schema.Label)
	}
	return ""
}

func validateNumber(schema FieldSchema, value interface{}) string {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Sprintf("%s必须是数字", schema.Label)
		}
		n = parsed
	default:
		return fmt.Sprintf("%s必须是数字", schema.Label)
	}

	if schema.Min != nil && n < *schema.Min {
		return fmt.Sprintf("%s不能小于%v", schema.Label, *schema.Min)
	}
	if schema.Max != nil && n > *schema.Max {
		return fmt.Sprintf("%s不能大于%v", schema.Label, *schema.Max)
	}
	return ""
}

func validateDate(schema FieldSchema, value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return fmt.Sprintf("%s格式不正确", schema.Label)
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return ""
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return ""
	}
	return fmt.Sprintf("%s不是有效日期", schema.Label)
}

func validateMultiSelect(schema FieldSchema, value interface{}) string {
	items, ok := value.([]interface{})
	if !ok {
		return fmt.Sprintf("%s格式不正确", schema.Label)
	}
	if len(schema.Options) == 0 {
		return ""
	}
	for _, item := range items {
		s, ok := item.(string)
		if !ok || !optionAllowed(schema.Options, s) {
			return fmt.Sprintf("%s含有无效选项", schema.Label)
		}
	}
	return ""
}

// validateDocument 文档字段的值是对象ID字符串或带object_id的元数据对象
func validateDocument(schema FieldSchema, value interface{}) string {
	switch v := value.(type) {
	case string:
		return ""
	case map[string]interface{}:
		if id, _ := v["object_id"].(string); id == "" {
			return fmt.Sprintf("%s上传记录缺少文件标识", schema.Label)
		}
		return ""
	default:
		return fmt.Sprintf("%s格式不正确", schema.Label)
	}
}

func optionAllowed(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
