package validation

import (
	"testing"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
	"github.com/bitfantasy/onboard/internal/onboarding/visibility"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func testSections() []entity.Section {
	return []entity.Section{
		{
			Key:   "basic",
			Label: "基本信息",
			Order: 0,
			Fields: []entity.Field{
				{Key: "supplier_name", Label: "供应商名称", Type: entity.FieldTypeText, Required: true,
					Validation: &entity.FieldValidation{MinLength: intPtr(2), MaxLength: intPtr(100)}},
				{Key: "email", Label: "邮箱", Type: entity.FieldTypeEmail, Required: true},
				{Key: "employee_count", Label: "员工数", Type: entity.FieldTypeNumber,
					Validation: &entity.FieldValidation{Min: floatPtr(1), Max: floatPtr(100000)}},
			},
		},
		{
			Key:   "compliance",
			Label: "合规信息",
			Order: 1,
			Fields: []entity.Field{
				{Key: "certifications", Label: "认证", Type: entity.FieldTypeMultiSelect,
					Options: []entity.FieldOption{{Value: "iso9001"}, {Value: "rohs"}, {Value: "ce"}}},
				{Key: "founded_date", Label: "成立日期", Type: entity.FieldTypeDate},
			},
		},
		{
			Key:   "payment",
			Label: "付款信息",
			Order: 2,
			Fields: []entity.Field{
				{Key: "swift_code", Label: "SWIFT代码", Type: entity.FieldTypeText, Required: true,
					Validation: &entity.FieldValidation{Pattern: "^[A-Z]{6}[A-Z0-9]{2,5}$", PatternMessage: "SWIFT代码格式不正确"}},
			},
		},
	}
}

func allVisible(sections []entity.Section) *visibility.Map {
	return visibility.NewResolver(nil).Resolve(sections, map[string]interface{}{})
}

func TestValidateStepRequired(t *testing.T) {
	sections := testSections()
	result := ValidateStep(0, map[string]interface{}{}, sections, allVisible(sections))

	if result.IsValid {
		t.Fatal("empty data should fail required checks")
	}
	if _, ok := result.Errors["supplier_name"]; !ok {
		t.Fatal("expected error for supplier_name")
	}
	if _, ok := result.Errors["employee_count"]; ok {
		t.Fatal("optional empty field must not error")
	}
	// 按字段声明顺序取第一个错误
	if result.FirstErrorField != "supplier_name" {
		t.Fatalf("expected first error field supplier_name, got %s", result.FirstErrorField)
	}
}

func TestValidateStepConstraints(t *testing.T) {
	sections := testSections()
	vis := allVisible(sections)

	cases := []struct {
		name     string
		step     int
		data     map[string]interface{}
		badField string
	}{
		{"too short", 0, map[string]interface{}{"supplier_name": "A", "email": "a@b.co"}, "supplier_name"},
		{"bad email", 0, map[string]interface{}{"supplier_name": "Acme", "email": "not-an-email"}, "email"},
		{"number out of range", 0, map[string]interface{}{"supplier_name": "Acme", "email": "a@b.co", "employee_count": float64(0)}, "employee_count"},
		{"number junk string", 0, map[string]interface{}{"supplier_name": "Acme", "email": "a@b.co", "employee_count": "lots"}, "employee_count"},
		{"invalid option", 1, map[string]interface{}{"certifications": []interface{}{"iso9001", "fake"}}, "certifications"},
		{"invalid date", 1, map[string]interface{}{"founded_date": "not a date"}, "founded_date"},
		{"pattern mismatch", 2, map[string]interface{}{"swift_code": "nope"}, "swift_code"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := ValidateStep(tc.step, tc.data, sections, vis)
			if result.IsValid {
				t.Fatal("expected validation failure")
			}
			if _, ok := result.Errors[tc.badField]; !ok {
				t.Fatalf("expected error on %s, got %v", tc.badField, result.Errors)
			}
		})
	}
}

func TestValidateStepAcceptsValidData(t *testing.T) {
	sections := testSections()
	vis := allVisible(sections)

	data := map[string]interface{}{
		"supplier_name":  "深圳市精密制造有限公司",
		"email":          "sales@acme.cn",
		"employee_count": "350",
	}
	result := ValidateStep(0, data, sections, vis)
	if !result.IsValid {
		t.Fatalf("expected valid, got errors %v", result.Errors)
	}
	if result.FirstErrorField != "" {
		t.Fatalf("expected no first error field, got %s", result.FirstErrorField)
	}

	result = ValidateStep(1, map[string]interface{}{
		"certifications": []interface{}{"iso9001", "ce"},
		"founded_date":   "2015-06-01",
	}, sections, vis)
	if !result.IsValid {
		t.Fatalf("expected valid, got errors %v", result.Errors)
	}
}

// TestValidateStepSkipsHiddenFields 隐藏字段即使必填且为空也不产生错误
func TestValidateStepSkipsHiddenFields(t *testing.T) {
	sections := testSections()
	vis := allVisible(sections)
	vis.Fields["supplier_name"] = false

	result := ValidateStep(0, map[string]interface{}{"email": "a@b.co"}, sections, vis)
	if _, ok := result.Errors["supplier_name"]; ok {
		t.Fatal("hidden required field must never produce an error")
	}
	if !result.IsValid {
		t.Fatalf("expected valid, got %v", result.Errors)
	}

	// 隐藏字段持有任何值（包括坏值）也不影响有效性
	vis.Fields["swift_code"] = false
	result = ValidateStep(2, map[string]interface{}{"swift_code": float64(12)}, sections, vis)
	if !result.IsValid {
		t.Fatalf("hidden field value must be ignored entirely, got %v", result.Errors)
	}
}

func TestValidateForm(t *testing.T) {
	sections := testSections()
	vis := allVisible(sections)

	data := map[string]interface{}{
		"supplier_name":  "Acme Electronics",
		"email":          "ops@acme.com",
		"employee_count": float64(120),
		"certifications": []interface{}{"rohs"},
		"founded_date":   "2019-03-15",
		"swift_code":     "BKCHCNBJ",
	}
	result := ValidateForm(data, sections, vis)
	if !result.IsValid {
		t.Fatalf("expected valid form, got %v", result.Errors)
	}
	// 三个步骤的错误分区都存在且为空
	if len(result.StepErrors) != 3 {
		t.Fatalf("expected 3 step partitions, got %d", len(result.StepErrors))
	}
	for key, errs := range result.StepErrors {
		if len(errs) != 0 {
			t.Fatalf("step %s should have no errors, got %v", key, errs)
		}
	}

	// 两个步骤各有一个错误时，扁平表和分区表都要体现
	bad := map[string]interface{}{
		"supplier_name": "Acme",
		"email":         "bad",
		"swift_code":    "nope",
	}
	result = ValidateForm(bad, sections, vis)
	if result.IsValid {
		t.Fatal("expected invalid form")
	}
	if _, ok := result.StepErrors["basic"]["email"]; !ok {
		t.Fatalf("expected email error in basic partition, got %v", result.StepErrors)
	}
	if _, ok := result.StepErrors["payment"]["swift_code"]; !ok {
		t.Fatalf("expected swift_code error in payment partition, got %v", result.StepErrors)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 flat errors, got %v", result.Errors)
	}
}

func TestBuildFieldSchemaBadPattern(t *testing.T) {
	field := entity.Field{
		Key: "x", Type: entity.FieldTypeText,
		Validation: &entity.FieldValidation{Pattern: "([unclosed"},
	}
	schema := BuildFieldSchema(field)
	if schema.Pattern != nil {
		t.Fatal("uncompilable pattern must be silently dropped")
	}
	// 坏正则不影响其他校验
	if msg := validateField(schema, "anything"); msg != "" {
		t.Fatalf("expected no error, got %s", msg)
	}
}
