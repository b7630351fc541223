package visibility

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
)

func visJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal visibility: %v", err)
	}
	return data
}

func paymentSections(t *testing.T) []entity.Section {
	t.Helper()
	return []entity.Section{
		{
			Key:   "payment",
			Label: "付款信息",
			Order: 0,
			Fields: []entity.Field{
				{Key: "payment_method", Type: entity.FieldTypeSelect},
				{
					Key:  "bank_name",
					Type: entity.FieldTypeText,
					Visibility: visJSON(t, entity.VisibilityConfig{
						Match: entity.MatchAll,
						Rules: []entity.VisibilityRule{
							{DependsOn: "payment_method", Condition: "equals", Value: "wire"},
						},
					}),
				},
				{
					Key:  "swift_code",
					Type: entity.FieldTypeText,
					Visibility: visJSON(t, entity.VisibilityConfig{
						Match: entity.MatchAll,
						Rules: []entity.VisibilityRule{
							{DependsOn: "bank_name", Condition: "isNotEmpty"},
						},
					}),
				},
			},
		},
	}
}

func TestResolveNoConfigAlwaysVisible(t *testing.T) {
	sections := []entity.Section{
		{Key: "basic", Fields: []entity.Field{{Key: "name"}, {Key: "email"}}},
	}
	r := NewResolver(nil)

	for _, data := range []map[string]interface{}{nil, {}, {"name": "Acme"}, {"unrelated": float64(1)}} {
		m := r.Resolve(sections, data)
		if !m.Fields["name"] || !m.Fields["email"] || !m.Sections["basic"] {
			t.Fatalf("fields without visibility config must always be visible, got %+v", m)
		}
	}
}

// TestResolveCascade swift_code 自身不直接依赖 payment_method，
// 但 payment_method 改变会通过 bank_name 级联影响它
func TestResolveCascade(t *testing.T) {
	sections := paymentSections(t)
	r := NewResolver(zap.NewNop())

	// wire + bank_name 已填 → swift_code 可见
	m := r.Resolve(sections, map[string]interface{}{
		"payment_method": "wire",
		"bank_name":      "中国银行",
	})
	if !m.Fields["bank_name"] || !m.Fields["swift_code"] {
		t.Fatalf("expected bank_name and swift_code visible, got %+v", m.Fields)
	}

	// 切到 ach：bank_name 隐藏；bank_name 的陈值仍喂给 swift_code 的规则
	m = r.Resolve(sections, map[string]interface{}{
		"payment_method": "ach",
		"bank_name":      "中国银行",
	})
	if m.Fields["bank_name"] {
		t.Fatal("bank_name should hide when payment_method != wire")
	}
	if !m.Fields["swift_code"] {
		t.Fatal("hidden field's stale value still feeds downstream rules")
	}

	// ach 且 bank_name 清空 → swift_code 也隐藏
	m = r.Resolve(sections, map[string]interface{}{
		"payment_method": "ach",
		"bank_name":      "",
	})
	if m.Fields["swift_code"] {
		t.Fatal("swift_code should hide once bank_name is empty")
	}
}

func TestResolveSectionDominatesField(t *testing.T) {
	sections := []entity.Section{
		{Key: "basic", Fields: []entity.Field{{Key: "company_type"}}},
		{
			Key: "factory",
			Visibility: visJSON(t, entity.VisibilityConfig{
				Match: entity.MatchAll,
				Rules: []entity.VisibilityRule{
					{DependsOn: "company_type", Condition: "equals", Value: "manufacturer"},
				},
			}),
			Fields: []entity.Field{
				{Key: "factory_area"}, // 自身无规则
				{
					Key: "cert_list",
					Visibility: visJSON(t, entity.VisibilityConfig{
						Match: entity.MatchAll,
						Rules: []entity.VisibilityRule{
							{DependsOn: "company_type", Condition: "isNotEmpty"},
						},
					}),
				},
			},
		},
	}
	r := NewResolver(nil)

	m := r.Resolve(sections, map[string]interface{}{"company_type": "trader"})
	if m.Sections["factory"] {
		t.Fatal("factory section should be hidden for trader")
	}
	if m.Fields["factory_area"] || m.Fields["cert_list"] {
		t.Fatalf("hidden section must force all its fields hidden, got %+v", m.Fields)
	}

	m = r.Resolve(sections, map[string]interface{}{"company_type": "manufacturer"})
	if !m.Sections["factory"] || !m.Fields["factory_area"] || !m.Fields["cert_list"] {
		t.Fatalf("expected factory section and fields visible, got %+v", m)
	}
}

func TestResolveCycleForcesHidden(t *testing.T) {
	sections := []entity.Section{
		{
			Key: "s",
			Fields: []entity.Field{
				{
					Key: "a",
					Visibility: visJSON(t, entity.VisibilityConfig{
						Match: entity.MatchAll,
						Rules: []entity.VisibilityRule{{DependsOn: "b", Condition: "isNotEmpty"}},
					}),
				},
				{
					Key: "b",
					Visibility: visJSON(t, entity.VisibilityConfig{
						Match: entity.MatchAll,
						Rules: []entity.VisibilityRule{{DependsOn: "a", Condition: "isNotEmpty"}},
					}),
				},
				{Key: "c"},
			},
		},
	}

	core, logs := observer.New(zap.WarnLevel)
	r := NewResolver(zap.New(core))

	for _, data := range []map[string]interface{}{
		{},
		{"a": "x", "b": "y"},
		{"a": "x"},
	} {
		m := r.Resolve(sections, data)
		if m.Fields["a"] || m.Fields["b"] {
			t.Fatalf("cyclic fields must be hidden for data %v, got %+v", data, m.Fields)
		}
		if !m.Fields["c"] {
			t.Fatal("non-cyclic field must evaluate normally")
		}
		if len(m.CyclicKeys) != 2 {
			t.Fatalf("expected 2 cyclic keys, got %v", m.CyclicKeys)
		}
	}

	// 每次Resolve恰好一条诊断
	if got := logs.Len(); got != 3 {
		t.Fatalf("expected exactly one diagnostic per resolve (3 total), got %d", got)
	}
}

func TestResolveSelfCycle(t *testing.T) {
	sections := []entity.Section{
		{
			Key: "s",
			Fields: []entity.Field{
				{
					Key: "a",
					Visibility: visJSON(t, entity.VisibilityConfig{
						Match: entity.MatchAll,
						Rules: []entity.VisibilityRule{{DependsOn: "a", Condition: "isNotEmpty"}},
					}),
				},
			},
		},
	}
	r := NewResolver(nil)
	m := r.Resolve(sections, map[string]interface{}{"a": "filled"})
	if m.Fields["a"] {
		t.Fatal("self-referencing field must be forced hidden")
	}
}

func TestResolveMatchAnyVsAll(t *testing.T) {
	anyCfg := visJSON(t, entity.VisibilityConfig{
		Match: entity.MatchAny,
		Rules: []entity.VisibilityRule{
			{DependsOn: "x", Condition: "equals", Value: "1"},
			{DependsOn: "y", Condition: "equals", Value: "1"},
		},
	})
	allCfg := visJSON(t, entity.VisibilityConfig{
		Match: entity.MatchAll,
		Rules: []entity.VisibilityRule{
			{DependsOn: "x", Condition: "equals", Value: "1"},
			{DependsOn: "y", Condition: "equals", Value: "1"},
		},
	})
	sections := []entity.Section{
		{Key: "s", Fields: []entity.Field{
			{Key: "x"}, {Key: "y"},
			{Key: "any_field", Visibility: anyCfg},
			{Key: "all_field", Visibility: allCfg},
		}},
	}
	r := NewResolver(nil)

	m := r.Resolve(sections, map[string]interface{}{"x": "1", "y": "0"})
	if !m.Fields["any_field"] {
		t.Fatal("match=any should pass with one rule true")
	}
	if m.Fields["all_field"] {
		t.Fatal("match=all should fail with one rule false")
	}
}
