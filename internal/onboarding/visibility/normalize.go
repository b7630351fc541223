package visibility

import (
	"encoding/json"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
)

// Normalize 把历史遗留的各种存储形态归一成规范配置
// 接受：nil、JSON字符串、单条规则、规则数组、{match, rules}对象
// 永不报错：解析不了的输入等同"无可见性限制"，返回nil
func Normalize(raw interface{}) *entity.VisibilityConfig {
	switch v := raw.(type) {
	case nil:
		return nil
	case *entity.VisibilityConfig:
		if v == nil {
			return nil
		}
		return normalizeConfig(v.Match, rulesToAny(v.Rules))
	case entity.VisibilityConfig:
		return normalizeConfig(v.Match, rulesToAny(v.Rules))
	case json.RawMessage:
		return normalizeBytes(v)
	case []byte:
		return normalizeBytes(v)
	case string:
		return normalizeBytes([]byte(v))
	case map[string]interface{}:
		return normalizeMap(v)
	case []interface{}:
		return normalizeConfig(entity.MatchAll, v)
	default:
		return nil
	}
}

func normalizeBytes(data []byte) *entity.VisibilityConfig {
	if len(data) == 0 {
		return nil
	}
	var parsed interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil
	}
	switch v := parsed.(type) {
	case map[string]interface{}:
		return normalizeMap(v)
	case []interface{}:
		return normalizeConfig(entity.MatchAll, v)
	default:
		return nil
	}
}

func normalizeMap(m map[string]interface{}) *entity.VisibilityConfig {
	// {match, rules} 形态
	if rules, ok := m["rules"].([]interface{}); ok {
		match, _ := m["match"].(string)
		return normalizeConfig(match, rules)
	}
	// 裸单条规则
	return normalizeConfig(entity.MatchAll, []interface{}{m})
}

func normalizeConfig(match string, rawRules []interface{}) *entity.VisibilityConfig {
	if match != entity.MatchAny {
		match = entity.MatchAll
	}

	var rules []entity.VisibilityRule
	for _, raw := range rawRules {
		if rule, ok := parseRule(raw); ok {
			rules = append(rules, rule)
		}
	}
	if len(rules) == 0 {
		return nil
	}
	return &entity.VisibilityConfig{Match: match, Rules: rules}
}

// parseRule 解析单条规则，缺依赖字段或条件非法的静默丢弃
func parseRule(raw interface{}) (entity.VisibilityRule, bool) {
	switch v := raw.(type) {
	case entity.VisibilityRule:
		if v.DependsOn == "" || !validCondition(v.Condition) {
			return entity.VisibilityRule{}, false
		}
		return v, true
	case map[string]interface{}:
		dependsOn, _ := v["dependsOn"].(string)
		condition, _ := v["condition"].(string)
		if dependsOn == "" || !validCondition(condition) {
			return entity.VisibilityRule{}, false
		}
		return entity.VisibilityRule{
			DependsOn: dependsOn,
			Condition: condition,
			Value:     v["value"],
		}, true
	default:
		return entity.VisibilityRule{}, false
	}
}

func validCondition(c string) bool {
	switch c {
	case entity.ConditionEquals, entity.ConditionNotEquals, entity.ConditionContains,
		entity.ConditionGreaterThan, entity.ConditionLessThan,
		entity.ConditionIsEmpty, entity.ConditionIsNotEmpty:
		return true
	}
	return false
}

func rulesToAny(rules []entity.VisibilityRule) []interface{} {
	out := make([]interface{}, 0, len(rules))
	for _, r := range rules {
		out = append(out, r)
	}
	return out
}
