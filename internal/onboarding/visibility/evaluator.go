package visibility

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
)

// Evaluate 对单条规则求值：依赖字段的当前值是否满足条件
// 纯函数，坏数据一律返回false，不抛错
func Evaluate(rule entity.VisibilityRule, formData map[string]interface{}) bool {
	current := formData[rule.DependsOn]

	switch rule.Condition {
	case entity.ConditionEquals:
		return deepEqual(current, rule.Value)
	case entity.ConditionNotEquals:
		return !deepEqual(current, rule.Value)
	case entity.ConditionContains:
		return contains(current, rule.Value)
	case entity.ConditionGreaterThan:
		a, aok := toNumber(current)
		b, bok := toNumber(rule.Value)
		return aok && bok && a > b
	case entity.ConditionLessThan:
		a, aok := toNumber(current)
		b, bok := toNumber(rule.Value)
		return aok && bok && a < b
	case entity.ConditionIsEmpty:
		return isEmpty(current)
	case entity.ConditionIsNotEmpty:
		return !isEmpty(current)
	default:
		return false
	}
}

// deepEqual 深度结构相等：数组按序逐元素，对象按键集+值，数字跨类型按数值比较
func deepEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if an, aok := toFloat(a); aok {
		if bn, bok := toFloat(b); bok {
			return an == bn
		}
		return false
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, exists := bv[k]
			if !exists || !deepEqual(v, bval) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

func contains(current, value interface{}) bool {
	switch cv := current.(type) {
	case []interface{}:
		for _, elem := range cv {
			if deepEqual(elem, value) {
				return true
			}
		}
		return false
	case string:
		needle := fmt.Sprintf("%v", value)
		return strings.Contains(strings.ToLower(cv), strings.ToLower(needle))
	default:
		return false
	}
}

// toNumber 数值强制转换，数字字符串也接受；失败返回false
func toNumber(v interface{}) (float64, bool) {
	if n, ok := toFloat(v); ok {
		return n, true
	}
	if s, ok := v.(string); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// isEmpty 判空：nil、纯空白字符串、空数组、无键对象为空；日期永不为空
func isEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	case entity.JSONB:
		return len(val) == 0
	case entity.JSONBArray:
		return len(val) == 0
	case time.Time:
		return false
	default:
		return false
	}
}
