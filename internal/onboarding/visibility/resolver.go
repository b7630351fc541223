package visibility

import (
	"go.uber.org/zap"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
)

// Map 一次解析得到的可见性结果
type Map struct {
	Fields   map[string]bool `json:"fields"`
	Sections map[string]bool `json:"sections"`
	// CyclicKeys 参与依赖环的字段key，这些字段被强制隐藏
	CyclicKeys []string `json:"cyclic_keys,omitempty"`
}

// Resolver 可见性解析器：归一配置、求值、处理依赖环
type Resolver struct {
	logger *zap.Logger
}

func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// ShouldBeVisible 按归一后的配置判断可见性；无配置恒为可见
func ShouldBeVisible(cfg *entity.VisibilityConfig, formData map[string]interface{}) bool {
	if cfg == nil {
		return true
	}
	if cfg.Match == entity.MatchAny {
		for _, rule := range cfg.Rules {
			if Evaluate(rule, formData) {
				return true
			}
		}
		return false
	}
	for _, rule := range cfg.Rules {
		if !Evaluate(rule, formData) {
			return false
		}
	}
	return true
}

// FieldDependencies 字段可见性依赖的字段key列表
func FieldDependencies(field entity.Field) []string {
	cfg := Normalize(field.Visibility)
	if cfg == nil {
		return nil
	}
	keys := make([]string, 0, len(cfg.Rules))
	seen := make(map[string]bool)
	for _, rule := range cfg.Rules {
		if !seen[rule.DependsOn] {
			seen[rule.DependsOn] = true
			keys = append(keys, rule.DependsOn)
		}
	}
	return keys
}

// Resolve 计算整张表单的字段和分区可见性
//
// 规则直接读取扁平的formData，不读取其他字段的计算可见性，
// 所以求值顺序无关紧要；环检测只为暴露配置错误。
// 隐藏字段的值仍参与下游规则求值（陈值继续生效）。
// 隐藏分区强制其所有字段不可见，优先于字段自身配置。
// 环中字段一律隐藏，只发一条诊断日志，不算致命错误。
func (r *Resolver) Resolve(sections []entity.Section, formData map[string]interface{}) *Map {
	result := &Map{
		Fields:   make(map[string]bool),
		Sections: make(map[string]bool),
	}

	fieldConfigs := make(map[string]*entity.VisibilityConfig)
	graph := make(map[string][]string)
	for _, section := range sections {
		for _, field := range section.Fields {
			cfg := Normalize(field.Visibility)
			fieldConfigs[field.Key] = cfg
			if cfg != nil {
				for _, rule := range cfg.Rules {
					graph[field.Key] = append(graph[field.Key], rule.DependsOn)
				}
			}
		}
	}

	cyclic := detectCycles(graph)
	if len(cyclic) > 0 {
		result.CyclicKeys = make([]string, 0, len(cyclic))
		for key := range cyclic {
			result.CyclicKeys = append(result.CyclicKeys, key)
		}
		r.logger.Warn("visibility dependency cycle detected, fields forced hidden",
			zap.Strings("fields", result.CyclicKeys),
		)
	}

	for _, section := range sections {
		sectionVisible := ShouldBeVisible(Normalize(section.Visibility), formData)
		result.Sections[section.Key] = sectionVisible

		for _, field := range section.Fields {
			switch {
			case cyclic[field.Key]:
				result.Fields[field.Key] = false
			case !sectionVisible:
				result.Fields[field.Key] = false
			default:
				result.Fields[field.Key] = ShouldBeVisible(fieldConfigs[field.Key], formData)
			}
		}
	}

	return result
}

const (
	colorWhite = 0 // 未访问
	colorGray  = 1 // 访问中
	colorBlack = 2 // 完成
)

// detectCycles 三色DFS找环：回边指向访问中节点时，
// 当前栈上从该节点起的整段路径都标记为环成员
func detectCycles(graph map[string][]string) map[string]bool {
	color := make(map[string]int)
	cyclic := make(map[string]bool)
	var stack []string

	var visit func(node string)
	visit = func(node string) {
		color[node] = colorGray
		stack = append(stack, node)

		for _, dep := range graph[node] {
			if _, isNode := graph[dep]; !isNode {
				// 依赖的字段自身无可见性规则，不可能成环
				continue
			}
			switch color[dep] {
			case colorWhite:
				visit(dep)
			case colorGray:
				for i := len(stack) - 1; i >= 0; i-- {
					cyclic[stack[i]] = true
					if stack[i] == dep {
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[node] = colorBlack
	}

	for node := range graph {
		if color[node] == colorWhite {
			visit(node)
		}
	}
	return cyclic
}
