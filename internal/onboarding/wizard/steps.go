package wizard

import (
	"errors"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
	"github.com/bitfantasy/onboard/internal/onboarding/validation"
	"github.com/bitfantasy/onboard/internal/onboarding/visibility"
)

// ErrNoVisibleSteps 数据使所有分区都不可见，向导无路可走
var ErrNoVisibleSteps = errors.New("no applicable sections")

// VisibleSteps 可见分区的原始步骤下标，保持声明顺序
func VisibleSteps(sections []entity.Section, vis *visibility.Map) []int {
	var steps []int
	for i, section := range sections {
		if vis == nil || vis.Sections[section.Key] {
			steps = append(steps, i)
		}
	}
	return steps
}

// Advance 尝试前进一步：先校验当前步骤，通过才标记完成并走到下一个可见步骤
// 校验失败时返回带错误和触碰标记的状态，步骤不动
// 已在最后一个可见步骤时停在原地并标记完成，由调用方触发提交流程
func Advance(state State, sections []entity.Section, vis *visibility.Map) (State, validation.StepResult, error) {
	visible := VisibleSteps(sections, vis)
	if len(visible) == 0 {
		return state, validation.StepResult{}, ErrNoVisibleSteps
	}

	result := validation.ValidateStep(state.CurrentStep, state.FormData, sections, vis)
	if !result.IsValid {
		next := Reduce(state, SetErrors{Errors: result.Errors})
		keys := make([]string, 0, len(result.Errors))
		for key := range result.Errors {
			keys = append(keys, key)
		}
		next = Reduce(next, TouchFields{Keys: keys})
		return next, result, nil
	}

	next := Reduce(state, CompleteStep{Index: state.CurrentStep})
	next = Reduce(next, SetErrors{Errors: nil})

	if target, ok := nextVisible(visible, state.CurrentStep); ok {
		next = Reduce(next, SetStep{Index: target})
	}
	return next, result, nil
}

// Retreat 回退到上一个可见步骤，不做校验
func Retreat(state State, sections []entity.Section, vis *visibility.Map) (State, error) {
	visible := VisibleSteps(sections, vis)
	if len(visible) == 0 {
		return state, ErrNoVisibleSteps
	}
	if target, ok := prevVisible(visible, state.CurrentStep); ok {
		return Reduce(state, SetStep{Index: target}), nil
	}
	return state, nil
}

// IsLastVisibleStep 当前步骤是否为最后一个可见步骤
func IsLastVisibleStep(state State, sections []entity.Section, vis *visibility.Map) bool {
	visible := VisibleSteps(sections, vis)
	return len(visible) > 0 && visible[len(visible)-1] == state.CurrentStep
}

// nextVisible 严格大于current的第一个可见下标
func nextVisible(visible []int, current int) (int, bool) {
	for _, idx := range visible {
		if idx > current {
			return idx, true
		}
	}
	return 0, false
}

// prevVisible 严格小于current的最后一个可见下标
func prevVisible(visible []int, current int) (int, bool) {
	for i := len(visible) - 1; i >= 0; i-- {
		if visible[i] < current {
			return visible[i], true
		}
	}
	return 0, false
}
