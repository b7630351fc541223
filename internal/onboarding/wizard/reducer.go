package wizard

import (
	"reflect"
)

// Reduce 纯转移函数：(state, action) → state'，无任何I/O
// 原状态不被修改，返回新值
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case SetField:
		if valueEqual(state.FormData[a.Key], a.Value) {
			return state
		}
		next := state
		next.FormData = copyData(state.FormData)
		next.FormData[a.Key] = a.Value
		next.IsDirty = true
		return next

	case TouchFields:
		if len(a.Keys) == 0 {
			return state
		}
		next := state
		next.Touched = copyBoolSet(state.Touched)
		for _, key := range a.Keys {
			next.Touched[key] = true
		}
		return next

	case SetErrors:
		next := state
		next.Errors = copyErrors(a.Errors)
		return next

	case SetFieldError:
		next := state
		next.Errors = copyErrors(state.Errors)
		if a.Message == "" {
			delete(next.Errors, a.Key)
		} else {
			next.Errors[a.Key] = a.Message
		}
		return next

	case SetStep:
		next := state
		next.CurrentStep = clampStep(a.Index, state.TotalSteps)
		return next

	case CompleteStep:
		next := state
		next.CompletedSteps = copyIntSet(state.CompletedSteps)
		next.CompletedSteps[a.Index] = true
		return next

	case SetSubmitting:
		next := state
		next.IsSubmitting = a.Submitting
		return next

	case MarkClean:
		next := state
		next.IsDirty = false
		return next

	case Reset:
		return NewState(a.TotalSteps, a.CurrentStep, copyData(a.FormData))

	default:
		return state
	}
}

// valueEqual 写入前的相等短路，避免无谓置脏
func valueEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	return reflect.DeepEqual(a, b)
}
