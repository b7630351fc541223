package wizard

// State 一次编辑会话的向导运行时状态
// 不直接持久化，从加载的草稿重建；会话结束即销毁
type State struct {
	FormData       map[string]interface{} `json:"form_data"`
	Touched        map[string]bool        `json:"touched"`
	Errors         map[string]string      `json:"errors"`
	CurrentStep    int                    `json:"current_step"`
	CompletedSteps map[int]bool           `json:"completed_steps"`
	IsDirty        bool                   `json:"is_dirty"`
	IsSubmitting   bool                   `json:"is_submitting"`
	TotalSteps     int                    `json:"total_steps"`
}

// NewState 初始状态：步骤钳制到[0, totalSteps-1]，无触碰无错误
func NewState(totalSteps, currentStep int, formData map[string]interface{}) State {
	if formData == nil {
		formData = map[string]interface{}{}
	}
	return State{
		FormData:       formData,
		Touched:        map[string]bool{},
		Errors:         map[string]string{},
		CurrentStep:    clampStep(currentStep, totalSteps),
		CompletedSteps: map[int]bool{},
		TotalSteps:     totalSteps,
	}
}

func clampStep(step, totalSteps int) int {
	if totalSteps <= 0 {
		return 0
	}
	if step < 0 {
		return 0
	}
	if step > totalSteps-1 {
		return totalSteps - 1
	}
	return step
}

func copyData(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyBoolSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyIntSet(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyErrors(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
