package wizard

// Action 向导状态机的动作集，封闭联合
// 状态只能通过Reduce按动作推进，别无他途
type Action interface {
	isAction()
}

// SetField 写入字段值；值未变化时不置脏
type SetField struct {
	Key   string
	Value interface{}
}

// TouchFields 标记字段为已触碰
type TouchFields struct {
	Keys []string
}

// SetErrors 整体替换错误表
type SetErrors struct {
	Errors map[string]string
}

// SetFieldError 设置或清除单个字段的错误，Message为空表示清除
type SetFieldError struct {
	Key     string
	Message string
}

// SetStep 跳到指定步骤（钳制到合法区间）
type SetStep struct {
	Index int
}

// CompleteStep 标记步骤完成
type CompleteStep struct {
	Index int
}

// SetSubmitting 设置提交中标志
type SetSubmitting struct {
	Submitting bool
}

// MarkClean 保存成功后清除脏标志
type MarkClean struct{}

// Reset 整体重置，例如切换到另一份草稿时
type Reset struct {
	FormData    map[string]interface{}
	CurrentStep int
	TotalSteps  int
}

func (SetField) isAction()      {}
func (TouchFields) isAction()   {}
func (SetErrors) isAction()     {}
func (SetFieldError) isAction() {}
func (SetStep) isAction()       {}
func (CompleteStep) isAction()  {}
func (SetSubmitting) isAction() {}
func (MarkClean) isAction()     {}
func (Reset) isAction()         {}
