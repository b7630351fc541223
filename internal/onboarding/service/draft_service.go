package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
	"github.com/bitfantasy/onboard/internal/onboarding/repository"
	"github.com/bitfantasy/onboard/internal/onboarding/validation"
)

// DraftService 草稿服务：乐观并发保护下的草稿增删改查
type DraftService struct {
	drafts  *repository.DraftRepository
	configs *FormConfigService
	gate    StatusGate
	logger  *zap.Logger
}

func NewDraftService(drafts *repository.DraftRepository, configs *FormConfigService, gate StatusGate, logger *zap.Logger) *DraftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftService{drafts: drafts, configs: configs, gate: gate, logger: logger}
}

// SaveDraftRequest 保存草稿请求
type SaveDraftRequest struct {
	FormConfigID    string       `json:"form_config_id" binding:"required"`
	FormData        entity.JSONB `json:"form_data"`
	CurrentStep     int          `json:"current_step"`
	ExpectedVersion int          `json:"expected_version"`
}

// Save 创建或更新草稿
//
// 无draftID时创建：版本从1起，状态强制draft，别的输入改不了它。
// 有draftID时整包替换form_data和步骤，必须携带读取时的版本号；
// 归属不符按不存在处理，版本不符返回冲突，状态不可写直接拒绝。
func (s *DraftService) Save(ctx context.Context, orgID, userID, draftID string, req *SaveDraftRequest) (*entity.OnboardingDraft, error) {
	config, err := s.configs.Get(ctx, req.FormConfigID)
	if err != nil {
		return nil, err
	}
	sections, err := config.ParseSections()
	if err != nil {
		return nil, err
	}
	step := req.CurrentStep
	if step < 0 {
		step = 0
	}
	if len(sections) > 0 && step > len(sections)-1 {
		step = len(sections) - 1
	}

	formData := req.FormData
	if formData == nil {
		formData = entity.JSONB{}
	}

	if draftID == "" {
		draft := &entity.OnboardingDraft{
			ID:           uuid.New().String()[:32],
			FormConfigID: config.ID,
			OrgID:        orgID,
			CreatedBy:    userID,
			CurrentStep:  step,
			FormData:     formData,
		}
		if err := s.drafts.Create(ctx, draft); err != nil {
			return nil, fmt.Errorf("create draft: %w", err)
		}
		return draft, nil
	}

	current, err := s.drafts.FindByIDScoped(ctx, draftID, orgID)
	if err != nil {
		return nil, err
	}
	if !s.gate.Writable(current.Status) {
		return nil, repository.ErrNotEditable
	}

	// 待补充状态只放开评审指定的字段，其余保留库里的值
	if allowed, restricted, gateErr := s.gate.EditableFields(ctx, draftID, current.Status); gateErr != nil {
		return nil, gateErr
	} else if restricted {
		formData = mergeAllowed(current.FormData, formData, allowed)
	}

	draft := &entity.OnboardingDraft{
		ID:          draftID,
		OrgID:       orgID,
		CurrentStep: step,
		FormData:    formData,
	}
	if err := s.drafts.UpdateWithVersion(ctx, draft, req.ExpectedVersion, current.Status); err != nil {
		return nil, err
	}

	draft.FormConfigID = current.FormConfigID
	draft.CreatedBy = current.CreatedBy
	draft.CreatedAt = current.CreatedAt
	return draft, nil
}

// Load 取回一份可继续编辑的草稿
// 不属于调用方、或状态已不可写的，一律当不存在，不泄露记录是否存在
func (s *DraftService) Load(ctx context.Context, orgID, draftID string) (*entity.OnboardingDraft, error) {
	draft, err := s.drafts.FindByIDScoped(ctx, draftID, orgID)
	if err != nil {
		return nil, err
	}
	if !s.gate.Writable(draft.Status) {
		return nil, repository.ErrNotFound
	}
	return draft, nil
}

// Submit 整表校验通过后草稿转为已提交
// 返回的校验结果非nil且不通过时不发生状态流转
func (s *DraftService) Submit(ctx context.Context, orgID, draftID string, expectedVersion int) (*validation.FormResult, error) {
	draft, err := s.drafts.FindByIDScoped(ctx, draftID, orgID)
	if err != nil {
		return nil, err
	}
	if draft.Status != entity.StatusDraft {
		return nil, repository.ErrNotEditable
	}

	config, err := s.configs.Get(ctx, draft.FormConfigID)
	if err != nil {
		return nil, err
	}
	result, err := s.configs.ValidateForm(config, draft.FormData)
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		return &result, nil
	}

	if err := s.drafts.UpdateStatus(ctx, draftID, orgID, entity.StatusDraft, entity.StatusSubmitted, expectedVersion); err != nil {
		return nil, err
	}
	s.logger.Info("onboarding draft submitted",
		zap.String("draft_id", draftID),
		zap.String("org_id", orgID),
	)
	return &result, nil
}

// ListSummaries 可恢复草稿的摘要列表，最近更新在前
func (s *DraftService) ListSummaries(ctx context.Context, orgID, createdBy, formConfigID string) ([]entity.DraftSummary, error) {
	drafts, err := s.drafts.FindByScope(ctx, orgID, createdBy, formConfigID,
		[]string{entity.StatusDraft, entity.StatusPendingSupplier})
	if err != nil {
		return nil, err
	}

	summaries := make([]entity.DraftSummary, 0, len(drafts))
	for _, draft := range drafts {
		summary := entity.DraftSummary{
			ID:          draft.ID,
			Status:      draft.Status,
			CurrentStep: draft.CurrentStep,
			UpdatedAt:   draft.UpdatedAt,
		}
		if config, err := s.configs.Get(ctx, draft.FormConfigID); err == nil {
			summary.FormTitle = config.Title
			if sections, err := config.ParseSections(); err == nil {
				summary.TotalSteps = len(sections)
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Delete 幂等删除
func (s *DraftService) Delete(ctx context.Context, orgID, draftID string) error {
	return s.drafts.Delete(ctx, draftID, orgID)
}

var summaryExportHeaders = []string{"草稿ID", "表单", "状态", "当前步骤", "总步骤", "最后保存时间"}

// ExportSummaries 草稿摘要导出为xlsx
func (s *DraftService) ExportSummaries(ctx context.Context, orgID, createdBy, formConfigID string) (*excelize.File, error) {
	summaries, err := s.ListSummaries(ctx, orgID, createdBy, formConfigID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "草稿列表"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, h := range summaryExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for row, summary := range summaries {
		values := []interface{}{
			summary.ID,
			summary.FormTitle,
			summary.Status,
			summary.CurrentStep + 1,
			summary.TotalSteps,
			summary.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			name, _ := excelize.ColumnNumberToName(col + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", name, row+2), v)
		}
	}
	return f, nil
}

// mergeAllowed 以库里的数据为底，只接受白名单字段的新值
func mergeAllowed(stored, incoming entity.JSONB, allowed []string) entity.JSONB {
	merged := entity.JSONB{}
	for k, v := range stored {
		merged[k] = v
	}
	for _, key := range allowed {
		if v, ok := incoming[key]; ok {
			merged[key] = v
		}
	}
	return merged
}
