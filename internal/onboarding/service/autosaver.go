package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/onboard/internal/onboarding/autosave"
	"github.com/bitfantasy/onboard/internal/onboarding/entity"
	"github.com/bitfantasy/onboard/internal/onboarding/repository"
)

// DraftSaver 把草稿服务接到自动保存协调器的持久化出口上
// 一个实例绑定一个会话的调用方身份
type DraftSaver struct {
	svc    *DraftService
	orgID  string
	userID string
}

func NewDraftSaver(svc *DraftService, orgID, userID string) *DraftSaver {
	return &DraftSaver{svc: svc, orgID: orgID, userID: userID}
}

func (s *DraftSaver) SaveDraft(ctx context.Context, req autosave.SaveRequest) (autosave.SaveResult, error) {
	draft, err := s.svc.Save(ctx, s.orgID, s.userID, req.DraftID, &SaveDraftRequest{
		FormConfigID:    req.FormConfigID,
		FormData:        entity.JSONB(req.FormData),
		CurrentStep:     req.CurrentStep,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return autosave.SaveResult{}, fmt.Errorf("save draft %s: %w", req.DraftID, autosave.ErrConflict)
		}
		return autosave.SaveResult{}, err
	}
	return autosave.SaveResult{
		DraftID:    draft.ID,
		NewVersion: draft.Version,
		UpdatedAt:  draft.UpdatedAt,
	}, nil
}
