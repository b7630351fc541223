package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
	"github.com/bitfantasy/onboard/internal/onboarding/testutil"
)

func seedDraft(t *testing.T, repo *DraftRepository, id string) *entity.OnboardingDraft {
	t.Helper()
	draft := &entity.OnboardingDraft{
		ID:           id,
		FormConfigID: "cfg-001",
		OrgID:        testutil.TestOrgID,
		CreatedBy:    "test-user-001",
		CurrentStep:  0,
		FormData:     entity.JSONB{"company_name": "深圳市测试科技有限公司"},
	}
	if err := repo.Create(context.Background(), draft); err != nil {
		t.Fatalf("Failed to create draft: %v", err)
	}
	return draft
}

func TestCreateDraftInitialVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewDraftRepository(db)

	draft := seedDraft(t, repo, "draft-create-001")

	if draft.Version != 1 {
		t.Errorf("Expected initial version 1, got %d", draft.Version)
	}
	if draft.Status != entity.StatusDraft {
		t.Errorf("Expected status draft, got %s", draft.Status)
	}

	loaded, err := repo.FindByIDScoped(context.Background(), draft.ID, testutil.TestOrgID)
	if err != nil {
		t.Fatalf("Failed to load draft: %v", err)
	}
	if loaded.Version != 1 {
		t.Errorf("Expected persisted version 1, got %d", loaded.Version)
	}
}

func TestUpdateWithVersionIncrements(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewDraftRepository(db)
	ctx := context.Background()

	draft := seedDraft(t, repo, "draft-ver-001")

	draft.FormData = entity.JSONB{"company_name": "深圳市测试科技有限公司", "business_type": "trader"}
	draft.CurrentStep = 1
	if err := repo.UpdateWithVersion(ctx, draft, 1, entity.StatusDraft); err != nil {
		t.Fatalf("First update failed: %v", err)
	}
	if draft.Version != 2 {
		t.Errorf("Expected version 2 after update, got %d", draft.Version)
	}

	loaded, err := repo.FindByIDScoped(ctx, draft.ID, testutil.TestOrgID)
	if err != nil {
		t.Fatalf("Failed to reload draft: %v", err)
	}
	if loaded.Version != 2 {
		t.Errorf("Expected persisted version 2, got %d", loaded.Version)
	}
	if loaded.CurrentStep != 1 {
		t.Errorf("Expected current_step 1, got %d", loaded.CurrentStep)
	}
	if loaded.FormData["business_type"] != "trader" {
		t.Errorf("Expected form_data to carry business_type, got %v", loaded.FormData)
	}
}

func TestUpdateWithStaleVersionConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewDraftRepository(db)
	ctx := context.Background()

	draft := seedDraft(t, repo, "draft-stale-001")

	// 第一次写入成功，版本2
	first := *draft
	first.FormData = entity.JSONB{"company_name": "甲"}
	if err := repo.UpdateWithVersion(ctx, &first, 1, entity.StatusDraft); err != nil {
		t.Fatalf("First update failed: %v", err)
	}

	// 带过期版本再写，应冲突且不落盘
	stale := *draft
	stale.FormData = entity.JSONB{"company_name": "乙"}
	err := repo.UpdateWithVersion(ctx, &stale, 1, entity.StatusDraft)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("Expected ErrVersionConflict, got %v", err)
	}

	loaded, err := repo.FindByIDScoped(ctx, draft.ID, testutil.TestOrgID)
	if err != nil {
		t.Fatalf("Failed to reload draft: %v", err)
	}
	if loaded.Version != 2 {
		t.Errorf("Expected version 2 after rejected write, got %d", loaded.Version)
	}
	if loaded.FormData["company_name"] != "甲" {
		t.Errorf("Stale write must not overwrite winner, got %v", loaded.FormData["company_name"])
	}
}

func TestConcurrentUpdatesExactlyOneWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewDraftRepository(db)
	ctx := context.Background()

	draft := seedDraft(t, repo, "draft-race-001")

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			d := entity.OnboardingDraft{
				ID:       draft.ID,
				OrgID:    testutil.TestOrgID,
				FormData: entity.JSONB{"writer": n},
			}
			errs[n] = repo.UpdateWithVersion(ctx, &d, 1, entity.StatusDraft)
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrVersionConflict):
			conflicts++
		default:
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("Expected exactly one winner, got %d", wins)
	}
	if conflicts != workers-1 {
		t.Errorf("Expected %d conflicts, got %d", workers-1, conflicts)
	}

	loaded, err := repo.FindByIDScoped(ctx, draft.ID, testutil.TestOrgID)
	if err != nil {
		t.Fatalf("Failed to reload draft: %v", err)
	}
	if loaded.Version != 2 {
		t.Errorf("Version must increment exactly once, got %d", loaded.Version)
	}
}

func TestUpdateSubmittedDraftNotEditable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewDraftRepository(db)
	ctx := context.Background()

	draft := seedDraft(t, repo, "draft-locked-001")

	if err := repo.UpdateStatus(ctx, draft.ID, testutil.TestOrgID, entity.StatusDraft, entity.StatusSubmitted, 1); err != nil {
		t.Fatalf("Failed to submit draft: %v", err)
	}

	d := *draft
	d.FormData = entity.JSONB{"company_name": "改"}
	err := repo.UpdateWithVersion(ctx, &d, 2, entity.StatusDraft)
	if !errors.Is(err, ErrNotEditable) {
		t.Fatalf("Expected ErrNotEditable for submitted draft, got %v", err)
	}
}

func TestUpdateMissingDraftNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewDraftRepository(db)

	d := entity.OnboardingDraft{
		ID:       "no-such-draft",
		OrgID:    testutil.TestOrgID,
		FormData: entity.JSONB{},
	}
	err := repo.UpdateWithVersion(context.Background(), &d, 1, entity.StatusDraft)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestFindByIDScopedCrossOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewDraftRepository(db)

	draft := seedDraft(t, repo, "draft-org-001")

	_, err := repo.FindByIDScoped(context.Background(), draft.ID, "org-other")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Cross-org read must look like not found, got %v", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewDraftRepository(db)
	ctx := context.Background()

	draft := seedDraft(t, repo, "draft-del-001")

	if err := repo.Delete(ctx, draft.ID, testutil.TestOrgID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	// 再删一次不报错
	if err := repo.Delete(ctx, draft.ID, testutil.TestOrgID); err != nil {
		t.Fatalf("Second delete must be idempotent: %v", err)
	}

	_, err := repo.FindByIDScoped(ctx, draft.ID, testutil.TestOrgID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
}
