package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
	"github.com/bitfantasy/onboard/internal/onboarding/repository"
	"github.com/bitfantasy/onboard/internal/onboarding/validation"
	"github.com/bitfantasy/onboard/internal/onboarding/visibility"
)

const configCacheTTL = 5 * time.Minute

// FormConfigService 表单配置服务
// 配置发布后不可变，读多写少，套一层redis旁路缓存
type FormConfigService struct {
	repo     *repository.FormConfigRepository
	rdb      *redis.Client
	resolver *visibility.Resolver
	logger   *zap.Logger
}

func NewFormConfigService(repo *repository.FormConfigRepository, rdb *redis.Client, logger *zap.Logger) *FormConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormConfigService{
		repo:     repo,
		rdb:      rdb,
		resolver: visibility.NewResolver(logger),
		logger:   logger,
	}
}

// CreateFormConfigRequest 创建表单配置请求
type CreateFormConfigRequest struct {
	EntityType string          `json:"entity_type" binding:"required"`
	Geography  string          `json:"geography" binding:"required"`
	Title      string          `json:"title" binding:"required"`
	Sections   json.RawMessage `json:"sections" binding:"required"`
}

// Create 发布一个新版本的表单配置
func (s *FormConfigService) Create(ctx context.Context, userID string, req *CreateFormConfigRequest) (*entity.FormConfig, error) {
	config := &entity.FormConfig{
		ID:         uuid.New().String()[:32],
		EntityType: req.EntityType,
		Geography:  req.Geography,
		Title:      req.Title,
		Active:     true,
		Sections:   req.Sections,
		CreatedBy:  userID,
	}

	// 发布前确认分区定义能解析
	if _, err := config.ParseSections(); err != nil {
		return nil, err
	}

	version, err := s.repo.NextVersion(ctx, req.EntityType, req.Geography)
	if err != nil {
		return nil, fmt.Errorf("next version: %w", err)
	}
	config.Version = version

	if err := s.repo.Create(ctx, config); err != nil {
		return nil, err
	}
	s.invalidateScope(ctx, req.EntityType, req.Geography)
	return config, nil
}

// Get 按ID取配置，带缓存
func (s *FormConfigService) Get(ctx context.Context, id string) (*entity.FormConfig, error) {
	key := fmt.Sprintf("onboard:form_config:%s", id)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	config, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, key, config)
	return config, nil
}

// GetActive 按(实体类型, 地区)取当前启用的最新版本，带缓存
func (s *FormConfigService) GetActive(ctx context.Context, entityType, geography string) (*entity.FormConfig, error) {
	key := fmt.Sprintf("onboard:form_config:scope:%s:%s", entityType, geography)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	config, err := s.repo.FindActiveByScope(ctx, entityType, geography)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, key, config)
	return config, nil
}

// UpdateMetadata 改标题/启用标志并失效缓存
func (s *FormConfigService) UpdateMetadata(ctx context.Context, id, title string, active *bool) error {
	config, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateMetadata(ctx, id, title, active); err != nil {
		return err
	}
	if s.rdb != nil {
		s.rdb.Del(ctx, fmt.Sprintf("onboard:form_config:%s", id))
	}
	s.invalidateScope(ctx, config.EntityType, config.Geography)
	return nil
}

// ListVersions 某作用域的全部版本
func (s *FormConfigService) ListVersions(ctx context.Context, entityType, geography string) ([]entity.FormConfig, error) {
	return s.repo.FindVersions(ctx, entityType, geography)
}

// ResolveVisibility 计算某份数据下整张表单的可见性
func (s *FormConfigService) ResolveVisibility(config *entity.FormConfig, formData map[string]interface{}) (*visibility.Map, []entity.Section, error) {
	sections, err := config.ParseSections()
	if err != nil {
		return nil, nil, err
	}
	return s.resolver.Resolve(sections, formData), sections, nil
}

// ValidateStep 单步校验，隐藏字段自动排除
func (s *FormConfigService) ValidateStep(config *entity.FormConfig, stepIndex int, formData map[string]interface{}) (validation.StepResult, error) {
	vis, sections, err := s.ResolveVisibility(config, formData)
	if err != nil {
		return validation.StepResult{}, err
	}
	return validation.ValidateStep(stepIndex, formData, sections, vis), nil
}

// ValidateForm 整表校验
func (s *FormConfigService) ValidateForm(config *entity.FormConfig, formData map[string]interface{}) (validation.FormResult, error) {
	vis, sections, err := s.ResolveVisibility(config, formData)
	if err != nil {
		return validation.FormResult{}, err
	}
	return validation.ValidateForm(formData, sections, vis), nil
}

func (s *FormConfigService) fromCache(ctx context.Context, key string) *entity.FormConfig {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var config entity.FormConfig
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		s.logger.Warn("bad form config cache entry", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &config
}

func (s *FormConfigService) toCache(ctx context.Context, key string, config *entity.FormConfig) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(config)
	if err != nil {
		return
	}
	s.rdb.Set(ctx, key, data, configCacheTTL)
}

func (s *FormConfigService) invalidateScope(ctx context.Context, entityType, geography string) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(ctx, fmt.Sprintf("onboard:form_config:scope:%s:%s", entityType, geography))
}
