package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/bitfantasy/onboard/internal/onboarding/entity"
)

// StatusGate 申请状态门：告诉草稿层当前状态能不能写，
// 以及"待补充"状态下哪些字段开放编辑（审核意见推导的白名单，由评审侧计算）
// 完整的审批流转矩阵不在这里实现，这只是被消费的合同
type StatusGate interface {
	Writable(status string) bool
	// EditableFields 返回白名单和是否受限；不受限时全部可见字段可编辑
	EditableFields(ctx context.Context, draftID, status string) ([]string, bool, error)
}

// RedisStatusGate 默认实现：可写性查薄表，白名单从评审服务写入的redis键读取
type RedisStatusGate struct {
	rdb *redis.Client
}

func NewRedisStatusGate(rdb *redis.Client) *RedisStatusGate {
	return &RedisStatusGate{rdb: rdb}
}

func (g *RedisStatusGate) Writable(status string) bool {
	return entity.StatusWritable(status)
}

func editableFieldsKey(draftID string) string {
	return fmt.Sprintf("onboard:editable_fields:%s", draftID)
}

func (g *RedisStatusGate) EditableFields(ctx context.Context, draftID, status string) ([]string, bool, error) {
	if status != entity.StatusPendingSupplier {
		return nil, false, nil
	}
	if g.rdb == nil {
		return nil, false, nil
	}
	raw, err := g.rdb.Get(ctx, editableFieldsKey(draftID)).Result()
	if errors.Is(err, redis.Nil) {
		// 评审侧还没写白名单，按全部锁死处理
		return []string{}, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load editable fields: %w", err)
	}
	var fields []string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, false, fmt.Errorf("parse editable fields: %w", err)
	}
	return fields, true, nil
}
