package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrConflict 版本冲突：别处已改过这份草稿，调用方应提示"重新加载后重试"
var ErrConflict = errors.New("draft version conflict")

// 保存状态
type Status string

const (
	StatusIdle     Status = "idle"
	StatusSaving   Status = "saving"
	StatusSaved    Status = "saved"
	StatusError    Status = "error"
	StatusConflict Status = "conflict"
)

// SaveRequest 一次草稿保存
type SaveRequest struct {
	DraftID         string // 为空表示首次保存，创建新草稿
	FormConfigID    string
	FormData        map[string]interface{}
	CurrentStep     int
	ExpectedVersion int
}

// SaveResult 保存成功的回执
type SaveResult struct {
	DraftID    string
	NewVersion int
	UpdatedAt  time.Time
}

// Saver 持久化出口；版本冲突必须返回包裹ErrConflict的错误
type Saver interface {
	SaveDraft(ctx context.Context, req SaveRequest) (SaveResult, error)
}

// Snapshot 触发指纹计算的输入
type Snapshot struct {
	FormData          map[string]interface{}
	CurrentStep       int
	HiddenSectionKeys []string
}

// State 协调器对外暴露的状态快照
type State struct {
	Status      Status
	DraftID     string
	Version     int
	LastSavedAt time.Time
	Err         error
}

// Options 协调器配置
type Options struct {
	// Debounce 变更到落盘的去抖窗口，零值用默认2秒
	Debounce time.Duration
	Logger   *zap.Logger
	// OnState 每次状态变化的回调，在协调器goroutine里同步调用
	OnState func(State)
}

// Coordinator 自动保存协调器
// 职责：决定什么时候调持久化、把结果并回状态，绝不阻塞输入
// 同一时刻至多一个保存在途；在途期间的新请求合并成一次尾随保存
type Coordinator struct {
	saver    Saver
	logger   *zap.Logger
	debounce time.Duration
	onState  func(State)

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	timer    *time.Timer
	closed   bool
	inFlight bool
	pending  bool
	latest   Snapshot
	configID string
	draftID  string
	version  int
	savedFP  string
	status   Status
	lastErr  error
	savedAt  time.Time
}

func New(saver Saver, formConfigID string, opts Options) *Coordinator {
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		saver:    saver,
		logger:   opts.Logger,
		debounce: opts.Debounce,
		onState:  opts.OnState,
		ctx:      ctx,
		cancel:   cancel,
		configID: formConfigID,
		version:  1,
		status:   StatusIdle,
	}
}

// SetBaseline 加载已有草稿后校准：已知的草稿ID、版本和已保存内容
func (c *Coordinator) SetBaseline(draftID string, version int, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draftID = draftID
	c.version = version
	c.savedFP = fingerprint(snap)
	c.latest = snap
}

// NoteChange 记录一次相关状态变化
// 指纹与上次保存一致或表单不脏时什么都不做；否则重置去抖定时器
func (c *Coordinator) NoteChange(snap Snapshot, dirty bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.latest = snap
	if !dirty || fingerprint(snap) == c.savedFP {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.fire)
}

// SaveNow 手动保存或步骤切换时立即触发，跳过去抖
func (c *Coordinator) SaveNow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.trigger()
}

// State 当前状态快照
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Status:      c.status,
		DraftID:     c.draftID,
		Version:     c.version,
		LastSavedAt: c.savedAt,
		Err:         c.lastErr,
	}
}

// Close 会话结束：停掉定时器，在途请求的结果不再并回状态
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.cancel()
}

func (c *Coordinator) fire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.timer = nil
	c.trigger()
}

// trigger 调用前必须持有c.mu
func (c *Coordinator) trigger() {
	if fingerprint(c.latest) == c.savedFP {
		return
	}
	if c.inFlight {
		// 合并成一次尾随保存，不排队
		c.pending = true
		return
	}
	c.inFlight = true
	c.setStatus(StatusSaving, nil)
	go c.doSave(c.latest)
}

func (c *Coordinator) doSave(snap Snapshot) {
	c.mu.Lock()
	req := SaveRequest{
		DraftID:         c.draftID,
		FormConfigID:    c.configID,
		FormData:        snap.FormData,
		CurrentStep:     snap.CurrentStep,
		ExpectedVersion: c.version,
	}
	c.mu.Unlock()

	result, err := c.saver.SaveDraft(c.ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if c.closed {
		// 会话已结束，迟到的结果一律丢弃
		return
	}

	if err != nil {
		if errors.Is(err, ErrConflict) {
			c.logger.Warn("draft save conflict", zap.String("draft_id", req.DraftID), zap.Error(err))
			c.setStatus(StatusConflict, err)
		} else {
			c.logger.Warn("draft save failed", zap.String("draft_id", req.DraftID), zap.Error(err))
			c.setStatus(StatusError, err)
		}
		// 保存指纹不动：下次变更或重试会带着新数据再来
		c.pending = false
		return
	}

	c.draftID = result.DraftID
	c.version = result.NewVersion
	c.savedAt = result.UpdatedAt
	c.savedFP = fingerprint(snap)
	c.setStatus(StatusSaved, nil)

	if c.pending {
		c.pending = false
		c.trigger()
	}
}

// setStatus 调用前必须持有c.mu
func (c *Coordinator) setStatus(status Status, err error) {
	c.status = status
	c.lastErr = err
	if c.onState != nil {
		c.onState(State{
			Status:      status,
			DraftID:     c.draftID,
			Version:     c.version,
			LastSavedAt: c.savedAt,
			Err:         err,
		})
	}
}

// fingerprint 稳定序列化：map键序由encoding/json保证，分区key排序后参与
func fingerprint(snap Snapshot) string {
	hidden := append([]string(nil), snap.HiddenSectionKeys...)
	sort.Strings(hidden)
	data, err := json.Marshal(struct {
		FormData    map[string]interface{} `json:"form_data"`
		CurrentStep int                    `json:"current_step"`
		Hidden      []string               `json:"hidden"`
	}{snap.FormData, snap.CurrentStep, hidden})
	if err != nil {
		return ""
	}
	return string(data)
}
