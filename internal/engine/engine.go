// Package engine 排课冲突引擎
//
// 负责教师可用性登记、教室/教师占用索引、带时效的临时预留、
// 预留提交为正式排课以及贪心自动排课。所有变更操作在同一把协调锁内串行执行，
// 保证任何时刻都不存在教室或教师在同一格子被重复占用。
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Config 引擎配置
type Config struct {
	DefaultHoldTTL time.Duration // 未指定时长时的默认预留时长
	MaxHoldTTL     time.Duration // 预留时长上限（含延期）
	SweepInterval  time.Duration // 主动过期扫描间隔
	HoldRetention  time.Duration // 终态预留的保留时长，<=0 表示不清理
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		DefaultHoldTTL: 5 * time.Minute,
		MaxHoldTTL:     30 * time.Minute,
		SweepInterval:  10 * time.Second,
		HoldRetention:  time.Hour,
	}
}

// Option 引擎可选项
type Option func(*Engine)

// WithClock 注入时钟（测试中使用 clockwork.NewFakeClock）
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithStore 注入持久层，默认 MemoryStore
func WithStore(s Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithMetrics 注入指标上报
func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithIDGenerator 注入 ID 生成器，默认 uuid
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// Engine 排课引擎入口
type Engine struct {
	cfg     Config
	refs    ReferenceProvider
	clock   clockwork.Clock
	store   Store
	metrics Metrics
	logger  *zap.Logger
	newID   func() string

	registry *AvailabilityRegistry
	index    *ConflictIndex
	holds    *HoldManager
	final    *FinalizationService
	assigner *AutomaticAssigner
}

// New 创建引擎；启动时应先调用 Restore 再对外服务
func New(cfg Config, refs ReferenceProvider, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		refs:     refs,
		clock:    clockwork.NewRealClock(),
		store:    NewMemoryStore(),
		metrics:  nopMetrics{},
		logger:   zap.NewNop(),
		newID:    uuid.NewString,
		registry: NewAvailabilityRegistry(),
		index:    NewConflictIndex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.DefaultHoldTTL <= 0 {
		e.cfg.DefaultHoldTTL = DefaultConfig().DefaultHoldTTL
	}
	if e.cfg.SweepInterval <= 0 {
		e.cfg.SweepInterval = DefaultConfig().SweepInterval
	}

	e.holds = newHoldManager(e)
	e.final = newFinalizationService(e, e.holds)
	e.assigner = newAutomaticAssigner(e, e.holds, e.final)
	return e
}

// Restore 从持久层恢复可用性、排课记录与 active 预留，重建占用索引
// 排课记录先于预留恢复；已到期的预留直接标记为 expired
func (e *Engine) Restore(ctx context.Context) error {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("加载排课状态失败: %w", err)
	}

	e.holds.mu.Lock()
	defer e.holds.mu.Unlock()

	for professorID, grid := range snap.Availability {
		if err := e.registry.Set(professorID, grid); err != nil {
			e.logger.Warn("跳过无效的可用性网格", zap.String("professor_id", professorID), zap.Error(err))
		}
	}
	for _, a := range snap.Attributions {
		e.final.restoreLocked(a)
	}
	now := e.clock.Now()
	for _, h := range snap.Holds {
		e.holds.restoreLocked(ctx, h, now)
	}

	e.logger.Info("排课状态已恢复",
		zap.Int("availability", len(snap.Availability)),
		zap.Int("attributions", len(snap.Attributions)),
		zap.Int("holds", len(snap.Holds)),
		zap.Int("active_holds", e.holds.active),
	)
	return nil
}

// Run 启动主动过期扫描，阻塞直到 ctx 结束
func (e *Engine) Run(ctx context.Context) {
	e.holds.Run(ctx, e.cfg.SweepInterval)
}

// Config 返回生效中的配置
func (e *Engine) Config() Config { return e.cfg }

// ── 可用性 ──

// SetAvailability 整表替换教师的周可用性
// 已存在的预留与排课不受影响，可用性只在创建预留时校验
func (e *Engine) SetAvailability(ctx context.Context, professorID string, grid Grid) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	if _, err := e.refs.Professor(ctx, professorID); err != nil {
		return err
	}

	e.holds.mu.Lock()
	defer e.holds.mu.Unlock()

	if err := e.store.SaveAvailability(ctx, professorID, grid); err != nil {
		return fmt.Errorf("保存可用性失败: %w", err)
	}
	if err := e.registry.Set(professorID, grid); err != nil {
		return err
	}
	e.logger.Info("教师可用性已更新",
		zap.String("professor_id", professorID),
		zap.Int("available_slots", len(grid.AvailableSlots())),
	)
	return nil
}

// GetAvailability 未登记的教师返回空网格（全部不可用）
func (e *Engine) GetAvailability(ctx context.Context, professorID string) (Grid, error) {
	if _, err := e.refs.Professor(ctx, professorID); err != nil {
		return nil, err
	}
	g, _ := e.registry.Get(professorID)
	return g, nil
}

// ── 临时预留 ──

// ProposeHoldRequest 人工创建预留的参数
type ProposeHoldRequest struct {
	ProfessorID string
	RoomID      string
	CourseID    string
	ProgrammeID string // 为空时取课程实例的培养方案
	Group       int    // 为 0 时取课程实例的班组
	Slot        Slot
	TTL         time.Duration // 为 0 时使用默认时长
	CreatedBy   string
}

// ProposeHold 查询参考数据后创建临时预留
func (e *Engine) ProposeHold(ctx context.Context, req ProposeHoldRequest) (Hold, error) {
	preq, err := e.buildProposal(ctx, req)
	if err != nil {
		e.metrics.ProposalRejected(Kind(err))
		return Hold{}, err
	}
	return e.holds.Propose(ctx, preq)
}

func (e *Engine) buildProposal(ctx context.Context, req ProposeHoldRequest) (ProposeRequest, error) {
	if !req.Slot.Valid() {
		return ProposeRequest{}, fmt.Errorf("%w: %s", ErrInvalidSlot, req.Slot)
	}
	if _, err := e.refs.Professor(ctx, req.ProfessorID); err != nil {
		return ProposeRequest{}, err
	}
	room, err := e.refs.Room(ctx, req.RoomID)
	if err != nil {
		return ProposeRequest{}, err
	}
	course, err := e.refs.CourseInstance(ctx, req.CourseID)
	if err != nil {
		return ProposeRequest{}, err
	}
	if !course.Eligible(req.ProfessorID) {
		return ProposeRequest{}, ErrProfessorNotEligible
	}

	programme, group := req.ProgrammeID, req.Group
	if programme == "" {
		programme = course.ProgrammeID
	}
	if group == 0 {
		group = course.Group
	}
	ttl := req.TTL
	if ttl == 0 {
		ttl = e.cfg.DefaultHoldTTL
	}

	return ProposeRequest{
		Placement: Placement{
			ProfessorID: req.ProfessorID,
			RoomID:      room.ID,
			CourseID:    course.ID,
			ProgrammeID: programme,
			Group:       group,
			Slot:        req.Slot,
		},
		Room:        room,
		Requirement: course.Requirement(),
		TTL:         ttl,
		CreatedBy:   req.CreatedBy,
	}, nil
}

func (e *Engine) GetHold(ctx context.Context, holdID string) (Hold, error) {
	return e.holds.Get(ctx, holdID)
}

// CommitHold 提交预留，返回排课记录
func (e *Engine) CommitHold(ctx context.Context, holdID, committedBy string) (Attribution, error) {
	return e.final.Commit(ctx, holdID, committedBy)
}

func (e *Engine) CancelHold(ctx context.Context, holdID string) (Hold, error) {
	return e.final.Cancel(ctx, holdID)
}

// ExtendHold 延长预留，extra 必须为正且延期后的剩余时长不超过上限
func (e *Engine) ExtendHold(ctx context.Context, holdID string, extra time.Duration) (Hold, error) {
	return e.holds.Extend(ctx, holdID, extra)
}

func (e *Engine) ListActiveHolds(filter HoldFilter) []Hold {
	return e.holds.ListActive(filter)
}

// Sweep 立即执行一次过期扫描
func (e *Engine) Sweep(ctx context.Context) int {
	return e.holds.Sweep(ctx)
}

// ── 排课记录 ──

func (e *Engine) GetAttribution(attributionID string) (Attribution, error) {
	return e.final.Get(attributionID)
}

func (e *Engine) ListAttributions(filter AttributionFilter) []Attribution {
	return e.final.List(filter)
}

func (e *Engine) RevertAttribution(ctx context.Context, attributionID string) error {
	return e.final.Revert(ctx, attributionID)
}

// ── 自动排课 ──

// RunAutomaticAssignment 对指定课程实例执行自动排课
// 任一课程 ID 不存在时整批失败且不做任何修改；重复的 ID 只处理一次
func (e *Engine) RunAutomaticAssignment(ctx context.Context, courseIDs []string, opts AssignOptions) (AssignmentResult, error) {
	seen := make(map[string]struct{}, len(courseIDs))
	courses := make([]CourseInstance, 0, len(courseIDs))
	for _, id := range courseIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		c, err := e.refs.CourseInstance(ctx, id)
		if err != nil {
			return AssignmentResult{}, fmt.Errorf("课程 %s: %w", id, err)
		}
		courses = append(courses, c)
	}

	rooms, err := e.refs.Rooms(ctx)
	if err != nil {
		return AssignmentResult{}, fmt.Errorf("查询教室失败: %w", err)
	}
	if opts.HoldTTL == 0 {
		opts.HoldTTL = e.cfg.DefaultHoldTTL
	}
	if err := e.holds.checkTTL(opts.HoldTTL); err != nil {
		return AssignmentResult{}, err
	}
	return e.assigner.Run(ctx, courses, rooms, opts)
}

// ── 查询 ──

// FreeSlots 按规范顺序返回教师可用、且教师与教室均空闲的格子
func (e *Engine) FreeSlots(ctx context.Context, professorID, roomID string) ([]Slot, error) {
	if _, err := e.refs.Professor(ctx, professorID); err != nil {
		return nil, err
	}
	if _, err := e.refs.Room(ctx, roomID); err != nil {
		return nil, err
	}

	e.holds.mu.RLock()
	defer e.holds.mu.RUnlock()

	slots := make([]Slot, 0)
	for _, s := range AllSlots() {
		if !e.registry.IsAvailable(professorID, s) {
			continue
		}
		if e.freeLocked(roomID, professorID, s) {
			slots = append(slots, s)
		}
	}
	return slots, nil
}

// freeLocked 到期未扫描的预留视为空闲
func (e *Engine) freeLocked(roomID, professorID string, s Slot) bool {
	now := e.clock.Now()
	for _, holder := range e.holders(roomID, professorID, s) {
		if h, ok := e.holds.holds[holder]; ok && h.Status == HoldActive && !now.Before(h.ExpiresAt) {
			continue
		}
		return false
	}
	return true
}

func (e *Engine) holders(roomID, professorID string, s Slot) []string {
	var ids []string
	if id, taken := e.index.RoomHolder(roomID, s); taken {
		ids = append(ids, id)
	}
	if id, taken := e.index.ProfessorHolder(professorID, s); taken {
		ids = append(ids, id)
	}
	return ids
}
