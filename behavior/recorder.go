// Package behavior 负责会话内用户行为的采集、偏好分析与周期投递。
// 一个 Recorder 对应一个用户的一个会话，由调用方显式创建和关闭，
// 不存在进程级全局实例。
package behavior

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carfin/carreco/config"
	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/pkg/logger"
)

// Options 是 Recorder 的可选依赖。
type Options struct {
	Config *config.Config

	// Fallback 用于投递失败时的兜底落盘（容量有限的列表）。
	// 为空则失败批次只保留在内存缓冲中等待下轮重试。
	Fallback core.KeyValueStore

	// SideChannel 记录搜索事件旁路（查询词 + 筛选条件 + 结果数），
	// 供离线侧分析搜索意图。为空则跳过。
	SideChannel core.Store

	// DisableAutoFlush 关闭周期投递（测试用）。
	DisableAutoFlush bool
}

// Recorder 采集单个用户会话内的行为事件。
// 所有方法并发安全；投递（Flush）与采集互不阻塞。
type Recorder struct {
	userID string
	cfg    *config.Config
	sink   Sink

	fallback core.KeyValueStore
	side     core.Store

	mu      sync.Mutex
	session *SessionContext
	log     []*core.Interaction
	// delivered 之前的日志已成功投递；Flush 只发送 log[delivered:]
	delivered int

	// 当前打开的 view 在 log 中的下标，-1 表示无
	openIdx   int
	viewStart time.Time

	// flushMu 串行化并发 Flush，避免同一批次重复投递
	flushMu sync.Mutex

	now       func() time.Time
	done      chan struct{}
	closeOnce sync.Once
}

// NewRecorder 创建用户会话的行为采集器并启动周期投递。
// 调用方负责在会话结束时 Close（触发最后一次投递）。
func NewRecorder(userID string, sink Sink, opts *Options) *Recorder {
	if opts == nil {
		opts = &Options{}
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	r := &Recorder{
		userID:   userID,
		cfg:      cfg,
		sink:     sink,
		fallback: opts.Fallback,
		side:     opts.SideChannel,
		session:  newSessionContext(),
		log:      make([]*core.Interaction, 0, 32),
		openIdx:  -1,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	if !opts.DisableAutoFlush && cfg.Flush.IntervalSec > 0 && sink != nil {
		go r.autoFlush(time.Duration(cfg.Flush.IntervalSec) * time.Second)
	}
	return r
}

// SessionID 返回本会话的标识。
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.SessionID
}

// SetCurrentPage 更新会话当前所在页面。
func (r *Recorder) SetCurrentPage(page string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.CurrentPage = page
}

// StartView 开始一次车辆浏览。
// 若已有打开的浏览，先以当前时刻将其定稿，再开启新的。
func (r *Recorder) StartView(vehicleID string, ictx *core.InteractionContext) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.now()
	r.closeOpenViewLocked(ts)

	it := &core.Interaction{
		ID:         uuid.NewString(),
		UserID:     r.userID,
		VehicleID:  vehicleID,
		Type:       core.InteractionView,
		Timestamp:  ts,
		Confidence: r.cfg.InteractionConfidence(string(core.InteractionView)),
	}
	if ictx != nil {
		it.Context = *ictx
	}

	r.log = append(r.log, it)
	r.openIdx = len(r.log) - 1
	r.viewStart = ts

	r.session.addViewed(vehicleID)
	r.session.pushClick(ClickEvent{
		VehicleID: vehicleID,
		Action:    string(core.InteractionView),
		Position:  it.Context.Position,
		Timestamp: ts,
	}, r.cfg.Session.ClickPatternCap)
}

// EndView 结束当前浏览，按时长定稿置信度。无打开的浏览时为空操作。
func (r *Recorder) EndView() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeOpenViewLocked(r.now())
}

// closeOpenViewLocked 将打开的 view 定稿：写入 duration 并按阶梯表
// 重算置信度。定稿后该记录不再修改。
func (r *Recorder) closeOpenViewLocked(ts time.Time) {
	if r.openIdx < 0 {
		return
	}
	it := r.log[r.openIdx]
	seconds := int(ts.Sub(r.viewStart).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	it.Duration = seconds
	it.Confidence = r.cfg.ViewConfidence(seconds)
	r.openIdx = -1
}

// RecordLike 记录收藏/点赞。
func (r *Recorder) RecordLike(vehicleID string) {
	r.record(vehicleID, core.InteractionLike, nil)
}

// RecordInquiry 记录询价/咨询，inquiryType 区分咨询渠道（电话、在线等）。
func (r *Recorder) RecordInquiry(vehicleID string, inquiryType string) {
	r.record(vehicleID, core.InteractionInquiry, &core.InteractionContext{Source: inquiryType})
}

// RecordTestDrive 记录试驾预约。
func (r *Recorder) RecordTestDrive(vehicleID string) {
	r.record(vehicleID, core.InteractionTestDrive, nil)
}

// RecordShare 记录分享。
func (r *Recorder) RecordShare(vehicleID string) {
	r.record(vehicleID, core.InteractionShare, nil)
}

func (r *Recorder) record(vehicleID string, typ core.InteractionType, ictx *core.InteractionContext) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.now()
	it := &core.Interaction{
		ID:         uuid.NewString(),
		UserID:     r.userID,
		VehicleID:  vehicleID,
		Type:       typ,
		Timestamp:  ts,
		Confidence: r.cfg.InteractionConfidence(string(typ)),
	}
	if ictx != nil {
		it.Context = *ictx
	}
	r.log = append(r.log, it)

	r.session.pushClick(ClickEvent{
		VehicleID: vehicleID,
		Action:    string(typ),
		Timestamp: ts,
	}, r.cfg.Session.ClickPatternCap)
}

// RecordSearch 记录一次搜索。查询词进入会话上下文；
// 完整事件（含筛选条件与结果数）写入旁路存储，失败只记日志。
func (r *Recorder) RecordSearch(ctx context.Context, query string, filters map[string]string, resultCount int) {
	r.mu.Lock()
	r.session.addQuery(query)
	sessionID := r.session.SessionID
	r.mu.Unlock()

	if r.side == nil {
		return
	}
	event := map[string]interface{}{
		"sessionId":   sessionID,
		"userId":      r.userID,
		"query":       query,
		"filters":     filters,
		"resultCount": resultCount,
		"timestamp":   r.now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("behavior: marshal search event: %v", err)
		return
	}
	key := "search:" + sessionID + ":" + uuid.NewString()
	if err := r.side.Set(ctx, key, data); err != nil {
		logger.Error("behavior: record search event: %v", err)
	}
}

// RealtimeContext 返回会话上下文快照。
func (r *Recorder) RealtimeContext() *SessionContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.snapshot(r.now())
}

// AnalyzePreferences 从本会话的完整行为日志推断偏好画像。
func (r *Recorder) AnalyzePreferences() *Preferences {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.analyzeLocked()
}

func (r *Recorder) analyzeLocked() *Preferences {
	total := len(r.log)
	explicit := 0
	totalViews := 0
	viewCounts := make(map[string]int)
	durationSum := 0
	durationCount := 0

	for _, it := range r.log {
		if it.IsExplicit() {
			explicit++
		}
		if it.Type == core.InteractionView {
			totalViews++
			viewCounts[it.VehicleID]++
			if it.Duration > 0 {
				durationSum += it.Duration
				durationCount++
			}
		}
	}

	avgDuration := 0.0
	if durationCount > 0 {
		avgDuration = float64(durationSum) / float64(durationCount)
	}

	engagement := EngagementLow
	if total > 0 {
		ratio := float64(explicit) / float64(total)
		switch {
		case ratio > r.cfg.Engagement.VeryHighRatio:
			engagement = EngagementVeryHigh
		case ratio > r.cfg.Engagement.HighRatio:
			engagement = EngagementHigh
		case total > r.cfg.Engagement.MediumMinTotal:
			engagement = EngagementMedium
		}
	}

	return &Preferences{
		TopVehicles:       topVehicles(viewCounts, totalViews, 10),
		UniqueVehicles:    len(viewCounts),
		TotalInteractions: total,
		ExplicitActions:   explicit,
		AvgViewDuration:   avgDuration,
		Engagement:        engagement,
	}
}

// Flush 投递自上次成功以来累积的行为批次。
// 成功推进已投递水位；失败保留缓冲等待下轮，并把失败批次写入兜底
// 存储（容量有限，超出丢弃最旧）。投递期间新到的事件不会丢失。
func (r *Recorder) Flush(ctx context.Context) error {
	if r.sink == nil {
		return nil
	}
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.mu.Lock()
	pending := len(r.log) - r.delivered
	if pending <= 0 {
		r.mu.Unlock()
		return nil
	}
	// 投递批次是值拷贝：打开中的 view 之后还会在锁内定稿，
	// 不能把可变的指针交给锁外的 sink
	batch := make([]*core.Interaction, 0, pending)
	for _, it := range r.log[r.delivered:] {
		cloned := *it
		batch = append(batch, &cloned)
	}
	now := r.now()
	payload := &Payload{
		SessionID:    r.session.SessionID,
		UserID:       r.userID,
		Interactions: batch,
		Context:      r.session.snapshot(now),
		Preferences:  r.analyzeLocked(),
	}
	r.mu.Unlock()

	dctx := ctx
	if r.cfg.Flush.TimeoutSec > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.Flush.TimeoutSec)*time.Second)
		defer cancel()
	}

	if err := r.sink.Deliver(dctx, payload); err != nil {
		logger.Error("behavior: deliver %d interactions for user %s: %v", len(batch), r.userID, err)
		r.spill(ctx, batch)
		return err
	}

	r.mu.Lock()
	r.delivered += len(batch)
	r.mu.Unlock()
	return nil
}

// spill 把投递失败的批次写入兜底列表并裁剪到容量上限。
// 兜底本身失败不再升级，只记日志。
func (r *Recorder) spill(ctx context.Context, batch []*core.Interaction) {
	if r.fallback == nil {
		return
	}
	key := "behavior:fallback:" + r.userID

	values := make([][]byte, 0, len(batch))
	for _, it := range batch {
		data, err := json.Marshal(it)
		if err != nil {
			logger.Error("behavior: marshal fallback interaction: %v", err)
			continue
		}
		values = append(values, data)
	}
	if len(values) == 0 {
		return
	}
	if err := r.fallback.LPush(ctx, key, values...); err != nil {
		logger.Error("behavior: spill to fallback: %v", err)
		return
	}
	limit := r.cfg.Flush.FallbackCap
	if limit <= 0 {
		limit = 1000
	}
	if err := r.fallback.LTrim(ctx, key, 0, int64(limit-1)); err != nil {
		logger.Error("behavior: trim fallback: %v", err)
	}
}

func (r *Recorder) autoFlush(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// 失败已在 Flush 内记日志并兜底，这里不再处理
			_ = r.Flush(context.Background())
		case <-r.done:
			return
		}
	}
}

// Close 停止周期投递并做最后一次投递。可重复调用。
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.mu.Lock()
	r.closeOpenViewLocked(r.now())
	r.mu.Unlock()
	return r.Flush(context.Background())
}
