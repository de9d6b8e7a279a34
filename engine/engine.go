// Package engine 是打分引擎：接收推荐请求，按场景分发策略，
// 组装 Pipeline 并产出响应信封。
// 任何失败路径（初始化失败、策略报错、panic）都以合法的兜底响应
// 结束，绝不向调用方抛错。
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carfin/carreco/config"
	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/feature"
	"github.com/carfin/carreco/filter"
	"github.com/carfin/carreco/pipeline"
	"github.com/carfin/carreco/pkg/logger"
	"github.com/carfin/carreco/recall"
	"github.com/carfin/carreco/rerank"
	"github.com/carfin/carreco/similarity"
)

// 响应里的模型标识，调用方靠它区分走了哪条策略。
const (
	ModelPersonalized = "personalized_v1"
	ModelHomepageMix  = "homepage_mix_v1"
	ModelItemSim      = "item_similarity_v1"
	ModelFallback     = "fallback_catalog"
)

// Options 是引擎的可选依赖。
type Options struct {
	Config *config.Config

	// FeatureSources 是初始化时注册到 SimilarityProvider 的车辆
	// 特征来源；为空时默认从目录快照现算（feature.CatalogSource）。
	FeatureSources []feature.Source

	// PopularStore / PopularKey 可选：预计算热度榜所在的有序集合，
	// 配置后热度召回优先读它而不是扫目录历史。
	PopularStore core.KeyValueStore
	PopularKey   string

	// RecallTimeout 单个召回源的超时，0 取 2s。
	RecallTimeout time.Duration
}

// Engine 是推荐打分引擎。并发安全；初始化懒执行且幂等。
type Engine struct {
	cfg      *config.Config
	catalog  *core.Catalog
	provider similarity.Provider

	features      []feature.Source
	popularStore  core.KeyValueStore
	popularKey    string
	recallTimeout time.Duration

	mu          sync.Mutex
	initialized bool
}

// New 创建打分引擎。catalog 与 provider 必须非空。
func New(catalog *core.Catalog, provider similarity.Provider, opts *Options) *Engine {
	if opts == nil {
		opts = &Options{}
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	features := opts.FeatureSources
	if len(features) == 0 {
		features = []feature.Source{&feature.CatalogSource{Popularity: &cfg.Popularity}}
	}

	timeout := opts.RecallTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &Engine{
		cfg:           cfg,
		catalog:       catalog,
		provider:      provider,
		features:      features,
		popularStore:  opts.PopularStore,
		popularKey:    opts.PopularKey,
		recallTimeout: timeout,
	}
}

// Initialize 向 SimilarityProvider 注入历史交互与车辆特征。
// 幂等：成功一次之后再调用直接返回 nil。通常不需要显式调用，
// 第一次 GetRecommendations 会自动触发。
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}
	if e.catalog == nil || e.provider == nil {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"engine: catalog and similarity provider are required")
	}

	// 每个 (user, vehicle) 组恰好提交一次
	for userID, byVehicle := range e.catalog.GroupedHistory() {
		for vehicleID, interactions := range byVehicle {
			if err := e.provider.UpdateUserCarInteraction(ctx, userID, vehicleID, interactions); err != nil {
				return core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable,
					fmt.Sprintf("engine: train interaction %s/%s: %v", userID, vehicleID, err))
			}
		}
	}

	for _, src := range e.features {
		vectors, err := src.Vectors(ctx, e.catalog)
		if err != nil {
			return core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable,
				fmt.Sprintf("engine: feature source %s: %v", src.Name(), err))
		}
		for vehicleID, vec := range vectors {
			if err := e.provider.SetCarFeatures(ctx, vehicleID, vec); err != nil {
				return core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable,
					fmt.Sprintf("engine: register features for %s: %v", vehicleID, err))
			}
		}
	}

	e.initialized = true
	logger.Info("engine: initialized with %d vehicles, %d users, %d interactions",
		len(e.catalog.Vehicles), len(e.catalog.Users), len(e.catalog.History))
	return nil
}

// Initialized 返回引擎是否已完成初始化（诊断用）。
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// UserStats 透传相似度后端的用户统计（诊断用）。
func (e *Engine) UserStats(ctx context.Context, userID string) (*similarity.UserStats, error) {
	if e.provider == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable,
			"engine: similarity provider not configured")
	}
	return e.provider.GetUserStats(ctx, userID)
}

// GetRecommendations 是打分引擎的唯一公共入口。
// 按请求场景分发策略；任何失败（包括 panic）都降级为兜底响应。
func (e *Engine) GetRecommendations(ctx context.Context, req *core.RecommendRequest) (resp *core.RecommendResponse) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("engine: recovered from panic: %v", r)
			resp = e.fallbackResponse(req, start)
		}
	}()

	if req == nil {
		return e.fallbackResponse(nil, start)
	}
	if err := e.Initialize(ctx); err != nil {
		if core.IsUnavailable(err) {
			logger.Error("engine: dependencies unavailable, serving fallback: %v", err)
		} else {
			logger.Error("engine: initialize: %v", err)
		}
		return e.fallbackResponse(req, start)
	}

	rctx := e.buildContext(req)

	var (
		items []*core.Item
		model string
		err   error
	)
	switch rctx.Scene {
	case core.RequestHomepage:
		items, err = e.homepage(ctx, rctx)
		model = ModelHomepageMix
	case core.RequestSimilar:
		items, err = e.similar(ctx, rctx)
		model = ModelItemSim
	case core.RequestSearch:
		// 搜索场景当前复用个性化策略，筛选条件透传到 debug
		items, err = e.personalized(ctx, rctx)
		model = ModelPersonalized
	default:
		items, err = e.personalized(ctx, rctx)
		model = ModelPersonalized
	}
	if err != nil {
		logger.Error("engine: %s strategy: %v", rctx.Scene, err)
		return e.fallbackResponse(req, start)
	}

	pool := len(items)
	topn := &rerank.TopNNode{}
	if items, err = topn.Process(ctx, rctx, items); err != nil {
		logger.Error("engine: truncate: %v", err)
		return e.fallbackResponse(req, start)
	}
	return e.buildResponse(req, rctx, items, pool, model, start)
}

// buildContext 从请求构建 Pipeline 透传上下文。
func (e *Engine) buildContext(req *core.RecommendRequest) *core.RecommendContext {
	limit := req.Context.Limit
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}

	user := req.User
	if user == nil && e.catalog != nil {
		user = e.catalog.User(req.UserID)
	}

	scene := req.Context.Type
	if scene == "" {
		scene = core.RequestPersonalized
	}

	return &core.RecommendContext{
		UserID:           req.UserID,
		Scene:            scene,
		User:             user,
		CurrentVehicleID: req.Context.CurrentVehicleID,
		SearchFilters:    req.Context.SearchFilters,
		Limit:            limit,
		ExcludeIDs:       req.ExcludeVehicleIDs,
	}
}

func (e *Engine) filterNode() *filter.FilterNode {
	return &filter.FilterNode{Filters: []filter.Filter{
		&filter.ExcludeFilter{},
		filter.NewRuleFilter(e.cfg.Rules),
	}}
}

// personalized 组装个性化策略：协同 + 内容匹配并发召回，
// 过滤后按分数排序。截断由调用方统一处理。
func (e *Engine) personalized(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Fanout{
			Sources: []recall.Source{
				&recall.Collaborative{Provider: e.provider, Catalog: e.catalog, Config: &e.cfg.Collaborative},
				&recall.ContentMatch{Catalog: e.catalog, Config: &e.cfg.Content},
			},
			Timeout: e.recallTimeout,
		},
		e.filterNode(),
		&rerank.ScoreSort{},
	}}
	return p.Run(ctx, rctx, nil)
}

// popular 返回过滤排序后的热度候选。
func (e *Engine) popular(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Popular{
			Catalog: e.catalog,
			Config:  &e.cfg.Popularity,
			Store:   e.popularStore,
			Key:     e.popularKey,
		},
		e.filterNode(),
		&rerank.ScoreSort{},
	}}
	return p.Run(ctx, rctx, nil)
}

// homepage 组装首页混合策略：limit 的 70% 来自个性化、30% 来自
// 热度（比例可配）。任一侧不足时由另一侧补足，合并去重后做
// 品牌多样性重排。
func (e *Engine) homepage(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	personalized, err := e.personalized(ctx, rctx)
	if err != nil {
		return nil, err
	}
	popular, err := e.popular(ctx, rctx)
	if err != nil {
		return nil, err
	}

	ratio := e.cfg.Homepage.PersonalizedRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.7
	}
	wantPersonal := int(float64(rctx.Limit)*ratio + 0.5)
	if wantPersonal > rctx.Limit {
		wantPersonal = rctx.Limit
	}

	seen := make(map[string]bool, rctx.Limit)
	mixed := make([]*core.Item, 0, rctx.Limit)
	take := func(items []*core.Item, n int) {
		for _, it := range items {
			if n <= 0 || len(mixed) >= rctx.Limit {
				return
			}
			if seen[it.VehicleID] {
				continue
			}
			seen[it.VehicleID] = true
			mixed = append(mixed, it)
			n--
		}
	}

	take(personalized, wantPersonal)
	take(popular, rctx.Limit-len(mixed))
	// 热度不足时继续用个性化补满
	take(personalized, rctx.Limit-len(mixed))

	diversity := &rerank.Diversity{FreeSlots: e.cfg.Diversity.FreeSlots, Limit: rctx.Limit}
	return diversity.Process(ctx, rctx, mixed)
}

// similar 组装相似车策略。请求没带 currentVehicleId 时返回空结果，
// 这不是错误。
func (e *Engine) similar(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx.CurrentVehicleID == "" {
		return nil, nil
	}
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.ItemSim{Provider: e.provider, Catalog: e.catalog},
		e.filterNode(),
		&rerank.ScoreSort{},
	}}
	return p.Run(ctx, rctx, nil)
}
