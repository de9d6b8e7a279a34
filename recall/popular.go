package recall

import (
	"context"
	"sort"

	"github.com/carfin/carreco/config"
	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/pipeline"
)

// Popular 是热度召回源。
// 热度 = 按交互类型加权的计数（click 1 / long_hover 2 / like 5 / save 8 /
// detail_view 3 / compare_add 4 / skip -1），除以 Norm 后截断到 1。
//
// 读取优先级：
//   - 如果配置了 KeyValueStore，优先用 ZRange 读预计算的热度榜
//   - 否则从目录历史现算（请求期开销可控：单次全量扫描）
type Popular struct {
	Catalog *core.Catalog
	Config  *config.PopularityConfig

	// Store / Key 可选：预计算热度榜所在的有序集合
	Store core.KeyValueStore
	Key   string
}

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Popular) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	cfg := r.Config
	if cfg == nil {
		cfg = &config.Default().Popularity
	}

	limit := 100
	if rctx != nil && rctx.Limit > 0 {
		limit = rctx.Limit * 4 // 给后续过滤/重排留余量
	}

	// 优先从 Store 读取预计算热度榜
	if r.Store != nil && r.Key != "" {
		if items, err := r.recallFromStore(ctx, cfg, limit); err == nil && len(items) > 0 {
			return items, nil
		}
	}

	return r.recallFromCatalog(cfg, limit), nil
}

func (r *Popular) recallFromStore(ctx context.Context, cfg *config.PopularityConfig, limit int) ([]*core.Item, error) {
	members, err := r.Store.ZRange(ctx, r.Key, 0, int64(limit-1))
	if err != nil || len(members) == 0 {
		return nil, err
	}

	out := make([]*core.Item, 0, len(members))
	for _, vehicleID := range members {
		raw, err := r.Store.ZScore(ctx, r.Key, vehicleID)
		if err != nil {
			continue
		}
		out = append(out, r.buildItem(vehicleID, normalize(raw, cfg.Norm)))
	}
	return out, nil
}

func (r *Popular) recallFromCatalog(cfg *config.PopularityConfig, limit int) []*core.Item {
	if r.Catalog == nil {
		return nil
	}

	counts := make(map[string]float64)
	for _, it := range r.Catalog.History {
		if it == nil {
			continue
		}
		if w, ok := cfg.Weights[string(it.Type)]; ok {
			counts[it.VehicleID] += w
		}
	}

	out := make([]*core.Item, 0, len(counts))
	for vehicleID, raw := range counts {
		out = append(out, r.buildItem(vehicleID, normalize(raw, cfg.Norm)))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *Popular) buildItem(vehicleID string, score float64) *core.Item {
	it := core.NewItem(vehicleID)
	it.Score = score
	it.PutScore("popularity", score)
	it.AddReason("popular with other buyers", "popularity")
	if r.Catalog != nil {
		if v := r.Catalog.Vehicle(vehicleID); v != nil {
			it.Meta["brand"] = v.Brand
			it.Meta["category"] = v.Category
		}
	}
	return it
}

// normalize 将加权计数归一到 [0, 1]。
func normalize(raw, norm float64) float64 {
	if norm <= 0 {
		norm = 100
	}
	score := raw / norm
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}
