package recall

import (
	"context"
	"fmt"

	"github.com/carfin/carreco/config"
	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/similarity"
)

// Collaborative 是基于用户的协同召回源（User-based）。
//
// 核心思想："兴趣相似的用户，喜欢相似的车"
//
// 流程：
//  1. 向 SimilarityProvider 取 TopK 相似用户（k 可配，默认 10）
//  2. 最多消费前 SimilarUsersUse 个（默认 5）
//  3. 取每个相似用户最近偏好的车辆（like/save/detail_view，最近 10 辆）
//  4. score = 用户相似度 × Weight（默认 0.8），理由引用相似度百分比
//
// 相似度数学完全在 Provider 侧，本源只做消费与封装。
type Collaborative struct {
	Provider similarity.Provider
	Catalog  *core.Catalog
	Config   *config.CollaborativeConfig
}

func (r *Collaborative) Name() string { return "recall.collaborative" }

func (r *Collaborative) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Provider == nil || r.Catalog == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	cfg := r.Config
	if cfg == nil {
		cfg = &config.Default().Collaborative
	}

	similarUsers, err := r.Provider.FindSimilarUsers(ctx, rctx.UserID, cfg.SimilarUsersK)
	if err != nil {
		return nil, err
	}
	if len(similarUsers) > cfg.SimilarUsersUse {
		similarUsers = similarUsers[:cfg.SimilarUsersUse]
	}

	favoredTypes := make([]core.InteractionType, 0, len(cfg.FavoredTypes))
	for _, t := range cfg.FavoredTypes {
		favoredTypes = append(favoredTypes, core.InteractionType(t))
	}

	seen := make(map[string]*core.Item)
	out := make([]*core.Item, 0)

	for _, su := range similarUsers {
		favored := r.Catalog.FavoredVehicles(su.UserID, favoredTypes, cfg.FavoritesPerUser)
		for _, vehicleID := range favored {
			score := su.Similarity * cfg.Weight
			if old, ok := seen[vehicleID]; ok {
				// 多个相似用户命中同一辆车：保留更高分
				if score > old.Score {
					old.Score = score
					old.PutScore("collaborative", score)
				}
				continue
			}

			it := core.NewItem(vehicleID)
			it.Score = score
			it.PutScore("collaborative", score)
			it.Meta["similarity"] = su.Similarity
			it.AddReason(fmt.Sprintf("liked by users with %d%% similar taste", int(su.Similarity*100)), "collaborative")
			if v := r.Catalog.Vehicle(vehicleID); v != nil {
				it.Meta["brand"] = v.Brand
				it.Meta["category"] = v.Category
			}
			seen[vehicleID] = it
			out = append(out, it)
		}
	}

	return out, nil
}
