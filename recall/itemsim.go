package recall

import (
	"context"
	"fmt"

	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/pipeline"
	"github.com/carfin/carreco/similarity"
)

// ItemSim 是相似车召回源："我在看这辆，还有哪些像它"。
// 直接委托 SimilarityProvider 的 item-similarity 查询，limit 封顶。
// 请求没带 CurrentVehicleID 时返回空列表，不算错误。
type ItemSim struct {
	Provider similarity.Provider
	Catalog  *core.Catalog
}

func (r *ItemSim) Name() string        { return "recall.item_sim" }
func (r *ItemSim) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *ItemSim) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *ItemSim) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Provider == nil || rctx == nil || rctx.CurrentVehicleID == "" {
		return nil, nil
	}

	k := rctx.Limit
	if k <= 0 {
		k = 10
	}

	similar, err := r.Provider.FindSimilarCars(ctx, rctx.CurrentVehicleID, k)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(similar))
	for _, sc := range similar {
		it := core.NewItem(sc.CarID)
		it.Score = sc.Similarity
		it.PutScore("collaborative", sc.Similarity)
		it.Meta["similarity"] = sc.Similarity
		it.AddReason(fmt.Sprintf("%d%% similar to the vehicle you are viewing", int(sc.Similarity*100)), "item_sim")
		if r.Catalog != nil {
			if v := r.Catalog.Vehicle(sc.CarID); v != nil {
				it.Meta["brand"] = v.Brand
				it.Meta["category"] = v.Category
			}
		}
		out = append(out, it)
	}
	return out, nil
}
