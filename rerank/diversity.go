package rerank

import (
	"context"

	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/pipeline"
	"github.com/carfin/carreco/pkg/conv"
	"github.com/carfin/carreco/pkg/utils"
)

// Diversity 是品牌多样性重排：贪心单趟 + 延后回填。
//
// 规则：
//   - 前 FreeSlots 个候选无条件接受（不检查品牌重复）
//   - 之后的槽位只接受品牌尚未出现过的候选，重复品牌的候选延后
//   - 单趟结束后，延后候选按原始分数顺序回填，跳过已选，直到 Limit
//
// 品牌来源优先级：label["brand"].Value，其次 meta["brand"]。
// 没有品牌信息的候选不参与品牌判重，直接接受。
type Diversity struct {
	// FreeSlots 无条件接受的头部槽位数，<=0 时取 3
	FreeSlots int

	// Limit 输出上限，<=0 表示不限制
	Limit int
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	freeSlots := n.FreeSlots
	if freeSlots <= 0 {
		freeSlots = 3
	}
	limit := n.Limit
	if limit <= 0 && rctx != nil {
		limit = rctx.Limit
	}
	if limit <= 0 {
		limit = len(items)
	}

	seenBrands := make(map[string]bool, 16)
	selected := make(map[*core.Item]bool, limit)
	out := make([]*core.Item, 0, limit)
	deferred := make([]*core.Item, 0)

	for _, it := range items {
		if it == nil {
			continue
		}
		if len(out) >= limit {
			break
		}

		brand := itemBrand(it)

		// 头部槽位无条件接受
		if len(out) < freeSlots {
			out = append(out, it)
			selected[it] = true
			if brand != "" {
				seenBrands[brand] = true
			}
			continue
		}

		if brand != "" && seenBrands[brand] {
			deferred = append(deferred, it)
			continue
		}

		out = append(out, it)
		selected[it] = true
		if brand != "" {
			seenBrands[brand] = true
		}
	}

	// 延后候选按原始顺序回填
	for _, it := range deferred {
		if len(out) >= limit {
			break
		}
		if selected[it] {
			continue
		}
		out = append(out, it)
		selected[it] = true
		it.PutLabel("diversity_deferred", utils.Label{Value: "true", Source: "rerank"})
	}

	return out, nil
}

// itemBrand 提取候选的品牌：label 优先，meta 兜底。
func itemBrand(it *core.Item) string {
	if it.Labels != nil {
		if lbl, ok := it.Labels["brand"]; ok && lbl.Value != "" {
			return lbl.Value
		}
	}
	if it.Meta != nil {
		if s, ok := conv.ToString(it.Meta["brand"]); ok {
			return s
		}
	}
	return ""
}
