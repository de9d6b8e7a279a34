package rerank

import (
	"context"
	"sort"

	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/pipeline"
)

// ScoreSort 按 Score 降序稳定排序。
// 召回合并后的候选顺序不保证，多样性重排和截断都假设输入有序，
// 所以通常紧跟在过滤之后。
type ScoreSort struct{}

func (n *ScoreSort) Name() string {
	return "rerank.score_sort"
}

func (n *ScoreSort) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *ScoreSort) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return items, nil
}
