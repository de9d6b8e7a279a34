package rerank

import (
	"context"

	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在重排后截取前 N 个候选。
// N <= 0 时取请求的 Limit。
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.Limit
	}
	if limit <= 0 {
		return items, nil
	}
	if len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
