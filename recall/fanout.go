package recall

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carfin/carreco/core"
	"github.com/carfin/carreco/pipeline"
	"github.com/carfin/carreco/pkg/logger"
	"github.com/carfin/carreco/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
// 合并按车辆去重：同一车辆出现在多个源时保留分数更高的一条，
// labels 与信号拆解合并，保证解释信息不丢。
// 单个源失败、超时或 panic 只丢弃该源的结果，不中断其他源。
type Fanout struct {
	Sources []Source
	Timeout time.Duration // 每个召回源的超时时间，0 表示不限制
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	var (
		mu    sync.Mutex
		all   []*core.Item
		eg, _ = errgroup.WithContext(ctx)
	)

	for _, src := range n.Sources {
		s := src
		eg.Go(func() error {
			// 源内 panic 与源内错误同等对待：丢弃该源，不中断其他源，
			// 更不能让 panic 穿透到调用方
			defer func() {
				if r := recover(); r != nil {
					logger.Error("recall: source %s panicked: %v", s.Name(), r)
				}
			}()

			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 超时或错误时返回空结果，不中断其他召回源
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				it.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
			}

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return mergeMaxScore(all), nil
}

// mergeMaxScore 按车辆去重：保留分数更高的一条，合并 labels 与信号拆解。
func mergeMaxScore(all []*core.Item) []*core.Item {
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		old, ok := seen[it.VehicleID]
		if !ok {
			seen[it.VehicleID] = it
			out = append(out, it)
			continue
		}

		// 分数取高，低分条目的 labels / scores 并入高分条目
		winner, loser := old, it
		if it.Score > old.Score {
			winner, loser = it, old
			for i, existing := range out {
				if existing == old {
					out[i] = it
					break
				}
			}
			seen[it.VehicleID] = it
		}
		for k, v := range loser.Labels {
			winner.PutLabel(k, v)
		}
		for signal, score := range loser.Scores {
			if _, ok := winner.Scores[signal]; !ok {
				winner.PutScore(signal, score)
			}
		}
	}
	return out
}
